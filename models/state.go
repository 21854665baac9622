package models

import (
	"fmt"
	"time"
)

// RunStatus - состояние движка.
type RunStatus string

const (
	StatusIdle       RunStatus = "idle"
	StatusRunning    RunStatus = "running"
	StatusCancelling RunStatus = "cancelling"
)

// RunState создается при старте прогона и сбрасывается при его завершении или ошибке.
type RunState struct {
	Status       RunStatus  `json:"status"`
	Running      bool       `json:"running"`
	PointCounter int        `json:"point_counter"`
	TotalPoints  int        `json:"total_points"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	Progress     string     `json:"progress,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
}

// Progress - оценка хода сканирования.
type Progress struct {
	Done      int           `json:"done"`
	Total     int           `json:"total"`
	Elapsed   time.Duration `json:"elapsed"`
	Remaining time.Duration `json:"remaining"`
}

// EstimateProgress считает оставшееся время как elapsed * (total - done) / done.
// done начинается с 1, поэтому деления на ноль не бывает.
func EstimateProgress(done, total int, elapsed time.Duration) Progress {
	p := Progress{Done: done, Total: total, Elapsed: elapsed}
	if done <= 0 {
		return p
	}
	elapsedS := int64(elapsed / time.Second)
	perPoint := float64(elapsedS) / float64(done)
	remainingS := int64(float64(total-done) * perPoint)
	if remainingS < 0 {
		remainingS = 0
	}
	p.Remaining = time.Duration(remainingS) * time.Second
	return p
}

// HoursMinutes раскладывает длительность на целые часы и минуты (секунды отбрасываются).
func HoursMinutes(d time.Duration) (int, int) {
	minutes := int(d / time.Minute)
	return minutes / 60, minutes % 60
}

func (p Progress) String() string {
	eh, em := HoursMinutes(p.Elapsed)
	rh, rm := HoursMinutes(p.Remaining)
	return fmt.Sprintf("point %d/%d, elapsed: %dh %dm, remaining: %dh %dm", p.Done, p.Total, eh, em, rh, rm)
}
