package entities

import "time"

const (
	RunStatusRunning     = "running"
	RunStatusFinished    = "finished"
	RunStatusStopped     = "stopped"
	RunStatusFailed      = "failed"
	RunStatusInterrupted = "interrupted"
)

// RunRecord - запись истории прогонов.
type RunRecord struct {
	ID         string     `gorm:"primaryKey;not null" json:"id"`
	Kind       string     `gorm:"index;not null" json:"kind"` // sweep / grid / parameter_sweep
	Status     string     `gorm:"not null" json:"status"`
	Request    string     `gorm:"type:jsonb" json:"request"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
