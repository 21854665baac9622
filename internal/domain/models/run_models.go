package models

import "time"

// MoveStageRequest - перемещение одной оси столика.
type MoveStageRequest struct {
	Axis     string   `json:"axis" binding:"required" example:"X"`
	Position *float64 `json:"position" binding:"required" example:"1.5"`
}

// RunInfo описывает запущенный прогон.
type RunInfo struct {
	ID        string    `json:"id" example:"1b4e28ba-2fa1-11d2-883f-0016d3cca427"`
	Kind      string    `json:"kind" example:"sweep"`
	Status    string    `json:"status" example:"running"`
	StartedAt time.Time `json:"started_at"`
	// Existing - true, если запуск вернул уже выполняющийся прогон.
	Existing bool `json:"existing"`
}

// Типы событий, которые сервис публикует в Kafka и websocket.
const (
	EventPoint        = "point"
	EventCurve        = "curve"
	EventGridProgress = "grid_progress"
	EventRunFinished  = "run_finished"
)

// RunEvent - конверт события прогона.
type RunEvent struct {
	RunID   string      `json:"run_id,omitempty"`
	Kind    string      `json:"kind"`
	Type    string      `json:"type"`
	Time    time.Time   `json:"time"`
	Payload interface{} `json:"payload"`
}

// CurvePayload - завершенная кривая со всеми рядами.
type CurvePayload struct {
	Path       string               `json:"path,omitempty"`
	OuterValue float64              `json:"outer_value"`
	Counter    int                  `json:"measurement_counter"`
	Samples    int                  `json:"samples"`
	Labels     []string             `json:"labels"`
	Data       map[string][]float64 `json:"data"`
}

// ProgressPayload - ход сканирования.
type ProgressPayload struct {
	Label string `json:"label"`
	Done  int    `json:"done"`
	Total int    `json:"total"`
	Text  string `json:"text"`
}

// FinishedPayload - итог прогона.
type FinishedPayload struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
