package models

import (
	"github.com/iwtcode/probeStation/internal/domain/entities"
	labmodels "github.com/iwtcode/probeStation/models"
)

// ErrorResponse представляет стандартный ответ с ошибкой.
type ErrorResponse struct {
	Status string `json:"status" example:"error"`
	Error  struct {
		Code    int    `json:"code" example:"409"`
		Message string `json:"message" example:"conflict: run already in progress"`
	} `json:"error"`
}

// MessageResponse представляет стандартный успешный ответ с сообщением.
type MessageResponse struct {
	Status  string `json:"status" example:"ok"`
	Message string `json:"message" example:"Sweep stop requested"`
}

// RunResponse возвращается при запуске прогона.
type RunResponse struct {
	Status string   `json:"status" example:"ok"`
	Run    *RunInfo `json:"run"`
}

// StateResponse - состояние движка и идентификатор текущего прогона.
type StateResponse struct {
	Status string             `json:"status" example:"ok"`
	RunID  string             `json:"run_id,omitempty"`
	State  labmodels.RunState `json:"state"`
}

// GridPointsResponse - предпросмотр размера сетки.
type GridPointsResponse struct {
	Status string `json:"status" example:"ok"`
	Count  string `json:"count" example:"11 x 11 = 121"`
}

// PositionsResponse - текущие позиции осей столика.
type PositionsResponse struct {
	Status    string                   `json:"status" example:"ok"`
	Positions []labmodels.AxisPosition `json:"positions"`
}

// RunsResponse - история прогонов.
type RunsResponse struct {
	Status string               `json:"status" example:"ok"`
	Runs   []entities.RunRecord `json:"runs"`
}

// RunRecordResponse - одна запись истории.
type RunRecordResponse struct {
	Status string              `json:"status" example:"ok"`
	Run    *entities.RunRecord `json:"run"`
}
