package handlers

import (
	"net/http"

	"github.com/iwtcode/probeStation/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// StagePositions возвращает позиции осей; их удобно брать как начало и конец сетки.
// @Summary Позиция столика
// @Tags Stage
// @Produce json
// @Success 200 {object} models.PositionsResponse
// @Failure 502 {object} models.ErrorResponse "Контроллер оси не ответил"
// @Router /stage/position [get]
func (h *Handler) StagePositions(c *gin.Context) {
	positions, err := h.usecase.StagePositions()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PositionsResponse{Status: "ok", Positions: positions})
}

// MoveStage перемещает одну ось и ждет остановки.
// @Summary Переместить ось
// @Description Цель проверяется по программным границам до отправки команды. Во время сканирования недоступно.
// @Tags Stage
// @Accept json
// @Produce json
// @Param input body models.MoveStageRequest true "Ось (X или Y) и позиция"
// @Success 200 {object} models.PositionsResponse "Позиции после перемещения"
// @Failure 400 {object} models.ErrorResponse "Неизвестная ось или цель вне границ"
// @Failure 409 {object} models.ErrorResponse "Идет сканирование"
// @Failure 502 {object} models.ErrorResponse "Сработал концевой датчик или контроллер не ответил"
// @Router /stage/move [post]
func (h *Handler) MoveStage(c *gin.Context) {
	var req models.MoveStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}

	if err := h.usecase.MoveStage(req); err != nil {
		h.HandleError(c, err)
		return
	}

	positions, err := h.usecase.StagePositions()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PositionsResponse{Status: "ok", Positions: positions})
}
