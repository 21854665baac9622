package handlers

import (
	"net/http"

	"github.com/iwtcode/probeStation/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// GetRuns возвращает историю прогонов, новые первыми.
// @Summary История прогонов
// @Tags Runs
// @Produce json
// @Success 200 {object} models.RunsResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /runs [get]
func (h *Handler) GetRuns(c *gin.Context) {
	runs, err := h.usecase.Runs()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.RunsResponse{Status: "ok", Runs: runs})
}

// GetRun возвращает один прогон с параметрами запуска.
// @Summary Прогон по ID
// @Tags Runs
// @Produce json
// @Param id path string true "ID прогона"
// @Success 200 {object} models.RunRecordResponse
// @Failure 404 {object} models.ErrorResponse "Прогон не найден"
// @Router /runs/{id} [get]
func (h *Handler) GetRun(c *gin.Context) {
	run, err := h.usecase.Run(c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.RunRecordResponse{Status: "ok", Run: run})
}

// Stream подключает websocket-клиента к потоку событий прогонов.
// @Summary Поток событий
// @Description Websocket: точки, завершенные кривые, прогресс сканирования и завершение прогонов в формате models.RunEvent.
// @Tags Runs
// @Router /ws [get]
func (h *Handler) Stream(c *gin.Context) {
	h.hub.ServeWS(c.Writer, c.Request)
}
