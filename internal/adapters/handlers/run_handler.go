package handlers

import (
	"net/http"

	"github.com/iwtcode/probeStation/experiments"
	"github.com/iwtcode/probeStation/internal/domain/models"
	labmodels "github.com/iwtcode/probeStation/models"

	"github.com/gin-gonic/gin"
)

// StartSweep запускает развертку напряжений.
// @Summary Запустить развертку
// @Description Запускает вложенную развертку напряжений GS/DS. Если развертка уже идет, возвращается текущий прогон (existing=true).
// @Tags Sweep
// @Accept json
// @Produce json
// @Param input body labmodels.SweepRequest true "Параметры развертки"
// @Success 200 {object} models.RunResponse "Прогон запущен"
// @Failure 400 {object} models.ErrorResponse "Неверные параметры развертки"
// @Failure 409 {object} models.ErrorResponse "Источник-измеритель занят сканированием"
// @Failure 502 {object} models.ErrorResponse "Прибор не ответил"
// @Router /sweep/start [post]
func (h *Handler) StartSweep(c *gin.Context) {
	var req labmodels.SweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}

	run, err := h.usecase.StartSweep(req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.logger.Info("Sweep started", "run_id", run.ID, "existing", run.Existing)
	c.JSON(http.StatusOK, models.RunResponse{Status: "ok", Run: run})
}

// StopSweep останавливает развертку.
// @Summary Остановить развертку
// @Description Развертка завершается после текущей точки, источники переводятся в режим простоя.
// @Tags Sweep
// @Produce json
// @Success 200 {object} models.MessageResponse
// @Router /sweep/stop [post]
func (h *Handler) StopSweep(c *gin.Context) {
	h.stop(c, experiments.KindSweep, "Sweep stop requested")
}

// SweepState возвращает состояние развертки.
// @Summary Состояние развертки
// @Tags Sweep
// @Produce json
// @Success 200 {object} models.StateResponse
// @Router /sweep/state [get]
func (h *Handler) SweepState(c *gin.Context) {
	h.state(c, experiments.KindSweep)
}

// StartGridScan запускает сканирование столиком.
// @Summary Запустить сканирование
// @Description Обходит сетку точек и в каждой измеряет передаточные характеристики без засветки и с засветкой лазером.
// @Tags Grid
// @Accept json
// @Produce json
// @Param input body labmodels.GridRequest true "Параметры сканирования"
// @Success 200 {object} models.RunResponse "Прогон запущен"
// @Failure 400 {object} models.ErrorResponse "Неверные параметры сетки"
// @Failure 409 {object} models.ErrorResponse "Идет развертка"
// @Failure 502 {object} models.ErrorResponse "Прибор не ответил"
// @Router /grid/start [post]
func (h *Handler) StartGridScan(c *gin.Context) {
	var req labmodels.GridRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}

	run, err := h.usecase.StartGridScan(req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.logger.Info("Grid scan started", "run_id", run.ID, "existing", run.Existing)
	c.JSON(http.StatusOK, models.RunResponse{Status: "ok", Run: run})
}

// StopGridScan останавливает сканирование.
// @Summary Остановить сканирование
// @Tags Grid
// @Produce json
// @Success 200 {object} models.MessageResponse
// @Router /grid/stop [post]
func (h *Handler) StopGridScan(c *gin.Context) {
	h.stop(c, experiments.KindGridScan, "Grid scan stop requested")
}

// GridState возвращает состояние сканирования и прогресс.
// @Summary Состояние сканирования
// @Tags Grid
// @Produce json
// @Success 200 {object} models.StateResponse
// @Router /grid/state [get]
func (h *Handler) GridState(c *gin.Context) {
	h.state(c, experiments.KindGridScan)
}

// GridPoints считает точки сетки без запуска.
// @Summary Размер сетки
// @Description Возвращает строку вида "nX x nY = N".
// @Tags Grid
// @Accept json
// @Produce json
// @Param input body labmodels.GridRequest true "Параметры сканирования"
// @Success 200 {object} models.GridPointsResponse
// @Failure 400 {object} models.ErrorResponse "Неверные параметры сетки"
// @Router /grid/points [post]
func (h *Handler) GridPoints(c *gin.Context) {
	var req labmodels.GridRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}

	count, err := h.usecase.GridPointCount(req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.GridPointsResponse{Status: "ok", Count: count})
}

// StartParameterSweep запускает серию сканирований по значениям параметра.
// @Summary Запустить параметрическую развертку
// @Description Для каждого значения (ток лазера или задержка сетки) выполняет полное сканирование.
// @Tags ParameterSweep
// @Accept json
// @Produce json
// @Param input body labmodels.ParameterSweepRequest true "Параметр, значения и сканирование"
// @Success 200 {object} models.RunResponse "Прогон запущен"
// @Failure 400 {object} models.ErrorResponse "Неверные значения параметра"
// @Failure 409 {object} models.ErrorResponse "Идет развертка или сканирование"
// @Router /parameter-sweep/start [post]
func (h *Handler) StartParameterSweep(c *gin.Context) {
	var req labmodels.ParameterSweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}

	run, err := h.usecase.StartParameterSweep(req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.logger.Info("Parameter sweep started", "run_id", run.ID, "parameter", req.Parameter, "existing", run.Existing)
	c.JSON(http.StatusOK, models.RunResponse{Status: "ok", Run: run})
}

// StopParameterSweep останавливает серию вместе с текущим сканированием.
// @Summary Остановить параметрическую развертку
// @Tags ParameterSweep
// @Produce json
// @Success 200 {object} models.MessageResponse
// @Router /parameter-sweep/stop [post]
func (h *Handler) StopParameterSweep(c *gin.Context) {
	h.stop(c, experiments.KindParameterSweep, "Parameter sweep stop requested")
}

// @Summary Состояние параметрической развертки
// @Tags ParameterSweep
// @Produce json
// @Success 200 {object} models.StateResponse
// @Router /parameter-sweep/state [get]
func (h *Handler) ParameterSweepState(c *gin.Context) {
	h.state(c, experiments.KindParameterSweep)
}

func (h *Handler) stop(c *gin.Context, kind, message string) {
	if err := h.usecase.Stop(kind); err != nil {
		h.HandleError(c, err)
		return
	}
	h.logger.Info(message)
	c.JSON(http.StatusOK, models.MessageResponse{Status: "ok", Message: message})
}

func (h *Handler) state(c *gin.Context, kind string) {
	state, err := h.usecase.State(kind)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}
