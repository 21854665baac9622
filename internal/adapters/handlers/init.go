package handlers

import (
	"net/http"

	"github.com/iwtcode/probeStation/internal/config"
	"github.com/iwtcode/probeStation/internal/interfaces"
	"github.com/iwtcode/probeStation/internal/middleware/logging"
	"github.com/iwtcode/probeStation/internal/middleware/swagger"

	"github.com/gin-gonic/gin"
)

// Handler - структура для обработчиков HTTP-запросов
type Handler struct {
	usecase interfaces.Usecases
	hub     interfaces.StreamHub
	logger  *logging.Logger
}

// NewHandler создает новый экземпляр Handler
func NewHandler(usecase interfaces.Usecases, hub interfaces.StreamHub, logger *logging.Logger) *Handler {
	return &Handler{
		usecase: usecase,
		hub:     hub,
		logger:  logger.WithPrefix("HANDLER"),
	}
}

// ProvideRouter настраивает и возвращает HTTP-роутер
func ProvideRouter(h *Handler, cfg *config.AppConfig, swagCfg *swagger.Config) http.Handler {
	gin.SetMode(cfg.GinMode)

	router := gin.Default()

	// Swagger
	swagger.Setup(router, swagCfg)

	// Logger Middleware
	router.Use(LoggingMiddleware(h.logger))

	// Группа API v1
	v1 := router.Group("/api/v1")
	{
		sweep := v1.Group("/sweep")
		{
			sweep.POST("/start", h.StartSweep)
			sweep.POST("/stop", h.StopSweep)
			sweep.GET("/state", h.SweepState)
		}

		grid := v1.Group("/grid")
		{
			grid.POST("/start", h.StartGridScan)
			grid.POST("/stop", h.StopGridScan)
			grid.GET("/state", h.GridState)
			grid.POST("/points", h.GridPoints)
		}

		params := v1.Group("/parameter-sweep")
		{
			params.POST("/start", h.StartParameterSweep)
			params.POST("/stop", h.StopParameterSweep)
			params.GET("/state", h.ParameterSweepState)
		}

		stage := v1.Group("/stage")
		{
			stage.GET("/position", h.StagePositions)
			stage.POST("/move", h.MoveStage)
		}

		runs := v1.Group("/runs")
		{
			runs.GET("", h.GetRuns)
			runs.GET("/:id", h.GetRun)
		}

		v1.GET("/ws", h.Stream)
	}

	return router
}
