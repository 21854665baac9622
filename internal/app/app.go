package app

import (
	"context"
	"net/http"
	"time"

	probestation "github.com/iwtcode/probeStation"
	"github.com/iwtcode/probeStation/internal/adapters/handlers"
	"github.com/iwtcode/probeStation/internal/adapters/repositories/postgres"
	"github.com/iwtcode/probeStation/internal/config"
	"github.com/iwtcode/probeStation/internal/interfaces"
	"github.com/iwtcode/probeStation/internal/middleware/logging"
	"github.com/iwtcode/probeStation/internal/middleware/swagger"
	"github.com/iwtcode/probeStation/internal/services/kafka"
	"github.com/iwtcode/probeStation/internal/services/lab_service"
	"github.com/iwtcode/probeStation/internal/services/stream"
	"github.com/iwtcode/probeStation/internal/usecases"

	"go.uber.org/fx"
)

// New создает новый экземпляр fx.App
func New() *fx.App {
	return fx.New(
		ConfigModule,
		LoggingModule,
		StationModule,
		RepositoryModule,
		ProducerModule,
		StreamModule,
		ServiceModule,
		UsecaseModule,
		HttpServerModule,
		// Invoke-функции для запуска фоновых задач и хуков жизненного цикла
		fx.Invoke(InvokeMarkInterruptedRuns),
	)
}

// --- Модули FX ---

var ConfigModule = fx.Module("config_module",
	fx.Provide(config.LoadConfiguration),
)

func ProvideLogger(cfg *config.AppConfig) *logging.Logger {
	loggerCfg := &logging.Config{
		Enabled:    cfg.Logging.Enable,
		Level:      cfg.Logging.Level,
		LogsDir:    cfg.Logging.LogsDir,
		SavingDays: uint(cfg.Logging.SavingDays),
	}
	return logging.NewLogger(loggerCfg, "ProbeStationApp")
}

var LoggingModule = fx.Module("logging_module",
	fx.Provide(ProvideLogger),
)

// ProvideStation открывает приборы (или симуляторы) и файл результатов.
// Движки пишут в тот же logrus, что и сервис.
func ProvideStation(cfg *config.AppConfig, logger *logging.Logger) (*probestation.Client, error) {
	station := cfg.Station
	if station == nil {
		station = probestation.Load()
	}
	stationLogger := logger.WithPrefix("STATION")

	var (
		dev probestation.Devices
		err error
	)
	if station.Simulate {
		stationLogger.Warn("Instruments are simulated")
		dev = probestation.SimulatedDevices(station)
	} else {
		dev, err = probestation.OpenDevices(station, stationLogger.Entry())
		if err != nil {
			return nil, err
		}
	}
	return probestation.NewWithDevices(station, dev, logger.Logrus())
}

var StationModule = fx.Module("station_module",
	fx.Provide(ProvideStation),
)

var RepositoryModule = fx.Module("repository_module",
	fx.Provide(postgres.NewRepository),
)

var ProducerModule = fx.Module("producer_module",
	fx.Provide(kafka.NewKafkaProducer),
)

var StreamModule = fx.Module("stream_module",
	fx.Provide(stream.NewHub),
)

var ServiceModule = fx.Module("service_module",
	fx.Provide(lab_service.NewLabService),
)

var UsecaseModule = fx.Module("usecases_module",
	fx.Provide(usecases.NewUsecases),
)

func NewSwaggerConfig() *swagger.Config {
	return &swagger.Config{
		Enabled: true,
		Path:    "/swagger",
	}
}

var HttpServerModule = fx.Module("http_server_module",
	fx.Provide(
		NewSwaggerConfig,
		handlers.NewHandler,
		handlers.ProvideRouter,
	),
	// Хуки OnStop выполняются в обратном порядке: сначала останавливается HTTP-сервер.
	fx.Invoke(InvokeLabLifecycle),
	fx.Invoke(InvokeHttpServer),
)

// InvokeMarkInterruptedRuns закрывает записи прогонов, прерванных остановкой сервиса.
func InvokeMarkInterruptedRuns(lc fx.Lifecycle, repo interfaces.Repository, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			n, err := repo.MarkInterrupted(time.Now())
			if err != nil {
				logger.Error("Failed to mark interrupted runs", "error", err)
				return nil // Не фатально, просто продолжаем
			}
			if n > 0 {
				logger.Warn("Runs left from the previous start marked as interrupted", "count", n)
			}
			return nil
		},
	})
}

// InvokeLabLifecycle при остановке переводит приборы в безопасное состояние и
// закрывает выходные каналы событий.
func InvokeLabLifecycle(lc fx.Lifecycle, lab interfaces.LabService, producer interfaces.KafkaService, hub interfaces.StreamHub, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping runs and returning instruments to idle...")
			err := lab.Close()
			if err != nil {
				logger.Error("Failed to close station cleanly", "error", err)
			}
			hub.Close()
			if perr := producer.Close(); perr != nil {
				logger.Error("Failed to close Kafka producer", "error", perr)
			}
			_ = logger.Close()
			return err
		},
	})
}

// InvokeHttpServer запускает HTTP-сервер.
func InvokeHttpServer(lc fx.Lifecycle, cfg *config.AppConfig, h http.Handler, logger *logging.Logger) {
	serverAddr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     h,
		ReadTimeout: 10 * time.Second,
		// Перемещение столика блокирует запрос до остановки оси.
		WriteTimeout: 2 * time.Minute,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("HTTP Server is starting", "address", serverAddr)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("Failed to start server", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server...")
			return server.Shutdown(ctx)
		},
	})
}
