// Package probestation - библиотека управления зондовой станцией: развертки SMU,
// сканирование столиком с лазерной засветкой и параметрические серии сканирований.
package probestation

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/iwtcode/probeStation/datafile"
	"github.com/iwtcode/probeStation/experiments"
	"github.com/iwtcode/probeStation/instruments"
	"github.com/iwtcode/probeStation/models"
	apperrors "github.com/iwtcode/probeStation/pkg/errors"
	"github.com/iwtcode/probeStation/plotting"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Client является основной точкой входа для работы со стендом.
type Client struct {
	config  *Config
	logger  *logrus.Logger
	devices Devices

	gs, ds *instruments.SMUChannel
	x, y   *instruments.StageAxis

	file *datafile.File

	// startMu делает проверку занятости других движков и запуск одной операцией.
	startMu sync.Mutex

	mu         sync.Mutex
	persisters datafile.MultiPersister
	observers  *observerHub

	sweep  *experiments.SweepEngine
	grid   *experiments.GridScanEngine
	laser  *experiments.LaserScan
	params *experiments.ParameterSweep
}

// NewLogger создает логгер по уровню из конфигурации; "off" и "none" отключают вывод.
func NewLogger(logLevel string) *logrus.Logger {
	logger := logrus.New()

	if logLevel == "off" || logLevel == "none" {
		logger.SetOutput(io.Discard)
	} else {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			level = logrus.InfoLevel
		}
		logger.SetLevel(level)
		logger.SetOutput(os.Stdout)
	}

	// Настраиваем форматтер с понятным форматом времени
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return logger
}

// New создает и возвращает новый экземпляр клиента.
// При cfg.Simulate вместо приборов используются имитаторы.
func New(cfg *Config) (*Client, error) {
	logger := NewLogger(cfg.LogLevel)

	var dev Devices
	if cfg.Simulate {
		logger.Info("instruments simulated")
		dev = SimulatedDevices(cfg)
	} else {
		var err error
		dev, err = OpenDevices(cfg, logger)
		if err != nil {
			return nil, errors.Wrap(err, "open instruments")
		}
	}
	return NewWithDevices(cfg, dev, logger)
}

// NewWithDevices собирает клиент поверх уже открытых приборов.
func NewWithDevices(cfg *Config, dev Devices, logger *logrus.Logger) (*Client, error) {
	if logger == nil {
		logger = NewLogger(cfg.LogLevel)
	}
	if dev.SMU == nil || dev.X == nil || dev.Y == nil {
		return nil, apperrors.Configurationf("devices", "source meter and both stage axes are required")
	}

	file, persister, err := openDataFile(cfg.DataFile)
	if err != nil {
		return nil, err
	}

	c := &Client{
		config:    cfg,
		logger:    logger,
		devices:   dev,
		gs:        instruments.NewSMUChannel(dev.SMU, cfg.SMU.ChannelGS, "GS"),
		ds:        instruments.NewSMUChannel(dev.SMU, cfg.SMU.ChannelDS, "DS"),
		x:         instruments.NewStageAxis(dev.X, "X", instruments.SoftLimits{Min: cfg.StageX.SoftMin, Max: cfg.StageX.SoftMax}, cfg.MotionPoll),
		y:         instruments.NewStageAxis(dev.Y, "Y", instruments.SoftLimits{Min: cfg.StageY.SoftMin, Max: cfg.StageY.SoftMax}, cfg.MotionPoll),
		file:      file,
		observers: &observerHub{},
	}
	if persister != nil {
		c.AddPersister(persister)
	}
	if cfg.PlotDir != "" {
		c.AddObserver(plotting.NewCurvePlotter(cfg.PlotDir, logger.WithField("component", "plotting")))
	}

	c.sweep = experiments.NewSweepEngine(experiments.SweepConfig{
		SMU:      dev.SMU,
		GS:       c.gs,
		DS:       c.ds,
		Logger:   logger.WithField("component", "sweep"),
		Observer: c.observers,
	})
	c.grid = experiments.NewGridScanEngine(experiments.GridConfig{
		X:        c.x,
		Y:        c.y,
		Logger:   logger.WithField("component", "grid"),
		Observer: c.observers,
	})
	c.laser = experiments.NewLaserScan(experiments.LaserScanConfig{
		Grid:    c.grid,
		Sweep:   c.sweep,
		Laser:   dev.Laser,
		Shutter: dev.Shutter,
		X:       c.x,
		Y:       c.y,
		Logger:  logger.WithField("component", "laser_scan"),
	})
	c.params = experiments.NewParameterSweep(nil, logger.WithField("component", "parameter_sweep"), c.observers)
	return c, nil
}

// openDataFile продолжает существующий журнал результатов, чтобы имена групп не повторялись.
func openDataFile(path string) (*datafile.File, datafile.Persister, error) {
	if path == "" {
		return datafile.New(nil), nil, nil
	}
	persister, err := datafile.NewJSONPersister(path)
	if err != nil {
		return nil, nil, err
	}
	if _, err := os.Stat(path); err == nil {
		file, err := datafile.Load(path)
		if err != nil {
			return nil, nil, err
		}
		return file, persister, nil
	}
	return datafile.New(nil), persister, nil
}

// AddPersister подключает дополнительное хранилище изменений файла результатов.
func (c *Client) AddPersister(p datafile.Persister) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.persisters = append(c.persisters, p)
	c.file.SetPersister(append(datafile.MultiPersister(nil), c.persisters...))
}

// AddObserver подписывает наблюдателя на события всех движков.
func (c *Client) AddObserver(o experiments.Observer) {
	c.observers.add(o)
}

// GetLogger возвращает используемый логгер.
func (c *Client) GetLogger() *logrus.Logger { return c.logger }

// GetConfig возвращает конфигурацию клиента.
func (c *Client) GetConfig() *Config { return c.config }

// File возвращает файл результатов.
func (c *Client) File() *datafile.File { return c.file }

func (c *Client) SweepEngine() *experiments.SweepEngine { return c.sweep }

func (c *Client) GridEngine() *experiments.GridScanEngine { return c.grid }

func (c *Client) ParameterSweep() *experiments.ParameterSweep { return c.params }

func (c *Client) sink(save bool) datafile.Group {
	if !save {
		return nil
	}
	return c.file.Root()
}

// StartSweep запускает развертку напряжений; данные пишутся при req.Save.
func (c *Client) StartSweep(req models.SweepRequest) (*experiments.Task, error) {
	c.startMu.Lock()
	defer c.startMu.Unlock()
	if c.grid.State().Running || c.params.State().Running {
		return nil, errors.Wrap(apperrors.ErrAlreadyRunning, "grid scan owns the source meter")
	}
	return c.sweep.Start(nil, req, c.sink(req.Save))
}

func (c *Client) StopSweep() { c.sweep.Stop() }

func (c *Client) SweepState() models.RunState { return c.sweep.State() }

// StartGridScan запускает сканирование с лазерной засветкой. Результаты сохраняются всегда.
func (c *Client) StartGridScan(req models.GridRequest) (*experiments.Task, error) {
	c.startMu.Lock()
	defer c.startMu.Unlock()
	if c.params.State().Running {
		return nil, errors.Wrap(apperrors.ErrAlreadyRunning, "parameter sweep owns the grid scan")
	}
	if c.sweep.State().Running {
		return nil, errors.Wrap(apperrors.ErrAlreadyRunning, "sweep owns the source meter")
	}
	return c.laser.Start(nil, req, c.file.Root())
}

func (c *Client) StopGridScan() { c.grid.Stop() }

func (c *Client) GridState() models.RunState { return c.grid.State() }

// StartParameterSweep запускает серию сканирований по значениям параметра.
func (c *Client) StartParameterSweep(req models.ParameterSweepRequest) (*experiments.Task, error) {
	c.startMu.Lock()
	defer c.startMu.Unlock()
	if c.sweep.State().Running {
		return nil, errors.Wrap(apperrors.ErrAlreadyRunning, "sweep owns the source meter")
	}
	if c.params.State().Running {
		c.logger.Warn("parameter sweep already running, start ignored")
		return c.params.Task(), nil
	}
	if c.grid.State().Running {
		return nil, errors.Wrap(apperrors.ErrAlreadyRunning, "grid scan is running")
	}
	run, err := c.laser.ParameterRun(req, c.file.Root())
	if err != nil {
		return nil, err
	}
	return c.params.Start(nil, run)
}

// StopParameterSweep останавливает серию вместе с текущим сканированием.
func (c *Client) StopParameterSweep() { c.params.Stop() }

func (c *Client) ParameterSweepState() models.RunState { return c.params.State() }

// GridPointCount - предпросмотр размера сетки "nX x nY = N".
func (c *Client) GridPointCount(req models.GridRequest) (string, error) {
	return experiments.GridPointCount(req)
}

// StagePositions возвращает текущие позиции осей X и Y.
func (c *Client) StagePositions() ([]models.AxisPosition, error) {
	var out []models.AxisPosition
	for _, axis := range []*instruments.StageAxis{c.x, c.y} {
		pos, err := axis.Position()
		if err != nil {
			return nil, err
		}
		out = append(out, models.AxisPosition{Axis: axis.Name(), Position: pos})
	}
	return out, nil
}

// MoveStage перемещает ось ("X" или "Y") и блокирует до остановки.
func (c *Client) MoveStage(axis string, target float64) error {
	if c.grid.State().Running {
		return errors.Wrap(apperrors.ErrAlreadyRunning, "grid scan owns the stage")
	}
	var a *instruments.StageAxis
	switch {
	case strings.EqualFold(axis, c.x.Name()):
		a = c.x
	case strings.EqualFold(axis, c.y.Name()):
		a = c.y
	default:
		return apperrors.Configurationf("axis", "unknown stage axis %q", axis)
	}
	c.logger.WithFields(logrus.Fields{"axis": a.Name(), "target": target}).Info("move stage")
	return a.Set(target)
}

// Close останавливает прогоны, переводит приборы в безопасное состояние и закрывает соединения.
func (c *Client) Close() error {
	for _, current := range []func() *experiments.Task{c.params.Task, c.grid.Task, c.sweep.Task} {
		if t := current(); t != nil {
			t.Stop()
			_ = t.Wait()
		}
	}

	var firstErr error
	keep := func(err error) {
		if err != nil {
			c.logger.WithError(err).Warn("close")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	keep(c.gs.Idle(models.IdleOff))
	keep(c.ds.Idle(models.IdleOff))
	if c.devices.Shutter != nil {
		keep(c.devices.Shutter.CloseShutter())
	}
	keep(c.laser.DisableLaser())
	keep(c.file.Flush())
	for _, closer := range c.devices.closers() {
		keep(closer.Close())
	}
	return firstErr
}

// observerHub - список наблюдателей, пополняемый во время работы.
type observerHub struct {
	mu   sync.RWMutex
	list experiments.Observers
}

var _ experiments.Observer = (*observerHub)(nil)

func (h *observerHub) add(o experiments.Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.list = append(h.list, o)
}

func (h *observerHub) snapshot() experiments.Observers {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.list
}

func (h *observerHub) PointMeasured(e experiments.PointMeasured) { h.snapshot().PointMeasured(e) }
func (h *observerHub) CurveFinished(e experiments.CurveFinished) { h.snapshot().CurveFinished(e) }
func (h *observerHub) GridProgress(e experiments.GridProgress)   { h.snapshot().GridProgress(e) }
func (h *observerHub) RunFinished(e experiments.RunFinished)     { h.snapshot().RunFinished(e) }
