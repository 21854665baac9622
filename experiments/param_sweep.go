package experiments

import (
	"github.com/iwtcode/probeStation/models"
	apperrors "github.com/iwtcode/probeStation/pkg/errors"
	"github.com/iwtcode/probeStation/sweep"
	"github.com/sirupsen/logrus"
)

// ParameterValues строит значения параметра: список через запятую, если он задан,
// иначе Points точек от Start до Stop. Ток лазера округляется до 0.01, задержка до 0.1.
func ParameterValues(req models.ParameterSweepRequest) ([]float64, error) {
	var decimals int
	switch req.Parameter {
	case models.ParameterLaserCurrent:
		decimals = 2
	case models.ParameterGridDelay:
		decimals = 1
	default:
		return nil, apperrors.Configurationf("parameter", "unknown parameter %q", req.Parameter)
	}
	if req.Values != "" {
		return sweep.ParseList(req.Values, decimals)
	}
	return sweep.Linear(req.Start, req.Stop, req.Points, decimals)
}

// ParameterRun - один запуск параметрической развертки.
type ParameterRun struct {
	Values []float64
	// Apply применяет значение к прибору или конфигурации; может быть nil.
	Apply func(value float64) error
	// Grid запускает сканирование для значения от токена parent.
	Grid func(parent *Token, value float64) (*Task, error)
	// Cleanup возвращает общие приборы в безопасное состояние. Выполняется всегда.
	Cleanup func() error
}

// ParameterSweep повторяет сканирование для каждого значения третьего параметра.
type ParameterSweep struct {
	clock    Clock
	logger   logrus.FieldLogger
	observer Observer
	slot     slot
}

func NewParameterSweep(clock Clock, logger logrus.FieldLogger, observer Observer) *ParameterSweep {
	return &ParameterSweep{
		clock:    clockOrSystem(clock),
		logger:   loggerOrDiscard(logger),
		observer: observerOrNop(observer),
		slot:     newSlot(),
	}
}

// Start запускает перебор в фоне. Повторный старт во время прогона возвращает текущий прогон.
func (s *ParameterSweep) Start(parent *Token, run ParameterRun) (*Task, error) {
	s.slot.mu.Lock()
	defer s.slot.mu.Unlock()
	if t := s.slot.activeLocked(); t != nil {
		s.logger.Warn("parameter sweep already running, start ignored")
		return t, nil
	}
	if len(run.Values) == 0 {
		return nil, apperrors.Configurationf("values", "parameter sweep needs at least one value")
	}
	if run.Grid == nil {
		return nil, apperrors.Configurationf("grid", "parameter sweep needs a grid scan")
	}
	return s.slot.launchLocked(parent, len(run.Values), s.clock.Now(),
		func(tok *Token) error { return s.run(tok, run) },
		func(err error, stopped bool) {
			s.observer.RunFinished(RunFinished{Kind: KindParameterSweep, Stopped: stopped, Err: err})
		},
	), nil
}

func (s *ParameterSweep) Stop() { s.slot.stop() }

func (s *ParameterSweep) State() models.RunState { return s.slot.snapshot() }

func (s *ParameterSweep) Task() *Task { return s.slot.current() }

func (s *ParameterSweep) run(tok *Token, run ParameterRun) (err error) {
	log := s.logger.WithField("run", KindParameterSweep)
	if run.Cleanup != nil {
		defer func() {
			if cleanupErr := run.Cleanup(); cleanupErr != nil {
				log.WithError(cleanupErr).Error("parameter sweep cleanup failed")
				if err == nil {
					err = cleanupErr
				}
			}
		}()
	}

	for i, v := range run.Values {
		if !tok.Running() {
			break
		}
		log.WithFields(logrus.Fields{"value": v, "index": i}).Info("parameter value")
		if run.Apply != nil {
			if err := run.Apply(v); err != nil {
				return err
			}
		}
		grid, err := run.Grid(tok, v)
		if err != nil {
			return err
		}
		if err := grid.Wait(); err != nil {
			return err
		}
		s.slot.update(func(st *models.RunState) { st.PointCounter = i + 1 })
		if grid.Stopped() || !tok.Running() {
			log.Info("parameter sweep stopped")
			break
		}
	}
	return nil
}
