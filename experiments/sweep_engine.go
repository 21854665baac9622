package experiments

import (
	"fmt"

	"github.com/iwtcode/probeStation/datafile"
	"github.com/iwtcode/probeStation/instruments/model"
	"github.com/iwtcode/probeStation/models"
	apperrors "github.com/iwtcode/probeStation/pkg/errors"
	"github.com/iwtcode/probeStation/sweep"
	"github.com/sirupsen/logrus"
)

// TimestampFormat - формат меток времени в атрибутах групп (UTC).
const TimestampFormat = "2006-01-02 15:04:05"

// Ограничения суффиксов уникальных имен.
const (
	maxSweepGroups = 1000
	maxCurveGroups = 100
)

// SweepConfig - приборы и окружение движка развертки.
type SweepConfig struct {
	SMU      model.SourceMeter
	GS       model.SourceChannel
	DS       model.SourceChannel
	Clock    Clock
	Logger   logrus.FieldLogger
	Observer Observer
}

// SweepEngine - вложенная развертка: внешний цикл "sweep", внутренний "curve".
type SweepEngine struct {
	cfg  SweepConfig
	slot slot
}

func NewSweepEngine(cfg SweepConfig) *SweepEngine {
	cfg.Clock = clockOrSystem(cfg.Clock)
	cfg.Logger = loggerOrDiscard(cfg.Logger)
	cfg.Observer = observerOrNop(cfg.Observer)
	return &SweepEngine{cfg: cfg, slot: newSlot()}
}

type sweepPlan struct {
	req         models.SweepRequest
	outer       model.SourceChannel
	inner       model.SourceChannel
	outerValues []float64
	setup       CurveSetup
	runner      CurveRunner
}

// Channels возвращает внешний и внутренний каналы для режима измерения.
func (e *SweepEngine) Channels(mode models.MeasurementMode) (outer, inner model.SourceChannel, err error) {
	switch mode {
	case models.ModeTransfer:
		return e.cfg.DS, e.cfg.GS, nil
	case models.ModeOutput:
		return e.cfg.GS, e.cfg.DS, nil
	default:
		return nil, nil, apperrors.Configurationf("mode", "unknown measurement mode %q", mode)
	}
}

func (e *SweepEngine) plan(req models.SweepRequest) (*sweepPlan, error) {
	req = req.WithDefaults()
	outer, inner, err := e.Channels(req.Mode)
	if err != nil {
		return nil, err
	}
	if outer == nil || inner == nil {
		return nil, apperrors.Configurationf("channels", "GS and DS channels must be configured")
	}
	outerValues, err := sweep.Generate(req.Sweep)
	if err != nil {
		return nil, err
	}
	innerValues, err := sweep.Generate(req.Curve)
	if err != nil {
		return nil, err
	}

	p := &sweepPlan{
		req:         req,
		outer:       outer,
		inner:       inner,
		outerValues: outerValues,
		setup: CurveSetup{
			Outer:           outer,
			Inner:           inner,
			InnerValues:     innerValues,
			Labels:          models.Labels(outer.Name(), inner.Name()),
			FirstPointDelay: models.Seconds(req.FirstPointDelay),
			PointDelay:      models.Seconds(req.PointDelay),
		},
	}
	switch req.Strategy {
	case models.StrategyPolled:
		p.runner = NewPolledRunner(e.cfg.Clock, e.cfg.Observer)
	case models.StrategyScripted:
		smu, ok := e.cfg.SMU.(model.ScriptedSourceMeter)
		if !ok {
			return nil, apperrors.Configurationf("strategy", "source meter does not support scripted sweeps")
		}
		p.runner = NewScriptedRunner(smu, e.cfg.Clock, e.cfg.Observer)
	default:
		return nil, apperrors.Configurationf("strategy", "unknown strategy %q", req.Strategy)
	}
	switch req.Idle {
	case models.IdleOff, models.IdleZero:
	default:
		return nil, apperrors.Configurationf("idle", "unknown idle policy %q", req.Idle)
	}
	return p, nil
}

// Validate проверяет запрос так же, как Start, не обращаясь к приборам.
func (e *SweepEngine) Validate(req models.SweepRequest) error {
	_, err := e.plan(req)
	return err
}

// Start запускает развертку в фоне. sink - группа, в которую пишутся данные; nil - без сохранения.
// Повторный старт во время прогона возвращает уже выполняющийся прогон.
func (e *SweepEngine) Start(parent *Token, req models.SweepRequest, sink datafile.Group) (*Task, error) {
	e.slot.mu.Lock()
	defer e.slot.mu.Unlock()
	if t := e.slot.activeLocked(); t != nil {
		e.cfg.Logger.Warn("sweep already running, start ignored")
		return t, nil
	}
	p, err := e.plan(req)
	if err != nil {
		return nil, err
	}
	total := p.req.Repetitions * len(p.outerValues) * len(p.setup.InnerValues)
	return e.slot.launchLocked(parent, total, e.cfg.Clock.Now(),
		func(tok *Token) error { return e.run(tok, p, sink) },
		func(err error, stopped bool) {
			e.cfg.Observer.RunFinished(RunFinished{Kind: KindSweep, Stopped: stopped, Err: err})
		},
	), nil
}

// Stop запрашивает остановку после текущей точки.
func (e *SweepEngine) Stop() { e.slot.stop() }

func (e *SweepEngine) State() models.RunState { return e.slot.snapshot() }

// Task возвращает последний запущенный прогон или nil.
func (e *SweepEngine) Task() *Task { return e.slot.current() }

func (e *SweepEngine) run(tok *Token, p *sweepPlan, sink datafile.Group) (err error) {
	log := e.cfg.Logger.WithField("run", KindSweep)
	log.WithFields(logrus.Fields{
		"mode":     p.req.Mode,
		"strategy": p.req.Strategy,
		"curves":   len(p.outerValues) * p.req.Repetitions,
	}).Info("sweep started")

	defer func() {
		if err == nil {
			log.Info("sweep finished")
			return
		}
		// прибор возвращается в безопасное состояние, исходная ошибка сохраняется
		for _, ch := range []model.SourceChannel{p.inner, p.outer} {
			if idleErr := ch.Idle(p.req.Idle); idleErr != nil {
				log.WithError(idleErr).WithField("channel", ch.Name()).Warn("idle after failure")
			}
		}
		log.WithError(err).Error("sweep aborted")
	}()

	for _, ch := range []model.SourceChannel{p.outer, p.inner} {
		if letter, ok := ch.(channelLetter); ok && e.cfg.SMU != nil {
			if err := e.cfg.SMU.SetSourceFunction(letter.Channel(), model.SourceVoltage); err != nil {
				return err
			}
		}
	}

	var sweepGroup datafile.Group
	if sink != nil {
		if sweepGroup, err = e.createSweepGroup(sink, p); err != nil {
			return err
		}
	}
	if err := p.runner.Prepare(p.setup); err != nil {
		return err
	}

	if err := p.outer.Set(p.outerValues[0]); err != nil {
		return err
	}
	if err := p.outer.Output(true); err != nil {
		return err
	}

measurement:
	for counter := 0; counter < p.req.Repetitions; counter++ {
		for _, v := range p.outerValues {
			curve := Curve{CurveSetup: p.setup, Token: tok, OuterValue: v, Counter: counter}
			var curveGroup datafile.Group
			if sweepGroup != nil {
				if curveGroup, err = e.createCurveGroup(sweepGroup, p, v, counter); err != nil {
					return err
				}
				curve.Path = curveGroup.Path()
			}

			if err := p.outer.Set(v); err != nil {
				return err
			}
			rec, err := p.runner.RunCurve(curve)
			if err != nil {
				return err
			}
			e.slot.update(func(st *models.RunState) { st.PointCounter += rec.Len() })
			if err := p.inner.Idle(p.req.Idle); err != nil {
				return err
			}

			if rec.Len() > 0 {
				shifted := rec.ShiftTime()
				if curveGroup != nil {
					if err := writeRecord(curveGroup, shifted); err != nil {
						return err
					}
				}
				e.cfg.Observer.CurveFinished(CurveFinished{
					Path:       curve.Path,
					OuterValue: v,
					Counter:    counter,
					Samples:    shifted.Len(),
					Labels:     p.setup.Labels,
					Record:     shifted,
				})
				log.WithFields(logrus.Fields{"curve": curve.Path, "value": v, "points": shifted.Len()}).Debug("curve finished")
			}

			if !tok.Running() {
				log.Info("sweep stopped")
				break measurement
			}
			e.cfg.Clock.Sleep(models.Seconds(p.req.CurveDelay))
		}
	}
	if err := p.outer.Idle(p.req.Idle); err != nil {
		return err
	}
	if sweepGroup != nil {
		return sweepGroup.Flush()
	}
	return nil
}

func (e *SweepEngine) createSweepGroup(sink datafile.Group, p *sweepPlan) (datafile.Group, error) {
	name, err := sink.UniqueName(p.req.Description, maxSweepGroups)
	if err != nil {
		return nil, err
	}
	g, err := sink.CreateGroup(name)
	if err != nil {
		return nil, err
	}
	attrs := []datafile.Attr{
		{Name: "description", Value: p.req.Description},
		{Name: "measurement_mode", Value: string(p.req.Mode)},
		{Name: "strategy", Value: string(p.req.Strategy)},
		{Name: "GS_channel", Value: channelName(e.cfg.GS)},
		{Name: "DS_channel", Value: channelName(e.cfg.DS)},
	}
	if e.cfg.SMU != nil {
		settings, err := e.cfg.SMU.Settings()
		if err != nil {
			return nil, err
		}
		for _, s := range settings {
			attrs = append(attrs, datafile.Attr{Name: "keithley_" + s.Key, Value: s.Value})
		}
	}
	attrs = append(attrs, datafile.Attr{Name: "timestamp", Value: e.cfg.Clock.Now().UTC().Format(TimestampFormat)})
	return g, setAttrs(g, attrs)
}

func (e *SweepEngine) createCurveGroup(sweepGroup datafile.Group, p *sweepPlan, v float64, counter int) (datafile.Group, error) {
	name, err := sweepGroup.UniqueName("curve", maxCurveGroups)
	if err != nil {
		return nil, err
	}
	g, err := sweepGroup.CreateGroup(name)
	if err != nil {
		return nil, err
	}
	return g, setAttrs(g, []datafile.Attr{
		{Name: "timestamp", Value: e.cfg.Clock.Now().UTC().Format(TimestampFormat)},
		{Name: fmt.Sprintf("V_%s", p.setup.Labels.OuterLabel), Value: v},
		{Name: "measurement_counter", Value: counter},
	})
}

// writeRecord пишет все ряды записи как наборы данных и сбрасывает файл.
func writeRecord(g datafile.Group, rec *models.MeasurementRecord) error {
	for _, label := range rec.Labels() {
		if err := g.CreateDataset(label, rec.Series(label)); err != nil {
			return err
		}
	}
	return g.Flush()
}

func setAttrs(g datafile.Group, attrs []datafile.Attr) error {
	for _, a := range attrs {
		if err := g.SetAttr(a.Name, a.Value); err != nil {
			return err
		}
	}
	return nil
}

func channelName(ch model.SourceChannel) string {
	if ch == nil {
		return ""
	}
	if letter, ok := ch.(channelLetter); ok {
		return letter.Channel()
	}
	return ch.Name()
}
