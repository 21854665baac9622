package experiments

import (
	"fmt"
	"strings"

	"github.com/iwtcode/probeStation/datafile"
	"github.com/iwtcode/probeStation/instruments/model"
	"github.com/iwtcode/probeStation/models"
	apperrors "github.com/iwtcode/probeStation/pkg/errors"
	"github.com/iwtcode/probeStation/sweep"
	"github.com/sirupsen/logrus"
)

const maxScanGroups = 99

// GridConfig - оси столика и окружение движка сканирования.
type GridConfig struct {
	X        model.Axis
	Y        model.Axis
	Clock    Clock
	Logger   logrus.FieldLogger
	Observer Observer
}

// GridPoint передается функции измерения в каждой точке сетки.
type GridPoint struct {
	// Token - токен сканирования; дочерние прогоны запускаются от него.
	Token          *Token
	Scan           datafile.Group
	Label          string
	Primary        model.Axis
	Secondary      model.Axis
	PrimaryValue   float64
	SecondaryValue float64
	Index          int
}

// MeasureFunc выполняет измерение в точке и блокирует до его окончания.
type MeasureFunc func(p GridPoint) error

// GridHooks - действия до первой и после последней точки. AfterScan выполняется всегда.
type GridHooks struct {
	BeforeScan func(scan datafile.Group) error
	AfterScan  func() error
}

// GridRun - один запуск сканирования.
type GridRun struct {
	Request models.GridRequest
	// Sink - родительская группа для группы сканирования; nil - без сохранения.
	Sink    datafile.Group
	Measure MeasureFunc
	Hooks   GridHooks
	// Attrs дописываются к атрибутам группы сканирования.
	Attrs []datafile.Attr
	// Check проверяет вложенные запросы до первой команды приборам.
	Check func() error
}

// GridScanEngine обходит сетку точек двух осей: внешняя (primary) ось, внутри нее вторичная.
type GridScanEngine struct {
	cfg  GridConfig
	slot slot
}

func NewGridScanEngine(cfg GridConfig) *GridScanEngine {
	cfg.Clock = clockOrSystem(cfg.Clock)
	cfg.Logger = loggerOrDiscard(cfg.Logger)
	cfg.Observer = observerOrNop(cfg.Observer)
	return &GridScanEngine{cfg: cfg, slot: newSlot()}
}

// ResolveAxes выбирает внешнюю ось по явному селектору "X" или "Y".
func ResolveAxes(selector string, x, y model.Axis) (primary, secondary model.Axis, err error) {
	switch strings.ToUpper(strings.TrimSpace(selector)) {
	case "X":
		return x, y, nil
	case "Y":
		return y, x, nil
	default:
		return nil, nil, apperrors.Configurationf("primary_axis", "must be X or Y, got %q", selector)
	}
}

// GridPoints возвращает точки сетки по осям X и Y.
func GridPoints(req models.GridRequest) (xs, ys []float64, err error) {
	req = req.WithDefaults()
	if xs, err = sweep.Generate(req.X); err != nil {
		return nil, nil, err
	}
	if ys, err = sweep.Generate(req.Y); err != nil {
		return nil, nil, err
	}
	return xs, ys, nil
}

// GridPointCount - строка вида "{nX} x {nY} = {N}".
func GridPointCount(req models.GridRequest) (string, error) {
	xs, ys, err := GridPoints(req)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d x %d = %d", len(xs), len(ys), len(xs)*len(ys)), nil
}

// PointLabel - имя группы точки, координаты с точностью 3 знака.
func PointLabel(primary string, p float64, secondary string, s float64) string {
	return fmt.Sprintf("point_%s%.3f_%s%.3f", primary, p, secondary, s)
}

type gridPlan struct {
	req             models.GridRequest
	primary         model.Axis
	secondary       model.Axis
	xs, ys          []float64
	primaryValues   []float64
	secondaryValues []float64
}

// targetChecker - ось с программными границами.
type targetChecker interface {
	CheckTarget(target float64) error
}

func (e *GridScanEngine) plan(run GridRun) (*gridPlan, error) {
	req := run.Request.WithDefaults()
	if run.Measure == nil {
		return nil, apperrors.Configurationf("measure", "grid scan needs a measurement function")
	}
	if e.cfg.X == nil || e.cfg.Y == nil {
		return nil, apperrors.Configurationf("axes", "X and Y stages must be configured")
	}
	primary, secondary, err := ResolveAxes(req.PrimaryAxis, e.cfg.X, e.cfg.Y)
	if err != nil {
		return nil, err
	}
	xs, ys, err := GridPoints(req)
	if err != nil {
		return nil, err
	}
	// цели проверяются по программным границам до первого движения
	for _, c := range []struct {
		axis   model.Axis
		values []float64
	}{{e.cfg.X, xs}, {e.cfg.Y, ys}} {
		if checker, ok := c.axis.(targetChecker); ok {
			for _, v := range c.values {
				if err := checker.CheckTarget(v); err != nil {
					return nil, err
				}
			}
		}
	}
	if run.Check != nil {
		if err := run.Check(); err != nil {
			return nil, err
		}
	}
	p := &gridPlan{req: req, primary: primary, secondary: secondary, xs: xs, ys: ys}
	if strings.EqualFold(strings.TrimSpace(req.PrimaryAxis), "X") {
		p.primaryValues, p.secondaryValues = xs, ys
	} else {
		p.primaryValues, p.secondaryValues = ys, xs
	}
	return p, nil
}

// Validate проверяет запуск так же, как Start: сетку, программные границы и вложенные запросы.
func (e *GridScanEngine) Validate(run GridRun) error {
	_, err := e.plan(run)
	return err
}

// Start запускает сканирование в фоне. Повторный старт во время прогона возвращает текущий прогон.
func (e *GridScanEngine) Start(parent *Token, run GridRun) (*Task, error) {
	e.slot.mu.Lock()
	defer e.slot.mu.Unlock()
	if t := e.slot.activeLocked(); t != nil {
		e.cfg.Logger.Warn("grid scan already running, start ignored")
		return t, nil
	}
	p, err := e.plan(run)
	if err != nil {
		return nil, err
	}
	total := len(p.primaryValues) * len(p.secondaryValues)
	return e.slot.launchLocked(parent, total, e.cfg.Clock.Now(),
		func(tok *Token) error { return e.run(tok, p, run) },
		func(err error, stopped bool) {
			e.cfg.Observer.RunFinished(RunFinished{Kind: KindGridScan, Stopped: stopped, Err: err})
		},
	), nil
}

func (e *GridScanEngine) Stop() { e.slot.stop() }

func (e *GridScanEngine) State() models.RunState { return e.slot.snapshot() }

func (e *GridScanEngine) Task() *Task { return e.slot.current() }

func (e *GridScanEngine) run(tok *Token, p *gridPlan, run GridRun) (err error) {
	log := e.cfg.Logger.WithField("run", KindGridScan)
	total := len(p.primaryValues) * len(p.secondaryValues)
	log.WithFields(logrus.Fields{
		"primary": p.primary.Name(),
		"points":  total,
	}).Info("grid scan started")

	if run.Hooks.AfterScan != nil {
		defer func() {
			if hookErr := run.Hooks.AfterScan(); hookErr != nil {
				log.WithError(hookErr).Warn("after scan hook failed")
				if err == nil {
					err = hookErr
				}
			}
		}()
	}

	var scan datafile.Group
	if run.Sink != nil {
		if scan, err = e.createScanGroup(run, p); err != nil {
			return err
		}
	}
	if run.Hooks.BeforeScan != nil {
		if err := run.Hooks.BeforeScan(scan); err != nil {
			return err
		}
	}

	counter := 1
	t0 := e.cfg.Clock.Now()
points:
	for _, pv := range p.primaryValues {
		if err := p.primary.Set(pv); err != nil {
			return err
		}
		for _, sv := range p.secondaryValues {
			if err := p.secondary.Set(sv); err != nil {
				return err
			}
			label := PointLabel(p.primary.Name(), pv, p.secondary.Name(), sv)
			if err := run.Measure(GridPoint{
				Token:          tok,
				Scan:           scan,
				Label:          label,
				Primary:        p.primary,
				Secondary:      p.secondary,
				PrimaryValue:   pv,
				SecondaryValue: sv,
				Index:          counter - 1,
			}); err != nil {
				return err
			}

			progress := models.EstimateProgress(counter, total, e.cfg.Clock.Now().Sub(t0))
			text := progress.String()
			e.slot.update(func(st *models.RunState) {
				st.PointCounter = counter
				st.Progress = text
			})
			e.cfg.Observer.GridProgress(GridProgress{Label: label, Progress: progress, Text: text})
			log.WithField("point", label).Info(text)
			counter++

			if !tok.Running() {
				break points
			}
			e.cfg.Clock.Sleep(models.Seconds(p.req.PointDelay))
		}
		if !tok.Running() {
			break
		}
		e.cfg.Clock.Sleep(models.Seconds(p.req.RowDelay))
	}
	if !tok.Running() {
		log.Info("grid scan stopped")
	}
	if scan != nil {
		return scan.Flush()
	}
	return nil
}

func (e *GridScanEngine) createScanGroup(run GridRun, p *gridPlan) (datafile.Group, error) {
	name, err := run.Sink.UniqueName(p.req.Description, maxScanGroups)
	if err != nil {
		return nil, err
	}
	g, err := run.Sink.CreateGroup(name)
	if err != nil {
		return nil, err
	}
	attrs := []datafile.Attr{
		{Name: "description", Value: p.req.Description},
		{Name: "timestamp", Value: e.cfg.Clock.Now().UTC().Format(TimestampFormat)},
		{Name: "num_X_points", Value: len(p.xs)},
		{Name: "num_Y_points", Value: len(p.ys)},
		{Name: "delay_grid", Value: p.req.PointDelay},
		{Name: "delay_row", Value: p.req.RowDelay},
		{Name: "primary_axis", Value: p.primary.Name()},
		{Name: "secondary_axis", Value: p.secondary.Name()},
	}
	if err := setAttrs(g, append(attrs, run.Attrs...)); err != nil {
		return nil, err
	}
	if err := g.CreateDataset("grid_X_points", p.xs); err != nil {
		return nil, err
	}
	if err := g.CreateDataset("grid_Y_points", p.ys); err != nil {
		return nil, err
	}
	return g, nil
}
