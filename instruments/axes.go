package instruments

import (
	"time"

	"github.com/iwtcode/probeStation/instruments/model"
	"github.com/iwtcode/probeStation/models"
	apperrors "github.com/iwtcode/probeStation/pkg/errors"
)

// SMUChannel представляет один канал SMU как ось напряжения.
type SMUChannel struct {
	smu   model.SourceMeter
	ch    string
	label string
}

var _ model.SourceChannel = (*SMUChannel)(nil)

// NewSMUChannel связывает канал прибора (ch: "a"/"b") с меткой в данных (например "GS").
func NewSMUChannel(smu model.SourceMeter, ch, label string) *SMUChannel {
	return &SMUChannel{smu: smu, ch: ch, label: label}
}

func (c *SMUChannel) Name() string    { return c.label }
func (c *SMUChannel) Channel() string { return c.ch }

func (c *SMUChannel) Set(v float64) error {
	return c.smu.SetLevel(c.ch, "v", v)
}

// Position - измеренное напряжение канала.
func (c *SMUChannel) Position() (float64, error) {
	_, v, err := c.smu.MeasureIV(c.ch)
	return v, err
}

func (c *SMUChannel) Busy() (bool, error) { return false, nil }

func (c *SMUChannel) Measure() (models.Sample, error) {
	i, v, err := c.smu.MeasureIV(c.ch)
	if err != nil {
		return models.Sample{}, err
	}
	compliance, err := c.smu.Compliance(c.ch)
	if err != nil {
		return models.Sample{}, err
	}
	return models.Sample{Voltage: v, Current: i, Compliance: compliance}, nil
}

func (c *SMUChannel) Output(on bool) error {
	return c.smu.SetOutput(c.ch, on)
}

// Idle переводит канал в безопасное состояние: выход выключен или удерживается 0 В.
func (c *SMUChannel) Idle(policy models.IdlePolicy) error {
	if policy == models.IdleZero {
		if err := c.smu.SetLevel(c.ch, "v", 0); err != nil {
			return err
		}
		return c.smu.SetOutput(c.ch, true)
	}
	return c.smu.SetOutput(c.ch, false)
}

// SoftLimits - программные границы оси; нулевые границы означают отсутствие ограничений.
type SoftLimits struct {
	Min float64
	Max float64
}

func (l SoftLimits) enabled() bool { return l.Min != 0 || l.Max != 0 }

// StageAxis представляет моторизованную ось с программными границами.
type StageAxis struct {
	stage  model.Stage
	name   string
	limits SoftLimits
	poll   time.Duration
	sleep  func(time.Duration)
}

var _ model.Axis = (*StageAxis)(nil)

// NewStageAxis; poll - интервал опроса окончания движения (по умолчанию 10 мс).
func NewStageAxis(stage model.Stage, name string, limits SoftLimits, poll time.Duration) *StageAxis {
	if poll <= 0 {
		poll = 10 * time.Millisecond
	}
	return &StageAxis{stage: stage, name: name, limits: limits, poll: poll, sleep: time.Sleep}
}

// WithSleep подменяет функцию ожидания между опросами.
func (a *StageAxis) WithSleep(sleep func(time.Duration)) *StageAxis {
	a.sleep = sleep
	return a
}

func (a *StageAxis) Name() string { return a.name }

func (a *StageAxis) Limits() SoftLimits { return a.limits }

// CheckTarget проверяет цель по программным границам, не обращаясь к прибору.
func (a *StageAxis) CheckTarget(target float64) error {
	if a.limits.enabled() && (target < a.limits.Min || target > a.limits.Max) {
		return &apperrors.SoftLimitError{Axis: a.name, Target: target, Min: a.limits.Min, Max: a.limits.Max}
	}
	return nil
}

// Set перемещает ось и блокирует до остановки. После остановки проверяется концевой датчик.
func (a *StageAxis) Set(target float64) error {
	if err := a.CheckTarget(target); err != nil {
		return err
	}
	if err := a.stage.MoveAbsolute(target); err != nil {
		return err
	}
	for {
		moving, err := a.stage.IsMoving()
		if err != nil {
			return err
		}
		if !moving {
			break
		}
		a.sleep(a.poll)
	}
	hit, state, err := a.stage.LimitTriggered()
	if err != nil {
		return err
	}
	if hit {
		limitErr := &apperrors.LimitSensorError{Axis: a.name, State: state}
		if pos, posErr := a.stage.Position(); posErr != nil {
			limitErr.PositionErr = posErr
		} else {
			limitErr.Position = pos
		}
		return limitErr
	}
	return nil
}

func (a *StageAxis) Position() (float64, error) {
	return a.stage.Position()
}

func (a *StageAxis) Busy() (bool, error) {
	return a.stage.IsMoving()
}
