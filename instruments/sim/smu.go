// Package sim содержит детерминированные модели приборов для сухих прогонов и тестов.
package sim

import (
	"fmt"
	"math"
	"sync"

	"github.com/iwtcode/probeStation/instruments/model"
	apperrors "github.com/iwtcode/probeStation/pkg/errors"
)

// FET - квадратичная модель полевого транзистора между двумя каналами SMU.
type FET struct {
	Gate    string
	Drain   string
	K       float64 // А/В^2
	Vth     float64
	Lambda  float64
	Leakage float64 // проводимость затвора, См
}

// DefaultFET: затвор на канале "a", сток на "b".
func DefaultFET() FET {
	return FET{Gate: "a", Drain: "b", K: 2e-4, Vth: 0.7, Lambda: 0.02, Leakage: 1e-12}
}

type channelState struct {
	fn     model.SourceFunction
	level  float64
	limitI float64
	limitV float64
	output bool
}

// SMU - имитация двухканального источника-измерителя.
type SMU struct {
	mu       sync.Mutex
	fet      FET
	channels map[string]*channelState
	scripts  map[string]model.ListSweep
	buffers  map[string]map[int]map[model.BufferField][]float64

	measurements int
	// FailMeasureAt > 0 делает N-е измерение (с единицы) ошибкой обмена.
	FailMeasureAt int
	// ScriptStep - шаг меток времени в буфере, с.
	ScriptStep float64
	closed     bool
}

var _ model.ScriptedSourceMeter = (*SMU)(nil)

func NewSMU(fet FET) *SMU {
	s := &SMU{fet: fet, ScriptStep: 0.01}
	s.resetLocked()
	return s
}

func (s *SMU) resetLocked() {
	s.channels = map[string]*channelState{
		"a": {fn: model.SourceVoltage, limitI: 0.1, limitV: 20},
		"b": {fn: model.SourceVoltage, limitI: 0.1, limitV: 20},
	}
	s.scripts = map[string]model.ListSweep{}
	s.buffers = map[string]map[int]map[model.BufferField][]float64{}
}

func (s *SMU) channel(ch string) (*channelState, error) {
	c, ok := s.channels[ch]
	if !ok {
		return nil, &apperrors.DeviceError{Device: "sim-smu", Command: "smu" + ch, Err: fmt.Errorf("no such channel %q", ch)}
	}
	return c, nil
}

func (s *SMU) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	return nil
}

func (s *SMU) SetSourceFunction(ch string, fn model.SourceFunction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.channel(ch)
	if err != nil {
		return err
	}
	c.fn = fn
	return nil
}

func (s *SMU) SetLevel(ch string, quantity string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.channel(ch)
	if err != nil {
		return err
	}
	c.level = value
	return nil
}

func (s *SMU) SetLimit(ch string, quantity string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.channel(ch)
	if err != nil {
		return err
	}
	if quantity == "v" {
		c.limitV = value
	} else {
		c.limitI = value
	}
	return nil
}

func (s *SMU) SetOutput(ch string, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.channel(ch)
	if err != nil {
		return err
	}
	c.output = on
	return nil
}

// Level возвращает уставку и состояние выхода канала.
func (s *SMU) Level(ch string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.channels[ch]
	if !ok {
		return 0, false
	}
	return c.level, c.output
}

// Measurements - число выполненных измерений.
func (s *SMU) Measurements() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.measurements
}

func (s *SMU) applied(ch string) float64 {
	c := s.channels[ch]
	if c == nil || !c.output {
		return 0
	}
	return c.level
}

// solve возвращает ток, напряжение и признак compliance канала.
func (s *SMU) solve(ch string) (float64, float64, bool) {
	c := s.channels[ch]
	if c == nil || !c.output {
		return 0, 0, false
	}
	vgs := s.applied(s.fet.Gate)
	vds := s.applied(s.fet.Drain)
	var current float64
	switch ch {
	case s.fet.Drain:
		current = drainCurrent(s.fet, vgs, vds)
	case s.fet.Gate:
		current = s.fet.Leakage * vgs
	}
	compliance := false
	if c.limitI > 0 && math.Abs(current) > c.limitI {
		current = math.Copysign(c.limitI, current)
		compliance = true
	}
	return current, c.level, compliance
}

func drainCurrent(f FET, vgs, vds float64) float64 {
	vov := vgs - f.Vth
	if vov <= 0 {
		return 0
	}
	a := math.Abs(vds)
	var id float64
	if a < vov {
		id = f.K * (vov*a - a*a/2)
	} else {
		id = f.K / 2 * vov * vov * (1 + f.Lambda*a)
	}
	return math.Copysign(id, vds)
}

func (s *SMU) MeasureIV(ch string) (float64, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.channel(ch); err != nil {
		return 0, 0, err
	}
	s.measurements++
	if s.FailMeasureAt > 0 && s.measurements == s.FailMeasureAt {
		return 0, 0, &apperrors.DeviceError{Device: "sim-smu", Command: fmt.Sprintf("print(smu%s.measure.iv())", ch), Err: fmt.Errorf("injected timeout")}
	}
	i, v, _ := s.solve(ch)
	return i, v, nil
}

func (s *SMU) Compliance(ch string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.channel(ch); err != nil {
		return false, err
	}
	_, _, c := s.solve(ch)
	return c, nil
}

func (s *SMU) Settings() ([]model.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Setting
	for _, ch := range []string{"a", "b"} {
		c := s.channels[ch]
		out = append(out,
			model.Setting{Key: ch + "_source_func", Value: fmt.Sprint(int(c.fn))},
			model.Setting{Key: ch + "_source_limiti", Value: fmt.Sprint(c.limitI)},
			model.Setting{Key: ch + "_source_limitv", Value: fmt.Sprint(c.limitV)},
		)
	}
	return out, nil
}

func (s *SMU) LoadListSweep(name string, sw model.ListSweep) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(sw.Values) == 0 {
		return apperrors.Configurationf("script", "empty sweep for script %s", name)
	}
	s.scripts[name] = sw
	return nil
}

// RunScript проходит список уставок и заполняет буферы так же, как скрипт на приборе.
func (s *SMU) RunScript(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sw, ok := s.scripts[name]
	if !ok {
		return &apperrors.DeviceError{Device: "sim-smu", Command: name + "()", Err: fmt.Errorf("script not loaded")}
	}
	chans := []string{sw.Channel}
	if sw.Secondary != "" {
		chans = append(chans, sw.Secondary)
	}
	for _, ch := range chans {
		s.buffers[ch] = map[int]map[model.BufferField][]float64{
			1: {},
			2: {},
		}
	}
	primary, err := s.channel(sw.Channel)
	if err != nil {
		return err
	}
	primary.output = true
	for i, v := range sw.Values {
		primary.level = v
		t := float64(i) * (s.ScriptStep + sw.Delay)
		for _, ch := range chans {
			cur, volt, comp := s.solve(ch)
			b1, b2 := s.buffers[ch][1], s.buffers[ch][2]
			status := 0.0
			if comp {
				status = model.StatusCompliance
			}
			b1[model.FieldReadings] = append(b1[model.FieldReadings], cur)
			b1[model.FieldSourceValues] = append(b1[model.FieldSourceValues], s.channels[ch].level)
			b1[model.FieldTimestamps] = append(b1[model.FieldTimestamps], t)
			b1[model.FieldStatuses] = append(b1[model.FieldStatuses], status)
			b2[model.FieldReadings] = append(b2[model.FieldReadings], volt)
			b2[model.FieldSourceValues] = append(b2[model.FieldSourceValues], s.channels[ch].level)
			b2[model.FieldTimestamps] = append(b2[model.FieldTimestamps], t)
			b2[model.FieldStatuses] = append(b2[model.FieldStatuses], status)
		}
	}
	return nil
}

func (s *SMU) ReadBuffer(ch string, buffer int, fields ...model.BufferField) (map[model.BufferField][]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[model.BufferField][]float64, len(fields))
	buf := s.buffers[ch][buffer]
	for _, f := range fields {
		out[f] = append([]float64{}, buf[f]...)
	}
	return out, nil
}

func (s *SMU) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
