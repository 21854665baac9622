package sim

import (
	"fmt"
	"sync"

	"github.com/iwtcode/probeStation/instruments/model"
	"github.com/iwtcode/probeStation/models"
)

// Stage - имитация моторизованной оси. Движение длится MovePolls опросов IsMoving.
type Stage struct {
	mu        sync.Mutex
	pos       float64
	target    float64
	remaining int
	limitHit  bool

	MovePolls int
	// Физический ход оси; при выходе за него ось останавливается на концевике.
	TravelMin, TravelMax float64
	moves                []float64
	// FailMove возвращается из MoveAbsolute, если задан.
	FailMove error
	// FailPosition возвращается из Position, если задан.
	FailPosition error
}

var _ model.Stage = (*Stage)(nil)

func NewStage(travelMin, travelMax float64) *Stage {
	return &Stage{TravelMin: travelMin, TravelMax: travelMax, MovePolls: 2}
}

func (s *Stage) MoveAbsolute(position float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailMove != nil {
		return s.FailMove
	}
	s.moves = append(s.moves, position)
	s.limitHit = false
	if s.TravelMin != s.TravelMax {
		if position < s.TravelMin {
			position, s.limitHit = s.TravelMin, true
		} else if position > s.TravelMax {
			position, s.limitHit = s.TravelMax, true
		}
	}
	s.target = position
	s.remaining = s.MovePolls
	return nil
}

func (s *Stage) Position() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPosition != nil {
		return 0, s.FailPosition
	}
	return s.pos, nil
}

func (s *Stage) IsMoving() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remaining > 0 {
		s.remaining--
		return true, nil
	}
	s.pos = s.target
	return false, nil
}

func (s *Stage) LimitTriggered() (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limitHit {
		return true, "K,L,R", nil
	}
	return false, "K,K,R", nil
}

// Moves - все принятые команды движения.
func (s *Stage) Moves() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.moves...)
}

func (s *Stage) Close() error { return nil }

// Laser - имитация многоканального лазерного источника.
type Laser struct {
	mu      sync.Mutex
	system  bool
	channel int
	enabled bool
	current float64
	calls   []string
}

var _ model.Laser = (*Laser)(nil)

func NewLaser() *Laser {
	return &Laser{channel: 1}
}

func (l *Laser) record(format string, args ...interface{}) {
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

func (l *Laser) SetSystemEnabled(on bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.system = on
	l.record("system=%t", on)
	return nil
}

func (l *Laser) SetChannel(ch int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.channel = ch
	l.record("channel=%d", ch)
	return nil
}

func (l *Laser) SetEnabled(on bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = on
	l.record("enable=%t", on)
	return nil
}

func (l *Laser) SetCurrent(mA float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current = mA
	l.record("current=%g", mA)
	return nil
}

func (l *Laser) Status() (models.LaserStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	word := "0000"
	if l.enabled && l.channel >= 1 && l.channel <= 4 {
		b := []byte(word)
		b[l.channel-1] = '1'
		word = string(b)
	}
	power := 0.0
	if l.system && l.enabled {
		power = l.current * 0.1
	}
	return models.LaserStatus{
		EnabledChannels: word,
		ActiveChannel:   l.channel,
		Power:           power,
		Current:         l.current,
		Temperature:     25,
	}, nil
}

// Enabled - включены ли система и активный канал.
func (l *Laser) Enabled() (system, channel bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.system, l.enabled
}

// Calls - журнал команд.
func (l *Laser) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func (l *Laser) Close() error { return nil }

// Shutter - имитация затвора.
type Shutter struct {
	mu      sync.Mutex
	open    bool
	history []bool
}

var _ model.Shutter = (*Shutter)(nil)

func NewShutter() *Shutter { return &Shutter{} }

func (s *Shutter) set(open bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = open
	s.history = append(s.history, open)
	return nil
}

func (s *Shutter) OpenShutter() error  { return s.set(true) }
func (s *Shutter) CloseShutter() error { return s.set(false) }

func (s *Shutter) IsOpen() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open, nil
}

// History - последовательность состояний затвора (true - открыт).
func (s *Shutter) History() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.history...)
}

func (s *Shutter) Close() error { return nil }

// PowerSupply - имитация источника питания на резистивной нагрузке.
type PowerSupply struct {
	mu   sync.Mutex
	iset float64
	vset float64
	Load float64
}

var _ model.PowerSupply = (*PowerSupply)(nil)

func NewPowerSupply(load float64) *PowerSupply { return &PowerSupply{Load: load} }

func (p *PowerSupply) SetCurrent(a float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.iset = a
	return nil
}

func (p *PowerSupply) SetVoltage(v float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vset = v
	return nil
}

// Current ограничен уставкой тока.
func (p *PowerSupply) Current() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Load <= 0 {
		return 0, nil
	}
	i := p.vset / p.Load
	if i > p.iset {
		i = p.iset
	}
	return i, nil
}

func (p *PowerSupply) Voltage() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Load <= 0 {
		return p.vset, nil
	}
	i := p.vset / p.Load
	if i > p.iset {
		return p.iset * p.Load, nil
	}
	return p.vset, nil
}

func (p *PowerSupply) Close() error { return nil }
