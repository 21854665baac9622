package experiments

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/iwtcode/probeStation/instruments"
	"github.com/iwtcode/probeStation/instruments/sim"
	"github.com/iwtcode/probeStation/models"
)

// fakeClock продвигает время только в Sleep.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 13, 17, 16, 24, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.now = c.now.Add(d)
	}
	c.slept = append(c.slept, d)
}

// fakeAxis записывает все уставки в общий журнал.
type fakeAxis struct {
	name string
	log  *[]string
	pos  float64
	err  error
}

func (a *fakeAxis) Name() string { return a.name }

func (a *fakeAxis) Set(v float64) error {
	if a.err != nil {
		return a.err
	}
	*a.log = append(*a.log, fmt.Sprintf("%s=%g", a.name, v))
	a.pos = v
	return nil
}

func (a *fakeAxis) Position() (float64, error) { return a.pos, nil }
func (a *fakeAxis) Busy() (bool, error)        { return false, nil }

type sweepRig struct {
	smu    *sim.SMU
	gs, ds *instruments.SMUChannel
	clock  *fakeClock
}

func newSweepRig(t *testing.T) *sweepRig {
	t.Helper()
	smu := sim.NewSMU(sim.DefaultFET())
	return &sweepRig{
		smu:   smu,
		gs:    instruments.NewSMUChannel(smu, "a", "GS"),
		ds:    instruments.NewSMUChannel(smu, "b", "DS"),
		clock: newFakeClock(),
	}
}

func (r *sweepRig) engine(obs Observer) *SweepEngine {
	return NewSweepEngine(SweepConfig{SMU: r.smu, GS: r.gs, DS: r.ds, Clock: r.clock, Observer: obs})
}

// transferRequest: три кривые V_DS (0, 0.5, 1) по три точки V_GS (0, 1, 2).
func transferRequest() models.SweepRequest {
	return models.SweepRequest{
		Sweep:      models.SweepSpec{Start: 0, Stop: 1, Step: 0.5},
		Curve:      models.SweepSpec{Start: 0, Stop: 2, Step: 1},
		PointDelay: 0.1,
		Save:       true,
	}
}
