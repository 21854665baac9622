package lab_service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	probestation "github.com/iwtcode/probeStation"
	"github.com/iwtcode/probeStation/experiments"
	"github.com/iwtcode/probeStation/internal/adapters/repositories/memory"
	"github.com/iwtcode/probeStation/internal/domain/entities"
	"github.com/iwtcode/probeStation/internal/domain/models"
	"github.com/iwtcode/probeStation/internal/middleware/logging"
	labmodels "github.com/iwtcode/probeStation/models"
	apperrors "github.com/iwtcode/probeStation/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	mu   sync.Mutex
	keys []string
	msgs []models.RunEvent
}

func (p *fakeProducer) Produce(_ context.Context, key, value []byte) error {
	var ev models.RunEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, string(key))
	p.msgs = append(p.msgs, ev)
	return nil
}

func (p *fakeProducer) Close() error { return nil }

func (p *fakeProducer) types() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := map[string]int{}
	for _, m := range p.msgs {
		out[m.Type]++
	}
	return out
}

type fakeHub struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (h *fakeHub) Broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, msg)
}

func (h *fakeHub) ServeWS(http.ResponseWriter, *http.Request) {}
func (h *fakeHub) Clients() int                                 { return 0 }
func (h *fakeHub) Close()                                       {}

func (h *fakeHub) count(eventType string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, m := range h.msgs {
		var ev models.RunEvent
		if json.Unmarshal(m, &ev) == nil && ev.Type == eventType {
			n++
		}
	}
	return n
}

type fixture struct {
	svc      *labService
	repo     *memory.Repository
	producer *fakeProducer
	hub      *fakeHub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client, err := probestation.New(&probestation.Config{
		LogLevel:   "off",
		Simulate:   true,
		SMU:        probestation.SMUConfig{ChannelGS: "a", ChannelDS: "b"},
		StageX:     probestation.StageConfig{SoftMin: -5, SoftMax: 5},
		StageY:     probestation.StageConfig{SoftMin: -5, SoftMax: 5},
		MotionPoll: time.Millisecond,
	})
	require.NoError(t, err)

	f := &fixture{repo: memory.NewRepository(), producer: &fakeProducer{}, hub: &fakeHub{}}
	logger := logging.NewLogger(&logging.Config{Enabled: false}, "Test")
	f.svc = NewLabService(client, f.repo, f.producer, f.hub, logger).(*labService)
	return f
}

func quickSweep() labmodels.SweepRequest {
	return labmodels.SweepRequest{
		Sweep: labmodels.SweepSpec{Start: 0, Stop: 1, Step: 1},
		Curve: labmodels.SweepSpec{Start: 0, Stop: 2, Step: 1},
		Save:  true,
	}
}

func TestSweepRunIsRecordedAndPublished(t *testing.T) {
	f := newFixture(t)

	info, err := f.svc.StartSweep(quickSweep())
	require.NoError(t, err)
	assert.False(t, info.Existing)
	assert.Equal(t, experiments.KindSweep, info.Kind)
	require.NoError(t, f.svc.client.SweepEngine().Task().Wait())
	require.NoError(t, f.svc.Close())

	run, err := f.svc.Run(info.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.RunStatusFinished, run.Status)
	assert.Contains(t, run.Request, `"save":true`)
	require.NotNil(t, run.FinishedAt)

	types := f.producer.types()
	assert.Equal(t, 2, types[models.EventCurve])
	assert.Equal(t, 1, types[models.EventRunFinished])
	assert.Zero(t, types[models.EventPoint], "точки не должны уходить в Kafka")
	for _, key := range f.producer.keys {
		assert.Equal(t, info.ID, key)
	}

	assert.Equal(t, 6, f.hub.count(models.EventPoint))
	assert.Equal(t, 1, f.hub.count(models.EventRunFinished))
	assert.Positive(t, f.repo.Changes(), "дерево результатов должно дублироваться в хранилище")

	_, id, err := f.svc.State(experiments.KindSweep)
	require.NoError(t, err)
	assert.Equal(t, info.ID, id)
}

func TestRepeatedStartReturnsRunningRun(t *testing.T) {
	f := newFixture(t)
	req := quickSweep()
	req.Curve = labmodels.SweepSpec{Start: 0, Stop: 10, Step: 1}
	req.PointDelay = 0.05

	first, err := f.svc.StartSweep(req)
	require.NoError(t, err)
	second, err := f.svc.StartSweep(req)
	require.NoError(t, err)
	assert.True(t, second.Existing)
	assert.Equal(t, first.ID, second.ID)

	_, err = f.svc.StartGridScan(labmodels.GridRequest{})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyRunning)

	f.svc.StopSweep()
	_ = f.svc.client.SweepEngine().Task().Wait()
	require.NoError(t, f.svc.Close())

	runs, err := f.svc.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, entities.RunStatusStopped, runs[0].Status)
}

func TestGridStartRejectedWhileParameterSweepRuns(t *testing.T) {
	f := newFixture(t)
	grid := labmodels.GridRequest{
		X:            labmodels.SweepSpec{Start: 0, Stop: 0, Step: 1},
		Y:            labmodels.SweepSpec{Start: 0, Stop: 0, Step: 1},
		CoolingDelay: 0.5,
		Sweep:        labmodels.SweepRequest{Sweep: labmodels.SweepSpec{Start: 0.5, Stop: 0.5, Step: 1}, Curve: labmodels.SweepSpec{Start: 0, Stop: 0, Step: 1}},
	}
	_, err := f.svc.StartParameterSweep(labmodels.ParameterSweepRequest{
		Parameter: labmodels.ParameterGridDelay,
		Values:    "0, 0",
		Grid:      grid,
	})
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	_, err = f.svc.StartGridScan(grid)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyRunning)

	f.svc.StopParameterSweep()
	require.NoError(t, f.svc.client.ParameterSweep().Task().Wait())
	require.NoError(t, f.svc.Close())

	runs, err := f.svc.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1, "отклоненный старт не создает записи в истории")
	assert.Equal(t, experiments.KindParameterSweep, runs[0].Kind)
	assert.Equal(t, entities.RunStatusStopped, runs[0].Status)
}

func TestParameterSweepOwnsNestedScanEvents(t *testing.T) {
	f := newFixture(t)
	info, err := f.svc.StartParameterSweep(labmodels.ParameterSweepRequest{
		Parameter: labmodels.ParameterGridDelay,
		Values:    "0, 0.1",
		Grid: labmodels.GridRequest{
			X:     labmodels.SweepSpec{Start: 0, Stop: 0, Step: 1},
			Y:     labmodels.SweepSpec{Start: 0, Stop: 0, Step: 1},
			Sweep: labmodels.SweepRequest{Sweep: labmodels.SweepSpec{Start: 0.5, Stop: 0.5, Step: 1}, Curve: labmodels.SweepSpec{Start: 0, Stop: 0, Step: 1}},
		},
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.client.ParameterSweep().Task().Wait())
	require.NoError(t, f.svc.Close())

	runs, err := f.svc.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1, "вложенные сканирования не создают собственных записей")
	assert.Equal(t, entities.RunStatusFinished, runs[0].Status)

	f.producer.mu.Lock()
	defer f.producer.mu.Unlock()
	finished := 0
	for _, ev := range f.producer.msgs {
		assert.Equal(t, info.ID, ev.RunID)
		if ev.Type == models.EventRunFinished {
			finished++
		}
	}
	assert.Equal(t, 1, finished, "о вложенных прогонах не сообщается отдельно")
}

func TestStateRejectsUnknownKind(t *testing.T) {
	f := newFixture(t)
	defer f.svc.Close()
	_, _, err := f.svc.State("laser")
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestStartAfterCloseFails(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.Close())
	_, err := f.svc.StartSweep(quickSweep())
	assert.Error(t, err)
}
