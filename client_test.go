package probestation

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/iwtcode/probeStation/datafile"
	"github.com/iwtcode/probeStation/experiments"
	"github.com/iwtcode/probeStation/instruments/sim"
	"github.com/iwtcode/probeStation/models"
	apperrors "github.com/iwtcode/probeStation/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		LogLevel:   "off",
		Simulate:   true,
		SMU:        SMUConfig{ChannelGS: "a", ChannelDS: "b"},
		StageX:     StageConfig{SoftMin: -5, SoftMax: 5},
		StageY:     StageConfig{SoftMin: -5, SoftMax: 5},
		MotionPoll: time.Millisecond,
		DataFile:   filepath.Join(t.TempDir(), "run.jsonl"),
	}
}

func smallSweep() models.SweepRequest {
	return models.SweepRequest{
		Sweep: models.SweepSpec{Start: 0, Stop: 1, Step: 1},
		Curve: models.SweepSpec{Start: 0, Stop: 2, Step: 1},
		Save:  true,
	}
}

// collector запоминает события движков.
type collector struct {
	mu       sync.Mutex
	curves   int
	finished []experiments.RunFinished
}

func (c *collector) PointMeasured(experiments.PointMeasured) {}
func (c *collector) GridProgress(experiments.GridProgress)   {}

func (c *collector) CurveFinished(experiments.CurveFinished) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.curves++
}

func (c *collector) RunFinished(e experiments.RunFinished) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finished = append(c.finished, e)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("INSTRUMENTS_SIMULATE", "true")
	t.Setenv("SMU_TRANSPORT", "VISA")
	t.Setenv("SMU_CHANNEL_GS", "b")
	t.Setenv("STAGE_X_SOFT_MAX", "12.5")
	t.Setenv("MOTION_POLL_MS", "25")
	t.Setenv("PLOT_DIR", "/tmp/plots")

	cfg := Load()
	assert.True(t, cfg.Simulate)
	assert.Equal(t, TransportVISA, cfg.SMU.Transport)
	assert.Equal(t, "b", cfg.SMU.ChannelGS)
	assert.Equal(t, "b", cfg.SMU.ChannelDS)
	assert.Equal(t, 12.5, cfg.StageX.SoftMax)
	assert.Equal(t, StageConex, cfg.StageX.Driver)
	assert.Equal(t, StageGSC01, cfg.StageY.Driver)
	assert.Equal(t, 25*time.Millisecond, cfg.MotionPoll)
	assert.Equal(t, "/tmp/plots", cfg.PlotDir)
	assert.Equal(t, 3, cfg.Shutter.Pin)
}

func TestSweepIsJournaledAndReloaded(t *testing.T) {
	cfg := testConfig(t)
	c, err := New(cfg)
	require.NoError(t, err)
	events := &collector{}
	c.AddObserver(events)

	task, err := c.StartSweep(smallSweep())
	require.NoError(t, err)
	require.NoError(t, task.Wait())
	assert.False(t, c.SweepState().Running)
	require.NoError(t, c.Close())

	assert.Equal(t, 2, events.curves)
	require.Len(t, events.finished, 1)
	assert.Equal(t, experiments.KindSweep, events.finished[0].Kind)

	loaded, err := datafile.Load(cfg.DataFile)
	require.NoError(t, err)
	curve, ok := loaded.Lookup("/sweep/curve_001")
	require.True(t, ok, "вторая кривая должна быть в журнале")
	data, ok := curve.Dataset("measured_I_DS")
	require.True(t, ok)
	assert.Len(t, data, 3)

	// повторное открытие продолжает журнал, имена не повторяются
	c2, err := New(cfg)
	require.NoError(t, err)
	task, err = c2.StartSweep(smallSweep())
	require.NoError(t, err)
	require.NoError(t, task.Wait())
	require.NoError(t, c2.Close())
	loaded, err = datafile.Load(cfg.DataFile)
	require.NoError(t, err)
	_, ok = loaded.Lookup("/sweep_0001")
	assert.True(t, ok)
}

func TestGridScanWithSimulatedOptics(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataFile = ""
	dev := SimulatedDevices(cfg)
	c, err := NewWithDevices(cfg, dev, nil)
	require.NoError(t, err)

	req := models.GridRequest{
		X:     models.SweepSpec{Start: 0, Stop: 1, Step: 1},
		Y:     models.SweepSpec{Start: 0, Stop: 0, Step: 1},
		Sweep: models.SweepRequest{Sweep: models.SweepSpec{Start: 0.5, Stop: 0.5, Step: 1}, Curve: models.SweepSpec{Start: 0, Stop: 1, Step: 1}},
	}
	count, err := c.GridPointCount(req)
	require.NoError(t, err)
	assert.Equal(t, "2 x 1 = 2", count)

	task, err := c.StartGridScan(req)
	require.NoError(t, err)
	require.NoError(t, task.Wait())

	scan, ok := c.File().Lookup("/scan")
	require.True(t, ok)
	assert.Len(t, scan.Children(), 2)
	_, ok = c.File().Lookup("/scan/point_Y0.000_X1.000/laser_ON/sweep/curve")
	assert.True(t, ok)

	system, channel := dev.Laser.(*sim.Laser).Enabled()
	assert.False(t, system)
	assert.False(t, channel)
	assert.Equal(t, []bool{false, true, false, false, true, false}, dev.Shutter.(*sim.Shutter).History())

	positions, err := c.StagePositions()
	require.NoError(t, err)
	assert.Equal(t, []models.AxisPosition{{Axis: "X", Position: 1}, {Axis: "Y", Position: 0}}, positions)
	require.NoError(t, c.Close())
}

func TestParameterSweepRunsScanPerValue(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataFile = ""
	c, err := New(cfg)
	require.NoError(t, err)
	defer c.Close()

	task, err := c.StartParameterSweep(models.ParameterSweepRequest{
		Parameter: models.ParameterGridDelay,
		Values:    "0, 0.1",
		Grid: models.GridRequest{
			X:     models.SweepSpec{Start: 0, Stop: 0, Step: 1},
			Y:     models.SweepSpec{Start: 0, Stop: 0, Step: 1},
			Sweep: models.SweepRequest{Sweep: models.SweepSpec{Start: 0.5, Stop: 0.5, Step: 1}, Curve: models.SweepSpec{Start: 0, Stop: 0, Step: 1}},
		},
	})
	require.NoError(t, err)
	require.NoError(t, task.Wait())
	assert.Equal(t, []string{"scan", "scan_01"}, c.File().Root().ChildNames())
	assert.Equal(t, 2, c.ParameterSweepState().PointCounter)
}

func TestMoveStageChecksAxisAndLimits(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataFile = ""
	c, err := New(cfg)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.MoveStage("y", 2.5))
	positions, err := c.StagePositions()
	require.NoError(t, err)
	assert.Equal(t, 2.5, positions[1].Position)

	assert.ErrorIs(t, c.MoveStage("X", 6), apperrors.ErrSoftLimitExceeded)
	assert.ErrorIs(t, c.MoveStage("Z", 0), apperrors.ErrConfiguration)
}

func TestNewRejectsMissingDevices(t *testing.T) {
	_, err := NewWithDevices(testConfig(t), Devices{SMU: sim.NewSMU(sim.DefaultFET())}, nil)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sweep:
  description: transfer
  mode: transfer
  sweep: {start: 0, stop: 1, step: 0.5}
  curve: {start: 0, stop: 2, step: 1}
  repetitions: 2
  save: true
`), 0o644))

	rf, err := LoadRunFile(path)
	require.NoError(t, err)
	assert.Equal(t, experiments.KindSweep, rf.Kind)
	require.NotNil(t, rf.Sweep)
	assert.Equal(t, 2, rf.Sweep.Repetitions)
	assert.Equal(t, 0.5, rf.Sweep.Sweep.Step)

	cfg := testConfig(t)
	cfg.DataFile = ""
	c, err := New(cfg)
	require.NoError(t, err)
	defer c.Close()
	task, err := c.StartRun(rf)
	require.NoError(t, err)
	require.NoError(t, task.Wait())
	_, ok := c.File().Lookup("/transfer/curve_005")
	assert.True(t, ok)
}

func TestParseRunFileRejectsAmbiguousFiles(t *testing.T) {
	_, err := ParseRunFile([]byte("kind: grid\nsweep: {description: x}\n"))
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)

	_, err = ParseRunFile([]byte("sweep: {}\ngrid: {}\n"))
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)

	_, err = ParseRunFile([]byte("sweep: {unknown_field: 1}\n"))
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func longSweep() models.SweepRequest {
	return models.SweepRequest{
		Sweep:      models.SweepSpec{Start: 0, Stop: 0, Step: 1},
		Curve:      models.SweepSpec{Start: 0, Stop: 10, Step: 1},
		PointDelay: 0.05,
	}
}

func TestStartGridScanRejectsInvalidSweepBeforeMotion(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataFile = ""
	dev := SimulatedDevices(cfg)
	c, err := NewWithDevices(cfg, dev, nil)
	require.NoError(t, err)
	defer c.Close()

	req := models.GridRequest{
		X:     models.SweepSpec{Start: 1, Stop: 1, Step: 1},
		Y:     models.SweepSpec{Start: 1, Stop: 1, Step: 1},
		Sweep: models.SweepRequest{Sweep: models.SweepSpec{Start: 0.5, Stop: 0.5, Step: 1}, Curve: models.SweepSpec{Start: 0, Stop: 1, Step: 0}},
	}
	_, err = c.StartGridScan(req)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)

	positions, err := c.StagePositions()
	require.NoError(t, err)
	assert.Equal(t, []models.AxisPosition{{Axis: "X", Position: 0}, {Axis: "Y", Position: 0}}, positions)
	assert.Empty(t, dev.Laser.(*sim.Laser).Calls())
	assert.Empty(t, c.File().Root().ChildNames())
	assert.False(t, c.GridState().Running)
}

func TestStartGridScanRejectedDuringParameterSweep(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataFile = ""
	c, err := New(cfg)
	require.NoError(t, err)
	defer c.Close()

	params, err := c.StartParameterSweep(models.ParameterSweepRequest{
		Parameter: models.ParameterGridDelay,
		Values:    "0, 0",
		Grid: models.GridRequest{
			X:            models.SweepSpec{Start: 0, Stop: 0, Step: 1},
			Y:            models.SweepSpec{Start: 0, Stop: 0, Step: 1},
			CoolingDelay: 0.5,
			Sweep:        models.SweepRequest{Sweep: models.SweepSpec{Start: 0.5, Stop: 0.5, Step: 1}, Curve: models.SweepSpec{Start: 0, Stop: 0, Step: 1}},
		},
	})
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)
	require.True(t, c.ParameterSweepState().Running)

	task, err := c.StartGridScan(models.GridRequest{
		X:     models.SweepSpec{Start: 0, Stop: 0, Step: 1},
		Y:     models.SweepSpec{Start: 0, Stop: 0, Step: 1},
		Sweep: smallSweep(),
	})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyRunning)
	assert.Nil(t, task, "вложенное сканирование серии не отдается наружу")
	_, err = c.StartSweep(smallSweep())
	assert.ErrorIs(t, err, apperrors.ErrAlreadyRunning)

	c.StopParameterSweep()
	require.NoError(t, params.Wait())
	assert.Equal(t, 1, c.ParameterSweepState().PointCounter, "остановка пропускает оставшиеся значения")
}

func TestConcurrentStartsAreExclusive(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataFile = ""
	c, err := New(cfg)
	require.NoError(t, err)
	defer c.Close()

	grid := models.GridRequest{
		X:     models.SweepSpec{Start: 0, Stop: 0, Step: 1},
		Y:     models.SweepSpec{Start: 0, Stop: 0, Step: 1},
		Sweep: longSweep(),
	}
	for i := 0; i < 10; i++ {
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			started []*experiments.Task
		)
		begin := make(chan struct{})
		starts := []func() (*experiments.Task, error){
			func() (*experiments.Task, error) { return c.StartSweep(longSweep()) },
			func() (*experiments.Task, error) { return c.StartGridScan(grid) },
		}
		for _, start := range starts {
			wg.Add(1)
			go func(start func() (*experiments.Task, error)) {
				defer wg.Done()
				<-begin
				task, err := start()
				if err != nil {
					assert.ErrorIs(t, err, apperrors.ErrAlreadyRunning)
					return
				}
				mu.Lock()
				started = append(started, task)
				mu.Unlock()
			}(start)
		}
		close(begin)
		wg.Wait()

		require.Len(t, started, 1, "итерация %d: запускается ровно один движок", i)
		c.StopGridScan()
		c.StopSweep()
		require.NoError(t, started[0].Wait())
	}
}
