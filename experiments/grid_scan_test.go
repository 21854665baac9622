package experiments

import (
	"errors"
	"testing"
	"time"

	"github.com/iwtcode/probeStation/datafile"
	"github.com/iwtcode/probeStation/instruments"
	"github.com/iwtcode/probeStation/instruments/sim"
	"github.com/iwtcode/probeStation/models"
	apperrors "github.com/iwtcode/probeStation/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gridRequest() models.GridRequest {
	return models.GridRequest{
		PrimaryAxis: "X",
		X:           models.SweepSpec{Start: 0, Stop: 1, Step: 0.5},
		Y:           models.SweepSpec{Start: 0, Stop: 1, Step: 1},
	}
}

func TestResolveAxes(t *testing.T) {
	var log []string
	x := &fakeAxis{name: "X", log: &log}
	y := &fakeAxis{name: "Y", log: &log}

	p, s, err := ResolveAxes("x", x, y)
	require.NoError(t, err)
	assert.Same(t, x, p)
	assert.Same(t, y, s)

	p, s, err = ResolveAxes("Y", x, y)
	require.NoError(t, err)
	assert.Same(t, y, p)
	assert.Same(t, x, s)

	_, _, err = ResolveAxes("Z", x, y)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestGridPointCountAndLabel(t *testing.T) {
	count, err := GridPointCount(gridRequest())
	require.NoError(t, err)
	assert.Equal(t, "3 x 2 = 6", count)
	assert.Equal(t, "point_X0.500_Y-1.250", PointLabel("X", 0.5, "Y", -1.25))
}

func TestGridVisitsPointsRowMajor(t *testing.T) {
	var moves []string
	x := &fakeAxis{name: "X", log: &moves}
	y := &fakeAxis{name: "Y", log: &moves}
	clock := newFakeClock()
	var texts []string
	engine := NewGridScanEngine(GridConfig{X: x, Y: y, Clock: clock, Observer: ObserverFuncs{
		OnProgress: func(e GridProgress) { texts = append(texts, e.Text) },
	}})
	f := datafile.New(nil)

	var labels []string
	var before, after int
	run := GridRun{
		Request: gridRequest(),
		Sink:    f.Root(),
		Measure: func(p GridPoint) error {
			labels = append(labels, p.Label)
			assert.Equal(t, len(labels)-1, p.Index)
			assert.Equal(t, "/scan", p.Scan.Path())
			clock.Sleep(time.Minute)
			return nil
		},
		Hooks: GridHooks{
			BeforeScan: func(scan datafile.Group) error {
				before++
				return scan.SetAttr("laser", "off")
			},
			AfterScan: func() error { after++; return nil },
		},
	}
	task, err := engine.Start(nil, run)
	require.NoError(t, err)
	require.NoError(t, task.Wait())

	assert.Equal(t, []string{
		"point_X0.000_Y0.000", "point_X0.000_Y1.000",
		"point_X0.500_Y0.000", "point_X0.500_Y1.000",
		"point_X1.000_Y0.000", "point_X1.000_Y1.000",
	}, labels)
	assert.Equal(t, []string{
		"X=0", "Y=0", "Y=1",
		"X=0.5", "Y=0", "Y=1",
		"X=1", "Y=0", "Y=1",
	}, moves)
	assert.Equal(t, 1, before)
	assert.Equal(t, 1, after)

	require.Len(t, texts, 6)
	assert.Equal(t, "point 1/6, elapsed: 0h 1m, remaining: 0h 5m", texts[0])
	assert.Equal(t, "point 6/6, elapsed: 0h 6m, remaining: 0h 0m", texts[5])

	scan, ok := f.Lookup("/scan")
	require.True(t, ok)
	primary, _ := scan.Attr("primary_axis")
	assert.Equal(t, "X", primary)
	nx, _ := scan.Attr("num_X_points")
	assert.Equal(t, 3, nx)
	xs, _ := scan.Dataset("grid_X_points")
	assert.Equal(t, []float64{0, 0.5, 1}, xs)
	laser, _ := scan.Attr("laser")
	assert.Equal(t, "off", laser)

	st := engine.State()
	assert.False(t, st.Running)
	assert.Equal(t, 6, st.PointCounter)
	assert.Equal(t, 6, st.TotalPoints)
}

func TestGridDelaysBetweenPointsAndRows(t *testing.T) {
	var moves []string
	clock := newFakeClock()
	engine := NewGridScanEngine(GridConfig{X: &fakeAxis{name: "X", log: &moves}, Y: &fakeAxis{name: "Y", log: &moves}, Clock: clock})
	req := gridRequest()
	req.PrimaryAxis = "Y"
	req.PointDelay = 2
	req.RowDelay = 5
	task, err := engine.Start(nil, GridRun{Request: req, Measure: func(GridPoint) error { return nil }})
	require.NoError(t, err)
	require.NoError(t, task.Wait())

	assert.Equal(t, []time.Duration{
		2 * time.Second, 2 * time.Second, 2 * time.Second, 5 * time.Second,
		2 * time.Second, 2 * time.Second, 2 * time.Second, 5 * time.Second,
	}, clock.slept)
	assert.Equal(t, "Y=0", moves[0])
}

func TestGridStopRunsAfterHook(t *testing.T) {
	var moves []string
	var engine *GridScanEngine
	engine = NewGridScanEngine(GridConfig{X: &fakeAxis{name: "X", log: &moves}, Y: &fakeAxis{name: "Y", log: &moves}, Clock: newFakeClock()})
	calls := 0
	after := 0
	task, err := engine.Start(nil, GridRun{
		Request: gridRequest(),
		Measure: func(p GridPoint) error {
			calls++
			if calls == 3 {
				engine.Stop()
				assert.False(t, p.Token.Running(), "токен точки видит остановку сканирования")
			}
			return nil
		},
		Hooks: GridHooks{AfterScan: func() error { after++; return nil }},
	})
	require.NoError(t, err)
	require.NoError(t, task.Wait())
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, after)
	assert.True(t, task.Stopped())
}

func TestGridMeasureErrorAbortsScan(t *testing.T) {
	var moves []string
	engine := NewGridScanEngine(GridConfig{X: &fakeAxis{name: "X", log: &moves}, Y: &fakeAxis{name: "Y", log: &moves}, Clock: newFakeClock()})
	boom := &apperrors.DeviceError{Device: "smu", Err: errors.New("timeout")}
	after := 0
	task, err := engine.Start(nil, GridRun{
		Request: gridRequest(),
		Measure: func(GridPoint) error { return boom },
		Hooks:   GridHooks{AfterScan: func() error { after++; return nil }},
	})
	require.NoError(t, err)
	err = task.Wait()
	assert.ErrorIs(t, err, apperrors.ErrDeviceCommunication)
	assert.Equal(t, 1, after)
	assert.Equal(t, []string{"X=0", "Y=0"}, moves)
	assert.Contains(t, engine.State().LastError, "timeout")
}

func TestGridSoftLimitsCheckedBeforeMotion(t *testing.T) {
	stageX := sim.NewStage(-100, 100)
	stageY := sim.NewStage(-100, 100)
	noWait := func(time.Duration) {}
	x := instruments.NewStageAxis(stageX, "X", instruments.SoftLimits{Min: 0, Max: 0.6}, 0).WithSleep(noWait)
	y := instruments.NewStageAxis(stageY, "Y", instruments.SoftLimits{}, 0).WithSleep(noWait)
	engine := NewGridScanEngine(GridConfig{X: x, Y: y, Clock: newFakeClock()})

	_, err := engine.Start(nil, GridRun{Request: gridRequest(), Measure: func(GridPoint) error { return nil }})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrSoftLimitExceeded)
	assert.Empty(t, stageX.Moves())
	assert.Empty(t, stageY.Moves())
}

func TestGridLimitSensorAbortsScan(t *testing.T) {
	stageX := sim.NewStage(0, 0.5)
	noWait := func(time.Duration) {}
	x := instruments.NewStageAxis(stageX, "X", instruments.SoftLimits{}, 0).WithSleep(noWait)
	y := instruments.NewStageAxis(sim.NewStage(-10, 10), "Y", instruments.SoftLimits{}, 0).WithSleep(noWait)
	engine := NewGridScanEngine(GridConfig{X: x, Y: y, Clock: newFakeClock()})

	points := 0
	task, err := engine.Start(nil, GridRun{Request: gridRequest(), Measure: func(GridPoint) error { points++; return nil }})
	require.NoError(t, err)
	err = task.Wait()
	assert.ErrorIs(t, err, apperrors.ErrLimitSensorTriggered)
	assert.Equal(t, 4, points)
}

func TestEstimateProgressScenario(t *testing.T) {
	p := models.EstimateProgress(1, 10, 10*time.Second)
	assert.Equal(t, "point 1/10, elapsed: 0h 0m, remaining: 0h 1m", p.String())
}
