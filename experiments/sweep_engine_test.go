package experiments

import (
	"testing"

	"github.com/iwtcode/probeStation/datafile"
	"github.com/iwtcode/probeStation/models"
	apperrors "github.com/iwtcode/probeStation/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepWritesCurvesWithRelativeTime(t *testing.T) {
	rig := newSweepRig(t)
	var curves []CurveFinished
	var finished []RunFinished
	engine := rig.engine(ObserverFuncs{
		OnCurve:  func(e CurveFinished) { curves = append(curves, e) },
		OnFinish: func(e RunFinished) { finished = append(finished, e) },
	})
	f := datafile.New(nil)

	task, err := engine.Start(nil, transferRequest(), f.Root())
	require.NoError(t, err)
	require.NoError(t, task.Wait())

	sweepGroup, ok := f.Lookup("/sweep")
	require.True(t, ok)
	mode, _ := sweepGroup.Attr("measurement_mode")
	assert.Equal(t, "transfer", mode)
	gsCh, _ := sweepGroup.Attr("GS_channel")
	assert.Equal(t, "a", gsCh)
	_, ok = sweepGroup.Attr("keithley_b_source_limiti")
	assert.True(t, ok)
	ts, _ := sweepGroup.Attr("timestamp")
	assert.Equal(t, "2024-05-13 17:16:24", ts)

	children := sweepGroup.Children()
	require.Len(t, children, 3)
	assert.Equal(t, []string{"curve", "curve_001", "curve_002"}, sweepGroup.ChildNames())

	labels := models.Labels("DS", "GS")
	for i, c := range children {
		assert.Equal(t, labels.Ordered(), c.DatasetNames())
		tm, _ := c.Dataset("time")
		require.Len(t, tm, 3)
		assert.Equal(t, 0.0, tm[0], "время кривой отсчитывается от первой точки")
		assert.InDeltaSlice(t, []float64{0, 0.1, 0.2}, tm, 1e-9)

		gs, _ := c.Dataset("calculated_V_GS")
		assert.Equal(t, []float64{0, 1, 2}, gs)
		ds, _ := c.Dataset("calculated_V_DS")
		outer := []float64{0, 0.5, 1}[i]
		assert.Equal(t, []float64{outer, outer, outer}, ds)
		v, _ := c.Attr("V_DS")
		assert.Equal(t, outer, v)
		counter, _ := c.Attr("measurement_counter")
		assert.Equal(t, 0, counter)
	}

	id, _ := children[1].Dataset("measured_I_DS")
	assert.Zero(t, id[0], "ниже порога ток стока нулевой")
	assert.Greater(t, id[2], 0.0)

	_, on := rig.smu.Level("a")
	assert.False(t, on, "каналы выключены после развертки")
	_, on = rig.smu.Level("b")
	assert.False(t, on)

	require.Len(t, curves, 3)
	assert.Equal(t, "/sweep/curve_001", curves[1].Path)
	require.Len(t, finished, 1)
	assert.Equal(t, KindSweep, finished[0].Kind)
	assert.False(t, finished[0].Stopped)

	st := engine.State()
	assert.Equal(t, models.StatusIdle, st.Status)
	assert.False(t, st.Running)
	assert.Empty(t, st.LastError)
	assert.Zero(t, f.Pending(), "все изменения сброшены")
}

func TestSweepRepetitionsAndOutputMode(t *testing.T) {
	rig := newSweepRig(t)
	engine := rig.engine(nil)
	f := datafile.New(nil)

	req := transferRequest()
	req.Mode = models.ModeOutput
	req.Repetitions = 2
	req.Sweep = models.SweepSpec{Start: 1, Stop: 2, Step: 1, Direction: models.Backward}
	req.Idle = models.IdleZero
	task, err := engine.Start(nil, req, f.Root())
	require.NoError(t, err)
	require.NoError(t, task.Wait())

	sweepGroup, ok := f.Lookup("/sweep")
	require.True(t, ok)
	children := sweepGroup.Children()
	require.Len(t, children, 4)

	var outer []interface{}
	var counters []interface{}
	for _, c := range children {
		v, _ := c.Attr("V_GS")
		outer = append(outer, v)
		n, _ := c.Attr("measurement_counter")
		counters = append(counters, n)
		assert.Contains(t, c.DatasetNames(), "measured_I_DS")
	}
	assert.Equal(t, []interface{}{2.0, 1.0, 2.0, 1.0}, outer)
	assert.Equal(t, []interface{}{0, 0, 1, 1}, counters)

	level, on := rig.smu.Level("a")
	assert.True(t, on, "режим zero удерживает 0 В")
	assert.Zero(t, level)
}

func TestSweepStopDuringCurveKeepsMeasuredPoints(t *testing.T) {
	rig := newSweepRig(t)
	var engine *SweepEngine
	var finished RunFinished
	engine = rig.engine(ObserverFuncs{
		OnPoint: func(e PointMeasured) {
			if e.Index == 1 {
				engine.Stop()
			}
		},
		OnFinish: func(e RunFinished) { finished = e },
	})
	f := datafile.New(nil)

	task, err := engine.Start(nil, transferRequest(), f.Root())
	require.NoError(t, err)
	require.NoError(t, task.Wait())
	assert.True(t, task.Stopped())
	assert.True(t, finished.Stopped)

	sweepGroup, ok := f.Lookup("/sweep")
	require.True(t, ok)
	children := sweepGroup.Children()
	require.Len(t, children, 1, "после остановки новые кривые не начинаются")
	tm, ok := children[0].Dataset("time")
	require.True(t, ok, "прерванная кривая сохранена")
	assert.Len(t, tm, 2)
	assert.Equal(t, 0.0, tm[0])
	gs, _ := children[0].Dataset("calculated_V_GS")
	assert.Equal(t, []float64{0, 1}, gs)
}

func TestSweepDeviceErrorDropsCurrentCurve(t *testing.T) {
	rig := newSweepRig(t)
	rig.smu.FailMeasureAt = 4
	engine := rig.engine(nil)
	f := datafile.New(nil)

	task, err := engine.Start(nil, transferRequest(), f.Root())
	require.NoError(t, err)
	err = task.Wait()
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDeviceCommunication)

	curve, ok := f.Lookup("/sweep/curve")
	require.True(t, ok)
	assert.Empty(t, curve.DatasetNames(), "незавершенная кривая не сохраняется")

	st := engine.State()
	assert.False(t, st.Running)
	assert.Contains(t, st.LastError, "injected timeout")

	_, on := rig.smu.Level("b")
	assert.False(t, on)
}

func TestSweepStartWhileRunningReturnsSameTask(t *testing.T) {
	rig := newSweepRig(t)
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	engine := rig.engine(ObserverFuncs{
		OnPoint: func(PointMeasured) {
			select {
			case entered <- struct{}{}:
			default:
			}
			<-release
		},
	})

	first, err := engine.Start(nil, transferRequest(), nil)
	require.NoError(t, err)
	<-entered
	assert.Equal(t, models.StatusRunning, engine.State().Status)

	second, err := engine.Start(nil, models.SweepRequest{}, nil)
	require.NoError(t, err)
	assert.Same(t, first, second)

	close(release)
	require.NoError(t, first.Wait())
	assert.Equal(t, 18, rig.smu.Measurements(), "второй старт не добавил точек")
	assert.Equal(t, 9, engine.State().PointCounter)
}

func TestSweepWithoutSinkDoesNotWrite(t *testing.T) {
	rig := newSweepRig(t)
	var curves int
	engine := rig.engine(ObserverFuncs{OnCurve: func(e CurveFinished) {
		curves++
		assert.Empty(t, e.Path)
		assert.Equal(t, 0.0, e.Record.Series("time")[0])
	}})
	task, err := engine.Start(nil, transferRequest(), nil)
	require.NoError(t, err)
	require.NoError(t, task.Wait())
	assert.Equal(t, 3, curves)
}

func TestSweepRejectsInvalidRequest(t *testing.T) {
	rig := newSweepRig(t)
	engine := rig.engine(nil)

	req := transferRequest()
	req.Curve.Step = 0
	_, err := engine.Start(nil, req, nil)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)

	req = transferRequest()
	req.Mode = "diode"
	_, err = engine.Start(nil, req, nil)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)

	req = transferRequest()
	req.Strategy = "turbo"
	_, err = engine.Start(nil, req, nil)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)

	assert.Nil(t, engine.Task())
	assert.Equal(t, models.StatusIdle, engine.State().Status)
}

func TestScriptedStrategyMatchesPolledShape(t *testing.T) {
	rig := newSweepRig(t)
	engine := rig.engine(nil)
	f := datafile.New(nil)

	req := transferRequest()
	req.Strategy = models.StrategyScripted
	req.Description = "scripted"
	task, err := engine.Start(nil, req, f.Root())
	require.NoError(t, err)
	require.NoError(t, task.Wait())

	req.Strategy = models.StrategyPolled
	req.Description = "polled"
	task, err = engine.Start(nil, req, f.Root())
	require.NoError(t, err)
	require.NoError(t, task.Wait())

	scripted, ok := f.Lookup("/scripted/curve_002")
	require.True(t, ok)
	polled, ok := f.Lookup("/polled/curve_002")
	require.True(t, ok)
	assert.Equal(t, polled.DatasetNames(), scripted.DatasetNames())

	for _, name := range []string{"calculated_V_GS", "calculated_V_DS"} {
		a, _ := scripted.Dataset(name)
		b, _ := polled.Dataset(name)
		assert.Equal(t, b, a, name)
	}
	sid, _ := scripted.Dataset("measured_I_DS")
	pid, _ := polled.Dataset("measured_I_DS")
	assert.InDeltaSlice(t, pid, sid, 1e-12)

	tm, _ := scripted.Dataset("time")
	assert.Equal(t, 0.0, tm[0])
	assert.InDeltaSlice(t, []float64{0, 0.11, 0.22}, tm, 1e-9, "время точек берется из буфера прибора")
	comp, _ := scripted.Dataset("compliance_V_DS")
	assert.Equal(t, []float64{0, 0, 0}, comp)
}

func TestScriptedComplianceFromStatusBits(t *testing.T) {
	rig := newSweepRig(t)
	require.NoError(t, rig.smu.SetLimit("b", "i", 1e-6))
	engine := rig.engine(nil)
	f := datafile.New(nil)

	req := transferRequest()
	req.Strategy = models.StrategyScripted
	task, err := engine.Start(nil, req, f.Root())
	require.NoError(t, err)
	require.NoError(t, task.Wait())

	curve, ok := f.Lookup("/sweep/curve_002")
	require.True(t, ok)
	comp, _ := curve.Dataset("compliance_V_DS")
	assert.Equal(t, []float64{0, 1, 1}, comp)
}
