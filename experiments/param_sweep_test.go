package experiments

import (
	"errors"
	"testing"

	"github.com/iwtcode/probeStation/models"
	apperrors "github.com/iwtcode/probeStation/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameterValues(t *testing.T) {
	v, err := ParameterValues(models.ParameterSweepRequest{Parameter: models.ParameterLaserCurrent, Start: 10, Stop: 20, Points: 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 15, 20}, v)

	v, err = ParameterValues(models.ParameterSweepRequest{Parameter: models.ParameterLaserCurrent, Start: 0, Stop: 1, Points: 4})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.33, 0.67, 1}, v)

	v, err = ParameterValues(models.ParameterSweepRequest{Parameter: models.ParameterGridDelay, Values: "0.54, 1.26,3"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1.3, 3}, v)

	_, err = ParameterValues(models.ParameterSweepRequest{Parameter: "temperature", Values: "1"})
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	_, err = ParameterValues(models.ParameterSweepRequest{Parameter: models.ParameterGridDelay, Values: "1, x"})
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestParameterSweepRunsGridPerValue(t *testing.T) {
	var applied, scanned []float64
	cleanups := 0
	ps := NewParameterSweep(newFakeClock(), nil, nil)
	task, err := ps.Start(nil, ParameterRun{
		Values: []float64{1, 2, 3},
		Apply:  func(v float64) error { applied = append(applied, v); return nil },
		Grid: func(parent *Token, v float64) (*Task, error) {
			return Go(parent, func(*Token) error { scanned = append(scanned, v); return nil }), nil
		},
		Cleanup: func() error { cleanups++; return nil },
	})
	require.NoError(t, err)
	require.NoError(t, task.Wait())
	assert.Equal(t, []float64{1, 2, 3}, applied)
	assert.Equal(t, []float64{1, 2, 3}, scanned)
	assert.Equal(t, 1, cleanups)
	assert.Equal(t, 3, ps.State().PointCounter)
}

func TestParameterSweepStopRunsCleanup(t *testing.T) {
	var scanned []float64
	cleanups := 0
	var finished RunFinished
	ps := NewParameterSweep(newFakeClock(), nil, ObserverFuncs{OnFinish: func(e RunFinished) { finished = e }})

	task, err := ps.Start(nil, ParameterRun{
		Values: []float64{1, 2, 3},
		Grid: func(parent *Token, v float64) (*Task, error) {
			return Go(parent, func(tok *Token) error {
				scanned = append(scanned, v)
				ps.Stop()
				assert.False(t, tok.Running(), "остановка обертки доходит до сканирования")
				return nil
			}), nil
		},
		Cleanup: func() error { cleanups++; return nil },
	})
	require.NoError(t, err)
	require.NoError(t, task.Wait())
	assert.Equal(t, []float64{1}, scanned)
	assert.Equal(t, 1, cleanups)
	assert.Equal(t, KindParameterSweep, finished.Kind)
	assert.True(t, finished.Stopped)
}

func TestParameterSweepStopsWhenGridStopped(t *testing.T) {
	ps := NewParameterSweep(newFakeClock(), nil, nil)
	var scanned []float64
	cleanups := 0
	task, err := ps.Start(nil, ParameterRun{
		Values: []float64{1, 2, 3},
		Grid: func(parent *Token, v float64) (*Task, error) {
			return Go(parent, func(tok *Token) error {
				scanned = append(scanned, v)
				tok.Stop()
				return nil
			}), nil
		},
		Cleanup: func() error { cleanups++; return nil },
	})
	require.NoError(t, err)
	require.NoError(t, task.Wait())
	assert.Equal(t, []float64{1}, scanned)
	assert.Equal(t, 1, cleanups)
	assert.False(t, task.Stopped(), "остановлено только сканирование")
}

func TestParameterSweepErrorKeepsOriginalAndCleansUp(t *testing.T) {
	ps := NewParameterSweep(newFakeClock(), nil, nil)
	boom := errors.New("laser interlock")
	cleanups := 0
	task, err := ps.Start(nil, ParameterRun{
		Values: []float64{1, 2},
		Apply:  func(float64) error { return boom },
		Grid: func(parent *Token, v float64) (*Task, error) {
			assert.Fail(t, "сканирование не должно запускаться")
			return nil, errors.New("unexpected grid")
		},
		Cleanup: func() error { cleanups++; return errors.New("cleanup failed") },
	})
	require.NoError(t, err)
	assert.ErrorIs(t, task.Wait(), boom)
	assert.Equal(t, 1, cleanups)
	assert.Equal(t, boom.Error(), ps.State().LastError)
}

func TestParameterSweepValidatesRun(t *testing.T) {
	ps := NewParameterSweep(nil, nil, nil)
	_, err := ps.Start(nil, ParameterRun{})
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	_, err = ps.Start(nil, ParameterRun{Values: []float64{1}})
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}
