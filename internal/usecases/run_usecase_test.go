package usecases

import (
	"testing"

	"github.com/iwtcode/probeStation/experiments"
	"github.com/iwtcode/probeStation/internal/domain/entities"
	"github.com/iwtcode/probeStation/internal/domain/models"
	labmodels "github.com/iwtcode/probeStation/models"
	apperrors "github.com/iwtcode/probeStation/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLab записывает вызовы остановки и перемещения.
type stubLab struct {
	stopped []string
	moved   map[string]float64
}

func (s *stubLab) StartSweep(labmodels.SweepRequest) (*models.RunInfo, error) {
	return &models.RunInfo{ID: "r1", Kind: experiments.KindSweep}, nil
}
func (s *stubLab) StopSweep() { s.stopped = append(s.stopped, experiments.KindSweep) }
func (s *stubLab) StartGridScan(labmodels.GridRequest) (*models.RunInfo, error) {
	return nil, apperrors.ErrAlreadyRunning
}
func (s *stubLab) StopGridScan() { s.stopped = append(s.stopped, experiments.KindGridScan) }
func (s *stubLab) StartParameterSweep(labmodels.ParameterSweepRequest) (*models.RunInfo, error) {
	return nil, nil
}
func (s *stubLab) StopParameterSweep() {
	s.stopped = append(s.stopped, experiments.KindParameterSweep)
}
func (s *stubLab) State(kind string) (labmodels.RunState, string, error) {
	return labmodels.RunState{Status: labmodels.StatusIdle}, "r1", nil
}
func (s *stubLab) Runs() ([]entities.RunRecord, error) { return nil, nil }

func (s *stubLab) Run(id string) (*entities.RunRecord, error) {
	return &entities.RunRecord{ID: id}, nil
}
func (s *stubLab) GridPointCount(labmodels.GridRequest) (string, error) {
	return "1 x 1 = 1", nil
}
func (s *stubLab) StagePositions() ([]labmodels.AxisPosition, error) { return nil, nil }
func (s *stubLab) MoveStage(axis string, position float64) error {
	if s.moved == nil {
		s.moved = map[string]float64{}
	}
	s.moved[axis] = position
	return nil
}
func (s *stubLab) Close() error { return nil }

func TestStopDispatchesByKind(t *testing.T) {
	lab := &stubLab{}
	u := NewUsecase(lab)

	require.NoError(t, u.Stop("grid"))
	require.NoError(t, u.Stop("parameter_sweep"))
	require.NoError(t, u.Stop("sweep"))
	assert.Equal(t, []string{"grid", "parameter_sweep", "sweep"}, lab.stopped)
	assert.ErrorIs(t, u.Stop("laser"), apperrors.ErrConfiguration)
}

func TestMoveStageValidatesRequest(t *testing.T) {
	lab := &stubLab{}
	u := NewUsecase(lab)
	pos := 1.5

	assert.ErrorIs(t, u.MoveStage(models.MoveStageRequest{Axis: " ", Position: &pos}), apperrors.ErrConfiguration)
	assert.ErrorIs(t, u.MoveStage(models.MoveStageRequest{Axis: "X"}), apperrors.ErrConfiguration)
	require.NoError(t, u.MoveStage(models.MoveStageRequest{Axis: " X ", Position: &pos}))
	assert.Equal(t, map[string]float64{"X": 1.5}, lab.moved)
}

func TestRunsNeverNil(t *testing.T) {
	u := NewUsecase(&stubLab{})
	runs, err := u.Runs()
	require.NoError(t, err)
	assert.NotNil(t, runs)

	state, err := u.State("sweep")
	require.NoError(t, err)
	assert.Equal(t, "r1", state.RunID)
	assert.Equal(t, "ok", state.Status)
}
