package usecases

import (
	"strings"

	"github.com/iwtcode/probeStation/experiments"
	"github.com/iwtcode/probeStation/internal/domain/entities"
	"github.com/iwtcode/probeStation/internal/domain/models"
	"github.com/iwtcode/probeStation/internal/interfaces"
	labmodels "github.com/iwtcode/probeStation/models"
	apperrors "github.com/iwtcode/probeStation/pkg/errors"
)

type Usecase struct {
	labSvc interfaces.LabService
}

func NewUsecase(labSvc interfaces.LabService) interfaces.Usecases {
	return &Usecase{
		labSvc: labSvc,
	}
}

func (u *Usecase) StartSweep(req labmodels.SweepRequest) (*models.RunInfo, error) {
	return u.labSvc.StartSweep(req)
}

func (u *Usecase) StartGridScan(req labmodels.GridRequest) (*models.RunInfo, error) {
	return u.labSvc.StartGridScan(req)
}

func (u *Usecase) StartParameterSweep(req labmodels.ParameterSweepRequest) (*models.RunInfo, error) {
	return u.labSvc.StartParameterSweep(req)
}

// Stop запрашивает остановку; прогон завершается после текущей точки.
func (u *Usecase) Stop(kind string) error {
	switch kind {
	case experiments.KindSweep:
		u.labSvc.StopSweep()
	case experiments.KindGridScan:
		u.labSvc.StopGridScan()
	case experiments.KindParameterSweep:
		u.labSvc.StopParameterSweep()
	default:
		return apperrors.Configurationf("kind", "unknown run kind %q", kind)
	}
	return nil
}

func (u *Usecase) State(kind string) (*models.StateResponse, error) {
	state, runID, err := u.labSvc.State(kind)
	if err != nil {
		return nil, err
	}
	return &models.StateResponse{Status: "ok", RunID: runID, State: state}, nil
}

func (u *Usecase) GridPointCount(req labmodels.GridRequest) (string, error) {
	return u.labSvc.GridPointCount(req)
}

func (u *Usecase) StagePositions() ([]labmodels.AxisPosition, error) {
	return u.labSvc.StagePositions()
}

func (u *Usecase) MoveStage(req models.MoveStageRequest) error {
	axis := strings.TrimSpace(req.Axis)
	if axis == "" {
		return apperrors.Configurationf("axis", "axis is required")
	}
	if req.Position == nil {
		return apperrors.Configurationf("position", "position is required")
	}
	return u.labSvc.MoveStage(axis, *req.Position)
}

func (u *Usecase) Runs() ([]entities.RunRecord, error) {
	runs, err := u.labSvc.Runs()
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []entities.RunRecord{}
	}
	return runs, nil
}

func (u *Usecase) Run(id string) (*entities.RunRecord, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.Configurationf("id", "run id is required")
	}
	return u.labSvc.Run(id)
}
