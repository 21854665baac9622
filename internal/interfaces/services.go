package interfaces

import (
	"github.com/iwtcode/probeStation/internal/domain/entities"
	"github.com/iwtcode/probeStation/internal/domain/models"
	labmodels "github.com/iwtcode/probeStation/models"
)

// LabService - агрегирующий интерфейс управления стендом.
type LabService interface {
	RunManager
	StageManager
	Close() error
}

// RunManager управляет прогонами и их историей.
type RunManager interface {
	StartSweep(req labmodels.SweepRequest) (*models.RunInfo, error)
	StopSweep()
	StartGridScan(req labmodels.GridRequest) (*models.RunInfo, error)
	StopGridScan()
	StartParameterSweep(req labmodels.ParameterSweepRequest) (*models.RunInfo, error)
	StopParameterSweep()
	// State возвращает состояние движка и id его текущего прогона.
	State(kind string) (labmodels.RunState, string, error)
	Runs() ([]entities.RunRecord, error)
	Run(id string) (*entities.RunRecord, error)
}

// StageManager - ручное управление столиком.
type StageManager interface {
	GridPointCount(req labmodels.GridRequest) (string, error)
	StagePositions() ([]labmodels.AxisPosition, error)
	MoveStage(axis string, position float64) error
}
