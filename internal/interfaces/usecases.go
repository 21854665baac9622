package interfaces

import (
	"github.com/iwtcode/probeStation/internal/domain/entities"
	"github.com/iwtcode/probeStation/internal/domain/models"
	labmodels "github.com/iwtcode/probeStation/models"
)

// Usecases - это агрегирующий интерфейс для всех use cases
type Usecases interface {
	StartSweep(req labmodels.SweepRequest) (*models.RunInfo, error)
	// Stop запрашивает остановку прогона указанного вида.
	Stop(kind string) error
	StartGridScan(req labmodels.GridRequest) (*models.RunInfo, error)
	StartParameterSweep(req labmodels.ParameterSweepRequest) (*models.RunInfo, error)
	State(kind string) (*models.StateResponse, error)
	GridPointCount(req labmodels.GridRequest) (string, error)
	StagePositions() ([]labmodels.AxisPosition, error)
	MoveStage(req models.MoveStageRequest) error
	Runs() ([]entities.RunRecord, error)
	Run(id string) (*entities.RunRecord, error)
}
