package interfaces

import (
	"time"

	"github.com/iwtcode/probeStation/datafile"
	"github.com/iwtcode/probeStation/internal/domain/entities"
)

// DataTreeRepository сохраняет изменения дерева результатов (реализует datafile.Persister).
type DataTreeRepository interface {
	Persist(changes []datafile.Change) error
}

// RunRepository определяет контракт для работы с историей прогонов
type RunRepository interface {
	Create(run *entities.RunRecord) error
	Finish(id, status, errText string, at time.Time) error
	// MarkInterrupted закрывает прогоны, оставшиеся в статусе running после остановки сервиса.
	MarkInterrupted(at time.Time) (int64, error)
	GetAll() ([]entities.RunRecord, error)
	GetByID(id string) (*entities.RunRecord, error)
}

// Repository объединяет хранилища сервиса.
type Repository interface {
	DataTreeRepository
	RunRepository
}
