// Package memory - хранилище сервиса без базы данных: история прогонов живет до
// перезапуска, дерево результатов остается только в журнале станции.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/iwtcode/probeStation/datafile"
	"github.com/iwtcode/probeStation/internal/domain/entities"
	apperrors "github.com/iwtcode/probeStation/pkg/errors"
	"github.com/pkg/errors"
)

type Repository struct {
	mu      sync.RWMutex
	runs    map[string]entities.RunRecord
	changes int
}

func NewRepository() *Repository {
	return &Repository{runs: make(map[string]entities.RunRecord)}
}

func (r *Repository) Persist(changes []datafile.Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes += len(changes)
	return nil
}

// Changes - число принятых изменений дерева.
func (r *Repository) Changes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.changes
}

func (r *Repository) Create(run *entities.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[run.ID]; ok {
		return errors.Errorf("run %s already exists", run.ID)
	}
	r.runs[run.ID] = *run
	return nil
}

func (r *Repository) Finish(id, status, errText string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return errors.Wrapf(apperrors.ErrRunNotFound, "run %s", id)
	}
	run.Status = status
	run.Error = errText
	run.FinishedAt = &at
	r.runs[id] = run
	return nil
}

func (r *Repository) MarkInterrupted(at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, run := range r.runs {
		if run.Status != entities.RunStatusRunning {
			continue
		}
		finished := at
		run.Status = entities.RunStatusInterrupted
		run.FinishedAt = &finished
		r.runs[id] = run
		n++
	}
	return n, nil
}

func (r *Repository) GetAll() ([]entities.RunRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	runs := make([]entities.RunRecord, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].StartedAt.After(runs[j].StartedAt) })
	return runs, nil
}

func (r *Repository) GetByID(id string) (*entities.RunRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, errors.Wrapf(apperrors.ErrRunNotFound, "run %s", id)
	}
	return &run, nil
}
