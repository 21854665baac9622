package lab_service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/iwtcode/probeStation/experiments"
	"github.com/iwtcode/probeStation/internal/domain/entities"
	"github.com/iwtcode/probeStation/internal/domain/models"
	labmodels "github.com/iwtcode/probeStation/models"
	apperrors "github.com/iwtcode/probeStation/pkg/errors"
	"github.com/pkg/errors"
)

func (s *labService) StartSweep(req labmodels.SweepRequest) (*models.RunInfo, error) {
	return s.start(experiments.KindSweep, req, func() (*experiments.Task, error) {
		return s.client.StartSweep(req)
	})
}

func (s *labService) StopSweep() { s.client.StopSweep() }

func (s *labService) StartGridScan(req labmodels.GridRequest) (*models.RunInfo, error) {
	return s.start(experiments.KindGridScan, req, func() (*experiments.Task, error) {
		return s.client.StartGridScan(req)
	})
}

func (s *labService) StopGridScan() { s.client.StopGridScan() }

func (s *labService) StartParameterSweep(req labmodels.ParameterSweepRequest) (*models.RunInfo, error) {
	return s.start(experiments.KindParameterSweep, req, func() (*experiments.Task, error) {
		return s.client.StartParameterSweep(req)
	})
}

func (s *labService) StopParameterSweep() { s.client.StopParameterSweep() }

// start запускает прогон под s.mu, чтобы события нового прогона не опередили его
// регистрацию. Если движок вернул уже выполняющийся прогон, новая запись не создается.
func (s *labService) start(kind string, req interface{}, launch func() (*experiments.Task, error)) (*models.RunInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("lab service is closed")
	}

	task, err := launch()
	if err != nil {
		return nil, err
	}

	queue := s.active[kind]
	if n := len(queue); n > 0 && queue[n-1].task == task {
		info := queue[n-1].info
		info.Existing = true
		return &info, nil
	}

	run := &activeRun{
		task: task,
		info: models.RunInfo{
			ID:        uuid.NewString(),
			Kind:      kind,
			Status:    entities.RunStatusRunning,
			StartedAt: time.Now(),
		},
	}
	s.active[kind] = append(queue, run)
	s.last[kind] = run.info.ID

	request, err := json.Marshal(req)
	if err != nil {
		s.logger.Warn("Failed to encode run request", "run_id", run.info.ID, "error", err)
		request = []byte("{}")
	}
	record := &entities.RunRecord{
		ID:        run.info.ID,
		Kind:      kind,
		Status:    entities.RunStatusRunning,
		Request:   string(request),
		StartedAt: run.info.StartedAt,
	}
	if err := s.repo.Create(record); err != nil {
		s.logger.Error("Failed to save run record", "run_id", run.info.ID, "error", err)
	}

	s.logger.Info("Run started", "run_id", run.info.ID, "kind", kind)
	info := run.info
	return &info, nil
}

// finishLocked закрывает самый старый незавершенный прогон вида kind.
func (s *labService) finishLocked(kind string, e experiments.RunFinished) (*activeRun, string, string) {
	queue := s.active[kind]
	if len(queue) == 0 {
		return nil, "", ""
	}
	run := queue[0]
	s.active[kind] = queue[1:]

	status, errText := runStatus(e)
	if err := s.repo.Finish(run.info.ID, status, errText, time.Now()); err != nil {
		s.logger.Error("Failed to finish run record", "run_id", run.info.ID, "error", err)
	}
	s.logger.Info("Run finished", "run_id", run.info.ID, "kind", kind, "status", status)
	return run, status, errText
}

func runStatus(e experiments.RunFinished) (string, string) {
	switch {
	case e.Err != nil:
		return entities.RunStatusFailed, e.Err.Error()
	case e.Stopped:
		return entities.RunStatusStopped, ""
	default:
		return entities.RunStatusFinished, ""
	}
}

// currentLocked - прогон верхнего уровня, к которому относятся события точек и кривых.
// Сканирование внутри параметрической развертки считается частью развертки.
func (s *labService) currentLocked() (id, kind string) {
	for _, k := range []string{experiments.KindParameterSweep, experiments.KindGridScan, experiments.KindSweep} {
		if queue := s.active[k]; len(queue) > 0 {
			return queue[len(queue)-1].info.ID, k
		}
	}
	return "", ""
}

func (s *labService) State(kind string) (labmodels.RunState, string, error) {
	var state labmodels.RunState
	switch kind {
	case experiments.KindSweep:
		state = s.client.SweepState()
	case experiments.KindGridScan:
		state = s.client.GridState()
	case experiments.KindParameterSweep:
		state = s.client.ParameterSweepState()
	default:
		return labmodels.RunState{}, "", apperrors.Configurationf("kind", "unknown run kind %q", kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return state, s.last[kind], nil
}

func (s *labService) Runs() ([]entities.RunRecord, error) {
	return s.repo.GetAll()
}

func (s *labService) Run(id string) (*entities.RunRecord, error) {
	return s.repo.GetByID(id)
}
