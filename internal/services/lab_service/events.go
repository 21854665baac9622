package lab_service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/iwtcode/probeStation/experiments"
	"github.com/iwtcode/probeStation/internal/domain/models"
)

const produceTimeout = 5 * time.Second

func (s *labService) PointMeasured(e experiments.PointMeasured) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, kind := s.currentLocked()
	s.enqueueLocked(models.RunEvent{RunID: id, Kind: kind, Type: models.EventPoint, Time: time.Now(), Payload: e})
}

func (s *labService) CurveFinished(e experiments.CurveFinished) {
	payload := models.CurvePayload{
		Path:       e.Path,
		OuterValue: e.OuterValue,
		Counter:    e.Counter,
		Samples:    e.Samples,
		Data:       map[string][]float64{},
	}
	if e.Record != nil {
		payload.Labels = e.Record.Labels()
		for _, label := range payload.Labels {
			payload.Data[label] = e.Record.Series(label)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id, kind := s.currentLocked()
	s.enqueueLocked(models.RunEvent{RunID: id, Kind: kind, Type: models.EventCurve, Time: time.Now(), Payload: payload})
}

func (s *labService) GridProgress(e experiments.GridProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, kind := s.currentLocked()
	s.enqueueLocked(models.RunEvent{
		RunID: id,
		Kind:  kind,
		Type:  models.EventGridProgress,
		Time:  time.Now(),
		Payload: models.ProgressPayload{
			Label: e.Label,
			Done:  e.Progress.Done,
			Total: e.Progress.Total,
			Text:  e.Text,
		},
	})
}

func (s *labService) RunFinished(e experiments.RunFinished) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, status, errText := s.finishLocked(e.Kind, e)
	if run == nil {
		// развертки и сканирования внутри прогона верхнего уровня
		s.logger.Debug("Nested run finished", "kind", e.Kind, "stopped", e.Stopped)
		return
	}
	s.enqueueLocked(models.RunEvent{
		RunID:   run.info.ID,
		Kind:    e.Kind,
		Type:    models.EventRunFinished,
		Time:    time.Now(),
		Payload: models.FinishedPayload{Status: status, Error: errText},
	})
}

// enqueueLocked не блокирует горутину прогона: при переполненной очереди событие теряется.
func (s *labService) enqueueLocked(ev models.RunEvent) {
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("Event queue is full, dropping event", "type", ev.Type, "run_id", ev.RunID)
	}
}

// publishLoop рассылает события websocket-клиентам. В Kafka уходят все события,
// кроме отдельных точек.
func (s *labService) publishLoop() {
	defer s.wg.Done()
	for ev := range s.events {
		data, err := json.Marshal(ev)
		if err != nil {
			s.logger.Error("Failed to serialize run event", "type", ev.Type, "run_id", ev.RunID, "error", err)
			continue
		}

		s.hub.Broadcast(data)

		if ev.Type == models.EventPoint {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), produceTimeout)
		if err := s.producer.Produce(ctx, []byte(ev.RunID), data); err != nil {
			s.logger.Error("Failed to send event to Kafka", "type", ev.Type, "run_id", ev.RunID, "error", err)
		}
		cancel()
	}
}
