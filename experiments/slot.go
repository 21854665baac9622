package experiments

import (
	"io"
	"sync"
	"time"

	"github.com/iwtcode/probeStation/models"
	"github.com/sirupsen/logrus"
)

// slot хранит текущий прогон движка. Одновременно выполняется не больше одного прогона.
type slot struct {
	mu    sync.Mutex
	task  *Task
	state models.RunState
}

func newSlot() slot {
	return slot{state: models.RunState{Status: models.StatusIdle}}
}

// activeLocked возвращает выполняющийся прогон или nil.
func (s *slot) activeLocked() *Task {
	if s.task != nil && s.state.Running {
		return s.task
	}
	return nil
}

// launchLocked запускает fn; finish вызывается после сброса состояния.
func (s *slot) launchLocked(parent *Token, total int, now time.Time, fn func(tok *Token) error, finish func(err error, stopped bool)) *Task {
	start := now
	s.state = models.RunState{
		Status:      models.StatusRunning,
		Running:     true,
		TotalPoints: total,
		StartTime:   &start,
	}
	task := Go(parent, func(tok *Token) error {
		err := fn(tok)
		s.mu.Lock()
		s.state.Status = models.StatusIdle
		s.state.Running = false
		s.state.Progress = ""
		s.state.LastError = ""
		if err != nil {
			s.state.LastError = err.Error()
		}
		s.mu.Unlock()
		if finish != nil {
			finish(err, !tok.Running())
		}
		return err
	})
	s.task = task
	return task
}

func (s *slot) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.activeLocked(); t != nil {
		s.state.Status = models.StatusCancelling
		t.Stop()
	}
}

func (s *slot) snapshot() models.RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	if st.StartTime != nil {
		t := *st.StartTime
		st.StartTime = &t
	}
	return st
}

func (s *slot) current() *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.task
}

func (s *slot) update(fn func(st *models.RunState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

func loggerOrDiscard(l logrus.FieldLogger) logrus.FieldLogger {
	if l != nil {
		return l
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	return discard
}

func clockOrSystem(c Clock) Clock {
	if c == nil {
		return SystemClock{}
	}
	return c
}
