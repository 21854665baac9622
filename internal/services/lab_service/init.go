package lab_service

import (
	"sync"

	probestation "github.com/iwtcode/probeStation"
	"github.com/iwtcode/probeStation/experiments"
	"github.com/iwtcode/probeStation/internal/domain/models"
	"github.com/iwtcode/probeStation/internal/interfaces"
	"github.com/iwtcode/probeStation/internal/middleware/logging"
)

const eventQueueSize = 1024

// activeRun - прогон, для которого еще не пришло RunFinished.
type activeRun struct {
	info models.RunInfo
	task *experiments.Task
}

type labService struct {
	client   *probestation.Client
	repo     interfaces.RunRepository
	producer interfaces.KafkaService
	hub      interfaces.StreamHub
	logger   *logging.Logger

	mu sync.Mutex
	// Очереди по виду прогона в порядке запуска: RunFinished закрывает самый старый.
	active map[string][]*activeRun
	last   map[string]string
	closed bool

	events chan models.RunEvent
	wg     sync.WaitGroup
}

// NewLabService подключает сервис к станции: изменения дерева результатов уходят в
// repo, события прогонов - в Kafka и websocket.
func NewLabService(
	client *probestation.Client,
	repo interfaces.Repository,
	producer interfaces.KafkaService,
	hub interfaces.StreamHub,
	logger *logging.Logger,
) interfaces.LabService {
	s := &labService{
		client:   client,
		repo:     repo,
		producer: producer,
		hub:      hub,
		logger:   logger.WithPrefix("LAB"),
		active:   make(map[string][]*activeRun),
		last:     make(map[string]string),
		events:   make(chan models.RunEvent, eventQueueSize),
	}
	client.AddPersister(repo)
	client.AddObserver(s)

	s.wg.Add(1)
	go s.publishLoop()
	return s
}

// Close останавливает прогоны, переводит приборы в безопасное состояние и
// дожидается отправки накопленных событий.
func (s *labService) Close() error {
	err := s.client.Close()

	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}
