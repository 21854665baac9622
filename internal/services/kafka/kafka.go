package kafka

import (
	"context"
	"time"

	"github.com/iwtcode/probeStation/internal/config"
	"github.com/iwtcode/probeStation/internal/interfaces"

	"github.com/segmentio/kafka-go"
)

type KafkaProducer struct {
	writer *kafka.Writer
}

// NewKafkaProducer создает продюсера событий прогонов. Пустой KAFKA_BROKER отключает
// отправку.
func NewKafkaProducer(cfg *config.AppConfig) (interfaces.KafkaService, error) {
	if cfg.KafkaBroker == "" {
		return Discard{}, nil
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaBroker),
		Topic:                  cfg.KafkaTopic,
		// События одного прогона идут с одним ключом и попадают в одну партицию.
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &KafkaProducer{writer: writer}, nil
}

// Produce отправляет сообщение в Kafka
func (p *KafkaProducer) Produce(ctx context.Context, key, value []byte) error {
	return p.writer.WriteMessages(ctx,
		kafka.Message{
			Key:   key,
			Value: value,
			Time:  time.Now(),
		},
	)
}

// Close закрывает соединение с Kafka
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// Discard - продюсер-заглушка для работы без брокера.
type Discard struct{}

func (Discard) Produce(context.Context, []byte, []byte) error { return nil }
func (Discard) Close() error                                  { return nil }
