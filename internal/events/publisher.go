package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	vo "github.com/ignatzorin/dispute-backend/internal/domain/valueobject"
)

// DisputeEvent публикуется после фиксации каждой мутации спора.
type DisputeEvent struct {
	DisputeID  int64              `json:"dispute_id"`
	CaseNumber string             `json:"case_number"`
	Type       vo.ActivityType    `json:"type"`
	Status     vo.DisputeStatus   `json:"status"`
	Priority   vo.DisputePriority `json:"priority"`
	ActorID    *uuid.UUID         `json:"actor_id,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, events ...DisputeEvent) error
	Close() error
}

// KafkaPublisher пишет события в топик, ключ сообщения - номер дела,
// чтобы события одного спора попадали в одну партицию по порядку.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
	}
}

func (k *KafkaPublisher) Publish(ctx context.Context, events ...DisputeEvent) error {
	if len(events) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		msg, err := encode(event)
		if err != nil {
			return err
		}
		messages = append(messages, msg)
	}

	if err := k.writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("kafka: write %d dispute events: %w", len(messages), err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}

func encode(event DisputeEvent) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: marshal dispute event %d: %w", event.DisputeID, err)
	}
	return kafka.Message{
		Key:   []byte(event.CaseNumber),
		Value: value,
		Time:  event.OccurredAt,
	}, nil
}

// NopPublisher используется, когда брокеры не настроены.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...DisputeEvent) error { return nil }

func (NopPublisher) Close() error { return nil }

// New выбирает реализацию по конфигурации.
func New(brokers []string, topic string) Publisher {
	if len(brokers) == 0 || topic == "" {
		return NopPublisher{}
	}
	return NewKafkaPublisher(brokers, topic)
}

// Ping проверяет, что хотя бы один брокер принимает соединения.
func Ping(ctx context.Context, brokers []string) error {
	var lastErr error
	for _, addr := range brokers {
		conn, err := kafka.DialContext(ctx, "tcp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		return conn.Close()
	}
	if lastErr == nil {
		return fmt.Errorf("kafka: брокеры не настроены")
	}
	return fmt.Errorf("kafka: брокеры недоступны: %w", lastErr)
}
