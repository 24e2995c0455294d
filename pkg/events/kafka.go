package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/noah-isme/subcover-api/pkg/config"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes JSON envelopes keyed by tenant id.
type KafkaPublisher struct {
	writer       messageWriter
	topicByEvent map[string]string
}

// NewKafkaPublisher builds a publisher for the given brokers.
func NewKafkaPublisher(brokers []string, topicByEvent map[string]string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 50 * time.Millisecond,
		},
		topicByEvent: topicByEvent,
	}, nil
}

// FromConfig returns a Kafka publisher, or Noop when no brokers are set.
func FromConfig(cfg config.EventsConfig) (Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return Noop{}, nil
	}
	return NewKafkaPublisher(cfg.Brokers, map[string]string{
		TypeRequestCreated: cfg.CreatedTopic,
		TypeRequestFilled:  cfg.FilledTopic,
	})
}

// Publish implements Publisher.
func (p *KafkaPublisher) Publish(ctx context.Context, env Envelope) error {
	if env.EventID == "" {
		env.EventID = uuid.NewString()
	}
	if env.OccurredAt.IsZero() {
		env.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", env.EventType, err)
	}

	topic := env.EventType
	if mapped, ok := p.topicByEvent[env.EventType]; ok && mapped != "" {
		topic = mapped
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(strconv.FormatInt(env.TenantID, 10)),
		Value: payload,
		Time:  env.OccurredAt,
	})
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
