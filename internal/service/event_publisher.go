package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Ekalon-Solutions/rallyup-backend/internal/domain"
	"github.com/Ekalon-Solutions/rallyup-backend/pkg/kafka"
	"github.com/Ekalon-Solutions/rallyup-backend/pkg/retry"
)

// Registration lifecycle event types
const (
	RegistrationEventCreated   = "registration.created"
	RegistrationEventCancelled = "registration.cancelled"
)

// RegistrationEvent is the wire shape of a registration lifecycle event
type RegistrationEvent struct {
	EventID      string               `json:"event_id"`
	Type         string               `json:"type"`
	Registration *domain.Registration `json:"registration"`
	OccurredAt   time.Time            `json:"occurred_at"`
}

// EventPublisher publishes registration lifecycle events
type EventPublisher interface {
	PublishRegistrationCreated(ctx context.Context, registration *domain.Registration) error
	PublishRegistrationCancelled(ctx context.Context, registration *domain.Registration) error
	Close() error
}

// KafkaEventPublisher implements EventPublisher using Kafka
type KafkaEventPublisher struct {
	producer *kafka.Producer
	topic    string
	retrier  *retry.Retrier
}

// EventPublisherConfig contains configuration for the event publisher
type EventPublisherConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// NewKafkaEventPublisher creates a new Kafka event publisher
func NewKafkaEventPublisher(cfg *EventPublisherConfig) (*KafkaEventPublisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("event publisher config is required")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = "registration-events"
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "rallyup-backend-producer"
	}

	producer, err := kafka.NewProducer(&kafka.ProducerConfig{
		Brokers:        cfg.Brokers,
		ClientID:       clientID,
		ProduceTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &KafkaEventPublisher{
		producer: producer,
		topic:    topic,
		retrier: retry.New(&retry.Config{
			MaxRetries:      2,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     time.Second,
			Multiplier:      2.0,
			JitterFactor:    0.1,
		}),
	}, nil
}

// PublishRegistrationCreated publishes a registration created event
func (p *KafkaEventPublisher) PublishRegistrationCreated(ctx context.Context, registration *domain.Registration) error {
	return p.publish(ctx, RegistrationEventCreated, registration)
}

// PublishRegistrationCancelled publishes a registration cancelled event
func (p *KafkaEventPublisher) PublishRegistrationCancelled(ctx context.Context, registration *domain.Registration) error {
	return p.publish(ctx, RegistrationEventCancelled, registration)
}

// Close closes the event publisher
func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		p.producer.Close()
	}
	return nil
}

func (p *KafkaEventPublisher) publish(ctx context.Context, eventType string, registration *domain.Registration) error {
	event := RegistrationEvent{
		EventID:      uuid.New().String(),
		Type:         eventType,
		Registration: registration,
		OccurredAt:   time.Now(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	headers := map[string]string{
		"event_type":   eventType,
		"event_id":     event.EventID,
		"content_type": "application/json",
	}

	// Partition by event id so per-event ordering is preserved
	result := p.retrier.Do(ctx, func(ctx context.Context) error {
		return p.producer.Produce(ctx, p.topic, registration.EventID, value, headers)
	})
	if result.Err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, result.Err)
	}

	return nil
}

// NoOpEventPublisher is a no-op implementation of EventPublisher, used
// when Kafka is disabled or unreachable
type NoOpEventPublisher struct{}

// NewNoOpEventPublisher creates a new no-op event publisher
func NewNoOpEventPublisher() *NoOpEventPublisher {
	return &NoOpEventPublisher{}
}

// PublishRegistrationCreated is a no-op
func (p *NoOpEventPublisher) PublishRegistrationCreated(ctx context.Context, registration *domain.Registration) error {
	return nil
}

// PublishRegistrationCancelled is a no-op
func (p *NoOpEventPublisher) PublishRegistrationCancelled(ctx context.Context, registration *domain.Registration) error {
	return nil
}

// Close is a no-op
func (p *NoOpEventPublisher) Close() error {
	return nil
}
