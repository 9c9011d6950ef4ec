package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"chatstatus/src/domain"
	"chatstatus/src/helper/chatid"
	"chatstatus/src/infra/kafka"
)

// MessageProducer é o lado producer do kafka.KafkaClient.
type MessageProducer interface {
	Producer(messages []kafka.Message, topic string) error
}

// DomainEventPublisher envia eventos para o tópico compartilhado entre as
// réplicas. Cada réplica consome o tópico e despacha localmente.
type DomainEventPublisher struct {
	logger   *slog.Logger
	producer MessageProducer
	topic    string
}

func NewDomainEventPublisher(
	logger *slog.Logger,
	producer MessageProducer,
	topic string,
) *DomainEventPublisher {
	return &DomainEventPublisher{
		logger:   logger,
		producer: producer,
		topic:    topic,
	}
}

// PublishDomainEvents valida e publica um lote. Um evento inválido rejeita o lote inteiro.
func (p *DomainEventPublisher) PublishDomainEvents(ctx context.Context, events []domain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	kafkaMessages := make([]kafka.Message, 0, len(events))

	for _, event := range events {
		event = withDefaults(event)
		if err := event.Validate(); err != nil {
			return fmt.Errorf("DomainEventPublisher.PublishDomainEvents - event %s: %w", event.ID, err)
		}

		eventBytes, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("DomainEventPublisher.PublishDomainEvents - failed to marshal event %s: %w", event.ID, err)
		}

		kafkaMessages = append(kafkaMessages, kafka.Message{
			Key:     partitionKey(event),
			Value:   eventBytes,
			Headers: eventHeaders(event),
		})

		p.logger.Debug("Prepared domain event for publishing",
			"event_id", event.ID,
			"event_type", event.Type,
			"identifier", event.Identifier)
	}

	if err := p.producer.Producer(kafkaMessages, p.topic); err != nil {
		p.logger.Error("Failed to publish domain events to Kafka",
			"error", err,
			"topic", p.topic,
			"events_count", len(kafkaMessages))
		return fmt.Errorf("failed to publish domain events to topic %s: %w", p.topic, err)
	}

	p.logger.Info("Successfully published domain events",
		"topic", p.topic,
		"events_count", len(kafkaMessages))

	return nil
}

func (p *DomainEventPublisher) Submit(ctx context.Context, event domain.DomainEvent) error {
	return p.PublishDomainEvents(ctx, []domain.DomainEvent{event})
}

// Particiona pelo chat para manter a ordem dos eventos de um mesmo contato.
func partitionKey(event domain.DomainEvent) string {
	if canonical, ok := chatid.Normalize(event.Identifier); ok {
		return canonical
	}
	return event.ContatoID
}

func eventHeaders(event domain.DomainEvent) map[string]string {
	return map[string]string{
		"event_type":     string(event.Type),
		"event_id":       event.ID,
		"source_service": "chatstatus",
		"schema_version": "v1",
	}
}
