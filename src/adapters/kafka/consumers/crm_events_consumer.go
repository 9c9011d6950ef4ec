package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"chatstatus/src/domain"
	"chatstatus/src/infra/kafka"
)

// EventDispatcher é o events.Dispatcher visto pelo consumer.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event domain.DomainEvent) error
}

// CRMEventsConsumer lê os eventos de domínio do CRM e os despacha localmente.
type CRMEventsConsumer struct {
	logger     *slog.Logger
	dispatcher EventDispatcher
}

func NewCRMEventsConsumer(logger *slog.Logger, dispatcher EventDispatcher) *CRMEventsConsumer {
	return &CRMEventsConsumer{
		logger:     logger,
		dispatcher: dispatcher,
	}
}

func (c *CRMEventsConsumer) Start(ctx context.Context, kafkaClient *kafka.KafkaClient, topic string) error {
	c.logger.Info("Starting CRM events consumer", "topic", topic)
	return kafkaClient.Consumer(ctx, c.handleMessages, topic)
}

// Mensagens ilegíveis ou inválidas são descartadas com log: reprocessar não
// muda o resultado e travaria a partição. Só falha de contexto devolve erro.
func (c *CRMEventsConsumer) handleMessages(ctx context.Context, messages []kafka.Message) error {
	if len(messages) == 0 {
		return nil
	}

	c.logger.Debug("Processing messages batch", "count", len(messages))

	dispatched := 0
	for _, msg := range messages {
		var event domain.DomainEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.logger.Error("Failed to unmarshal message",
				"error", err,
				"key", msg.Key,
				"value", string(msg.Value))
			continue
		}

		if err := c.dispatcher.Dispatch(ctx, event); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, domain.ErrInvalidEvent) {
				c.logger.Warn("Discarding invalid domain event",
					"key", msg.Key,
					"event_id", event.ID,
					"error", err)
				continue
			}
			return err
		}
		dispatched++
	}

	c.logger.Debug("Messages batch processed", "count", len(messages), "dispatched", dispatched)
	return nil
}
