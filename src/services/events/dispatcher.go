package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"chatstatus/src/domain"
	"chatstatus/src/infra/eventbus"
)

// EventSink recebe um evento de domínio vindo da API.
type EventSink interface {
	Submit(ctx context.Context, event domain.DomainEvent) error
}

type StatusInvalidator interface {
	InvalidateByKeys(ctx context.Context, keys []string) (int, error)
}

// Dispatcher é o ponto único de entrada de eventos no processo: invalida o
// cache dos identificadores do evento e só então publica no barramento, para
// que os indicadores não releiam o valor antigo.
type Dispatcher struct {
	logger      *slog.Logger
	invalidator StatusInvalidator
	bus         eventbus.Publisher
}

func NewDispatcher(logger *slog.Logger, invalidator StatusInvalidator, bus eventbus.Publisher) *Dispatcher {
	return &Dispatcher{
		logger:      logger,
		invalidator: invalidator,
		bus:         bus,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, event domain.DomainEvent) error {
	event = withDefaults(event)
	if err := event.Validate(); err != nil {
		return fmt.Errorf("Dispatcher.Dispatch - %w", err)
	}

	deleted, err := d.invalidator.InvalidateByKeys(ctx, event.MatchKeys())
	if err != nil {
		// Cache sujo expira pelo TTL; o evento ainda precisa chegar aos indicadores
		d.logger.Warn("Failed to invalidate cached statuses",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)
	}

	d.bus.Publish(event)

	d.logger.Debug("Domain event dispatched",
		"event_id", event.ID,
		"event_type", event.Type,
		"identifier", event.Identifier,
		"contato_id", event.ContatoID,
		"invalidated", deleted)

	return nil
}

func (d *Dispatcher) Submit(ctx context.Context, event domain.DomainEvent) error {
	return d.Dispatch(ctx, event)
}

func withDefaults(event domain.DomainEvent) domain.DomainEvent {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return event
}
