package stubs

import (
	"time"

	"github.com/google/uuid"

	"chatstatus/src/domain"
)

type EventStub struct {
	event domain.DomainEvent
}

func NewEventStub(eventType domain.EventType) EventStub {
	return EventStub{event: domain.DomainEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
	}}
}

func (es EventStub) WithIdentifier(identifier string) EventStub {
	es.event.Identifier = identifier
	return es
}

func (es EventStub) WithContatoID(contatoID string) EventStub {
	es.event.ContatoID = contatoID
	return es
}

func (es EventStub) Get() domain.DomainEvent {
	return es.event
}
