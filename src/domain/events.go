package domain

import (
	"fmt"
	"strings"
	"time"
)

// ############################################################
// ############# EVENTOS DE DOMÍNIO (INVALIDAÇÃO) #############
// ############################################################

type EventType string

const (
	EventContactCreated     EventType = "contactCreated"
	EventTicketCreated      EventType = "ticketCreated"
	EventOrcamentoCreated   EventType = "orcamentoCreated"
	EventAgendamentoCreated EventType = "agendamentoCreated"
	EventFilaUpdated        EventType = "filaUpdated"
	EventKanbanCardMoved    EventType = "kanbanCardMoved"
)

// DomainEvent substitui o CustomEvent do window por um payload tipado.
// Identifier é o que os indicadores comparam: id do chat, telefone canônico
// ou UUID do contato.
type DomainEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Identifier string    `json:"identifier"`
	ContatoID  string    `json:"contatoId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// relevantKinds lista quais badges reagem a cada evento. A criação de um
// contato afeta todos os indicadores que dependem do UUID do contato.
var relevantKinds = map[EventType][]IndicatorKind{
	EventContactCreated:     {IndicatorContact, IndicatorQueue, IndicatorTicket, IndicatorBudget, IndicatorAppointment},
	EventTicketCreated:      {IndicatorTicket},
	EventOrcamentoCreated:   {IndicatorBudget},
	EventAgendamentoCreated: {IndicatorAppointment},
	EventFilaUpdated:        {IndicatorQueue},
	EventKanbanCardMoved:    {IndicatorKanban},
}

func (e DomainEvent) Affects(kind IndicatorKind) bool {
	for _, k := range relevantKinds[e.Type] {
		if k == kind {
			return true
		}
	}
	return false
}

func (e DomainEvent) Validate() error {
	if _, ok := relevantKinds[e.Type]; !ok {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	if strings.TrimSpace(e.Identifier) == "" && strings.TrimSpace(e.ContatoID) == "" {
		return fmt.Errorf("%w: identifier or contatoId is required", ErrInvalidEvent)
	}
	return nil
}

// MatchKeys são todos os valores contra os quais um indicador compara o evento.
func (e DomainEvent) MatchKeys() []string {
	keys := make([]string, 0, 2)
	if id := strings.TrimSpace(e.Identifier); id != "" {
		keys = append(keys, id)
	}
	if id := strings.TrimSpace(e.ContatoID); id != "" {
		keys = append(keys, id)
	}
	return keys
}
