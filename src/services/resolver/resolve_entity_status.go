package resolver

import (
	"context"
	"fmt"
	"time"

	"chatstatus/src/domain"
	"chatstatus/src/domain/entities"
	"chatstatus/src/helper/chatid"
)

var entityTypeByIndicator = map[domain.IndicatorKind]entities.EntityType{
	domain.IndicatorQueue:       entities.EntityQueue,
	domain.IndicatorTicket:      entities.EntityTicket,
	domain.IndicatorBudget:      entities.EntityBudget,
	domain.IndicatorAppointment: entities.EntityAppointment,
}

// ResolveEntityStatus executa a cadeia dependente: contato pelo telefone e,
// só depois, o tipo alvo pelo UUID do contato. Se o passo 1 falhar ou vier
// vazio o passo 2 não é executado.
func (rs *ResolverService) ResolveEntityStatus(ctx context.Context, chatID string, kind domain.IndicatorKind) Outcome {
	entityType, ok := entityTypeByIndicator[kind]
	if !ok {
		return failed(kind, domain.NotFoundStatus(), fmt.Errorf("ResolverService.ResolveEntityStatus - %q: %w", kind, domain.ErrUnknownIndicator))
	}

	canonicalKey, ok := chatid.Normalize(chatID)
	if !ok {
		return resolved(kind, domain.NotFoundStatus())
	}

	contact, _, err := rs.findContact(ctx, canonicalKey)
	if err != nil {
		return failed(kind, domain.NotFoundStatus(), err)
	}

	records, err := rs.lookupRepository.Lookup(ctx, entityType, contact.ID)
	if err != nil {
		status := domain.NotFoundStatus()
		status.ContatoID = contact.ID
		return failed(kind, status, err)
	}

	return resolved(kind, domain.ResolvedStatus{
		Exists:     len(records) > 0,
		Count:      len(records),
		Detail:     entities.Summarize(entityType, records),
		ContatoID:  contact.ID,
		ResolvedAt: time.Now().UTC(),
	})
}
