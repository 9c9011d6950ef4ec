package resolver

import (
	"context"
	"time"

	"chatstatus/src/domain"
	"chatstatus/src/helper/chatid"
)

// ResolveContactStatus resolve o indicador de contato, que é indexado pelo
// telefone e portanto tem um único passo.
func (rs *ResolverService) ResolveContactStatus(ctx context.Context, chatID string) Outcome {
	canonicalKey, ok := chatid.Normalize(chatID)
	if !ok {
		return resolved(domain.IndicatorContact, domain.NotFoundStatus())
	}

	contact, matches, err := rs.findContact(ctx, canonicalKey)
	if err != nil {
		return failed(domain.IndicatorContact, domain.NotFoundStatus(), err)
	}

	return resolved(domain.IndicatorContact, domain.ResolvedStatus{
		Exists:     true,
		Count:      matches,
		Detail:     contact.Nome,
		ContatoID:  contact.ID,
		ResolvedAt: time.Now().UTC(),
	})
}
