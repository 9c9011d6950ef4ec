package resolver

import (
	"context"
	"log/slog"
	"time"

	"chatstatus/src/domain"
	"chatstatus/src/domain/entities"
	"chatstatus/src/helper/chatid"
	"chatstatus/src/repositories"
)

const defaultConcurrency = 6

type ResolverService struct {
	logger                 *slog.Logger
	lookupRepository       *repositories.LookupRepository
	kanbanRepository       *repositories.KanbanRepository
	cachedStatusRepository *repositories.CachedStatusRepository
	concurrency            int
}

func NewResolverService(
	logger *slog.Logger,
	lookupRepository *repositories.LookupRepository,
	kanbanRepository *repositories.KanbanRepository,
	cachedStatusRepository *repositories.CachedStatusRepository,
	concurrency int,
) *ResolverService {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &ResolverService{
		logger:                 logger,
		lookupRepository:       lookupRepository,
		kanbanRepository:       kanbanRepository,
		cachedStatusRepository: cachedStatusRepository,
		concurrency:            concurrency,
	}
}

// Resolve resolve um indicador para o chat. Nunca retorna erro: a categoria
// da falha vai no Outcome e é logada aqui.
func (rs *ResolverService) Resolve(ctx context.Context, kind domain.IndicatorKind, chatID string) Outcome {
	canonicalKey, ok := chatid.Normalize(chatID)
	if !ok {
		return resolved(kind, domain.NotFoundStatus())
	}

	cacheKey := statusKey(kind, chatID, canonicalKey)
	if status, found := rs.cachedStatusRepository.Get(ctx, cacheKey); found {
		outcome := resolved(kind, status)
		outcome.Cached = true
		return outcome
	}

	// Lida antes do backend: um evento que invalide o chat no meio da resolução
	// faz o Set recusar o valor calculado aqui
	version, cacheable := rs.cachedStatusRepository.Version(ctx)

	var outcome Outcome
	switch kind {
	case domain.IndicatorContact:
		outcome = rs.ResolveContactStatus(ctx, chatID)
	case domain.IndicatorKanban:
		outcome = rs.ResolveKanbanStatus(ctx, chatID)
	case domain.IndicatorQueue, domain.IndicatorTicket, domain.IndicatorBudget, domain.IndicatorAppointment:
		outcome = rs.ResolveEntityStatus(ctx, chatID, kind)
	default:
		outcome = failed(kind, domain.NotFoundStatus(), domain.ErrUnknownIndicator)
	}

	rs.logOutcome(chatID, outcome)

	if cacheable && !outcome.Failed() && !outcome.Canceled() {
		go func(status domain.ResolvedStatus) {
			// Timeout de 30 segundos para operação de cache; o contexto mantém o token
			ctxWithTimeout, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			defer cancel()

			if _, err := rs.cachedStatusRepository.Set(ctxWithTimeout, cacheKey, status, version); err != nil {
				rs.logger.Warn("Failed to cache resolved status", "kind", kind, "chat_id", chatID, "error", err)
			}
		}(outcome.Status)
	}

	return outcome
}

// statusKey: o kanban é indexado pelo identificador original, então cada
// variante do id tem a própria entrada; os demais usam o telefone canônico.
func statusKey(kind domain.IndicatorKind, chatID string, canonicalKey string) repositories.StatusKey {
	subject := canonicalKey
	if kind == domain.IndicatorKanban {
		subject = chatID
	}
	return repositories.StatusKey{Kind: kind, Subject: subject, Canonical: canonicalKey}
}

func (rs *ResolverService) logOutcome(chatID string, outcome Outcome) {
	switch {
	case outcome.Canceled():
		rs.logger.Debug("Resolution canceled", "kind", outcome.Indicator, "chat_id", chatID)
	case outcome.Failed():
		rs.logger.Warn("Resolution failed",
			"kind", outcome.Indicator,
			"chat_id", chatID,
			"error_kind", outcome.ErrorKind,
			"error", outcome.Err)
	default:
		rs.logger.Debug("Resolution finished",
			"kind", outcome.Indicator,
			"chat_id", chatID,
			"exists", outcome.Status.Exists,
			"count", outcome.Status.Count)
	}
}

// findContact é o passo 1 de toda cadeia: contato pelo telefone canônico.
// Zero registros vira um erro KindEmptyResult.
func (rs *ResolverService) findContact(ctx context.Context, canonicalKey string) (entities.Contact, int, error) {
	records, err := rs.lookupRepository.Lookup(ctx, entities.EntityContact, canonicalKey)
	if err != nil {
		return entities.Contact{}, 0, err
	}
	if len(records) == 0 {
		return entities.Contact{}, 0, &domain.LookupError{
			Kind:     domain.KindEmptyResult,
			Resource: entities.EntityContact.Path(),
		}
	}

	if len(records) > 1 {
		// Sem regra de desempate no backend: vale o primeiro na ordem do array
		rs.logger.Info("Multiple contacts for phone, using the first",
			"phone", canonicalKey,
			"matches", len(records),
			"contato_id", records[0].ID)
	}

	return entities.ContactFromRecord(records[0]), len(records), nil
}
