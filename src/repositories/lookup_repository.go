package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"chatstatus/src/domain/entities"
)

// CRMGetter é o GET autenticado do backend (implementado por crmapi.Client).
type CRMGetter interface {
	Get(ctx context.Context, path string, query url.Values) ([]byte, error)
}

type LookupRepository struct {
	logger *slog.Logger
	crm    CRMGetter
}

func NewLookupRepository(logger *slog.Logger, crm CRMGetter) *LookupRepository {
	return &LookupRepository{
		logger: logger,
		crm:    crm,
	}
}

// Lookup faz exatamente um GET para o tipo e a chave informados e devolve a
// lista normalizada. Lista vazia com erro nil significa "não existe";
// erro não nil (*domain.LookupError) significa "não foi possível checar".
//
// Para contatos o backend pode devolver matches parciais do telefone, então
// o resultado é filtrado pela igualdade exata com a chave.
func (r *LookupRepository) Lookup(ctx context.Context, entityType entities.EntityType, key string) ([]entities.Record, error) {
	path := entityType.Path()
	if path == "" {
		return nil, fmt.Errorf("LookupRepository.Lookup - unsupported entity type %q", entityType)
	}

	query := url.Values{}
	query.Set(entityType.QueryParam(), key)

	body, err := r.crm.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}

	items, err := splitList(path, body)
	if err != nil {
		return nil, err
	}

	records, err := decodeItems[entities.Record](path, items)
	if err != nil {
		return nil, err
	}

	if entityType != entities.EntityContact {
		return records, nil
	}

	matched := make([]entities.Record, 0, len(records))
	for _, record := range records {
		if record.NumeroTelefone == key {
			matched = append(matched, record)
		}
	}

	if len(matched) != len(records) {
		r.logger.Debug("Dropped partial phone matches",
			"entity", entityType,
			"returned", len(records),
			"matched", len(matched))
	}

	return matched, nil
}
