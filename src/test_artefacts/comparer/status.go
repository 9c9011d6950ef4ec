package comparer

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"chatstatus/src/domain"
	"chatstatus/src/domain/entities"
)

// ResolvedStatus ignora o instante da resolução.
func ResolvedStatus() cmp.Option {
	return ignoring[domain.ResolvedStatus]("ResolvedAt")
}

// Records compara registros normalizados pelo conteúdo, incluindo o JSON cru.
func Records() cmp.Options {
	return cmp.Options{JSONRawMessage()}
}

// RecordsIgnoringRaw compara só os campos extraídos.
func RecordsIgnoringRaw() cmp.Option {
	return ignoring[entities.Record]("Raw")
}

// ignoring descarta os campos nomeados de T; um nome inexistente faz o
// cmpopts entrar em pânico no teste.
func ignoring[T any](fields ...string) cmp.Option {
	return cmpopts.IgnoreFields(*new(T), fields...)
}
