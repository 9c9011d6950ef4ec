package resolver

import (
	"context"
	"errors"

	"chatstatus/src/domain"
)

// Outcome carrega o resultado de uma resolução junto com a categoria do erro.
// Status está sempre preenchido: em qualquer falha é o "não encontrado", que é
// o que a borda de renderização mostra. ErrorKind e Err só existem para log.
type Outcome struct {
	Indicator domain.IndicatorKind
	Status    domain.ResolvedStatus
	ErrorKind domain.ErrorKind
	Err       error
	Cached    bool
}

// Failed é true quando não foi possível checar. Lista vazia com 2xx não é falha.
func (o Outcome) Failed() bool {
	return o.Err != nil && o.ErrorKind != domain.KindEmptyResult
}

func (o Outcome) Canceled() bool {
	return errors.Is(o.Err, context.Canceled)
}

func resolved(indicator domain.IndicatorKind, status domain.ResolvedStatus) Outcome {
	if !status.Exists {
		return Outcome{
			Indicator: indicator,
			Status:    status,
			ErrorKind: domain.KindEmptyResult,
			Err:       domain.ErrEmptyResult,
		}
	}
	return Outcome{Indicator: indicator, Status: status}
}

func failed(indicator domain.IndicatorKind, status domain.ResolvedStatus, err error) Outcome {
	return Outcome{
		Indicator: indicator,
		Status:    status,
		ErrorKind: domain.KindOf(err),
		Err:       err,
	}
}
