package domain

import (
	"errors"
	"time"
)

var (
	// Taxonomia de falhas de resolução. Todas viram "nada para mostrar" na borda
	// de renderização, mas seguem distintas nos logs.
	ErrNetworkFailure   = errors.New("network failure")
	ErrNonSuccessStatus = errors.New("non-success status")
	ErrEmptyResult      = errors.New("empty result")
	ErrMalformedShape   = errors.New("malformed response shape")

	ErrUnknownIndicator = errors.New("unknown indicator kind")
	ErrInvalidEvent     = errors.New("invalid domain event")

	ErrUnavailableServer = errors.New("Oops, something unexpected happened. Please try again later.")
)

// ############################################################
// ################ INDICADORES DO CABEÇALHO ##################
// ############################################################

// IndicatorKind identifica um badge do cabeçalho do chat.
type IndicatorKind string

const (
	IndicatorContact     IndicatorKind = "contact"
	IndicatorKanban      IndicatorKind = "kanban"
	IndicatorQueue       IndicatorKind = "queue"
	IndicatorTicket      IndicatorKind = "ticket"
	IndicatorBudget      IndicatorKind = "budget"
	IndicatorAppointment IndicatorKind = "appointment"
)

// AllIndicators na ordem em que o cabeçalho os renderiza.
var AllIndicators = []IndicatorKind{
	IndicatorContact,
	IndicatorKanban,
	IndicatorQueue,
	IndicatorTicket,
	IndicatorBudget,
	IndicatorAppointment,
}

func ParseIndicatorKind(s string) (IndicatorKind, error) {
	for _, kind := range AllIndicators {
		if string(kind) == s {
			return kind, nil
		}
	}
	return "", ErrUnknownIndicator
}

// IsContactKeyed indica os tipos que dependem do UUID do contato (cadeia de dois passos).
func (k IndicatorKind) IsContactKeyed() bool {
	switch k {
	case IndicatorQueue, IndicatorTicket, IndicatorBudget, IndicatorAppointment:
		return true
	}
	return false
}

// ResolvedStatus é o único tipo de saída do resolvedor. É reconstruído a cada
// resolução e nunca alterado no lugar.
type ResolvedStatus struct {
	Exists     bool      `json:"exists"`
	Count      int       `json:"count"`
	Detail     string    `json:"detail,omitempty"`
	Color      string    `json:"color,omitempty"`
	ContatoID  string    `json:"contatoId,omitempty"`
	ResolvedAt time.Time `json:"resolvedAt"`
}

func NotFoundStatus() ResolvedStatus {
	return ResolvedStatus{Exists: false, Count: 0, ResolvedAt: time.Now().UTC()}
}

const (
	NoBoardName  = "Sem quadro"
	NoColumnName = "Sem coluna"
	NeutralGray  = "#9CA3AF"
)

// KanbanPlacement é o resultado do scanner de quadros.
type KanbanPlacement struct {
	Quadro string `json:"quadro"`
	Coluna string `json:"coluna"`
	Color  string `json:"color"`
	Found  bool   `json:"found"`
}

// NoPlacement é o sentinela usado diretamente como dado de exibição.
func NoPlacement() KanbanPlacement {
	return KanbanPlacement{Quadro: NoBoardName, Coluna: NoColumnName, Color: NeutralGray}
}

func (p KanbanPlacement) ToStatus() ResolvedStatus {
	status := ResolvedStatus{
		Exists:     p.Found,
		Detail:     p.Quadro + " / " + p.Coluna,
		Color:      p.Color,
		ResolvedAt: time.Now().UTC(),
	}
	if p.Found {
		status.Count = 1
	}
	return status
}
