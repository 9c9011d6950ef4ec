package http

import (
	"time"

	"chatstatus/src/domain"
	"chatstatus/src/services/indicators"
	"chatstatus/src/services/resolver"
)

// StatusDTO é o ResolvedStatus na borda de renderização: falhas e ausências
// chegam ao painel como o mesmo "não encontrado".
type StatusDTO struct {
	Exists     bool      `json:"exists"`
	Count      int       `json:"count"`
	Detail     string    `json:"detail,omitempty"`
	Color      string    `json:"color,omitempty"`
	ResolvedAt time.Time `json:"resolvedAt"`
}

type IndicatorStatusDTO struct {
	Kind   domain.IndicatorKind `json:"kind"`
	Status StatusDTO            `json:"status"`
}

type ChatStatusDTO struct {
	ChatID     string                             `json:"chatId"`
	Indicators map[domain.IndicatorKind]StatusDTO `json:"indicators"`
}

type KanbanPlacementDTO struct {
	ChatID string `json:"chatId"`
	Quadro string `json:"quadro"`
	Coluna string `json:"coluna"`
	Color  string `json:"color"`
	Found  bool   `json:"found"`
}

type PostEventRequestDTO struct {
	ID         string           `json:"id"`
	Type       domain.EventType `json:"type"`
	Identifier string           `json:"identifier"`
	ContatoID  string           `json:"contatoId"`
	OccurredAt time.Time        `json:"occurredAt"`
}

type PostEventResponseDTO struct {
	ID string `json:"id"`
}

// SnapshotDTO é o frame que o websocket envia a cada mudança de indicador.
type SnapshotDTO struct {
	Kind   domain.IndicatorKind `json:"kind"`
	State  indicators.State     `json:"state"`
	ChatID string               `json:"chatId"`
	Seq    uint64               `json:"seq"`
	Status StatusDTO            `json:"status"`
}

// SubscribeFrameDTO é o frame enviado pelo painel para trocar de chat.
type SubscribeFrameDTO struct {
	ChatID string `json:"chatId"`
}

func MapStatusToResponse(status domain.ResolvedStatus) StatusDTO {
	return StatusDTO{
		Exists:     status.Exists,
		Count:      status.Count,
		Detail:     status.Detail,
		Color:      status.Color,
		ResolvedAt: status.ResolvedAt,
	}
}

func MapOutcomesToResponse(chatID string, outcomes []resolver.Outcome) ChatStatusDTO {
	response := ChatStatusDTO{
		ChatID:     chatID,
		Indicators: make(map[domain.IndicatorKind]StatusDTO, len(outcomes)),
	}
	for _, outcome := range outcomes {
		response.Indicators[outcome.Indicator] = MapStatusToResponse(outcome.Status)
	}
	return response
}

func MapPlacementToResponse(chatID string, placement domain.KanbanPlacement) KanbanPlacementDTO {
	return KanbanPlacementDTO{
		ChatID: chatID,
		Quadro: placement.Quadro,
		Coluna: placement.Coluna,
		Color:  placement.Color,
		Found:  placement.Found,
	}
}

func MapSnapshotToResponse(snapshot indicators.Snapshot) SnapshotDTO {
	return SnapshotDTO{
		Kind:   snapshot.Kind,
		State:  snapshot.State,
		ChatID: snapshot.Identifier,
		Seq:    snapshot.Seq,
		Status: MapStatusToResponse(snapshot.Status),
	}
}

func (dto PostEventRequestDTO) ToDomain() domain.DomainEvent {
	return domain.DomainEvent{
		ID:         dto.ID,
		Type:       dto.Type,
		Identifier: dto.Identifier,
		ContatoID:  dto.ContatoID,
		OccurredAt: dto.OccurredAt,
	}
}
