package repositories

import (
	"context"
	"log/slog"

	"chatstatus/src/domain/entities"
)

const boardsPath = "/api/kanban/quadros"

type KanbanRepository struct {
	logger *slog.Logger
	crm    CRMGetter
}

func NewKanbanRepository(logger *slog.Logger, crm CRMGetter) *KanbanRepository {
	return &KanbanRepository{
		logger: logger,
		crm:    crm,
	}
}

// ListBoards lista os quadros do usuário atual na ordem do backend.
func (r *KanbanRepository) ListBoards(ctx context.Context) ([]entities.Board, error) {
	body, err := r.crm.Get(ctx, boardsPath, nil)
	if err != nil {
		return nil, err
	}

	items, err := splitList(boardsPath, body)
	if err != nil {
		return nil, err
	}

	return decodeItems[entities.Board](boardsPath, items)
}

// GetMetadata busca o mapa identificador -> coluna de um quadro.
func (r *KanbanRepository) GetMetadata(ctx context.Context, boardID string) (entities.CardMetadata, error) {
	path := "/api/kanban/" + boardID + "/metadata"

	body, err := r.crm.Get(ctx, path, nil)
	if err != nil {
		return entities.CardMetadata{}, err
	}

	var metadata entities.CardMetadata
	if err := unwrapObject(path, body, &metadata); err != nil {
		return entities.CardMetadata{}, err
	}
	if metadata.Cards == nil {
		metadata.Cards = map[string]entities.CardPlacement{}
	}
	return metadata, nil
}

// GetBoard busca o detalhe do quadro, incluindo as colunas.
func (r *KanbanRepository) GetBoard(ctx context.Context, boardID string) (entities.Board, error) {
	path := boardsPath + "/" + boardID

	body, err := r.crm.Get(ctx, path, nil)
	if err != nil {
		return entities.Board{}, err
	}

	var board entities.Board
	if err := unwrapObject(path, body, &board); err != nil {
		return entities.Board{}, err
	}
	return board, nil
}
