package resolver

import (
	"context"
	"strings"

	"chatstatus/src/domain"
)

// ResolveKanbanStatus é o placement convertido para o badge do cabeçalho.
func (rs *ResolverService) ResolveKanbanStatus(ctx context.Context, chatID string) Outcome {
	placement, err := rs.ResolveKanbanPlacement(ctx, chatID)
	if err != nil {
		return failed(domain.IndicatorKanban, placement.ToStatus(), err)
	}
	return resolved(domain.IndicatorKanban, placement.ToStatus())
}

// ResolveKanbanPlacement percorre os quadros na ordem da listagem e para no
// primeiro cujo metadata contém o identificador. O metadata é indexado pelo
// identificador original, então chatID não é normalizado aqui.
//
// O placement sempre vem preenchido (sentinela quando não encontrado). O erro
// indica que a varredura não pôde ser concluída: listagem falhou, ou algum
// metadata falhou e o card não apareceu nos demais.
func (rs *ResolverService) ResolveKanbanPlacement(ctx context.Context, chatID string) (domain.KanbanPlacement, error) {
	if strings.TrimSpace(chatID) == "" {
		return domain.NoPlacement(), nil
	}

	boards, err := rs.kanbanRepository.ListBoards(ctx)
	if err != nil {
		return domain.NoPlacement(), err
	}

	var scanErr error
	for _, board := range boards {
		if err := ctx.Err(); err != nil {
			return domain.NoPlacement(), err
		}

		metadata, err := rs.kanbanRepository.GetMetadata(ctx, board.ID)
		if err != nil {
			// Um quadro com problema não impede a busca nos demais
			rs.logger.Warn("Failed to fetch board metadata",
				"board_id", board.ID,
				"error_kind", domain.KindOf(err),
				"error", err)
			scanErr = err
			continue
		}

		card, found := metadata.Cards[chatID]
		if !found {
			continue
		}

		placement := domain.KanbanPlacement{
			Quadro: board.Nome,
			Coluna: domain.NoColumnName,
			Color:  domain.NeutralGray,
			Found:  true,
		}

		detail, err := rs.kanbanRepository.GetBoard(ctx, board.ID)
		if err != nil {
			return placement, err
		}
		if detail.Nome != "" {
			placement.Quadro = detail.Nome
		}

		if column, ok := detail.FindColumn(card.ColunaID); ok {
			placement.Coluna = column.Nome
			if column.Cor != "" {
				placement.Color = column.Cor
			}
		} else {
			rs.logger.Info("Card column not found in board detail",
				"board_id", board.ID,
				"coluna_id", card.ColunaID)
		}

		return placement, nil
	}

	return domain.NoPlacement(), scanErr
}
