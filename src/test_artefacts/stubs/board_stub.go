package stubs

import (
	"github.com/brianvoe/gofakeit/v6"

	"chatstatus/src/domain/entities"
)

type BoardStub struct {
	board entities.Board
	cards map[string]entities.CardPlacement
}

func NewBoardStub() BoardStub {
	board := entities.Board{
		ID:   gofakeit.UUID(),
		Nome: "Funil " + gofakeit.Word(),
	}
	return BoardStub{board: board, cards: map[string]entities.CardPlacement{}}
}

func (bs BoardStub) WithID(id string) BoardStub {
	bs.board.ID = id
	return bs
}

func (bs BoardStub) WithNome(nome string) BoardStub {
	bs.board.Nome = nome
	return bs
}

func (bs BoardStub) WithColumn(id, nome, cor string) BoardStub {
	columns := append([]entities.Column(nil), bs.board.Colunas...)
	bs.board.Colunas = append(columns, entities.Column{ID: id, Nome: nome, Cor: cor})
	return bs
}

// WithCard coloca o identificador (formato original) na coluna informada.
func (bs BoardStub) WithCard(chatID, colunaID string) BoardStub {
	cards := make(map[string]entities.CardPlacement, len(bs.cards)+1)
	for k, v := range bs.cards {
		cards[k] = v
	}
	cards[chatID] = entities.CardPlacement{ColunaID: colunaID}
	bs.cards = cards
	return bs
}

// Summary é o quadro como aparece na listagem (sem colunas).
func (bs BoardStub) Summary() entities.Board {
	return entities.Board{ID: bs.board.ID, Nome: bs.board.Nome}
}

func (bs BoardStub) Get() entities.Board {
	return bs.board
}

func (bs BoardStub) Metadata() entities.CardMetadata {
	return entities.CardMetadata{Cards: bs.cards}
}
