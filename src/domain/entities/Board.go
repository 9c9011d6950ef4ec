package entities

// Quadro kanban. Colunas só vem preenchido no detalhe do quadro.
type Board struct {
	ID      string   `json:"id"`
	Nome    string   `json:"nome"`
	Colunas []Column `json:"colunas,omitempty"`
}

type Column struct {
	ID   string `json:"id"`
	Nome string `json:"nome"`
	Cor  string `json:"cor"`
}

// CardMetadata mapeia o identificador de chat (formato original) para a coluna do card.
type CardMetadata struct {
	Cards map[string]CardPlacement `json:"cards"`
}

type CardPlacement struct {
	ColunaID string `json:"colunaId"`
}

func (b Board) FindColumn(columnID string) (Column, bool) {
	for _, column := range b.Colunas {
		if column.ID == columnID {
			return column, true
		}
	}
	return Column{}, false
}
