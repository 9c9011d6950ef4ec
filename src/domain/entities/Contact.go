package entities

// Contact é a visão somente leitura de um contato do CRM. O UUID é a chave de
// junção para filas, tickets, orçamentos e agendamentos.
type Contact struct {
	ID             string `json:"id"`
	NumeroTelefone string `json:"numeroTelefone"`
	Nome           string `json:"nome"`
}

func ContactFromRecord(r Record) Contact {
	return Contact{
		ID:             r.ID,
		NumeroTelefone: r.NumeroTelefone,
		Nome:           r.Nome,
	}
}
