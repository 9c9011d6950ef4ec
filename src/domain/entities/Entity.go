package entities

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// EntityType identifica o recurso do backend CRM consultado pelo cliente de lookup.
type EntityType string

const (
	EntityContact     EntityType = "contact"
	EntityQueue       EntityType = "queue"
	EntityTicket      EntityType = "ticket"
	EntityBudget      EntityType = "budget"
	EntityAppointment EntityType = "appointment"
)

// Path retorna o recurso REST do backend para o tipo.
func (t EntityType) Path() string {
	switch t {
	case EntityContact:
		return "/api/contatos"
	case EntityQueue:
		return "/api/filas"
	case EntityTicket:
		return "/api/tickets"
	case EntityBudget:
		return "/api/orcamentos"
	case EntityAppointment:
		return "/api/agendamentos"
	}
	return ""
}

// QueryParam é o filtro usado na query string: telefone para contatos,
// contato_id para tudo que é indexado pelo UUID do contato.
func (t EntityType) QueryParam() string {
	if t == EntityContact {
		return "telefone"
	}
	return "contato_id"
}

// Labels singular/plural usados no resumo do badge.
func (t EntityType) Labels() (string, string) {
	switch t {
	case EntityTicket:
		return "ticket", "tickets"
	case EntityBudget:
		return "orçamento", "orçamentos"
	case EntityAppointment:
		return "agendamento", "agendamentos"
	case EntityQueue:
		return "fila", "filas"
	}
	return "contato", "contatos"
}

// Record é a representação uniforme de qualquer registro retornado pelo backend.
// Os campos conhecidos são extraídos; o JSON original fica em Raw.
type Record struct {
	ID             string          `json:"id"`
	ContatoID      string          `json:"contatoId,omitempty"`
	NumeroTelefone string          `json:"numeroTelefone,omitempty"`
	Nome           string          `json:"nome,omitempty"`
	Titulo         string          `json:"titulo,omitempty"`
	Status         string          `json:"status,omitempty"`
	Raw            json.RawMessage `json:"-"`
}

// wireRecord aceita ids numéricos ou texto e as duas grafias de contato_id
// que o backend usa.
type wireRecord struct {
	ID             json.RawMessage `json:"id"`
	ContatoID      json.RawMessage `json:"contatoId"`
	ContatoIDSnake json.RawMessage `json:"contato_id"`
	NumeroTelefone string          `json:"numeroTelefone"`
	Nome           string          `json:"nome"`
	Titulo         string          `json:"titulo"`
	Status         string          `json:"status"`
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var wire wireRecord
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	contatoID := flexString(wire.ContatoID)
	if contatoID == "" {
		contatoID = flexString(wire.ContatoIDSnake)
	}

	*r = Record{
		ID:             flexString(wire.ID),
		ContatoID:      contatoID,
		NumeroTelefone: wire.NumeroTelefone,
		Nome:           wire.Nome,
		Titulo:         wire.Titulo,
		Status:         wire.Status,
		Raw:            append(json.RawMessage(nil), data...),
	}
	return nil
}

func flexString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}
	return string(raw)
}

// Summarize monta o texto de detalhe do badge para uma lista de registros.
func Summarize(t EntityType, records []Record) string {
	if len(records) == 0 {
		return ""
	}

	if t == EntityQueue {
		names := make([]string, 0, len(records))
		for _, record := range records {
			if record.Nome != "" {
				names = append(names, record.Nome)
			}
		}
		if len(names) == 0 {
			return "Na fila"
		}
		return strings.Join(names, ", ")
	}

	singular, plural := t.Labels()
	label := plural
	if len(records) == 1 {
		label = singular
	}

	byStatus := make(map[string]int)
	for _, record := range records {
		if record.Status != "" {
			byStatus[record.Status]++
		}
	}

	summary := strconv.Itoa(len(records)) + " " + label
	if len(byStatus) == 0 {
		return summary
	}

	statuses := make([]string, 0, len(byStatus))
	for status := range byStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)

	parts := make([]string, 0, len(statuses))
	for _, status := range statuses {
		parts = append(parts, status+": "+strconv.Itoa(byStatus[status]))
	}

	return summary + " (" + strings.Join(parts, ", ") + ")"
}
