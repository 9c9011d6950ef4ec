package stubs

import (
	"chatstatus/src/domain/entities"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/go-faker/faker/v4"
)

type RecordStub struct {
	record entities.Record
}

// NewContactStub gera um contato com telefone brasileiro já canônico.
func NewContactStub() RecordStub {
	record := entities.Record{
		ID:             gofakeit.UUID(),
		NumeroTelefone: gofakeit.Numerify("5511#########"),
		Nome:           faker.Name(),
	}
	return RecordStub{record: record}
}

// NewRecordStub gera um registro indexado por contato (ticket, orçamento, ...).
func NewRecordStub() RecordStub {
	record := entities.Record{
		ID:        gofakeit.UUID(),
		ContatoID: gofakeit.UUID(),
		Titulo:    faker.Sentence(),
		Status:    gofakeit.RandomString([]string{"aberto", "em_andamento", "fechado"}),
	}
	return RecordStub{record: record}
}

func (rs RecordStub) WithID(id string) RecordStub {
	rs.record.ID = id
	return rs
}

func (rs RecordStub) WithNumeroTelefone(numeroTelefone string) RecordStub {
	rs.record.NumeroTelefone = numeroTelefone
	return rs
}

func (rs RecordStub) WithNome(nome string) RecordStub {
	rs.record.Nome = nome
	return rs
}

func (rs RecordStub) WithContatoID(contatoID string) RecordStub {
	rs.record.ContatoID = contatoID
	return rs
}

func (rs RecordStub) WithStatus(status string) RecordStub {
	rs.record.Status = status
	return rs
}

func (rs RecordStub) Get() entities.Record {
	return rs.record
}

// Payload é o registro no formato em que o backend CRM o serializa.
func (rs RecordStub) Payload() map[string]interface{} {
	payload := map[string]interface{}{"id": rs.record.ID}
	if rs.record.ContatoID != "" {
		payload["contatoId"] = rs.record.ContatoID
	}
	if rs.record.NumeroTelefone != "" {
		payload["numeroTelefone"] = rs.record.NumeroTelefone
	}
	if rs.record.Nome != "" {
		payload["nome"] = rs.record.Nome
	}
	if rs.record.Titulo != "" {
		payload["titulo"] = rs.record.Titulo
	}
	if rs.record.Status != "" {
		payload["status"] = rs.record.Status
	}
	return payload
}

// Payloads monta a lista no formato bare array.
func Payloads(stubs ...RecordStub) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(stubs))
	for _, stub := range stubs {
		out = append(out, stub.Payload())
	}
	return out
}
