package repositories

import (
	"bytes"
	"encoding/json"
	"fmt"

	"chatstatus/src/domain"
)

// O backend responde de três jeitos para a mesma listagem: array puro,
// {data: [...]} ou um objeto único {id, ...}. splitList reduz os três à
// mesma lista de itens crus.
func splitList(resource string, body []byte) ([]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return []json.RawMessage{}, nil
	}

	switch body[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, malformed(resource, err)
		}
		return items, nil

	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, malformed(resource, err)
		}

		if data, ok := envelope["data"]; ok {
			data = bytes.TrimSpace(data)
			switch {
			case len(data) == 0 || bytes.Equal(data, []byte("null")):
				return []json.RawMessage{}, nil
			case data[0] == '[':
				var items []json.RawMessage
				if err := json.Unmarshal(data, &items); err != nil {
					return nil, malformed(resource, err)
				}
				return items, nil
			case data[0] == '{':
				return []json.RawMessage{data}, nil
			}
			return nil, malformed(resource, fmt.Errorf("unexpected data field %q", truncate(data)))
		}

		if _, ok := envelope["id"]; ok {
			return []json.RawMessage{body}, nil
		}
		return nil, malformed(resource, fmt.Errorf("object without data or id"))
	}

	return nil, malformed(resource, fmt.Errorf("unexpected body %q", truncate(body)))
}

// unwrapObject aceita o objeto direto ou embrulhado em {data: {...}}.
func unwrapObject(resource string, body []byte, target any) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return malformed(resource, fmt.Errorf("expected object, got %q", truncate(body)))
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return malformed(resource, err)
	}
	if data := bytes.TrimSpace(envelope.Data); len(data) > 0 && data[0] == '{' {
		body = data
	}

	if err := json.Unmarshal(body, target); err != nil {
		return malformed(resource, err)
	}
	return nil
}

func decodeItems[T any](resource string, items []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		var value T
		if err := json.Unmarshal(item, &value); err != nil {
			return nil, malformed(resource, err)
		}
		out = append(out, value)
	}
	return out, nil
}

func malformed(resource string, err error) error {
	return &domain.LookupError{Kind: domain.KindMalformedShape, Resource: resource, Err: err}
}

func truncate(b []byte) string {
	if len(b) > 64 {
		return string(b[:64]) + "..."
	}
	return string(b)
}
