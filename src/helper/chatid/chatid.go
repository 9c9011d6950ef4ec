// Package chatid converte identificadores de chat do WhatsApp na chave canônica
// usada para casar com os contatos do backend.
package chatid

import (
	"strings"

	"go.mau.fi/whatsmeow/types"
)

// knownServers são os sufixos de transporte removidos pela normalização.
var knownServers = map[string]struct{}{
	types.LegacyUserServer:  {},
	types.DefaultUserServer: {},
	types.GroupServer:       {},
	types.HiddenUserServer:  {},
}

// Normalize remove exatamente um sufixo de transporte conhecido ("@c.us",
// "@s.whatsapp.net", ...). O segundo retorno é false para identificador ausente.
//
// A parte de dispositivo de um JID de usuário ("5511...:12@s.whatsapp.net") sai
// junto com o sufixo. Fora isso os dígitos não são tocados, e o resultado não
// contém '@', o que torna a função idempotente.
func Normalize(raw string) (string, bool) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", false
	}

	user, server, found := strings.Cut(id, "@")
	if !found {
		return id, true
	}
	if _, ok := knownServers[server]; !ok {
		return id, true
	}

	if server != types.GroupServer {
		if base, _, hasDevice := strings.Cut(user, ":"); hasDevice {
			user = base
		}
	}
	if user == "" {
		return "", false
	}
	return user, true
}

// Matches compara dois identificadores por igualdade direta ou pela chave canônica.
func Matches(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	keyA, okA := Normalize(a)
	keyB, okB := Normalize(b)
	return okA && okB && keyA == keyB
}
