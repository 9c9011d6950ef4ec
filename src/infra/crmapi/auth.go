package crmapi

import (
	"context"
	"net/http"
	"strings"
)

type tokenKey struct{}

// WithBearerToken anexa ao contexto o token do usuário que está consultando.
// Os quadros kanban são "do usuário atual", então esse token tem prioridade
// sobre o token de serviço configurado.
func WithBearerToken(ctx context.Context, token string) context.Context {
	token = strings.TrimSpace(token)
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

func BearerTokenFrom(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok && token != ""
}

// TokenFromRequest extrai o token do header Authorization ("Bearer xyz").
func TokenFromRequest(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// WebsocketSubprotocol é o subprotocolo que carrega o token no upgrade: o
// navegador não deixa definir Authorization, então o cliente oferece
// ["bearer", "<token>"] em Sec-WebSocket-Protocol.
const WebsocketSubprotocol = "bearer"

// TokenFromWebsocket tenta o header Authorization, depois o par de
// subprotocolos e por fim o parâmetro access_token da URL.
func TokenFromWebsocket(r *http.Request) string {
	if token := TokenFromRequest(r); token != "" {
		return token
	}

	protocols := websocketProtocols(r)
	for i := 0; i+1 < len(protocols); i++ {
		if strings.EqualFold(protocols[i], WebsocketSubprotocol) {
			return protocols[i+1]
		}
	}

	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}

func websocketProtocols(r *http.Request) []string {
	var protocols []string
	for _, header := range r.Header.Values("Sec-WebSocket-Protocol") {
		for _, protocol := range strings.Split(header, ",") {
			if protocol = strings.TrimSpace(protocol); protocol != "" {
				protocols = append(protocols, protocol)
			}
		}
	}
	return protocols
}
