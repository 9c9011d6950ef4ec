package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"chatstatus/src/domain"
	"chatstatus/src/infra/crmapi"
)

// requestContext repassa o token do painel para as chamadas ao CRM.
func requestContext(r *http.Request) context.Context {
	return crmapi.WithBearerToken(r.Context(), crmapi.TokenFromRequest(r))
}

func (s *Server) GetChatStatus(w http.ResponseWriter, r *http.Request) {
	chatID := strings.TrimSpace(r.PathValue("chatId"))
	if chatID == "" {
		http.Error(w, "chatId is required", http.StatusBadRequest)
		return
	}

	outcomes := s.resolverService.ResolveAll(requestContext(r), chatID)

	s.writeJSON(w, http.StatusOK, MapOutcomesToResponse(chatID, outcomes))
}

func (s *Server) GetIndicatorStatus(w http.ResponseWriter, r *http.Request) {
	chatID := strings.TrimSpace(r.PathValue("chatId"))
	if chatID == "" {
		http.Error(w, "chatId is required", http.StatusBadRequest)
		return
	}

	kind, err := domain.ParseIndicatorKind(r.PathValue("kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	outcome := s.resolverService.Resolve(requestContext(r), kind, chatID)

	s.writeJSON(w, http.StatusOK, IndicatorStatusDTO{
		Kind:   outcome.Indicator,
		Status: MapStatusToResponse(outcome.Status),
	})
}

func (s *Server) GetKanbanPlacement(w http.ResponseWriter, r *http.Request) {
	chatID := strings.TrimSpace(r.PathValue("chatId"))
	if chatID == "" {
		http.Error(w, "chatId is required", http.StatusBadRequest)
		return
	}

	placement, err := s.resolverService.ResolveKanbanPlacement(requestContext(r), chatID)
	if err != nil {
		// O sentinela é dado de exibição; a falha fica só no log
		s.logger.Warn("Kanban scan incomplete",
			"chat_id", chatID,
			"error_kind", domain.KindOf(err),
			"error", err)
	}

	s.writeJSON(w, http.StatusOK, MapPlacementToResponse(chatID, placement))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to write JSON response", "error", err)
	}
}
