package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"chatstatus/src/domain"
)

const maxEventBodyBytes = 64 << 10

// PostEvent recebe o equivalente aos eventos "entity created" do painel e os
// entrega ao sink (Kafka quando configurado, senão o dispatcher local).
func (s *Server) PostEvent(w http.ResponseWriter, r *http.Request) {
	var request PostEventRequestDTO
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBodyBytes)).Decode(&request); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	event := request.ToDomain()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	if err := event.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.eventSink.Submit(r.Context(), event); err != nil {
		if errors.Is(err, domain.ErrInvalidEvent) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		s.logger.Error("Failed to submit domain event",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)

		http.Error(w, domain.ErrUnavailableServer.Error(), http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, http.StatusAccepted, PostEventResponseDTO{ID: event.ID})
}
