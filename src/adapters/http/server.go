package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"chatstatus/src/infra/crmapi"
	"chatstatus/src/infra/eventbus"
	"chatstatus/src/services/events"
	"chatstatus/src/services/resolver"
)

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// Server representa o servidor HTTP da API
type Server struct {
	logger          *slog.Logger
	server          *http.Server
	mux             *http.ServeMux
	handler         http.Handler
	addr            string
	resolverService *resolver.ResolverService
	eventSink       events.EventSink
	bus             eventbus.Subscriber
	health          HealthChecker
	upgrader        websocket.Upgrader
}

// NewServer cria uma nova instância do servidor. health pode ser nil quando
// não há dependência externa para checar.
func NewServer(
	logger *slog.Logger,
	cfg ServerConfig,
	resolverService *resolver.ResolverService,
	eventSink events.EventSink,
	bus eventbus.Subscriber,
	health HealthChecker,
) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	server := &Server{
		logger:          logger,
		mux:             http.NewServeMux(),
		addr:            cfg.Addr,
		resolverService: resolverService,
		eventSink:       eventSink,
		bus:             bus,
		health:          health,
	}

	corsOptions := cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	allowOrigin := cors.New(corsOptions)

	server.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		Subprotocols:    []string{crmapi.WebsocketSubprotocol},
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowOrigin.OriginAllowed(r)
		},
	}

	// Rotas de Leitura
	server.mux.HandleFunc("GET /v1/chats/{chatId}/status", server.GetChatStatus)
	server.mux.HandleFunc("GET /v1/chats/{chatId}/status/{kind}", server.GetIndicatorStatus)
	server.mux.HandleFunc("GET /v1/chats/{chatId}/kanban", server.GetKanbanPlacement)

	// Eventos de domínio
	server.mux.HandleFunc("POST /v1/events", server.PostEvent)

	// Push dos indicadores
	server.mux.HandleFunc("GET /v1/ws", server.StreamStatus)

	server.mux.HandleFunc("GET /healthz", server.Healthz)

	server.handler = allowOrigin.Handler(server.mux)

	server.server = &http.Server{
		Addr:        cfg.Addr,
		Handler:     server.handler,
		ReadTimeout: 10 * time.Second,
		// Sem WriteTimeout: o websocket mantém a conexão aberta
		IdleTimeout: 120 * time.Second,
	}

	return server
}

// Handler expõe o mux com CORS (usado pelos testes com httptest).
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start inicia o servidor HTTP
func (s *Server) Start() error {
	s.logger.Info("Server started", "addr", s.addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown encerra o servidor HTTP de forma graciosa
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.health.HealthCheck(ctx); err != nil {
			s.logger.Warn("Health check failed", "error", err)
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
