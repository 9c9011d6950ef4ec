package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"chatstatus/src/infra/crmapi"
	"chatstatus/src/services/indicators"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameBytes  = 4096
	snapshotBuffer = 256
)

// StreamStatus abre uma sessão de indicadores por conexão. O painel manda
// {"chatId": "..."} ao trocar de chat e recebe um frame por mudança de estado
// de cada badge. O chat inicial pode vir em ?chatId= e o token do usuário no
// subprotocolo "bearer" ou em ?access_token=.
func (s *Server) StreamStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(crmapi.WithBearerToken(r.Context(), crmapi.TokenFromWebsocket(r)))
	defer cancel()

	snapshots := make(chan indicators.Snapshot, snapshotBuffer)
	listener := func(snapshot indicators.Snapshot) {
		select {
		case snapshots <- snapshot:
		default:
			s.logger.Warn("Dropping indicator snapshot for slow client", "kind", snapshot.Kind, "seq", snapshot.Seq)
		}
	}

	session := indicators.NewSession(ctx, s.logger, s.bus, s.resolverService.Resolve, listener)
	defer session.Close()

	s.logger.Debug("Websocket session opened", "session_id", session.ID, "remote", r.RemoteAddr)

	done := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSnapshots(conn, snapshots, done)
	}()

	if chatID := r.URL.Query().Get("chatId"); chatID != "" {
		session.SetIdentifier(chatID)
	}

	s.readFrames(conn, session)

	close(done)
	<-writerDone

	s.logger.Debug("Websocket session closed", "session_id", session.ID)
}

func (s *Server) readFrames(conn *websocket.Conn, session *indicators.Session) {
	conn.SetReadLimit(maxFrameBytes)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("Websocket read failed", "session_id", session.ID, "error", err)
			}
			return
		}

		var frame SubscribeFrameDTO
		if err := json.Unmarshal(payload, &frame); err != nil {
			s.logger.Debug("Ignoring invalid websocket frame", "session_id", session.ID, "error", err)
			continue
		}

		session.SetIdentifier(frame.ChatID)
	}
}

// writeSnapshots é o único goroutine que escreve na conexão.
func (s *Server) writeSnapshots(conn *websocket.Conn, snapshots <-chan indicators.Snapshot, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case snapshot := <-snapshots:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(MapSnapshotToResponse(snapshot)); err != nil {
				s.logger.Debug("Websocket write failed", "error", err)
				// Derruba a leitura para encerrar a sessão
				conn.Close()
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}

		case <-done:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
