package indicators

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"chatstatus/src/domain"
	"chatstatus/src/infra/eventbus"
)

const sessionEventBuffer = 64

// Session agrupa os indicadores de um cabeçalho de chat aberto e os liga ao
// barramento de eventos. Cada snapshot aplicado é repassado ao listener.
type Session struct {
	ID string

	logger      *slog.Logger
	indicators  []*Indicator
	cancel      context.CancelFunc
	unsubscribe func()
	done        chan struct{}
	closeOnce   sync.Once
}

// NewSession cria um indicador por tipo (todos quando kinds é vazio) e começa
// a escutar o barramento. ctx é a base das resoluções e carrega o token do
// usuário; cancelá-lo equivale a fechar a sessão para as resoluções.
func NewSession(
	ctx context.Context,
	logger *slog.Logger,
	bus eventbus.Subscriber,
	resolve ResolveFunc,
	listener func(Snapshot),
	kinds ...domain.IndicatorKind,
) *Session {
	if len(kinds) == 0 {
		kinds = domain.AllIndicators
	}

	ctx, cancel := context.WithCancel(ctx)
	session := &Session{
		ID:     uuid.NewString(),
		logger: logger,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	logger = logger.With("session_id", session.ID)
	session.logger = logger

	for _, kind := range kinds {
		session.indicators = append(session.indicators, NewIndicator(ctx, logger, kind, resolve, listener))
	}

	_, events, unsubscribe := bus.Subscribe(sessionEventBuffer)
	session.unsubscribe = unsubscribe
	go session.listen(events)

	return session
}

func (s *Session) listen(events <-chan domain.DomainEvent) {
	defer close(s.done)
	for event := range events {
		for _, indicator := range s.indicators {
			indicator.HandleEvent(event)
		}
	}
}

// SetIdentifier troca o chat de todos os indicadores. Retorna quantos dispararam.
func (s *Session) SetIdentifier(identifier string) int {
	triggered := 0
	for _, indicator := range s.indicators {
		if indicator.SetIdentifier(identifier) {
			triggered++
		}
	}
	return triggered
}

// HandleEvent entrega um evento diretamente, sem passar pelo barramento.
func (s *Session) HandleEvent(event domain.DomainEvent) int {
	triggered := 0
	for _, indicator := range s.indicators {
		if indicator.HandleEvent(event) {
			triggered++
		}
	}
	return triggered
}

func (s *Session) Refresh() {
	for _, indicator := range s.indicators {
		indicator.Refresh()
	}
}

func (s *Session) Snapshots() []Snapshot {
	snapshots := make([]Snapshot, 0, len(s.indicators))
	for _, indicator := range s.indicators {
		snapshots = append(snapshots, indicator.Snapshot())
	}
	return snapshots
}

// Close cancela a assinatura e as resoluções em andamento.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.unsubscribe()
		<-s.done
		s.cancel()
		for _, indicator := range s.indicators {
			indicator.Close()
		}
		s.logger.Debug("Indicator session closed")
	})
}
