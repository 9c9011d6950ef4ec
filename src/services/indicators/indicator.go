// Package indicators mantém o estado de cada badge do cabeçalho do chat e
// decide quando ele precisa ser resolvido de novo.
package indicators

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"chatstatus/src/domain"
	"chatstatus/src/helper/chatid"
	"chatstatus/src/services/resolver"
)

type State string

const (
	StateIdle     State = "idle"
	StateLoading  State = "loading"
	StateResolved State = "resolved"
	StateFailed   State = "failed"
)

// ResolveFunc é a resolução de um indicador (resolver.ResolverService.Resolve).
type ResolveFunc func(ctx context.Context, kind domain.IndicatorKind, chatID string) resolver.Outcome

type Snapshot struct {
	Kind       domain.IndicatorKind  `json:"kind"`
	State      State                 `json:"state"`
	Identifier string                `json:"chatId"`
	Status     domain.ResolvedStatus `json:"status"`
	ErrorKind  domain.ErrorKind      `json:"errorKind,omitempty"`
	Seq        uint64                `json:"seq"`
}

// Indicator é a máquina Idle -> Loading -> {Resolved | Failed} de um badge.
//
// Cada disparo recebe um número de sequência; só a conclusão com a sequência
// mais recente é aplicada, as anteriores são descartadas. Disparar de novo
// cancela a resolução em andamento. onChange é chamado com o lock tomado e
// não pode chamar de volta o Indicator.
type Indicator struct {
	logger   *slog.Logger
	kind     domain.IndicatorKind
	resolve  ResolveFunc
	onChange func(Snapshot)
	baseCtx  context.Context

	mu         sync.Mutex
	identifier string
	canonical  string
	contatoID  string
	state      State
	status     domain.ResolvedStatus
	errorKind  domain.ErrorKind
	seq        uint64
	cancel     context.CancelFunc
	closed     bool
	inFlight   sync.WaitGroup
}

func NewIndicator(
	ctx context.Context,
	logger *slog.Logger,
	kind domain.IndicatorKind,
	resolve ResolveFunc,
	onChange func(Snapshot),
) *Indicator {
	if onChange == nil {
		onChange = func(Snapshot) {}
	}
	return &Indicator{
		logger:   logger,
		kind:     kind,
		resolve:  resolve,
		onChange: onChange,
		baseCtx:  ctx,
		state:    StateIdle,
	}
}

func (i *Indicator) Kind() domain.IndicatorKind {
	return i.kind
}

// SetIdentifier troca o chat do indicador. Só dispara uma resolução quando o
// identificador muda; repetir o mesmo valor não faz nada.
func (i *Indicator) SetIdentifier(identifier string) bool {
	identifier = strings.TrimSpace(identifier)

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed || identifier == i.identifier {
		return false
	}

	i.identifier = identifier
	i.canonical, _ = chatid.Normalize(identifier)
	i.contatoID = ""

	if identifier == "" {
		i.seq++
		i.cancelInFlight()
		i.state = StateIdle
		i.status = domain.ResolvedStatus{}
		i.errorKind = domain.KindNone
		i.notify()
		return false
	}

	i.trigger()
	return true
}

// HandleEvent dispara uma nova resolução se o evento é relevante para o tipo
// do indicador e se refere ao chat atual: id original, chave canônica ou o
// UUID do contato aprendido na última resolução.
func (i *Indicator) HandleEvent(event domain.DomainEvent) bool {
	if !event.Affects(i.kind) {
		return false
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed || i.identifier == "" || !i.matches(event) {
		return false
	}

	i.logger.Debug("Indicator refresh by event",
		"kind", i.kind,
		"chat_id", i.identifier,
		"event_type", event.Type,
		"event_id", event.ID)

	i.trigger()
	return true
}

// Refresh força uma nova resolução do identificador atual.
func (i *Indicator) Refresh() bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed || i.identifier == "" {
		return false
	}
	i.trigger()
	return true
}

func (i *Indicator) Snapshot() Snapshot {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.snapshot()
}

// Close cancela a resolução em andamento; nenhuma conclusão posterior é aplicada.
func (i *Indicator) Close() {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return
	}
	i.closed = true
	i.cancelInFlight()
	i.mu.Unlock()

	i.inFlight.Wait()
}

func (i *Indicator) matches(event domain.DomainEvent) bool {
	for _, key := range event.MatchKeys() {
		if key == i.identifier || (i.contatoID != "" && key == i.contatoID) {
			return true
		}
		if canonical, ok := chatid.Normalize(key); ok && canonical == i.canonical {
			return true
		}
	}
	return false
}

// trigger exige o lock tomado.
func (i *Indicator) trigger() {
	i.cancelInFlight()

	i.seq++
	seq := i.seq
	identifier := i.identifier

	ctx, cancel := context.WithCancel(i.baseCtx)
	i.cancel = cancel

	i.state = StateLoading
	i.notify()

	i.inFlight.Add(1)
	go i.run(ctx, seq, identifier)
}

func (i *Indicator) run(ctx context.Context, seq uint64, identifier string) {
	defer i.inFlight.Done()

	start := time.Now()
	outcome := i.resolve(ctx, i.kind, identifier)

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed || seq != i.seq {
		i.logger.Debug("Dropping stale resolution",
			"kind", i.kind,
			"chat_id", identifier,
			"seq", seq,
			"latest_seq", i.seq)
		return
	}

	i.cancel = nil
	if outcome.Canceled() {
		// Só chega aqui com o contexto base encerrado: trocas de chat e Close
		// já caíram no descarte acima. O badge não pode ficar em loading.
		i.state = StateFailed
		i.status = domain.NotFoundStatus()
		i.errorKind = outcome.ErrorKind
		if i.errorKind == domain.KindNone {
			i.errorKind = domain.KindNetworkFailure
		}
		i.logger.Debug("Indicator resolution canceled by its session",
			"kind", i.kind,
			"chat_id", identifier,
			"seq", seq)
		i.notify()
		return
	}

	i.status = outcome.Status
	i.errorKind = outcome.ErrorKind
	if outcome.Status.ContatoID != "" {
		i.contatoID = outcome.Status.ContatoID
	}

	if outcome.Failed() {
		i.state = StateFailed
	} else {
		i.state = StateResolved
	}

	i.logger.Debug("Indicator resolved",
		"kind", i.kind,
		"chat_id", identifier,
		"state", i.state,
		"seq", seq,
		"elapsed", time.Since(start))

	i.notify()
}

func (i *Indicator) cancelInFlight() {
	if i.cancel != nil {
		i.cancel()
		i.cancel = nil
	}
}

func (i *Indicator) notify() {
	i.onChange(i.snapshot())
}

func (i *Indicator) snapshot() Snapshot {
	return Snapshot{
		Kind:       i.kind,
		State:      i.state,
		Identifier: i.identifier,
		Status:     i.status,
		ErrorKind:  i.errorKind,
		Seq:        i.seq,
	}
}
