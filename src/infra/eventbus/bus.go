// Package eventbus é o canal publish/subscribe do processo para eventos de domínio.
package eventbus

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"chatstatus/src/domain"
)

const DefaultBufferSize = 32

type Publisher interface {
	Publish(event domain.DomainEvent)
}

type Subscriber interface {
	Subscribe(buffer int) (string, <-chan domain.DomainEvent, func())
}

// Bus entrega cada evento a todos os assinantes. Assinante lento perde o
// evento em vez de travar quem publica.
type Bus struct {
	mu      sync.RWMutex
	streams map[string]chan domain.DomainEvent
	dropped atomic.Uint64
}

func New() *Bus {
	return &Bus{streams: map[string]chan domain.DomainEvent{}}
}

func (b *Bus) Publish(event domain.DomainEvent) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.streams {
		select {
		case ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
}

// Subscribe retorna o id da assinatura, o canal somente leitura e a função de
// cancelamento (idempotente; fecha o canal).
func (b *Bus) Subscribe(buffer int) (string, <-chan domain.DomainEvent, func()) {
	if b == nil {
		ch := make(chan domain.DomainEvent)
		close(ch)
		return "", ch, func() {}
	}
	if buffer <= 0 {
		buffer = DefaultBufferSize
	}

	id := uuid.NewString()
	ch := make(chan domain.DomainEvent, buffer)

	b.mu.Lock()
	b.streams[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			if current, ok := b.streams[id]; ok {
				delete(b.streams, id)
				close(current)
			}
			b.mu.Unlock()
		})
	}

	return id, ch, cancel
}

func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.streams)
}

// Dropped conta eventos descartados por assinantes lentos.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}
