package relay

import (
	"sync"

	"github.com/cwrk-planet/live-relay/internal/domain"
)

// DefaultSendBuffer: размер исходящей очереди одного подключения.
const DefaultSendBuffer = 64

// Participant — исходящая очередь одного подключения. Диспетчер только кладёт
// события, вычитывает их writer транспорта.
type Participant struct {
	id   string
	out  chan domain.Event
	done chan struct{}
	once sync.Once
}

func NewParticipant(id string, buffer int) *Participant {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &Participant{
		id:   id,
		out:  make(chan domain.Event, buffer),
		done: make(chan struct{}),
	}
}

func (p *Participant) ID() string { return p.id }

// Deliver не блокирует: при переполненной очереди событие теряется.
func (p *Participant) Deliver(ev domain.Event) error {
	select {
	case <-p.done:
		return domain.ErrClosed
	default:
	}

	select {
	case p.out <- ev:
		return nil
	default:
		return domain.ErrQueueFull
	}
}

func (p *Participant) Outbound() <-chan domain.Event { return p.out }

func (p *Participant) Done() <-chan struct{} { return p.done }

// Close идемпотентен. Канал out не закрываем, чтобы Deliver не паниковал.
func (p *Participant) Close() {
	p.once.Do(func() { close(p.done) })
}
