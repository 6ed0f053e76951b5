package relay

import (
	"log/slog"
	"sync"

	"github.com/cwrk-planet/live-relay/internal/domain"
	"github.com/cwrk-planet/live-relay/internal/room"
)

// Registry — то, что диспетчеру нужно от реестра комнат.
type Registry interface {
	Join(id string, m room.Member) []domain.ChatMessage
	Leave(id, memberID string) bool
	Append(id string, msg domain.ChatMessage)
	Members(id string) []room.Member
}

// Dispatcher рассылает события участникам комнаты.
// Все операции идут под одним мьютексом: каждый получатель видит сообщения
// в том же порядке, в каком они легли в историю.
type Dispatcher struct {
	mu  sync.Mutex
	reg Registry
}

func NewDispatcher(reg Registry) *Dispatcher {
	return &Dispatcher{reg: reg}
}

// Admit добавляет участника в комнату и кладёт ему load_history.
// Между снимком истории и постановкой в очередь ни одна рассылка не вклинится.
func (d *Dispatcher) Admit(roomID string, m room.Member) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	history := d.reg.Join(roomID, m)
	return m.Deliver(domain.Event{Name: domain.EventLoadHistory, Data: history})
}

func (d *Dispatcher) Release(roomID, memberID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.reg.Leave(roomID, memberID)
}

// Publish сохраняет сообщение в историю и рассылает receive_message всей комнате.
func (d *Dispatcher) Publish(msg domain.ChatMessage) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.reg.Append(msg.Room(), msg)
	return d.fanout(msg.Room(), domain.Event{Name: domain.EventReceiveMessage, Data: msg})
}

// Broadcast рассылает событие без записи в историю.
func (d *Dispatcher) Broadcast(roomID string, ev domain.Event) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.fanout(roomID, ev)
}

// Unicast доставляет событие одному участнику.
func (d *Dispatcher) Unicast(m room.Member, ev domain.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return m.Deliver(ev)
}

func (d *Dispatcher) fanout(roomID string, ev domain.Event) int {
	delivered := 0
	for _, m := range d.reg.Members(roomID) {
		if err := m.Deliver(ev); err != nil {
			// best-effort
			slog.Warn("relay delivery dropped",
				"room", roomID, "conn", m.ID(), "event", ev.Name, "err", err)
			continue
		}
		delivered++
	}
	return delivered
}
