package room

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cwrk-planet/live-relay/internal/domain"

	"github.com/samber/lo"
)

// DefaultHistoryLimit: сколько последних сообщений комната отдаёт новым участникам.
const DefaultHistoryLimit = 100

// Member — активное подключение, зарегистрированное в комнате.
type Member interface {
	ID() string
	Deliver(ev domain.Event) error
}

type room struct {
	id         string
	history    []domain.ChatMessage
	members    map[string]Member
	createdAt  time.Time
	lastActive time.Time
}

// Registry владеет всеми комнатами процесса: историей и составом участников.
// Создаётся один раз в main и передаётся в слой подключений.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room
	limit int
	now   func() time.Time
}

func NewRegistry(historyLimit int) *Registry {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Registry{
		rooms: make(map[string]*room),
		limit: historyLimit,
		now:   time.Now,
	}
}

// getOrCreate вызывается под r.mu.Lock.
func (r *Registry) getOrCreate(id string) *room {
	rm, ok := r.rooms[id]
	if !ok {
		now := r.now()
		rm = &room{
			id:         id,
			members:    make(map[string]Member),
			createdAt:  now,
			lastActive: now,
		}
		r.rooms[id] = rm
	}
	return rm
}

// History возвращает копию истории комнаты, при отсутствии создаёт пустую комнату.
func (r *Registry) History(id string) []domain.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	return cloneHistory(r.getOrCreate(id).history)
}

// Append добавляет сообщение в конец истории и вытесняет самые старые сверх лимита.
func (r *Registry) Append(id string, msg domain.ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm := r.getOrCreate(id)
	rm.history = append(rm.history, msg)
	if len(rm.history) > r.limit {
		rm.history = rm.history[len(rm.history)-r.limit:]
	}
	rm.lastActive = r.now()
}

// Join регистрирует участника и возвращает историю, снятую под той же блокировкой.
func (r *Registry) Join(id string, m Member) []domain.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm := r.getOrCreate(id)
	rm.members[m.ID()] = m
	rm.lastActive = r.now()

	return cloneHistory(rm.history)
}

// Leave убирает участника из комнаты. История остаётся.
func (r *Registry) Leave(id, memberID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[id]
	if !ok {
		return false
	}
	if _, ok := rm.members[memberID]; !ok {
		return false
	}
	delete(rm.members, memberID)
	rm.lastActive = r.now()

	return true
}

// Members отдаёт снимок текущих участников и комнату не создаёт.
func (r *Registry) Members(id string) []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[id]
	if !ok {
		return nil
	}
	return lo.Values(rm.members)
}

// Lookup отдаёт историю существующей комнаты, не создавая новую.
func (r *Registry) Lookup(id string) ([]domain.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return cloneHistory(rm.history), nil
}

func (r *Registry) Stats(id string) (domain.RoomStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[id]
	if !ok {
		return domain.RoomStats{}, domain.ErrRoomNotFound
	}
	return rm.stats(), nil
}

// Rooms возвращает статистику всех комнат, отсортированную по id.
func (r *Registry) Rooms() []domain.RoomStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := lo.MapToSlice(r.rooms, func(_ string, rm *room) domain.RoomStats {
		return rm.stats()
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// EvictIdle удаляет пустые комнаты без активности дольше ttl.
// Комнаты с участниками не трогаем никогда.
func (r *Registry) EvictIdle(ttl time.Duration) []string {
	if ttl <= 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	deadline := r.now().Add(-ttl)
	var evicted []string
	for id, rm := range r.rooms {
		if len(rm.members) == 0 && rm.lastActive.Before(deadline) {
			delete(r.rooms, id)
			evicted = append(evicted, id)
		}
	}
	sort.Strings(evicted)

	return evicted
}

// RunJanitor периодически вызывает EvictIdle, пока не отменят ctx.
// При ttl <= 0 сразу выходит: комнаты живут до рестарта процесса.
func (r *Registry) RunJanitor(ctx context.Context, interval, ttl time.Duration) {
	if ttl <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ids := r.EvictIdle(ttl); len(ids) > 0 {
				slog.Info("room janitor evicted idle rooms", "count", len(ids), "rooms", ids)
			}
		}
	}
}

func (rm *room) stats() domain.RoomStats {
	return domain.RoomStats{
		ID:           rm.id,
		Members:      len(rm.members),
		HistorySize:  len(rm.history),
		CreatedAt:    rm.createdAt,
		LastActivity: rm.lastActive,
	}
}

// пустая история должна уходить клиенту как [], а не null
func cloneHistory(h []domain.ChatMessage) []domain.ChatMessage {
	out := make([]domain.ChatMessage, len(h))
	copy(out, h)
	return out
}
