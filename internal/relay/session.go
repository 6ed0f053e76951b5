package relay

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cwrk-planet/live-relay/internal/domain"

	"github.com/samber/lo"
)

type State int

const (
	StateConnected State = iota
	StateJoined
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateJoined:
		return "joined"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Session — жизненный цикл одного подключения: join, сообщения, disconnect.
// Методы вызывает только read-loop своего подключения, поэтому без блокировок.
type Session struct {
	p      *Participant
	disp   *Dispatcher
	policy JoinPolicy

	state    State
	rooms    []string
	username string
	role     domain.Role
}

func NewSession(p *Participant, disp *Dispatcher, policy JoinPolicy) *Session {
	if policy == "" {
		policy = PolicyLeavePrevious
	}
	return &Session{
		p:      p,
		disp:   disp,
		policy: policy,
		state:  StateConnected,
	}
}

func (s *Session) ID() string { return s.p.ID() }

func (s *Session) State() State { return s.state }

func (s *Session) Username() string { return s.username }

func (s *Session) Role() domain.Role { return s.role }

// Rooms: комнаты, в которых сейчас состоит подключение, в порядке входа.
func (s *Session) Rooms() []string {
	return append([]string(nil), s.rooms...)
}

// Join регистрирует подключение в комнате и отправляет ему историю.
// Данные клиента не проверяются: пустой performanceId даёт комнату "".
func (s *Session) Join(req domain.JoinRequest) error {
	if s.state == StateDisconnected {
		return domain.ErrClosed
	}

	if s.policy == PolicyLeavePrevious {
		for _, prev := range s.rooms {
			s.disp.Release(prev, s.ID())
		}
		s.rooms = s.rooms[:0]
	}

	s.username = req.Username
	s.role = req.UserType
	if !lo.Contains(s.rooms, req.PerformanceID) {
		s.rooms = append(s.rooms, req.PerformanceID)
	}
	s.state = StateJoined

	slog.Info("user joined room",
		"conn", s.ID(), "user", req.Username, "role", req.UserType, "room", req.PerformanceID)

	if err := s.disp.Admit(req.PerformanceID, s.p); err != nil {
		return fmt.Errorf("replay history: %w", err)
	}
	return nil
}

// SendMessage пишет сообщение в историю комнаты из payload и рассылает его.
// Комната берётся из сообщения, а не из последнего join.
func (s *Session) SendMessage(msg domain.ChatMessage) error {
	if s.state == StateDisconnected {
		return domain.ErrClosed
	}
	n := s.disp.Publish(msg)
	slog.Debug("chat message relayed", "conn", s.ID(), "room", msg.Room(), "recipients", n)
	return nil
}

func (s *Session) RequestSong(req domain.SongRequest) error {
	if s.state == StateDisconnected {
		return domain.ErrClosed
	}
	n := s.disp.Broadcast(req.Room(), domain.Event{Name: domain.EventSongRequested, Data: req})
	slog.Debug("song request relayed",
		"conn", s.ID(), "room", req.Room(), "title", req.Title, "recipients", n)
	return nil
}

// Disconnect убирает подключение из всех его комнат. Остальным ничего не шлём.
func (s *Session) Disconnect() {
	if s.state == StateDisconnected {
		return
	}
	for _, id := range s.rooms {
		s.disp.Release(id, s.ID())
	}
	s.rooms = nil
	s.state = StateDisconnected
	s.p.Close()

	slog.Info("user disconnected", "conn", s.ID(), "user", s.username)
}

// Handle разбирает входящее событие и вызывает нужную операцию.
// Payload не валидируется: любой синтаксически верный JSON доходит до комнаты,
// ошибка возможна только для битого JSON или неизвестного события.
func (s *Session) Handle(event string, data json.RawMessage) error {
	switch event {
	case domain.EventJoinRoom:
		var req domain.JoinRequest
		if err := decode(data, &req); err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrMalformedFrame, event, err)
		}
		return s.Join(req)
	case domain.EventSendMessage:
		var msg domain.ChatMessage
		if err := decode(data, &msg); err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrMalformedFrame, event, err)
		}
		return s.SendMessage(msg)
	case domain.EventSongRequested:
		var req domain.SongRequest
		if err := decode(data, &req); err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrMalformedFrame, event, err)
		}
		return s.RequestSong(req)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownEvent, event)
	}
}

// отсутствующий payload даёт нулевое значение, как undefined у клиента
func decode(data json.RawMessage, dst any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}
