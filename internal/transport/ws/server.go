package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cwrk-planet/live-relay/internal/relay"
	"github.com/cwrk-planet/live-relay/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

type Options struct {
	Policy         relay.JoinPolicy
	SendBuffer     int
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	MaxFrameBytes  int64
	AllowedOrigins []string
}

func (o *Options) setDefaults() {
	if o.Policy == "" {
		o.Policy = relay.PolicyLeavePrevious
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = relay.DefaultSendBuffer
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 15 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	if o.MaxFrameBytes <= 0 {
		o.MaxFrameBytes = 1 << 20
	}
}

type Server struct {
	upgrader websocket.Upgrader
	disp     *relay.Dispatcher
	opts     Options

	mu    sync.Mutex
	conns map[*wsConn]struct{}
}

func NewServer(disp *relay.Dispatcher, opts Options) *Server {
	opts.setDefaults()
	return &Server{
		disp:  disp,
		opts:  opts,
		conns: make(map[*wsConn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
	}
}

// WS endpoint: GET /ws[?username=&userType=]
// Параметры запроса идут только в логи, участника определяет join_room.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту ошибкой
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	q := r.URL.Query()
	p := relay.NewParticipant(uuid.NewString(), s.opts.SendBuffer)
	sess := relay.NewSession(p, s.disp, s.opts.Policy)
	c := newWsConn(conn, p)
	s.track(c)
	defer s.untrack(c)

	ctx := logger.WithConn(r.Context(), p.ID())
	slog.InfoContext(ctx, "user connected", append(logger.ArgsFromCtx(ctx),
		"remote", r.RemoteAddr,
		"username", q.Get("username"), "user_type", q.Get("userType"))...)

	go s.writeLoop(c)
	s.readLoop(c, sess)

	sess.Disconnect()
	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "conn", p.ID(), "err", err)
	}
}

func (s *Server) readLoop(c *wsConn, sess *relay.Session) {
	c.conn.SetReadLimit(s.opts.MaxFrameBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.opts.PingInterval))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * s.opts.PingInterval))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("ws read failed", "conn", sess.ID(), "err", err)
			}
			return
		}
		// любое входящее сообщение тоже признак живого клиента
		_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.opts.PingInterval))

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			slog.Debug("ws malformed frame", "conn", sess.ID(), "err", err)
			continue
		}
		if err := sess.Handle(f.Event, f.Data); err != nil {
			slog.Debug("ws frame rejected", "conn", sess.ID(), "event", f.Event, "err", err)
		}
	}
}

// writeLoop — единственный писатель в сокет: события из очереди и ping.
func (s *Server) writeLoop(c *wsConn) {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-c.p.Outbound():
			_ = c.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			if err := c.conn.WriteJSON(outFrame{Event: ev.Name, Data: ev.Data}); err != nil {
				slog.Debug("ws write failed", "conn", c.p.ID(), "event", ev.Name, "err", err)
				_ = c.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.opts.WriteTimeout)); err != nil {
				_ = c.Close()
				return
			}
		case <-c.p.Done():
			return
		}
	}
}

// CloseAll рвёт все активные подключения. http.Server.Shutdown hijacked-соединения не трогает.
func (s *Server) CloseAll() int {
	s.mu.Lock()
	conns := make([]*wsConn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(s.opts.WriteTimeout))
		_ = c.Close()
	}
	return len(conns)
}

// Active возвращает число открытых подключений.
func (s *Server) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// --- helpers ---

func (s *Server) track(c *wsConn) {
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(c *wsConn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || lo.Contains(allowed, "*") {
		return func(r *http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return lo.ContainsBy(allowed, func(a string) bool { return strings.EqualFold(a, origin) })
	}
}

type wsConn struct {
	conn   *websocket.Conn
	p      *relay.Participant
	once   sync.Once
	closeE error
}

func newWsConn(c *websocket.Conn, p *relay.Participant) *wsConn {
	return &wsConn{conn: c, p: p}
}

func (c *wsConn) Close() error {
	c.once.Do(func() {
		c.p.Close()
		c.closeE = c.conn.Close()
		if errors.Is(c.closeE, net.ErrClosed) {
			c.closeE = nil
		}
	})
	return c.closeE
}
