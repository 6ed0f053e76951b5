package relayclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/cwrk-planet/live-relay/internal/domain"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

var ErrNotConnected = errors.New("relayclient: not connected")

type Config struct {
	URL              string        // ws://host:4000/ws
	HandshakeTimeout time.Duration // 0 = без таймаута
	WriteTimeout     time.Duration // 0 = без таймаута
	ReadLimit        int64         // default 1 MiB
	Buffer           int           // ёмкость Events(), default 64
}

// Client — клиент событийного протокола релея поверх coder/websocket.
type Client struct {
	cfg    Config
	ws     *websocket.Conn
	events chan Event
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Dial подключается к релею и запускает чтение событий.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("relayclient: empty URL")
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = 1 << 20
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 64
	}

	dialCtx := ctx
	if cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.HandshakeTimeout)
		defer cancel()
	}
	ws, _, err := websocket.Dial(dialCtx, cfg.URL, nil)
	if err != nil {
		return nil, err
	}
	ws.SetReadLimit(cfg.ReadLimit)

	runCtx, cancel := context.WithCancel(context.Background())
	c := &Client{
		cfg:    cfg,
		ws:     ws,
		events: make(chan Event, cfg.Buffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go c.readLoop(runCtx)
	return c, nil
}

// Events закрывается, когда соединение завершено; причина в Err().
func (c *Client) Events() <-chan Event { return c.events }

func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Client) Join(ctx context.Context, req domain.JoinRequest) error {
	return c.send(ctx, domain.EventJoinRoom, req)
}

func (c *Client) Send(ctx context.Context, msg domain.ChatMessage) error {
	return c.send(ctx, domain.EventSendMessage, msg)
}

func (c *Client) RequestSong(ctx context.Context, req domain.SongRequest) error {
	return c.send(ctx, domain.EventSongRequested, req)
}

// Close закрывает соединение и дожидается остановки чтения.
func (c *Client) Close() error {
	err := c.ws.Close(websocket.StatusNormalClosure, "client close")
	c.cancel()
	<-c.done
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (c *Client) send(ctx context.Context, event string, data any) error {
	select {
	case <-c.done:
		return ErrNotConnected
	default:
	}
	if c.cfg.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.WriteTimeout)
		defer cancel()
	}
	return wsjson.Write(ctx, c.ws, outFrame{Event: event, Data: data})
}

func (c *Client) readLoop(ctx context.Context) {
	defer close(c.events)
	defer close(c.done)

	for {
		var f frame
		if err := wsjson.Read(ctx, c.ws, &f); err != nil {
			if !isExpectedDisconnect(ctx, err) {
				c.setErr(err)
			}
			return
		}
		ev, err := decodeEvent(f)
		if err != nil {
			slog.Debug("relayclient: skip event", "event", f.Event, "err", err)
			continue
		}
		select {
		case c.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) setErr(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

func isExpectedDisconnect(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
