package singerbot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cwrk-planet/live-relay/internal/domain"
	"github.com/cwrk-planet/live-relay/pkg/relayclient"
)

const timestampLayout = "3:04:05 PM"

// Conn — то, что боту нужно от клиента релея.
type Conn interface {
	Join(ctx context.Context, req domain.JoinRequest) error
	Send(ctx context.Context, msg domain.ChatMessage) error
	Events() <-chan relayclient.Event
}

type Config struct {
	PerformanceID string
	Name          string
	Greeting      string
	Trigger       string // подстрока в сообщении зрителя, на которую отвечаем
	GreetingDelay time.Duration
	ReplyDelay    time.Duration
}

// Bot изображает артиста: здоровается с залом и благодарит за приветствия.
type Bot struct {
	cfg Config
	now func() time.Time
}

func New(cfg Config) *Bot {
	if cfg.Name == "" {
		cfg.Name = "SingerBot"
	}
	if cfg.Greeting == "" {
		cfg.Greeting = "Hello Audience! Welcome to the browser test!"
	}
	if cfg.Trigger == "" {
		cfg.Trigger = "Hello"
	}
	return &Bot{cfg: cfg, now: time.Now}
}

func (b *Bot) Greeting() domain.ChatMessage {
	return b.message(b.cfg.Greeting)
}

// Reply собирает ответ зрителю, если в его сообщении есть триггер.
func (b *Bot) Reply(in domain.ChatMessage) (domain.ChatMessage, bool) {
	if in.Type != domain.RoleAudience || !strings.Contains(in.Message, b.cfg.Trigger) {
		return domain.ChatMessage{}, false
	}
	return b.message(fmt.Sprintf("Thanks for the hello, %s!", in.Author)), true
}

// Run входит в комнату и обслуживает события до отмены ctx или разрыва соединения.
func (b *Bot) Run(ctx context.Context, c Conn) error {
	err := c.Join(ctx, domain.JoinRequest{
		PerformanceID: b.cfg.PerformanceID,
		Username:      b.cfg.Name,
		UserType:      domain.RoleSinger,
	})
	if err != nil {
		return fmt.Errorf("join %q: %w", b.cfg.PerformanceID, err)
	}
	slog.Info("singer joined", "room", b.cfg.PerformanceID, "name", b.cfg.Name)

	greet := time.NewTimer(b.cfg.GreetingDelay)
	defer greet.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-greet.C:
			if err := c.Send(ctx, b.Greeting()); err != nil {
				return fmt.Errorf("greeting: %w", err)
			}
		case ev, ok := <-c.Events():
			if !ok {
				return nil
			}
			b.handle(ctx, c, ev)
		}
	}
}

func (b *Bot) handle(ctx context.Context, c Conn, ev relayclient.Event) {
	switch ev.Name {
	case domain.EventLoadHistory:
		slog.Info("history loaded", "messages", len(ev.History))
	case domain.EventSongRequested:
		slog.Info("song requested", "title", ev.Song.Title, "by", ev.Song.Username)
	case domain.EventReceiveMessage:
		msg := *ev.Message
		slog.Info("message received", "author", msg.Author, "text", msg.Message)
		reply, ok := b.Reply(msg)
		if !ok {
			return
		}
		time.AfterFunc(b.cfg.ReplyDelay, func() {
			if ctx.Err() != nil {
				return
			}
			if err := c.Send(ctx, reply); err != nil {
				slog.Warn("reply failed", "to", msg.Author, "err", err)
			}
		})
	}
}

func (b *Bot) message(text string) domain.ChatMessage {
	return domain.ChatMessage{
		PerformanceID: b.cfg.PerformanceID,
		Author:        b.cfg.Name,
		Message:       text,
		Timestamp:     b.now().Format(timestampLayout),
		Type:          domain.RoleSinger,
	}
}
