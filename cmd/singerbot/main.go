package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/live-relay/internal/singerbot"
	"github.com/cwrk-planet/live-relay/pkg/logger"
	"github.com/cwrk-planet/live-relay/pkg/relayclient"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

type Config struct {
	RelayURL      string        `env:"RELAY_URL,default=ws://localhost:4000/ws"`
	PerformanceID string        `env:"PERFORMANCE_ID,required=true"`
	BotName       string        `env:"BOT_NAME,default=SingerBot"`
	Greeting      string        `env:"GREETING"`
	GreetingDelay time.Duration `env:"GREETING_DELAY,default=3s"`
	ReplyDelay    time.Duration `env:"REPLY_DELAY,default=1s"`
	LogLevel      string        `env:"LOG_LEVEL,default=info"`
}

func main() {
	_ = godotenv.Load()
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		log.Fatalf("config error: %v", err)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger.Init(logger.Config{Service: "singerbot", Backend: logger.BackendStd, Level: level})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("connecting", "url", cfg.RelayURL)
	client, err := relayclient.Dial(ctx, relayclient.Config{
		URL:              cfg.RelayURL,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
	})
	if err != nil {
		log.Fatalf("dial relay: %v", err)
	}
	defer func() { _ = client.Close() }()

	bot := singerbot.New(singerbot.Config{
		PerformanceID: cfg.PerformanceID,
		Name:          cfg.BotName,
		Greeting:      cfg.Greeting,
		GreetingDelay: cfg.GreetingDelay,
		ReplyDelay:    cfg.ReplyDelay,
	})
	if err := bot.Run(ctx, client); err != nil {
		slog.Error("singer bot stopped", "err", err)
		return
	}
	if err := client.Err(); err != nil {
		slog.Warn("relay connection lost", "err", err)
	}
	slog.Info("bye")
}
