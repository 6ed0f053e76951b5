package main

import (
	"context"
	"log"
	"log/slog"
	"net"
	"os/signal"
	"syscall"

	"github.com/cwrk-planet/live-relay/config"
	"github.com/cwrk-planet/live-relay/internal/relay"
	"github.com/cwrk-planet/live-relay/internal/room"
	serverhttp "github.com/cwrk-planet/live-relay/internal/server/http"
	grpcx "github.com/cwrk-planet/live-relay/internal/transport/grpc"
	httpx "github.com/cwrk-planet/live-relay/internal/transport/http"
	"github.com/cwrk-planet/live-relay/internal/transport/ws"
	"github.com/cwrk-planet/live-relay/pkg/logger"

	"google.golang.org/grpc"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		Level:     level,
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
		Attrs: []slog.Attr{
			slog.String("http_addr", cfg.HTTP.Addr),
			slog.String("grpc_addr", cfg.GRPC.Addr),
		},
	})
	slog.Info("starting live-relay",
		"history_limit", cfg.Relay.HistoryLimit, "join_policy", cfg.Relay.JoinPolicy)

	policy, err := relay.ParsePolicy(cfg.Relay.JoinPolicy)
	if err != nil {
		log.Fatalf("relay: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- rooms & relay ---
	registry := room.NewRegistry(cfg.Relay.HistoryLimit)
	dispatcher := relay.NewDispatcher(registry)
	go registry.RunJanitor(ctx, cfg.Relay.SweepInterval, cfg.Relay.RoomTTL)

	// --- WS ---
	wsServer := ws.NewServer(dispatcher, ws.Options{
		Policy:         policy,
		SendBuffer:     cfg.Relay.SendBuffer,
		PingInterval:   cfg.Relay.PingInterval,
		WriteTimeout:   cfg.Relay.WriteTimeout,
		MaxFrameBytes:  cfg.Relay.MaxFrameBytes,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	})

	// --- HTTP ---
	router := httpx.NewRouter(httpx.NewHandler(registry), wsServer.HandleWS, httpx.RouterConfig{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Timeout:        cfg.HTTP.RequestTimeout,
	})
	httpSrv := serverhttp.New(serverhttp.Config{
		Addr:            cfg.HTTP.Addr,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		IdleTimeout:     cfg.HTTP.IdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, router)

	// --- gRPC ---
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(grpcx.UnaryServerInterceptor(cfg.GRPC.CallTimeout)),
		grpc.ChainStreamInterceptor(grpcx.StreamServerInterceptor()),
	)
	health := grpcx.Register(grpcServer, grpcx.NewServer(registry))

	// --- run both servers ---
	errCh := make(chan error, 2)
	httpDone := make(chan struct{})

	go func() {
		defer close(httpDone)
		if err := httpSrv.Run(ctx); err != nil {
			errCh <- err
		}
	}()

	go func() {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			errCh <- err
			return
		}
		slog.Info("grpc listen", "addr", cfg.GRPC.Addr)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal")
	case err := <-errCh:
		slog.Error("server error", "err", err)
		stop()
	}

	// сначала ws: hijacked-соединения не держат http.Shutdown, но клиенты должны получить 1001
	n := wsServer.CloseAll()
	graceful := grpcx.Stop(grpcServer, health, cfg.ShutdownTimeout)
	<-httpDone
	slog.Info("stopped", "ws_closed", n, "grpc_graceful", graceful, "rooms", registry.Len())
	_ = logger.Sync()
}
