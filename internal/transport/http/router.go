package http

import (
	"net/http"
	"time"

	"github.com/cwrk-planet/live-relay/pkg/httputil"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	AllowedOrigins []string
	Timeout        time.Duration
}

func NewRouter(h *Handler, wsHandler http.HandlerFunc, cfg RouterConfig) http.Handler {
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	// preflight должен отрабатывать до роутинга, поэтому cors на верхнем уровне
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{httputil.HeaderRequestID},
		MaxAge:         300,
	}))

	// WS endpoint: без таймаутов и логгера ответа, им нужен Hijack
	r.Get("/ws", wsHandler)

	r.Group(func(pr chi.Router) {
		pr.Use(httputil.MiddlewareRequestID)
		pr.Use(httputil.MiddlewareLogging)
		pr.Use(middlewareChi.Timeout(cfg.Timeout))

		pr.Get("/healthz", h.Health)
		pr.Route("/rooms", func(rm chi.Router) {
			rm.Get("/", h.ListRooms)
			rm.Route("/{id}", func(rr chi.Router) {
				rr.Get("/", h.GetRoom)
				rr.Get("/history", h.GetHistory)
			})
		})
	})

	return r
}
