package web

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jaminalder/tictactoe-atlas/internal/app"
)

// DefaultHeartbeat is the SSE keep-alive interval.
const DefaultHeartbeat = 15 * time.Second

// Options tunes the HTTP layer. ClaimRate is claims per second per
// player; zero disables throttling.
type Options struct {
	Logger     *slog.Logger
	Heartbeat  time.Duration
	ClaimRate  float64
	ClaimBurst int
}

// NewServer wires routes and returns an http.Handler. It installs the card
// renderer for claim broadcasts on s.
func NewServer(s *app.Service, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = DefaultHeartbeat
	}
	h := &handlers{
		svc:       s,
		tpl:       loadTemplates(),
		log:       opts.Logger,
		heartbeat: opts.Heartbeat,
		limiter:   newClaimLimiter(opts.ClaimRate, opts.ClaimBurst),
	}
	s.SetRenderer(h.renderBroadcast)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(instrument)

	r.Get("/", h.index)
	r.Get("/events", h.events)
	r.Get("/stats", h.stats)
	r.Get("/game/random", h.randomGame)
	r.Get("/tree/path/{id}", h.path)
	r.Route("/states", func(r chi.Router) {
		r.Get("/", h.listStates)
		r.Get("/{id}", h.getState)
		r.Post("/{id}/claim", h.claim)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// requestLogger logs one line per request with the chi request id.
func requestLogger(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			l.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
