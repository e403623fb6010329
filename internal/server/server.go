// Package server exposes the admin HTTP surface: parameter inspection and
// tuning, reload/dump triggers, and one-shot decay and benchmark calls.
// It is a trigger and inspection mechanism, not a transport for tension
// streams — callers own those.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/brendadeeznuts1111/lattice/internal/engine"
	"github.com/brendadeeznuts1111/lattice/internal/params"
	"github.com/brendadeeznuts1111/lattice/internal/reload"
)

// Server is the lattice admin HTTP server.
type Server struct {
	store   *params.Store
	engine  *engine.Engine
	channel *reload.Channel
	log     *zap.Logger
	router  chi.Router
	version string
	started time.Time
}

// New creates a Server. channel may be nil when no config file is wired;
// the reload/dump routes then answer 503.
func New(store *params.Store, eng *engine.Engine, channel *reload.Channel, log *zap.Logger, version string) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		store:   store,
		engine:  eng,
		channel: channel,
		log:     log,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/params", s.handleGetParams)
		r.Put("/params", s.handlePutParams)
		r.Post("/params/reset", s.handleResetParams)

		r.Post("/reload", s.handleReload)
		r.Post("/dump", s.handleDump)

		r.Post("/decay", s.handleDecay)
		r.Get("/bench", s.handleBench)
	})

	s.router = r
}
