// Package admin exposes the operational HTTP surface: health, status,
// committed checkpoints and Prometheus metrics.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/pubsink/pubsink/cfg"
	"github.com/pubsink/pubsink/telemetry"
)

const shutdownTimeout = 5 * time.Second

// Server is the admin HTTP server
type Server struct {
	srv *http.Server
}

// NewServer builds the admin server and its routes
func NewServer(config cfg.AdminConfiguration, handlers *Handlers) *Server {
	r := chi.NewRouter()

	r.Get("/healthz", handlers.handleHealth)
	r.Get("/status", handlers.handleStatus)
	r.Get("/checkpoints", handlers.handleCheckpoints)
	if metrics := telemetry.GetMetricsHandler(); metrics != nil {
		r.Handle("/metrics", metrics)
	}

	return &Server{
		srv: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", config.BindAddress, config.Port),
			Handler: r,
		},
	}
}

// Start serves in the background until Stop is called
func (s *Server) Start() {
	log.Info().Str("address", s.srv.Addr).Msg("Starting admin server")

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Admin server failed")
		}
	}()
}

// Stop shuts the server down gracefully
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("Admin server shutdown failed")
	}
}
