// Package api provides the local HTTP server that hosts the touchpad page and
// streams its touch events into the event loop.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"touchbridge/internal/frontend"
	"touchbridge/internal/network"
)

// Poster accepts events for the touch loop.
type Poster interface {
	Post(ctx context.Context, ev frontend.Event) error
}

// Options configures the server.
type Options struct {
	// RemoteURL is shown on the touchpad page.
	RemoteURL string
}

// Server provides the touchpad page, its WebSocket and diagnostics.
type Server struct {
	opts   Options
	hub    *Hub
	logger zerolog.Logger
}

// NewServer creates a server feeding loop. hub may be nil; a hub passed in
// is attached to loop and should not be shared with another server.
func NewServer(loop Poster, hub *Hub, opts Options) *Server {
	if hub == nil {
		hub = NewHub()
	}
	hub.loop = loop
	return &Server{
		opts:   opts,
		hub:    hub,
		logger: log.With().Str("component", "api").Logger(),
	}
}

// Hub returns the WebSocket hub. It is also the feedback sink for connected pages.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Get("/ws", s.hub.handleWebSocket)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Run starts the hub and serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.logger.Info().Msg("network interfaces:")
	if ips, err := network.GetLocalIPs(); err == nil {
		for _, ip := range ips {
			s.logger.Info().Str("ip", ip).Msg("  found local IPv4")
		}
	}

	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		s.logger.Error().Err(err).Str("addr", addr).Msg("failed to listen")
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.hub.run(ctx)

	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("touchpad page server started")
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error().Err(err).Msg("server stopped")
		return err
	}
	return nil
}

// logMiddleware logs every request.
func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Str("request_id", middleware.GetReqID(r.Context())).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

// handleHealth handles GET /health (for monitoring)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "ok", "pages": s.hub.Clients()})
}

// handlePage handles GET / with the touchpad page.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, pageData{RemoteURL: s.opts.RemoteURL}); err != nil {
		s.logger.Error().Err(err).Msg("failed to render page")
	}
}
