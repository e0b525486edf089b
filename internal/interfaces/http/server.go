// Package http runs the optional ops listener of a pipeline command:
// probes and the Prometheus scrape endpoint, served while a long extract or
// backfill is in flight.
package http

import (
	"context"
	stdliberrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/turtacn/CaseIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CaseIntel/internal/interfaces/http/handlers"
	"github.com/turtacn/CaseIntel/internal/interfaces/http/middleware"
	"github.com/turtacn/CaseIntel/pkg/errors"
)

const shutdownTimeout = 10 * time.Second

// Server is the ops HTTP listener.
type Server struct {
	srv      *http.Server
	handler  http.Handler
	addr     string
	listener net.Listener
	done     chan struct{}
	logger   logging.Logger
}

// NewServer builds the ops mux.  metrics may be nil when no collector is
// configured, in which case /metrics is not registered.
func NewServer(addr string, health *handlers.HealthHandler, metrics http.Handler, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	mux := http.NewServeMux()
	if health != nil {
		health.RegisterRoutes(mux)
	}
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	handler := middleware.Recover(logger)(
		middleware.RequestLogging(logger, middleware.DefaultLoggingConfig())(mux))

	return &Server{
		handler: handler,
		addr:    addr,
		logger:  logger.Named("ops"),
		srv: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Start binds the listener and serves in the background.  A bind failure is
// returned; later serve errors are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "ops listener bind failed").WithDetail(s.addr)
	}
	s.listener = ln
	s.done = make(chan struct{})
	s.logger.Info("ops server listening", logging.String("addr", ln.Addr().String()))

	go func() {
		defer close(s.done)
		if err := s.srv.Serve(ln); err != nil && !stdliberrors.Is(err, http.ErrServerClosed) {
			s.logger.Error("ops server stopped", logging.Err(err))
		}
	}()
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop shuts the listener down, waiting for in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	if s.listener == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "ops server shutdown failed")
	}
	<-s.done
	s.listener = nil
	s.logger.Info("ops server stopped")
	return nil
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.handler
}

//Personal.AI order the ending
