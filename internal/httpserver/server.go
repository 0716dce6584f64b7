package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// WriteTimeout bounds how long a handler has to produce its response.
const WriteTimeout = 15 * time.Second

// Server wraps http.Server with the service's timeouts and graceful shutdown.
type Server struct {
	inner *http.Server
}

// New constructs a server listening on the provided port.
func New(port int, handler http.Handler) *Server {
	return &Server{
		inner: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      WriteTimeout,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to ShutdownTimeout.
func (s *Server) Run(ctx context.Context, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", s.inner.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.inner.Addr, err)
	}
	return s.serve(ctx, ln, logger)
}

func (s *Server) serve(ctx context.Context, ln net.Listener, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- s.inner.Serve(ln)
	}()

	logger.Info("http server listening", "addr", ln.Addr().String())

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down http server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := s.inner.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if err := <-srvErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
