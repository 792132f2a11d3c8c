package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// HTTPServer serves a handler on a TCP listener until its context is
// cancelled, then drains in-flight requests.
type HTTPServer struct {
	address string
	handler http.Handler
	logger  *slog.Logger

	shutdownTimeout time.Duration

	// ready is closed once the listener is bound.
	ready chan struct{}
	addr  net.Addr
}

type HTTPServerConfig struct {
	// Address is the TCP listen address. Required.
	Address string

	// Handler is required.
	Handler http.Handler

	// ShutdownTimeout bounds the graceful drain. Defaults to 10 seconds.
	ShutdownTimeout time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func NewHTTPServer(config HTTPServerConfig) *HTTPServer {
	if config.Address == "" {
		panic("server.HTTPServer: Address is required")
	}
	if config.Handler == nil {
		panic("server.HTTPServer: Handler is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	timeout := config.ShutdownTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &HTTPServer{
		address:         config.Address,
		handler:         config.Handler,
		logger:          logger,
		shutdownTimeout: timeout,
		ready:           make(chan struct{}),
	}
}

func (s *HTTPServer) Ready() <-chan struct{} {
	return s.ready
}

// Addr is the resolved listen address. Only valid after Ready is closed.
func (s *HTTPServer) Addr() net.Addr {
	return s.addr
}

// Serve blocks until ctx is cancelled or the server fails.
func (s *HTTPServer) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}
	s.addr = listener.Addr()
	close(s.ready)

	server := &http.Server{
		Handler: s.handler,

		// No WriteTimeout: a call may run three backend attempts plus
		// backoff, and websocket connections stay open.
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("http server listening", slog.String("address", s.addr.String()))

	serveDone := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("http server shutting down")
	case err := <-serveDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	s.logger.Info("http server stopped")
	return nil
}
