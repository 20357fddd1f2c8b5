package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"ClassBoard/pkg/logger"
	"ClassBoard/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// NewMux routes the hub at HubPath next to /metrics and /healthz.
func NewMux(h *Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(HubPath, h)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = fmt.Fprintf(w, "ok peers=%d\n", h.Peers())
	})
	return mux
}

// Server serves a hub over HTTP.
type Server struct {
	hub      *Hub
	http     *http.Server
	listener net.Listener
	logger   logger.Logger
}

// Listen binds addr. The returned server is not serving yet.
func Listen(addr string, h *Hub) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return &Server{
		hub:      h,
		http:     &http.Server{Handler: NewMux(h), ReadHeaderTimeout: 10 * time.Second},
		listener: ln,
		logger:   logger.Named("server"),
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Port returns the bound TCP port.
func (s *Server) Port() int {
	_, port, err := net.SplitHostPort(s.Addr())
	if err != nil {
		return 0
	}
	n, _ := strconv.Atoi(port)
	return n
}

// Serve blocks until ctx ends, then shuts the server and hub down.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "hub listening", logger.String("addr", s.Addr()))
		errCh <- s.http.Serve(s.listener)
	}()

	select {
	case err := <-errCh:
		s.hub.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.hub.Close()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info(ctx, "hub stopped")
	return nil
}
