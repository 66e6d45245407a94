// Package debugserver exposes run metrics and profiling endpoints on an
// optional side listener while a run is in progress.
package debugserver

import (
	"context"
	"enricher/pkg/controller"
	"enricher/pkg/logger"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Options configures the debug listener.
type Options struct {
	// Addr is the TCP address to listen on, e.g. "127.0.0.1:9090".
	Addr string
	// MetricsPath is where Metrics is mounted.
	MetricsPath string
	// Metrics serves the metric registry.
	Metrics http.Handler
}

// Server is a running debug listener.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// NewHandler builds the debug mux: metrics, pprof and a liveness probe,
// wrapped with access logging.
func NewHandler(ctx context.Context, opts Options) http.Handler {
	mux := http.NewServeMux()

	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle(path, opts.Metrics)
	}
	mux.Handle(controller.PprofPrefix, controller.PprofMux())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})

	return controller.WithLogger(ctx, mux)
}

// Start binds opts.Addr and serves in the background.
func Start(ctx context.Context, opts Options) (*Server, error) {
	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("could not listen on %s: %w", opts.Addr, err)
	}

	s := &Server{
		ln: ln,
		srv: &http.Server{
			Handler:           NewHandler(ctx, opts),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	go func() {
		logger.Info(ctx, "debug listener started", zap.String("addr", ln.Addr().String()))
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "debug listener stopped unexpectedly", zap.Error(err))
		}
	}()

	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Shutdown stops the listener, waiting for in-flight requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("could not stop debug listener: %w", err)
	}

	return nil
}
