package main

import (
	"context"
	"enricher/internal/config"
	"enricher/internal/debugserver"
	"enricher/pkg/logger"
	"enricher/pkg/metrics"

	"go.uber.org/zap"
)

// setupServer starts the debug listener when an address is configured and
// returns its stop function.
func setupServer(ctx context.Context, cfg *config.Config, m *metrics.Metrics) func(ctx context.Context) {
	if cfg.Debug.Addr == "" {
		return func(context.Context) {}
	}

	srv, err := debugserver.Start(ctx, debugserver.Options{
		Addr:        cfg.Debug.Addr,
		MetricsPath: cfg.Debug.MetricsPath,
		Metrics:     m.Handler(),
	})
	if err != nil {
		logger.Fatal(ctx, "could not start debug listener", zap.Error(err))
	}

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping debug listener...")
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not stop debug listener", zap.Error(err))
		}
	}
}
