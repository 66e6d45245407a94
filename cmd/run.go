package main

import (
	"context"
	"enricher/internal/dispatch"
	"enricher/internal/domainset"
	"enricher/internal/shutdown"
	"enricher/pkg/logger"
	"enricher/pkg/metrics"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func runCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Submits the domain list to the provider and writes the matches",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := a.cfg
			ctx, stop := shutdown.Notify(a.ctx)
			defer stop()

			valid, batches := loadDomains(ctx, cfg)
			client := newClient(ctx, cfg)

			m, err := metrics.New()
			if err != nil {
				logger.Fatal(ctx, "could not setup metrics", zap.Error(err))
			}
			stopServer := setupServer(ctx, cfg, m)

			var limiter *rate.Limiter
			if cfg.API.RequestsPerSecond > 0 {
				limiter = rate.NewLimiter(rate.Limit(cfg.API.RequestsPerSecond), 1)
			}

			fetcher, err := dispatch.NewFetcher(client, dispatch.FetcherOptions{
				MaxAttempts:    cfg.Dispatch.MaxAttempts,
				BackoffBase:    cfg.Dispatch.BackoffBase,
				AttemptTimeout: cfg.API.RequestTimeout,
				Limiter:        limiter,
				Meter:          m.Meter(),
			})
			if err != nil {
				logger.Fatal(ctx, "could not create fetcher", zap.Error(err))
			}

			scheduler, err := dispatch.NewScheduler(fetcher, valid, dispatch.SchedulerOptions{
				Concurrency: cfg.Dispatch.Concurrency,
				Progress:    dispatch.NewProgress(ctx, os.Stderr, !cfg.Dispatch.NoProgress),
				Meter:       m.Meter(),
			})
			if err != nil {
				logger.Fatal(ctx, "could not create scheduler", zap.Error(err))
			}

			logger.Info(ctx, "dispatch started",
				zap.Int("domains", valid.Len()),
				zap.Int("batches", len(batches)),
				zap.Int("concurrency", cfg.Dispatch.Concurrency))

			results := scheduler.Run(ctx, batches)

			// results are written even when the run was interrupted
			if err := domainset.WriteResults(cfg.Files.Output, results.Domains()); err != nil {
				logger.Error(ctx, "could not save results", zap.String("path", cfg.Files.Output), zap.Error(err))
			} else {
				logger.Info(ctx, "results saved", zap.String("path", cfg.Files.Output), zap.Int("domains", results.Len()))
			}

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.GracefulShutdownTimeout)
			defer cancel()

			stopServer(shutdownCtx)
			if err := m.Shutdown(shutdownCtx); err != nil {
				logger.Warn(ctx, "could not stop metrics", zap.Error(err))
			}
		},
	}

	return cmd
}
