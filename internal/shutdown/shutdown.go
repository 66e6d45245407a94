// Package shutdown turns process interrupts into context cancellation.
package shutdown

import (
	"context"
	"enricher/pkg/logger"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"
)

// Notify returns a context cancelled on the first SIGINT or SIGTERM. Later
// signals are absorbed so the run can finish writing partial results. stop
// unregisters the handler and releases the context.
func Notify(parent context.Context) (context.Context, func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	ctx, stopWatch := Watch(parent, sigs)

	return ctx, func() {
		signal.Stop(sigs)
		stopWatch()
	}
}

// Watch cancels the returned context when the first value arrives on sigs.
func Watch(parent context.Context, sigs <-chan os.Signal) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()

		first := true
		for {
			select {
			case <-done:
				return
			case sig := <-sigs:
				if !first {
					logger.Debug(ctx, "interrupt already being handled", zap.Stringer("signal", sig))

					continue
				}
				first = false
				logger.Warn(ctx, "interrupt received, shutting down gracefully", zap.Stringer("signal", sig))
				cancel()
			}
		}
	}()

	var once sync.Once

	return ctx, func() {
		once.Do(func() {
			close(done)
			wg.Wait()
			cancel()
		})
	}
}
