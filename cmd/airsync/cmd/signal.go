package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/elliotlrichardson/airsync/internal/logger"
)

// signalContext returns a context that is cancelled on SIGTERM or SIGINT.
// The signal is logged before cancellation.
func signalContext(parent context.Context, log *logger.Logger) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Warnw("Received shutdown signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx
}
