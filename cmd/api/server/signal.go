package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// ShutdownSignals trigger a graceful shutdown.
var ShutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// WithSignal returns a context that is canceled on the first shutdown signal.
// A second signal is left to the default handler so the process can still be
// killed while draining. stop releases the handler and cancels the context.
func WithSignal(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, ShutdownSignals...)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
