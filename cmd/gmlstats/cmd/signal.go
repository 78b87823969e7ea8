package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// setupSignalHandler returns a context that is canceled on SIGTERM or SIGINT.
// The callback is invoked with the received signal before cancellation.
// Call stop to release the handler.
func setupSignalHandler(parent context.Context, callback func(os.Signal)) (ctx context.Context, stop func()) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		select {
		case sig := <-sigChan:
			if callback != nil {
				callback(sig)
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
