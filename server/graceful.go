package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crous-x/utils"
)

// ShutdownHook runs after a termination signal and before the HTTP server
// shuts down. Errors are logged; shutdown continues regardless.
type ShutdownHook func(ctx context.Context) error

// RunWithShutdown serves until ctx is cancelled or SIGINT/SIGTERM arrives,
// then runs hooks in order and shuts the server down within shutdownTimeout.
// Each hook gets at most hookTimeout (5s when zero).
func RunWithShutdown(ctx context.Context, server *http.Server, logger *utils.Logger, shutdownTimeout, hookTimeout time.Duration, hooks ...ShutdownHook) error {
	if hookTimeout <= 0 {
		hookTimeout = 5 * time.Second
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("[server] Listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("[server] Shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for i, h := range hooks {
		if h == nil {
			continue
		}
		hCtx, hCancel := context.WithTimeout(shutdownCtx, hookTimeout)
		if err := h(hCtx); err != nil {
			logger.Warn("[server] Shutdown hook %d failed: %v", i, err)
		}
		hCancel()
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("[server] Shutdown complete")
	return nil
}
