package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// CloseFunc allows using a context-aware function as a service closer
type CloseFunc func(ctx context.Context) error

// ShutdownHandler closes registered services in reverse registration order
type ShutdownHandler struct {
	logger   *zap.Logger
	mu       sync.Mutex
	services []namedService
	closed   bool
}

type namedService struct {
	name  string
	close CloseFunc
}

// NewShutdownHandler creates a new shutdown handler
func NewShutdownHandler(logger *zap.Logger) *ShutdownHandler {
	return &ShutdownHandler{logger: logger.Named("shutdown")}
}

// Add registers an io.Closer for shutdown
func (sh *ShutdownHandler) Add(name string, closer io.Closer) {
	sh.AddFunc(name, func(context.Context) error { return closer.Close() })
}

// AddFunc registers a shutdown function
func (sh *ShutdownHandler) AddFunc(name string, fn CloseFunc) {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.services = append(sh.services, namedService{name: name, close: fn})
	sh.logger.Debug("Registered service for shutdown", zap.String("service", name))
}

// Shutdown closes all registered services, last registered first. A service
// that does not finish before ctx is done is reported and skipped. Repeated
// calls are no-ops.
func (sh *ShutdownHandler) Shutdown(ctx context.Context) error {
	sh.mu.Lock()
	if sh.closed {
		sh.mu.Unlock()
		return nil
	}
	sh.closed = true
	services := sh.services
	sh.services = nil
	sh.mu.Unlock()

	sh.logger.Info("Starting graceful shutdown", zap.Int("services", len(services)))

	var errs []error
	for i := len(services) - 1; i >= 0; i-- {
		if err := sh.closeOne(ctx, services[i]); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		sh.logger.Error("Shutdown completed with errors", zap.Int("errorCount", len(errs)))
		return errors.Join(errs...)
	}
	sh.logger.Info("Graceful shutdown completed successfully")
	return nil
}

func (sh *ShutdownHandler) closeOne(ctx context.Context, s namedService) error {
	done := make(chan error, 1)
	go func() {
		sh.logger.Debug("Shutting down service", zap.String("service", s.name))
		done <- s.close(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			sh.logger.Error("Failed to shutdown service", zap.String("service", s.name), zap.Error(err))
			return fmt.Errorf("%s: %w", s.name, err)
		}
		sh.logger.Debug("Service shutdown complete", zap.String("service", s.name))
		return nil
	case <-ctx.Done():
		sh.logger.Error("Shutdown timeout for service", zap.String("service", s.name))
		return fmt.Errorf("%s: shutdown timeout: %w", s.name, ctx.Err())
	}
}
