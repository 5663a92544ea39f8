// Package lifecycle pkg/lifecycle/lifecycle.go coordinates service startup,
// signal handling and ordered shutdown for the control panel process.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// DefaultShutdownTimeout bounds how long a full stop pass may take.
const DefaultShutdownTimeout = 10 * time.Second

// Service defines the interface that all managed services implement. Start
// must not block beyond its own setup; Stop must be idempotent.
type Service interface {
	Start(context.Context) error
	Stop(context.Context) error
}

// Options holds configuration for running a set of services.
type Options struct {
	Name            string
	Services        []Service
	ShutdownTimeout time.Duration
	Logger          *zap.Logger
}

// Run starts the services in order and blocks until a termination signal
// arrives or ctx is canceled, then stops them in reverse order under the
// shutdown timeout. A service that fails to start rolls back the ones
// started before it and the error is returned.
func Run(ctx context.Context, opts Options) error {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}

	log := opts.Logger

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.Info("starting services",
		zap.String("name", opts.Name),
		zap.Int("count", len(opts.Services)))

	started := make([]Service, 0, len(opts.Services))

	for i, svc := range opts.Services {
		if err := svc.Start(ctx); err != nil {
			log.Error("service failed to start", zap.Int("index", i), zap.Error(err))
			_ = stopAll(started, opts.ShutdownTimeout, log)

			return fmt.Errorf("failed to start service %d: %w", i, err)
		}

		started = append(started, svc)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		log.Info("received signal, initiating shutdown", zap.String("signal", sig.String()))
	case <-ctx.Done():
		log.Info("context canceled, initiating shutdown")
	}

	cancel()

	if err := stopAll(started, opts.ShutdownTimeout, log); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	log.Info("shutdown complete")

	return nil
}

// stopAll stops services in reverse start order. The whole pass shares one
// timeout budget so a stuck service cannot starve the rest indefinitely.
func stopAll(services []Service, timeout time.Duration, log *zap.Logger) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error

	for i := len(services) - 1; i >= 0; i-- {
		if err := services[i].Stop(shutdownCtx); err != nil {
			log.Warn("service stop failed", zap.Int("index", i), zap.Error(err))
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
