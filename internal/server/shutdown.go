package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"

	"sales-dashboard/internal/config"
)

// GracefulServer runs the HTTP server until SIGINT or SIGTERM, then
// drains in-flight requests and runs registered shutdown hooks, newest
// first, like defers.
type GracefulServer struct {
	srv    *http.Server
	logger *slog.Logger
	cfg    *config.Config

	mu    sync.Mutex
	hooks []func(context.Context) error
}

func NewGracefulServer(srv *http.Server, logger *slog.Logger, cfg *config.Config) *GracefulServer {
	return &GracefulServer{
		srv:    srv,
		logger: logger,
		cfg:    cfg,
	}
}

func (gs *GracefulServer) RegisterShutdownHook(fn func(ctx context.Context) error) {
	gs.mu.Lock()
	gs.hooks = append(gs.hooks, fn)
	gs.mu.Unlock()
}

func (gs *GracefulServer) ListenAndServe() error {
	serveErr := make(chan error, 1)
	go func() {
		gs.logger.Info("http server listening", "addr", gs.srv.Addr)
		serveErr <- gs.srv.ListenAndServe()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil

	case s := <-sig:
		gs.logger.Info("signal received, draining", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), gs.cfg.Server.ShutdownTimeout)
		defer cancel()
		return gs.drain(ctx)
	}
}

// drain stops accepting connections, waits for in-flight requests, then
// runs the hooks. Hook failures are collected rather than
// short-circuiting, so every hook gets its chance to clean up.
func (gs *GracefulServer) drain(ctx context.Context) error {
	var errs []error

	if err := gs.srv.Shutdown(ctx); err != nil {
		gs.logger.Error("http server drain failed", "error", err)
		errs = append(errs, fmt.Errorf("drain http server: %w", err))
	}

	gs.mu.Lock()
	hooks := slices.Clone(gs.hooks)
	gs.mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			gs.logger.Error("shutdown hook failed", "error", err)
			errs = append(errs, fmt.Errorf("shutdown hook: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	gs.logger.Info("drain complete")
	return nil
}
