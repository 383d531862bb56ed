package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"testing"

	"sales-dashboard/internal/config"
)

func newTestGracefulServer() *GracefulServer {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewGracefulServer(&http.Server{}, logger, &config.Config{})
}

func TestGracefulServer_DrainRunsHooksNewestFirst(t *testing.T) {
	gs := newTestGracefulServer()

	var order []string
	gs.RegisterShutdownHook(func(ctx context.Context) error {
		order = append(order, "first")
		return nil
	})
	gs.RegisterShutdownHook(func(ctx context.Context) error {
		order = append(order, "second")
		return nil
	})

	if err := gs.drain(context.Background()); err != nil {
		t.Fatalf("drain() with passing hooks should not error, got: %v", err)
	}

	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Errorf("hooks should run newest first, got %v", order)
	}
}

func TestGracefulServer_DrainCollectsHookErrors(t *testing.T) {
	gs := newTestGracefulServer()

	earlierRan := false
	gs.RegisterShutdownHook(func(ctx context.Context) error {
		earlierRan = true
		return nil
	})

	hookErr := errors.New("store close failed")
	gs.RegisterShutdownHook(func(ctx context.Context) error {
		return hookErr
	})

	err := gs.drain(context.Background())
	if err == nil {
		t.Fatal("drain() should report hook failures")
	}
	if !errors.Is(err, hookErr) {
		t.Errorf("expected hook error in the chain, got: %v", err)
	}
	if !earlierRan {
		t.Error("a failing hook must not prevent the remaining hooks from running")
	}
}
