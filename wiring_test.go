package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"notification-hub/internal/config"
	"notification-hub/internal/events"
	"notification-hub/internal/logging"
	"notification-hub/internal/model"
	"notification-hub/internal/queue"
	"notification-hub/internal/registry"
)

func TestOpenRegistryBackends(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		backend string
		check   func(registry.Registry) bool
	}{
		{"memory", "memory", func(r registry.Registry) bool { _, ok := r.(*registry.MemoryRegistry); return ok }},
		{"redis", "redis", func(r registry.Registry) bool { _, ok := r.(*registry.RedisRegistry); return ok }},
		{"sqlite", "sqlite", func(r registry.Registry) bool { _, ok := r.(*registry.SQLiteRegistry); return ok }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Registry.Backend = tc.backend
			cfg.Registry.SQLitePath = filepath.Join(t.TempDir(), "registry.db")
			cfg.Redis.Addr = mr.Addr()

			reg, err := openRegistry(t.Context(), &cfg, logging.NewNop())
			if err != nil {
				t.Fatalf("openRegistry: %v", err)
			}
			defer reg.Close()
			if !tc.check(reg) {
				t.Fatalf("unexpected registry type %T", reg)
			}
		})
	}
}

func TestOpenSink(t *testing.T) {
	cfg := config.Default()
	sink, cleanup, err := openSink(&cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("openSink: %v", err)
	}
	defer cleanup()
	if _, ok := sink.(events.LogSink); !ok {
		t.Fatalf("expected LogSink by default, got %T", sink)
	}

	cfg.Events.Sink = "nats"
	cfg.Events.URL = ""
	_, cleanup, err = openSink(&cfg, logging.NewNop())
	cleanup()
	if !errors.Is(err, events.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestOpenStores(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name     string
		registry string
		queue    string
	}{
		{"memory", "memory", "memory"},
		{"redis queue only", "memory", "redis"},
		{"shared redis client", "redis", "redis"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Registry.Backend = tc.registry
			cfg.Dispatch.Queue = tc.queue
			cfg.Redis.Addr = mr.Addr()

			reg, q, closeStores, err := openStores(t.Context(), &cfg, logging.NewNop())
			if err != nil {
				t.Fatalf("openStores: %v", err)
			}

			task := &model.Task{ID: "t-" + tc.name, Event: model.ProductEvent{ProductType: "book", ProductID: "1", Status: model.StatusCreated}}
			if err := q.Enqueue(t.Context(), task); err != nil {
				t.Fatalf("Enqueue: %v", err)
			}
			if err := reg.Subscribe(t.Context(), "book", model.Subscriber{URL: "http://a.example.com/" + tc.queue, Name: "a"}); err != nil {
				t.Fatalf("Subscribe: %v", err)
			}

			closeStores()

			if tc.queue != "redis" {
				if _, ok := q.(*queue.MemoryQueue); !ok {
					t.Fatalf("expected memory queue, got %T", q)
				}
				return
			}
			if _, ok := q.(*queue.RedisQueue); !ok {
				t.Fatalf("expected redis queue, got %T", q)
			}
			if err := q.Enqueue(context.Background(), task); !errors.Is(err, redis.ErrClosed) {
				t.Fatalf("expected the queue client to be closed, got %v", err)
			}
		})
	}
}
