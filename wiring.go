package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"notification-hub/internal/config"
	"notification-hub/internal/events"
	"notification-hub/internal/logging"
	"notification-hub/internal/queue"
	"notification-hub/internal/registry"
)

// openRedis returns a client for the configured address. A failed ping is
// only logged; commands will surface the error later.
func openRedis(ctx context.Context, cfg *config.Config, logger *slog.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("could not connect to redis", "addr", cfg.Redis.Addr, "error", err)
	}
	return client
}

// openRegistry opens the configured subscriber registry on its own redis
// client when the backend needs one. The registry owns that client.
func openRegistry(ctx context.Context, cfg *config.Config, logger *slog.Logger) (registry.Registry, error) {
	var rdb *redis.Client
	if cfg.Registry.Backend == "redis" {
		rdb = openRedis(ctx, cfg, logger)
	}
	return newRegistry(cfg, rdb)
}

func newRegistry(cfg *config.Config, rdb *redis.Client) (registry.Registry, error) {
	switch cfg.Registry.Backend {
	case "redis":
		return registry.NewRedisRegistry(rdb, cfg.Registry.RedisPrefix), nil
	case "sqlite":
		reg, err := registry.OpenSQLite(cfg.Registry.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open subscriber registry: %w", err)
		}
		return reg, nil
	default:
		return registry.NewMemoryRegistry(), nil
	}
}

// openStores opens the registry and the task queue for the server. When both
// live in redis they share one client. The returned close func releases the
// registry and any redis client the registry does not own.
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (registry.Registry, queue.Queue, func(), error) {
	var rdb *redis.Client
	if cfg.Registry.Backend == "redis" || cfg.Dispatch.Queue == "redis" {
		rdb = openRedis(ctx, cfg, logger)
	}

	reg, err := newRegistry(cfg, rdb)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, nil, nil, err
	}

	var q queue.Queue
	if cfg.Dispatch.Queue == "redis" {
		q = queue.NewRedisQueue(rdb, cfg.Dispatch.QueueKey, logger)
	} else {
		q = queue.NewMemoryQueue(cfg.Dispatch.QueueSize)
	}

	closeFn := func() {
		if err := reg.Close(); err != nil {
			logger.Warn("close subscriber registry", "error", err)
		}
		if rdb != nil && cfg.Registry.Backend != "redis" {
			if err := rdb.Close(); err != nil {
				logger.Warn("close redis client", "error", err)
			}
		}
	}
	return reg, q, closeFn, nil
}

// openSink builds the report sink. Broker sinks are combined with a LogSink
// so reports always reach the log. The returned cleanup is never nil.
func openSink(cfg *config.Config, logger *slog.Logger) (events.Sink, func(), error) {
	logSink := events.LogSink{Logger: logging.Component(logger, "reports")}

	var (
		sink    events.Sink
		cleanup func()
		err     error
	)
	switch cfg.Events.Sink {
	case "nats":
		sink, cleanup, err = events.NewNATSSink(events.NATSConfig{
			URL:    cfg.Events.URL,
			Name:   "notification-hub",
			Prefix: cfg.Events.SubjectPrefix,
		})
	case "amqp":
		sink, cleanup, err = events.NewAMQPSink(events.AMQPConfig{
			URL:      cfg.Events.URL,
			Exchange: cfg.Events.Exchange,
		})
	case "kafka":
		sink, cleanup, err = events.NewKafkaSink(events.KafkaConfig{
			Brokers:  cfg.Events.Brokers,
			ClientID: "notification-hub",
			Topic:    cfg.Events.Topic,
		})
	default:
		return logSink, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, fmt.Errorf("open %s report sink: %w", cfg.Events.Sink, err)
	}
	return events.Multi{sink, logSink}, cleanup, nil
}
