package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateRegistry(); err != nil {
		return err
	}
	if err := c.validateDispatch(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Bind == "" {
		return errors.New("server.bind must be set")
	}
	return nil
}

func (c *Config) validateRegistry() error {
	switch c.Registry.Backend {
	case "memory", "sqlite":
	case "redis":
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return errors.New("redis.addr must be set when registry.backend is redis")
		}
	default:
		return fmt.Errorf("registry.backend: unsupported value %q (want memory, redis or sqlite)", c.Registry.Backend)
	}
	return nil
}

func (c *Config) validateDispatch() error {
	if c.Dispatch.Workers <= 0 {
		return errors.New("dispatch.workers must be positive")
	}
	if c.Dispatch.RequestTimeout <= 0 {
		return errors.New("dispatch.request_timeout must be positive")
	}
	if c.Dispatch.MaxConcurrency < 0 {
		return errors.New("dispatch.max_concurrency must not be negative")
	}
	switch c.Dispatch.Queue {
	case "memory":
		if c.Dispatch.QueueSize <= 0 {
			return errors.New("dispatch.queue_size must be positive")
		}
	case "redis":
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return errors.New("redis.addr must be set when dispatch.queue is redis")
		}
	default:
		return fmt.Errorf("dispatch.queue: unsupported value %q (want memory or redis)", c.Dispatch.Queue)
	}
	return nil
}

func (c *Config) validateEvents() error {
	switch c.Events.Sink {
	case "log":
	case "nats", "amqp":
		if strings.TrimSpace(c.Events.URL) == "" {
			return fmt.Errorf("events.url must be set when events.sink is %s", c.Events.Sink)
		}
	case "kafka":
		if len(c.Events.Brokers) == 0 {
			return errors.New("events.brokers must be set when events.sink is kafka")
		}
	default:
		return fmt.Errorf("events.sink: unsupported value %q (want log, nats, amqp or kafka)", c.Events.Sink)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "json", "text":
		return nil
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want auto, json or text)", c.Logging.Format)
	}
}
