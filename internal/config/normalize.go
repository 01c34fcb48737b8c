package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)

	c.Registry.Backend = strings.ToLower(strings.TrimSpace(c.Registry.Backend))
	if c.Registry.Backend == "" {
		c.Registry.Backend = defaultRegistryBackend
	}
	if strings.TrimSpace(c.Registry.SQLitePath) == "" {
		c.Registry.SQLitePath = defaultSQLitePath
	}
	var err error
	if c.Registry.SQLitePath, err = expandPath(c.Registry.SQLitePath); err != nil {
		return fmt.Errorf("registry.sqlite_path: %w", err)
	}
	if strings.TrimSpace(c.Registry.RedisPrefix) == "" {
		c.Registry.RedisPrefix = defaultRedisPrefix
	}

	c.Dispatch.Queue = strings.ToLower(strings.TrimSpace(c.Dispatch.Queue))
	if c.Dispatch.Queue == "" {
		c.Dispatch.Queue = defaultQueueBackend
	}
	if strings.TrimSpace(c.Dispatch.QueueKey) == "" {
		c.Dispatch.QueueKey = defaultQueueKey
	}
	if strings.TrimSpace(c.Dispatch.UserAgent) == "" {
		c.Dispatch.UserAgent = defaultUserAgent
	}

	c.Events.Sink = strings.ToLower(strings.TrimSpace(c.Events.Sink))
	if c.Events.Sink == "" {
		c.Events.Sink = defaultEventsSink
	}
	brokers := c.Events.Brokers[:0]
	for _, b := range c.Events.Brokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	c.Events.Brokers = brokers

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	return nil
}
