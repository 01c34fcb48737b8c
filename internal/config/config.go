package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains HTTP listener settings.
type Server struct {
	Bind string `toml:"bind"`
}

// Registry selects the subscriber store.
type Registry struct {
	Backend     string `toml:"backend"` // memory, redis or sqlite
	SQLitePath  string `toml:"sqlite_path"`
	RedisPrefix string `toml:"redis_prefix"`
}

// Redis contains connection settings shared by the redis registry and queue.
type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// Dispatch contains delivery and worker pool settings.
type Dispatch struct {
	Workers        int    `toml:"workers"`
	Queue          string `toml:"queue"` // memory or redis
	QueueSize      int    `toml:"queue_size"`
	QueueKey       string `toml:"queue_key"`
	RequestTimeout int    `toml:"request_timeout"` // seconds
	MaxConcurrency int    `toml:"max_concurrency"` // 0 = one goroutine per subscriber
	UserAgent      string `toml:"user_agent"`
}

// Events selects where delivery reports go.
type Events struct {
	Sink          string   `toml:"sink"` // log, nats, amqp or kafka
	URL           string   `toml:"url"`
	SubjectPrefix string   `toml:"subject_prefix"`
	Exchange      string   `toml:"exchange"`
	Brokers       []string `toml:"brokers"`
	Topic         string   `toml:"topic"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values.
type Config struct {
	Server   Server   `toml:"server"`
	Registry Registry `toml:"registry"`
	Redis    Redis    `toml:"redis"`
	Dispatch Dispatch `toml:"dispatch"`
	Events   Events   `toml:"events"`
	Logging  Logging  `toml:"logging"`
}

// RequestTimeoutDuration returns the outbound HTTP timeout.
func (c *Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.Dispatch.RequestTimeout) * time.Second
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/notification-hub/config.toml")
}

// Load locates, parses, and validates a configuration file. It returns the
// config, the resolved path and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if os.IsNotExist(err) {
				return "", false, fmt.Errorf("config file %s does not exist", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %s is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("notification-hub.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv("NOTIFY_BIND"); ok && strings.TrimSpace(v) != "" {
		c.Server.Bind = v
	}
	if v, ok := os.LookupEnv("NOTIFY_REDIS_ADDR"); ok && strings.TrimSpace(v) != "" {
		c.Redis.Addr = v
	}
	if v, ok := os.LookupEnv("NOTIFY_LOG_LEVEL"); ok && strings.TrimSpace(v) != "" {
		c.Logging.Level = v
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
