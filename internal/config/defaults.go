package config

const (
	defaultBind            = "127.0.0.1:8080"
	defaultRegistryBackend = "memory"
	defaultSQLitePath      = "~/.local/share/notification-hub/registry.db"
	defaultRedisPrefix     = "notification-hub:subscribers"
	defaultRedisAddr       = "localhost:6379"
	defaultWorkers         = 5
	defaultQueueBackend    = "memory"
	defaultQueueSize       = 1024
	defaultQueueKey        = "notification_queue"
	defaultRequestTimeout  = 10
	defaultUserAgent       = "notification-hub/0.1"
	defaultEventsSink      = "log"
	defaultSubjectPrefix   = "notifications.reports"
	defaultExchange        = "notifications"
	defaultKafkaTopic      = "notification-reports"
	defaultLogLevel        = "info"
	defaultLogFormat       = "auto"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Bind: defaultBind,
		},
		Registry: Registry{
			Backend:     defaultRegistryBackend,
			SQLitePath:  defaultSQLitePath,
			RedisPrefix: defaultRedisPrefix,
		},
		Redis: Redis{
			Addr: defaultRedisAddr,
		},
		Dispatch: Dispatch{
			Workers:        defaultWorkers,
			Queue:          defaultQueueBackend,
			QueueSize:      defaultQueueSize,
			QueueKey:       defaultQueueKey,
			RequestTimeout: defaultRequestTimeout,
			UserAgent:      defaultUserAgent,
		},
		Events: Events{
			Sink:          defaultEventsSink,
			SubjectPrefix: defaultSubjectPrefix,
			Exchange:      defaultExchange,
			Topic:         defaultKafkaTopic,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
