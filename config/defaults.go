package config

import "time"

// DefaultConfig returns the configuration used when nothing else is set.
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Log:       DefaultLogConfig(),
		Redis:     DefaultRedisConfig(),
		Database:  DefaultDatabaseConfig(),
		Bridge:    DefaultBridgeConfig(),
		Telegram:  DefaultTelegramConfig(),
		Executor:  DefaultExecutorConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig returns default HTTP server settings.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    50,
		RateLimitBurst:  100,
	}
}

// DefaultLogConfig returns default logger settings.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:        "info",
		Format:       "json",
		OutputPaths:  []string{"stdout"},
		EnableCaller: true,
	}
}

// DefaultRedisConfig returns default snapshot cache settings. The cache is
// off unless enabled explicitly.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultDatabaseConfig returns default persistence settings. SQLite keeps
// the single-binary setup working without external services.
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "sqlite",
		Name:            "flowbridge.db",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	}
}

// DefaultBridgeConfig returns default bridge client settings.
func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		Messaging: MessagingBridgeConfig{
			PollInterval: 2 * time.Second,
			Timeout:      2 * time.Minute,
		},
		Intent: IntentBridgeConfig{
			PollInterval: 2 * time.Second,
			Timeout:      2 * time.Minute,
		},
	}
}

// DefaultTelegramConfig returns default notification settings.
func DefaultTelegramConfig() TelegramConfig {
	return TelegramConfig{
		BaseURL:       "https://api.telegram.org",
		RatePerSecond: 1,
	}
}

// DefaultExecutorConfig returns default run behavior.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		Pacing:        800 * time.Millisecond,
		BridgeTimeout: 3 * time.Minute,
	}
}

// DefaultTelemetryConfig returns default telemetry settings.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "flowbridge",
		SampleRate:   1.0,
	}
}
