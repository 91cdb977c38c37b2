package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete flowbridge configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" env:"SERVER"`
	Log       LogConfig       `yaml:"log" env:"LOG"`
	Redis     RedisConfig     `yaml:"redis" env:"REDIS"`
	Database  DatabaseConfig  `yaml:"database" env:"DATABASE"`
	Bridge    BridgeConfig    `yaml:"bridge" env:"BRIDGE"`
	Wallet    WalletConfig    `yaml:"wallet" env:"WALLET"`
	Telegram  TelegramConfig  `yaml:"telegram" env:"TELEGRAM"`
	Executor  ExecutorConfig  `yaml:"executor" env:"EXECUTOR"`
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	HTTPPort        int           `yaml:"http_port" env:"HTTP_PORT"`
	MetricsPort     int           `yaml:"metrics_port" env:"METRICS_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// AllowedOrigin restricts WebSocket and CORS origins. Empty allows
	// same-origin only.
	AllowedOrigin  string `yaml:"allowed_origin" env:"ALLOWED_ORIGIN"`
	RateLimitRPS   int    `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	RateLimitBurst int    `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
}

// LogConfig holds zap logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json or console.
	Format           string   `yaml:"format" env:"FORMAT"`
	OutputPaths      []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	EnableCaller     bool     `yaml:"enable_caller" env:"ENABLE_CALLER"`
	EnableStacktrace bool     `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// RedisConfig holds snapshot cache settings.
type RedisConfig struct {
	Enabled      bool   `yaml:"enabled" env:"ENABLED"`
	Addr         string `yaml:"addr" env:"ADDR"`
	Password     string `yaml:"password" env:"PASSWORD"`
	DB           int    `yaml:"db" env:"DB"`
	PoolSize     int    `yaml:"pool_size" env:"POOL_SIZE"`
	MinIdleConns int    `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
}

// DatabaseConfig holds workflow persistence settings.
type DatabaseConfig struct {
	// Driver: sqlite, postgres, mysql.
	Driver          string        `yaml:"driver" env:"DRIVER"`
	Host            string        `yaml:"host" env:"HOST"`
	Port            int           `yaml:"port" env:"PORT"`
	User            string        `yaml:"user" env:"USER"`
	Password        string        `yaml:"password" env:"PASSWORD"`
	Name            string        `yaml:"name" env:"NAME"`
	SSLMode         string        `yaml:"ssl_mode" env:"SSL_MODE"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
}

// BridgeConfig holds per-family bridge endpoint settings.
type BridgeConfig struct {
	Messaging MessagingBridgeConfig `yaml:"messaging" env:"MESSAGING"`
	Intent    IntentBridgeConfig    `yaml:"intent" env:"INTENT"`
	// DefaultRecipient fills in for bridge nodes without a recipient.
	DefaultRecipient string `yaml:"default_recipient" env:"DEFAULT_RECIPIENT"`
	// DefaultAmount fills in for bridge nodes without an amount.
	DefaultAmount string `yaml:"default_amount" env:"DEFAULT_AMOUNT"`
}

// MessagingBridgeConfig configures the submit-and-poll bridge client.
type MessagingBridgeConfig struct {
	BaseURL      string        `yaml:"base_url" env:"BASE_URL"`
	APIKey       string        `yaml:"api_key" env:"API_KEY"`
	PollInterval time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`
	Timeout      time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// IntentBridgeConfig configures the quote-and-execute bridge client.
type IntentBridgeConfig struct {
	BaseURL      string        `yaml:"base_url" env:"BASE_URL"`
	APIToken     string        `yaml:"api_token" env:"API_TOKEN"`
	PollInterval time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`
	Timeout      time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// WalletConfig holds the static wallet identity used for server-side runs.
type WalletConfig struct {
	Address string `yaml:"address" env:"ADDRESS"`
	ChainID string `yaml:"chain_id" env:"CHAIN_ID"`
}

// TelegramConfig holds notification delivery settings.
type TelegramConfig struct {
	BaseURL       string  `yaml:"base_url" env:"BASE_URL"`
	BotToken      string  `yaml:"bot_token" env:"BOT_TOKEN"`
	DefaultChatID string  `yaml:"default_chat_id" env:"DEFAULT_CHAT_ID"`
	RatePerSecond float64 `yaml:"rate_per_second" env:"RATE_PER_SECOND"`
}

// ExecutorConfig holds run behavior settings.
type ExecutorConfig struct {
	Pacing        time.Duration `yaml:"pacing" env:"PACING"`
	BridgeTimeout time.Duration `yaml:"bridge_timeout" env:"BRIDGE_TIMEOUT"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	SampleRate   float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// Loader builds a Config from defaults, an optional YAML file, and
// environment variables.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a loader with the FLOWBRIDGE env prefix.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "FLOWBRIDGE",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath sets the YAML file path. A missing file is not an error.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix overrides the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator appends a validation hook run after loading.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load resolves the configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// MustLoad loads configuration from path, panicking on failure.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}
