package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type HTTPServer struct {
	Port string `mapstructure:"port"`
}

type Backend struct {
	BaseURL string `mapstructure:"base_url"`
}

type HTTPClient struct {
	TimeoutSeconds int   `mapstructure:"timeout_seconds"`
	MaxConcurrent  int64 `mapstructure:"max_concurrent"`
}

type Logging struct {
	Level string `mapstructure:"level"`
}

type Session struct {
	TTLSeconds  int   `mapstructure:"ttl_seconds"`
	MaxSessions int64 `mapstructure:"max_sessions"`
}

type Refresh struct {
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

type RateLimit struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type Defaults struct {
	Amount string `mapstructure:"amount"`
	From   string `mapstructure:"from"`
	To     string `mapstructure:"to"`
}

type AppConfig struct {
	HTTPServer HTTPServer `mapstructure:"http_server"`
	Backend    Backend    `mapstructure:"backend"`
	HTTPClient HTTPClient `mapstructure:"http_client"`
	Logging    Logging    `mapstructure:"logging"`
	Session    Session    `mapstructure:"session"`
	Refresh    Refresh    `mapstructure:"refresh"`
	RateLimit  RateLimit  `mapstructure:"rate_limit"`
	Defaults   Defaults   `mapstructure:"defaults"`
}

// Init reads .env and config.yaml from the working directory when present,
// then applies environment overrides.
func Init() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}
	return load(viper.New(), ".")
}

func load(v *viper.Viper, configDir string) (*AppConfig, error) {
	var cfg AppConfig

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetDefault("http_server.port", "8080")
	v.SetDefault("backend.base_url", "https://api.frankfurter.app")
	v.SetDefault("http_client.timeout_seconds", 10)
	v.SetDefault("http_client.max_concurrent", 32)
	v.SetDefault("logging.level", "info")
	v.SetDefault("session.ttl_seconds", 1800)
	v.SetDefault("session.max_sessions", 10000)
	v.SetDefault("refresh.interval_seconds", 0)
	v.SetDefault("rate_limit.requests_per_second", 5)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("defaults.amount", "1")
	v.SetDefault("defaults.from", "USD")
	v.SetDefault("defaults.to", "EUR")

	_ = v.BindEnv("http_server.port", "PORT")

	// backend env vars
	_ = v.BindEnv("backend.base_url", "BACKEND_BASE_URL")

	// http client env vars
	_ = v.BindEnv("http_client.timeout_seconds", "HTTP_CLIENT_TIMEOUT_SECONDS")
	_ = v.BindEnv("http_client.max_concurrent", "HTTP_CLIENT_MAX_CONCURRENT")

	_ = v.BindEnv("logging.level", "LOG_LEVEL")

	_ = v.BindEnv("session.ttl_seconds", "SESSION_TTL_SECONDS")
	_ = v.BindEnv("session.max_sessions", "SESSION_MAX_SESSIONS")
	_ = v.BindEnv("refresh.interval_seconds", "REFRESH_INTERVAL_SECONDS")
	_ = v.BindEnv("rate_limit.requests_per_second", "RATE_LIMIT_RPS")
	_ = v.BindEnv("rate_limit.burst", "RATE_LIMIT_BURST")

	_ = v.BindEnv("defaults.amount", "DEFAULT_AMOUNT")
	_ = v.BindEnv("defaults.from", "DEFAULT_FROM")
	_ = v.BindEnv("defaults.to", "DEFAULT_TO")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *AppConfig) Validate() error {
	cfg.Backend.BaseURL = strings.TrimSuffix(strings.TrimSpace(cfg.Backend.BaseURL), "/")
	if cfg.Backend.BaseURL == "" {
		return errors.New("backend base url is required")
	}
	if _, err := decimal.NewFromString(cfg.Defaults.Amount); err != nil {
		return fmt.Errorf("invalid default amount %q: %w", cfg.Defaults.Amount, err)
	}
	for _, code := range []*string{&cfg.Defaults.From, &cfg.Defaults.To} {
		*code = strings.ToUpper(strings.TrimSpace(*code))
		if len(*code) != 3 {
			return fmt.Errorf("invalid default currency %q", *code)
		}
	}
	return nil
}

// DefaultAmount is the parsed form of Defaults.Amount, valid after Validate.
func (cfg *AppConfig) DefaultAmount() decimal.Decimal {
	return decimal.RequireFromString(cfg.Defaults.Amount)
}
