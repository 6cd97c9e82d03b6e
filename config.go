package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the process configuration read from the environment.
type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":9090"`
	StoreBackend    string        `env:"STORE_BACKEND" envDefault:"sqlite"`
	SQLitePath      string        `env:"SQLITE_PATH" envDefault:"./data/items.db"`
	RedisAddr       string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	APIKeys         string        `env:"API_KEYS"`
	JWTSecret       string        `env:"JWT_SECRET"`
	JWTIssuer       string        `env:"JWT_ISSUER"`
	AllowAnonymous  bool          `env:"ALLOW_ANONYMOUS" envDefault:"false"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"text"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// LoadConfig parses the environment into a Config and validates it.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	switch cfg.StoreBackend {
	case "sqlite", "redis":
	default:
		return Config{}, fmt.Errorf("STORE_BACKEND must be sqlite or redis, got %q", cfg.StoreBackend)
	}
	if _, err := parseAPIKeys(cfg.APIKeys); err != nil {
		return Config{}, fmt.Errorf("API_KEYS: %w", err)
	}
	return cfg, nil
}
