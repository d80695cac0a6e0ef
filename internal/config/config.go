// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Bus drivers.
const (
	BusMemory    = "memory"
	BusWebSocket = "websocket"
	BusRedis     = "redis"
)

// Config holds application configuration.
type Config struct {
	Port      int
	LogLevel  string
	LogFormat string // text or json

	// Origin identifies this replica on the bus and keys its snapshot in
	// shared stores. Random when empty; required for sqlite and redis.
	Origin  string
	Session string

	StoreDriver string
	StorePath   string

	BusDriver   string
	HubURL      string
	HubEmbedded bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AnthropicAPIKey string
	AnthropicModel  string
	ResendAPIKey    string
	ResendFrom      string

	// SeedSample starts an empty replica from the demo ledger.
	SeedSample bool
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first if present; real environment variables
// take precedence over it.
func Load() (*Config, error) {
	// Missing .env is fine
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("REPLICA_ORIGIN", "")
	v.SetDefault("SESSION", "default")
	v.SetDefault("STORE_DRIVER", StoreFile)
	v.SetDefault("STORE_PATH", "./data/ledger.json")
	v.SetDefault("BUS_DRIVER", BusMemory)
	v.SetDefault("HUB_URL", "ws://localhost:8081/ws")
	v.SetDefault("HUB_EMBEDDED", false)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ANTHROPIC_API_KEY", "")
	v.SetDefault("ANTHROPIC_MODEL", "")
	v.SetDefault("RESEND_API_KEY", "")
	v.SetDefault("RESEND_FROM", "")
	v.SetDefault("SEED_SAMPLE", false)
	v.AutomaticEnv()

	cfg := &Config{
		Port:            v.GetInt("PORT"),
		LogLevel:        strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:       strings.ToLower(v.GetString("LOG_FORMAT")),
		Origin:          v.GetString("REPLICA_ORIGIN"),
		Session:         v.GetString("SESSION"),
		StoreDriver:     strings.ToLower(v.GetString("STORE_DRIVER")),
		StorePath:       v.GetString("STORE_PATH"),
		BusDriver:       strings.ToLower(v.GetString("BUS_DRIVER")),
		HubURL:          v.GetString("HUB_URL"),
		HubEmbedded:     v.GetBool("HUB_EMBEDDED"),
		RedisAddr:       v.GetString("REDIS_ADDR"),
		RedisPassword:   v.GetString("REDIS_PASSWORD"),
		RedisDB:         v.GetInt("REDIS_DB"),
		AnthropicAPIKey: v.GetString("ANTHROPIC_API_KEY"),
		AnthropicModel:  v.GetString("ANTHROPIC_MODEL"),
		ResendAPIKey:    v.GetString("RESEND_API_KEY"),
		ResendFrom:      v.GetString("RESEND_FROM"),
		SeedSample:      v.GetBool("SEED_SAMPLE"),
	}

	if !slices.Contains([]string{StoreMemory, StoreFile, StoreSQLite, StoreRedis}, cfg.StoreDriver) {
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if !slices.Contains([]string{BusMemory, BusWebSocket, BusRedis}, cfg.BusDriver) {
		return nil, fmt.Errorf("unknown BUS_DRIVER %q", cfg.BusDriver)
	}
	// sqlite and redis key snapshots by origin; a random origin per boot
	// would never find its own snapshot again.
	if cfg.Origin == "" && (cfg.StoreDriver == StoreSQLite || cfg.StoreDriver == StoreRedis) {
		return nil, fmt.Errorf("REPLICA_ORIGIN is required with STORE_DRIVER=%s", cfg.StoreDriver)
	}
	if cfg.Session == "" {
		return nil, fmt.Errorf("SESSION must not be empty")
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("invalid PORT %d", cfg.Port)
	}

	if cfg.AnthropicAPIKey == "" {
		slog.Warn("ANTHROPIC_API_KEY not set, assistant features use local fallbacks")
	}
	if cfg.ResendAPIKey == "" {
		slog.Warn("RESEND_API_KEY not set, reminders will not be delivered")
	}
	return cfg, nil
}
