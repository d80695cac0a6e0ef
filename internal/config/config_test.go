package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "default", cfg.Session)
	assert.Equal(t, StoreFile, cfg.StoreDriver)
	assert.Equal(t, BusMemory, cfg.BusDriver)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.False(t, cfg.HubEmbedded)
	assert.False(t, cfg.SeedSample)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("SESSION", "lisbon")
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("REPLICA_ORIGIN", "phone")
	t.Setenv("BUS_DRIVER", "websocket")
	t.Setenv("HUB_EMBEDDED", "true")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("SEED_SAMPLE", "1")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "lisbon", cfg.Session)
	assert.Equal(t, StoreRedis, cfg.StoreDriver)
	assert.Equal(t, "phone", cfg.Origin)
	assert.Equal(t, BusWebSocket, cfg.BusDriver)
	assert.True(t, cfg.HubEmbedded)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.True(t, cfg.SeedSample)
	assert.Equal(t, "sk-test", cfg.AnthropicAPIKey)
}

func TestLoadRejectsUnknownDrivers(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"store", "STORE_DRIVER", "postgres"},
		{"bus", "BUS_DRIVER", "kafka"},
		{"port", "PORT", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := load(viper.New())
			assert.Error(t, err)
		})
	}
}

func TestLoadRequiresOriginForSharedStores(t *testing.T) {
	for _, driver := range []string{StoreSQLite, StoreRedis} {
		t.Run(driver, func(t *testing.T) {
			t.Setenv("STORE_DRIVER", driver)
			_, err := load(viper.New())
			assert.ErrorContains(t, err, "REPLICA_ORIGIN")

			t.Setenv("REPLICA_ORIGIN", "laptop")
			cfg, err := load(viper.New())
			require.NoError(t, err)
			assert.Equal(t, "laptop", cfg.Origin)
		})
	}

	for _, driver := range []string{StoreMemory, StoreFile} {
		t.Run(driver, func(t *testing.T) {
			t.Setenv("STORE_DRIVER", driver)
			cfg, err := load(viper.New())
			require.NoError(t, err)
			assert.Empty(t, cfg.Origin)
		})
	}
}
