package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("IMPORT_LOCK_TTL", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite://masterspa.db", cfg.DatabaseURL)
	assert.Equal(t, "order-events", cfg.OrderEventTopic)
	assert.Equal(t, 15*time.Minute, cfg.ImportLockTTL)
	assert.Empty(t, cfg.KafkaBrokerList())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("IMPORT_LOCK_ENABLED", "true")
	t.Setenv("LOG_RETENTION_DAYS", "30")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example.com")
	t.Setenv("CART_SESSION_TTL", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokerList())
	assert.True(t, cfg.ImportLockEnabled)
	assert.Equal(t, 30, cfg.LogRetentionDays)
	assert.Equal(t, []string{"https://shop.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 48*time.Hour, cfg.CartSessionTTL)
}
