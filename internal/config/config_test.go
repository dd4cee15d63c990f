package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mallkit/storefront/internal/config"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "storefront")
}

func TestNew_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.New("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "storefront", cfg.App.ServiceName)
	assert.Equal(t, "disable", cfg.Postgres.SSLMode)
	assert.Equal(t, int32(10), cfg.Postgres.MaxConns)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Redis.CartViewTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "storefront.orders", cfg.Kafka.Topic)
}

func TestNew_MissingRequired(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "")

	_, err := config.New("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_NAME is required")
}

func TestNew_BrokerList(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092 ,")

	cfg, err := config.New("")
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}

func TestNew_InvalidDuration(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CART_VIEW_TTL", "not-a-duration")

	_, err := config.New("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CART_VIEW_TTL")
}
