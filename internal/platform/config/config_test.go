package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("DEALROOM_ENV", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("MATCH_THRESHOLD", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 50, cfg.Matching.Threshold)
	assert.Empty(t, cfg.Database.URL)
	assert.Nil(t, cfg.Kafka.Brokers)
	assert.Equal(t, "deal.activities", cfg.Kafka.ActivityTopic)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DEALROOM_ADDR", ":9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("MATCH_THRESHOLD", "60")
	t.Setenv("REDIS_POOL_SIZE", "not-a-number")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 60, cfg.Matching.Threshold)
	assert.Equal(t, 10, cfg.Redis.PoolSize, "unparseable values fall back to the default")
}

func TestFromEnvRejects(t *testing.T) {
	t.Run("default signing key in production", func(t *testing.T) {
		t.Setenv("DEALROOM_ENV", "production")
		t.Setenv("JWT_SIGNING_KEY", "")
		_, err := FromEnv()
		assert.Error(t, err)
	})
	t.Run("threshold out of range", func(t *testing.T) {
		t.Setenv("DEALROOM_ENV", "")
		t.Setenv("MATCH_THRESHOLD", "150")
		_, err := FromEnv()
		assert.Error(t, err)
	})
}
