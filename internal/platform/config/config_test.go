package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults for development", func(t *testing.T) {
		cfg := FromEnv()
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, 5*time.Second, cfg.Database.LockTimeout)
		assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
		assert.Empty(t, cfg.Redis.URL)
		assert.False(t, cfg.IsProduction())
	})

	t.Run("reads overrides", func(t *testing.T) {
		t.Setenv("PUNSJ_ADDR", ":9090")
		t.Setenv("PUNSJ_ENV", "prod")
		t.Setenv("DATABASE_LOCK_TIMEOUT", "750ms")
		t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
		t.Setenv("KAFKA_TOPIC_PARTITIONS", "3")
		t.Setenv("DATABASE_MIGRATE", "false")

		cfg := FromEnv()
		assert.Equal(t, ":9090", cfg.Addr)
		assert.True(t, cfg.IsProduction())
		assert.Equal(t, 750*time.Millisecond, cfg.Database.LockTimeout)
		assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, int32(3), cfg.Kafka.Partitions)
		assert.False(t, cfg.Database.MigrateOnStart)
	})

	t.Run("malformed values fall back", func(t *testing.T) {
		t.Setenv("DATABASE_LOCK_TIMEOUT", "soon")
		t.Setenv("REDIS_POOL_SIZE", "many")

		cfg := FromEnv()
		assert.Equal(t, 5*time.Second, cfg.Database.LockTimeout)
		assert.Equal(t, 10, cfg.Redis.PoolSize)
	})
}
