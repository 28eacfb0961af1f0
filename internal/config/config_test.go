package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverPostgres, cfg.Ledger.StoreDriver)
	assert.Equal(t, 14*24*time.Hour, cfg.Ledger.LoanPeriod)
	assert.Equal(t, BrokerLocal, cfg.Realtime.Broker)
	assert.Equal(t, 64, cfg.Realtime.BufferSize)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenTTL())
	assert.Equal(t, 10, cfg.Redis.PoolSize)
	assert.Equal(t, 5*time.Second, cfg.Redis.DialTimeout)
}

func Test_Load_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LOAN_PERIOD", "72h")
	t.Setenv("REALTIME_BROKER", "redis")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REALTIME_BUFFER", "8")
	t.Setenv("REDIS_POOL_SIZE", "32")
	t.Setenv("REDIS_READ_TIMEOUT", "750ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMemory, cfg.Ledger.StoreDriver)
	assert.Equal(t, 72*time.Hour, cfg.Ledger.LoanPeriod)
	assert.Equal(t, BrokerRedis, cfg.Realtime.Broker)
	assert.Equal(t, 8, cfg.Realtime.BufferSize)
	assert.Equal(t, 32, cfg.Redis.PoolSize)
	assert.Equal(t, 750*time.Millisecond, cfg.Redis.ReadTimeout)
}

func Test_Load_RejectsUnknownStoreDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := Load()
	assert.ErrorContains(t, err, "STORE_DRIVER")
}

func Test_Load_RedisBrokerNeedsRedis(t *testing.T) {
	t.Setenv("REALTIME_BROKER", "redis")
	t.Setenv("REDIS_ENABLED", "false")

	_, err := Load()
	assert.ErrorContains(t, err, "REDIS_ENABLED")
}

func Test_Load_ProductionNeedsSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_PASSWORD", "pw")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "a-real-secret")
	_, err = Load()
	assert.NoError(t, err)
}
