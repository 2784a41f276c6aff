package runkit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/runkit"
	"github.com/dmitrymomot/runkit/pkg/config"
)

func TestConfig_Defaults(t *testing.T) {
	var cfg runkit.Config
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "runkit", cfg.ServiceName)
	assert.Equal(t, "runkit", cfg.KeyPrefix)
	assert.Equal(t, 1, cfg.MasterQueueShards)
	assert.Equal(t, int64(1000), cfg.MasterQueueLimit)
	assert.Equal(t, time.Second, cfg.IdleTimeout)
	assert.Equal(t, 10, cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.RetryInitialDelay)
	assert.Equal(t, 10*time.Second, cfg.RetryMaxDelay)
	assert.Equal(t, 5*time.Second, cfg.RunLockTimeout)
	assert.Equal(t, 200, cfg.PendingVersionBatchSize)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.ConnectionURL)
	assert.Empty(t, cfg.NATSURL, "events are opt-in")
}

func TestConfig_Overrides(t *testing.T) {
	t.Setenv("RUNKIT_MASTER_QUEUE_SHARDS", "4")
	t.Setenv("RUNKIT_PENDING_VERSION_BATCH", "50")

	var cfg runkit.Config
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, 4, cfg.MasterQueueShards)
	assert.Equal(t, 50, cfg.PendingVersionBatchSize)
}
