package runkit

import (
	"time"

	"github.com/dmitrymomot/runkit/pkg/redis"
)

// Config is the engine's aggregate configuration, populated from the
// environment. Every knob has a default that works against a local Redis.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"runkit"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	Redis redis.Config

	// KeyPrefix namespaces every Redis key the engine writes.
	KeyPrefix string `env:"RUNKIT_KEY_PREFIX" envDefault:"runkit"`

	// NATSURL enables the event bus when set; empty disables event emission.
	NATSURL     string `env:"NATS_URL"`
	EventPrefix string `env:"RUNKIT_EVENT_PREFIX" envDefault:"runkit"`

	// Fair scheduler.
	MasterQueueShards int   `env:"RUNKIT_MASTER_QUEUE_SHARDS" envDefault:"1"`
	MasterQueueLimit  int64 `env:"RUNKIT_MASTER_QUEUE_LIMIT" envDefault:"1000"`

	// Delayed-job processor.
	IdleTimeout       time.Duration `env:"RUNKIT_IDLE_TIMEOUT" envDefault:"1s"`
	MaxAttempts       int           `env:"RUNKIT_MAX_ATTEMPTS" envDefault:"10"`
	RetryInitialDelay time.Duration `env:"RUNKIT_RETRY_INITIAL_DELAY" envDefault:"1s"`
	RetryMaxDelay     time.Duration `env:"RUNKIT_RETRY_MAX_DELAY" envDefault:"10s"`

	// Lifecycle systems.
	RunLockTimeout          time.Duration `env:"RUNKIT_RUN_LOCK_TIMEOUT" envDefault:"5s"`
	PendingVersionBatchSize int           `env:"RUNKIT_PENDING_VERSION_BATCH" envDefault:"200"`
}
