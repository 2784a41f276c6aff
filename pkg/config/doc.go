// Package config loads engine configuration from the environment.
//
// Structs declare their settings with `env` tags; Load parses them after a
// one-time best-effort read of a local .env file.
//
// # Usage
//
//	type QueueConfig struct {
//		IdleTimeout time.Duration `env:"QUEUE_IDLE_TIMEOUT" envDefault:"1s"`
//		MaxAttempts int           `env:"QUEUE_MAX_ATTEMPTS" envDefault:"10"`
//	}
//
//	var cfg QueueConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
package config
