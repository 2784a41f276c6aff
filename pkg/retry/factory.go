package retry

import (
	"fmt"
	"time"
)

// Kind selects a retry strategy in configuration.
type Kind string

const (
	KindExponential Kind = "exponential"
	KindFixed       Kind = "fixed"
	KindLinear      Kind = "linear"
	KindImmediate   Kind = "immediate"
	KindNone        Kind = "none"
)

// Config describes a retry strategy declaratively so policies can be built
// from environment or per-queue settings instead of hardcoded types.
type Config struct {
	Kind        Kind          `env:"RETRY_KIND" envDefault:"exponential"`
	Initial     time.Duration `env:"RETRY_INITIAL" envDefault:"1s"`
	Max         time.Duration `env:"RETRY_MAX" envDefault:"10s"`
	Factor      float64       `env:"RETRY_FACTOR" envDefault:"2"`
	Jitter      float64       `env:"RETRY_JITTER" envDefault:"0"`
	MaxAttempts int           `env:"RETRY_MAX_ATTEMPTS" envDefault:"10"`
}

// New builds a Policy from its declarative description.
func New(cfg Config) (Policy, error) {
	if cfg.MaxAttempts < 1 && cfg.Kind != KindNone {
		return nil, ErrInvalidMaxAttempts
	}

	switch cfg.Kind {
	case KindExponential:
		return Exponential{
			Initial:     cfg.Initial,
			Max:         cfg.Max,
			Factor:      cfg.Factor,
			Jitter:      cfg.Jitter,
			MaxAttempts: cfg.MaxAttempts,
		}, nil
	case KindFixed:
		return Fixed{Delay: cfg.Initial, MaxAttempts: cfg.MaxAttempts}, nil
	case KindLinear:
		return Linear{Base: cfg.Initial, MaxDelay: cfg.Max, MaxAttempts: cfg.MaxAttempts}, nil
	case KindImmediate:
		return Immediate{MaxAttempts: cfg.MaxAttempts}, nil
	case KindNone:
		return None{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
}
