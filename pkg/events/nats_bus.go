package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// NATSBus publishes events to NATS subjects "<prefix>.<event>". Publish is
// asynchronous on the NATS client side, so Emit never waits on subscribers.
type NATSBus struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// NewNATSBus creates a bus over an established NATS connection.
func NewNATSBus(conn *nats.Conn, prefix string, logger *slog.Logger) (*NATSBus, error) {
	if conn == nil {
		return nil, ErrConnNil
	}
	if prefix == "" {
		prefix = "runkit"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSBus{conn: conn, prefix: prefix, logger: logger}, nil
}

func (b *NATSBus) Emit(ctx context.Context, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to marshal event payload",
			slog.String("event", event),
			slog.String("error", err.Error()))
		return
	}

	if err := b.conn.Publish(b.prefix+"."+event, data); err != nil {
		b.logger.ErrorContext(ctx, "failed to publish event",
			slog.String("event", event),
			slog.String("error", err.Error()))
	}
}
