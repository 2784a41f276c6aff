package logger

import (
	"fmt"
	"log/slog"
)

// Attribute helpers keep scope identifiers uniform across the engine's log
// output, so a run can be traced through every subsystem by the same keys.

// RunID identifies the task run a record concerns.
func RunID(id any) slog.Attr {
	return slog.String("run_id", fmt.Sprintf("%v", id))
}

// OrgID identifies the tenant organization.
func OrgID(id string) slog.Attr {
	return slog.String("organization_id", id)
}

// EnvID identifies the tenant environment.
func EnvID(id string) slog.Attr {
	return slog.String("environment_id", id)
}

// QueueName identifies a tenant queue.
func QueueName(name string) slog.Attr {
	return slog.String("queue", name)
}

// WorkerID identifies a worker deployment.
func WorkerID(id string) slog.Attr {
	return slog.String("worker_id", id)
}

// Attempt records a retry attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

// Component names the engine subsystem emitting the record.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Error wraps an error value; nil errors render as empty.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
