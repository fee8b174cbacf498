// Package logging is the structured logging surface of the vault. The CLI
// backs it with a slog text handler; tests and library callers that do not
// care use Nop.
package logging

import "context"

// Logger logs a message with key/value attributes, e.g.
//
//	log.Warn(ctx, "import failed, skipping", "source", name, "error", err)
//
// Attribute values must never carry passwords or key material.
type Logger interface {
	// Debug is for per-item detail (imported IDs, counted views) that is
	// too noisy for the default "warn" level.
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	// Warn reports a skipped item or a failed side step that did not fail
	// the operation.
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that adds args to every record.
	With(args ...any) Logger
}
