// Package logging defines the structured-logging interface shared by the
// server, the NFC gateway, and the pass-signing pipeline. The server wires
// a slog-backed implementation; tests use the nop one.
package logging

import "context"

// Logger is a context-aware structured logger. Variadic args are key-value
// pairs:
//
//	log.Info(ctx, "card write complete", "card_id", cardID)
type Logger interface {
	Info(ctx context.Context, msg string, args ...any)

	// Warn reports unusual but non-fatal conditions, e.g. a failed
	// hardware probe that falls back to simulation.
	Warn(ctx context.Context, msg string, args ...any)

	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given
	// key-value pairs. Subsystems tag themselves this way, e.g.
	// With("module", "nfc").
	With(args ...any) Logger
}
