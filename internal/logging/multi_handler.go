package logging

import (
	"context"
	"log/slog"
)

// MultiHandler is a slog.Handler that forwards each record to every
// destination that accepts its level, so a single logger call can reach
// stdout, the journal and the in-memory buffer. A record reaches each
// destination at most once.
type MultiHandler struct {
	targets []slog.Handler
}

// NewMultiHandler builds a MultiHandler over the given destinations.
func NewMultiHandler(targets ...slog.Handler) *MultiHandler {
	return &MultiHandler{targets: targets}
}

// Enabled reports whether at least one destination accepts the level.
func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, target := range m.targets {
		if target.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle forwards the record to each destination enabled for its level.
// Destination errors are dropped; one failing sink must not silence the
// others. Records are cloned because destinations may retain attrs.
func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, target := range m.targets {
		if target.Enabled(ctx, r.Level) {
			_ = target.Handle(ctx, r.Clone())
		}
	}
	return nil
}

// WithAttrs returns a MultiHandler whose destinations all carry attrs.
func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	targets := make([]slog.Handler, len(m.targets))
	for i, target := range m.targets {
		targets[i] = target.WithAttrs(attrs)
	}
	return &MultiHandler{targets: targets}
}

// WithGroup returns a MultiHandler whose destinations all open the group.
func (m *MultiHandler) WithGroup(name string) slog.Handler {
	targets := make([]slog.Handler, len(m.targets))
	for i, target := range m.targets {
		targets[i] = target.WithGroup(name)
	}
	return &MultiHandler{targets: targets}
}
