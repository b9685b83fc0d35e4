// Package notify delivers user-visible notices about background work.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Level is the severity of a notice.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notice is a short message for the user, e.g. "Sync failed".
type Notice struct {
	Level       Level
	Title       string
	Description string

	// Retryable is set when re-invoking the same action may succeed.
	Retryable bool
}

// Notifier defines the interface for surfacing notices.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// LogNotifier is a Notifier that writes notices to a structured logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier backed by logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the notice at a level matching its severity.
func (n *LogNotifier) Notify(ctx context.Context, notice Notice) {
	level := slog.LevelInfo
	if notice.Level == LevelError {
		level = slog.LevelError
	}
	n.logger.Log(ctx, level, notice.Title,
		"description", notice.Description,
		"retryable", notice.Retryable,
	)
}

// Recorder keeps every notice in memory. Useful in tests and for printing
// a summary at the end of a CLI command.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify appends the notice.
func (r *Recorder) Notify(ctx context.Context, n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of the recorded notices.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Multi fans a notice out to several notifiers.
type Multi []Notifier

// Notify forwards the notice to every notifier.
func (m Multi) Notify(ctx context.Context, n Notice) {
	for _, notifier := range m {
		notifier.Notify(ctx, n)
	}
}
