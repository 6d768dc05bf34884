// Package notify provides ports.Notifier implementations for wizard toasts.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/ports"
)

// Log writes every notification to a structured logger.
type Log struct {
	Logger *slog.Logger
}

// Notify implements ports.Notifier.
func (l Log) Notify(ctx context.Context, n domain.Notification) {
	level := slog.LevelInfo
	if n.Kind == domain.NotifyFailure {
		level = slog.LevelWarn
	}
	l.Logger.Log(ctx, level, "Notification",
		"session_id", n.SessionID,
		"kind", n.Kind,
		"title", n.Title,
	)
}

// Fanout delivers to every notifier in order.
type Fanout []ports.Notifier

// Notify implements ports.Notifier.
func (f Fanout) Notify(ctx context.Context, n domain.Notification) {
	for _, target := range f {
		if target != nil {
			target.Notify(ctx, n)
		}
	}
}

// Func adapts a plain function to ports.Notifier.
type Func func(context.Context, domain.Notification)

// Notify implements ports.Notifier.
func (f Func) Notify(ctx context.Context, n domain.Notification) {
	f(ctx, n)
}

// Recorder keeps every notification in memory. Safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	seen []domain.Notification
}

// Notify implements ports.Notifier.
func (r *Recorder) Notify(ctx context.Context, n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, n)
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Notification(nil), r.seen...)
}

// Last returns the most recent notification, if any.
func (r *Recorder) Last() (domain.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.seen) == 0 {
		return domain.Notification{}, false
	}
	return r.seen[len(r.seen)-1], true
}
