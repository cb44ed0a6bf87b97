// Package notify keeps the transient toast messages shown at the bottom of
// the page. Messages are fire-and-forget and disappear on their own.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultDuration is how long a toast stays visible.
const DefaultDuration = 2500 * time.Millisecond

type Notification struct {
	Message   string
	ShownAt   time.Time
	ExpiresAt time.Time
}

// Toaster holds at most one toast per scope; a new toast replaces the
// current one and restarts the timer.
type Toaster struct {
	mu       sync.Mutex
	duration time.Duration
	now      func() time.Time
	current  map[string]Notification
}

func NewToaster() *Toaster {
	return &Toaster{
		duration: DefaultDuration,
		now:      time.Now,
		current:  make(map[string]Notification),
	}
}

// Show displays message to scope. Expired toasts of every scope are swept
// first, so scopes that never poll do not accumulate.
func (t *Toaster) Show(ctx context.Context, scope, message string) Notification {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for s, n := range t.current {
		if !now.Before(n.ExpiresAt) {
			delete(t.current, s)
		}
	}
	n := Notification{Message: message, ShownAt: now, ExpiresAt: now.Add(t.duration)}
	t.current[scope] = n
	slog.DebugContext(ctx, "toast shown", "scope", scope, "message", message)
	return n
}

// Current returns the toast visible to scope, if any. Expired toasts are
// dropped as they are found.
func (t *Toaster) Current(scope string) (Notification, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.current[scope]
	if !ok {
		return Notification{}, false
	}
	if !t.now().Before(n.ExpiresAt) {
		delete(t.current, scope)
		return Notification{}, false
	}
	return n, true
}

// Len reports how many toasts are held, visible or not yet swept.
func (t *Toaster) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.current)
}
