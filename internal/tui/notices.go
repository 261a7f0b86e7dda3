package tui

import (
	"sync"

	"sdlcwizard/internal/workflow"
)

// Notices collects controller notifications for the status line. Only the
// latest notice is kept.
type Notices struct {
	mu      sync.Mutex
	level   workflow.Level
	message string
	pending bool
}

// Notify implements workflow.Notifier.
func (n *Notices) Notify(level workflow.Level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.level = level
	n.message = message
	n.pending = true
}

// take returns and clears the pending notice.
func (n *Notices) take() (workflow.Level, string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.pending {
		return 0, "", false
	}
	n.pending = false
	return n.level, n.message, true
}
