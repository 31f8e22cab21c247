// Package notify shows desktop notifications through beeep.
package notify

import (
	"sync"
	"unicode/utf8"

	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"
)

const (
	maxTitle = 64
	maxBody  = 256
)

// Notifier sends desktop notifications.
type Notifier struct {
	log  zerolog.Logger
	send func(title, message string) error

	mu      sync.RWMutex
	enabled bool
}

// NewNotifier creates an enabled notifier.
func NewNotifier(log zerolog.Logger) *Notifier {
	return &Notifier{
		log:     log,
		send:    func(title, message string) error { return beeep.Notify(title, message, "") },
		enabled: true,
	}
}

// SetEnabled turns notifications on or off.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// IsEnabled reports whether notifications are sent.
func (n *Notifier) IsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// Notify shows a notification. Disabled notifiers drop it silently.
func (n *Notifier) Notify(title, body string) error {
	if !n.IsEnabled() {
		return nil
	}
	if err := n.send(truncate(title, maxTitle), truncate(body, maxBody)); err != nil {
		n.log.Warn().Err(err).Str("title", title).Msg("Failed to send notification")
		return err
	}
	return nil
}

// BackendError alerts the user when the window is not around to show it.
func (n *Notifier) BackendError(message string) {
	_ = n.Notify("TokenRing Coder backend", message)
}

// truncate shortens s to at most maxLen runes, ending in "..." when cut.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}
