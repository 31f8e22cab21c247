package bridge

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// One-way channels from the host to the renderer.
const (
	ChannelBackendError = "backend:error"
	ChannelMenuNewChat  = "menu:new-chat"
	ChannelMenuAbout    = "menu:about"
	// ChannelWatchPrefix is followed by the watched path as given to fs:watch.
	ChannelWatchPrefix = "fs:watch-"
)

// Kind groups event channels that share one subscription.
type Kind string

const (
	KindBackendError Kind = "backend-error"
	KindMenu         Kind = "menu"
)

// Sink delivers events to the window.
type Sink interface {
	Emit(channel string, data any)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(channel string, data any)

// Emit implements Sink.
func (f SinkFunc) Emit(channel string, data any) { f(channel, data) }

// Listener receives an event and the channel it arrived on.
type Listener func(channel string, data any)

type registration struct {
	id uint64
	fn Listener
}

// Events fans host events out to the window sink and to at most one
// in-process listener per kind.
type Events struct {
	log zerolog.Logger

	mu        sync.Mutex
	sink      Sink
	next      uint64
	listeners map[Kind]registration
}

// NewEvents creates an event hub without a sink.
func NewEvents(log zerolog.Logger) *Events {
	return &Events{
		log:       log,
		listeners: make(map[Kind]registration),
	}
}

// SetSink attaches (or with nil, detaches) the window.
func (e *Events) SetSink(s Sink) {
	e.mu.Lock()
	e.sink = s
	e.mu.Unlock()
}

// On registers fn for kind, replacing any earlier listener of that kind. The
// returned func removes the registration if it is still the active one.
func (e *Events) On(kind Kind, fn Listener) (unsubscribe func()) {
	e.mu.Lock()
	e.next++
	id := e.next
	e.listeners[kind] = registration{id: id, fn: fn}
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if cur, ok := e.listeners[kind]; ok && cur.id == id {
			delete(e.listeners, kind)
		}
	}
}

// Emit sends an event to the window and the listener of its kind.
func (e *Events) Emit(channel string, data any) {
	e.mu.Lock()
	sink := e.sink
	var fn Listener
	if kind, ok := kindOf(channel); ok {
		fn = e.listeners[kind].fn
	}
	e.mu.Unlock()

	if sink != nil {
		sink.Emit(channel, data)
	} else {
		e.log.Debug().Str("channel", channel).Msg("No window attached, event dropped")
	}
	if fn != nil {
		fn(channel, data)
	}
}

// BackendError emits backend:error; it lets the hub serve as the supervisor's notifier.
func (e *Events) BackendError(message string) {
	e.log.Warn().Str("error", message).Msg("Backend error")
	e.Emit(ChannelBackendError, map[string]any{"error": message})
}

// MenuAction emits a menu notification such as menu:new-chat.
func (e *Events) MenuAction(channel string) {
	e.Emit(channel, nil)
}

func kindOf(channel string) (Kind, bool) {
	switch {
	case channel == ChannelBackendError:
		return KindBackendError, true
	case strings.HasPrefix(channel, "menu:"):
		return KindMenu, true
	}
	return "", false
}
