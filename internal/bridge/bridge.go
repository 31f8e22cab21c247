// Package bridge is the privileged half of the renderer IPC: a fixed catalog of
// request/response channels whose arguments are checked against a schema before
// any handler runs, plus one-way events from the host to the renderer.
package bridge

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Window controls the primary window.
type Window interface {
	Minimise()
	Maximise()
	Unmaximise()
	IsMaximised() bool
	Close()
}

// Dialogs shows native dialogs attached to the window.
type Dialogs interface {
	OpenFiles(opts DialogOptions) ([]string, error)
	OpenDirectory(opts DialogOptions) (string, error)
	SaveFile(opts DialogOptions) (string, error)
	MessageBox(opts MessageBoxOptions) (string, error)
}

// Clipboard reads and writes the system clipboard.
type Clipboard interface {
	ReadText() (string, error)
	WriteText(text string) error
}

// Shell hands URLs and paths to the desktop environment.
type Shell interface {
	OpenExternal(url string) error
	OpenPath(path string) error
}

// Notifier shows desktop notifications.
type Notifier interface {
	Notify(title, body string) error
}

// Host is the set of window-bound capabilities. It exists only once the
// window does.
type Host struct {
	Window    Window
	Dialogs   Dialogs
	Clipboard Clipboard
	Shell     Shell
}

// Options configures a Bridge.
type Options struct {
	// Version is reported by app:getVersion.
	Version string
	// Notifier backs app:notify; nil makes it fail.
	Notifier Notifier
	Logger   zerolog.Logger

	// GOOS and GOARCH override the reported platform, mainly for tests.
	GOOS   string
	GOARCH string
}

type handlerFunc func(ctx context.Context, args Args) (map[string]any, error)

type channel struct {
	schema  Schema
	handler handlerFunc
}

// Bridge dispatches renderer calls.
type Bridge struct {
	opts     Options
	log      zerolog.Logger
	events   *Events
	watcher  *watcher
	channels map[string]channel

	mu   sync.RWMutex
	host *Host
}

// New builds the channel catalog. Window-bound channels fail until Attach.
func New(events *Events, opts Options) *Bridge {
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	if opts.GOARCH == "" {
		opts.GOARCH = runtime.GOARCH
	}
	b := &Bridge{
		opts:    opts,
		log:     opts.Logger,
		events:  events,
		watcher: newWatcher(events, opts.Logger),
	}
	b.channels = map[string]channel{}
	b.registerFS()
	b.registerDialogs()
	b.registerWindow()
	b.registerSystem()
	return b
}

func (b *Bridge) handle(name string, schema Schema, h handlerFunc) {
	if _, dup := b.channels[name]; dup {
		panic("bridge: duplicate channel " + name)
	}
	b.channels[name] = channel{schema: schema, handler: h}
}

// Attach makes the window available to window-bound channels.
func (b *Bridge) Attach(h *Host) {
	b.mu.Lock()
	b.host = h
	b.mu.Unlock()
}

// Detach drops the window; later window-bound calls fail with ErrNoWindow.
func (b *Bridge) Detach() {
	b.Attach(nil)
}

func (b *Bridge) currentHost() (*Host, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.host == nil {
		return nil, ErrNoWindow
	}
	return b.host, nil
}

// Channels lists the catalog in sorted order.
func (b *Bridge) Channels() []string {
	names := make([]string, 0, len(b.channels))
	for name := range b.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call runs one request. The payload is the JSON argument object; handler and
// validation errors come back in the envelope.
func (b *Bridge) Call(ctx context.Context, name string, payload []byte) (resp Response) {
	ch, found := b.channels[name]
	if !found {
		b.log.Warn().Str("channel", name).Msg("Unknown IPC channel")
		return fail(fmt.Errorf("%w: %s", ErrUnknownChannel, name))
	}

	args, err := decodeArgs(payload)
	if err == nil {
		err = ch.schema.Validate(args)
	}
	if err != nil {
		b.log.Warn().Str("channel", name).Str("reason", err.Error()).Msg("Rejected IPC call")
		return fail(ErrInvalidInput)
	}

	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Str("channel", name).Interface("panic", r).Msg("IPC handler panicked")
			resp = fail(fmt.Errorf("internal error: %v", r))
		}
	}()

	out, err := ch.handler(ctx, args)
	if err != nil {
		b.log.Debug().Str("channel", name).Err(err).Msg("IPC call failed")
		return fail(err)
	}
	return ok(out)
}

// Close releases the file watcher.
func (b *Bridge) Close() error {
	return b.watcher.Close()
}
