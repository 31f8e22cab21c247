// Package shell holds the desktop application state and lifecycle: it starts
// the backend, points the window at the frontend, reacts to menu, tray and
// second-instance events and shuts everything down in order.
package shell

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tokenring-ai/coder-desktop/internal/appmenu"
	"github.com/tokenring-ai/coder-desktop/internal/bridge"
	"github.com/tokenring-ai/coder-desktop/internal/frontend"
	"github.com/tokenring-ai/coder-desktop/internal/supervisor"
)

// DefaultShutdownTimeout bounds Shutdown when the caller's context has no deadline.
const DefaultShutdownTimeout = 10 * time.Second

// Window is the primary window as the shell drives it.
type Window interface {
	bridge.Window
	Show()
	Hide()
	Unminimise()
	IsMinimised() bool
	Navigate(path string)
	Reload()
	ForceReload()
	SetZoom(factor float64)
	ToggleFullscreen()
	ToggleDevTools() error
	Quit()
}

// Host is what the windowing toolkit provides once the window exists.
type Host struct {
	Window    Window
	Dialogs   bridge.Dialogs
	Clipboard bridge.Clipboard
	Shell     bridge.Shell
	Sink      bridge.Sink
}

// Alerter reaches the user when the window is hidden.
type Alerter interface {
	BackendError(message string)
}

// Options configures an App.
type Options struct {
	GOOS       string
	Supervisor supervisor.Options
	Bridge     *bridge.Bridge
	Events     *bridge.Events
	Loader     *frontend.Loader
	// Alerter, when set, also receives backend errors while the window is hidden.
	Alerter Alerter
	Logger  zerolog.Logger
}

// App is the single application instance.
type App struct {
	opts    Options
	log     zerolog.Logger
	backend *supervisor.Supervisor
	bridge  *bridge.Bridge
	events  *bridge.Events
	loader  *frontend.Loader

	mu         sync.Mutex
	host       *Host
	visible    bool
	tray       bool
	zoom       int
	started    bool
	domReady   bool
	// pendingError is the last backend error raised before the page could
	// listen for it.
	pendingError string
	loadCancel context.CancelFunc
	loadDone   chan struct{}
}

// New wires the app. The backend reports its failures through the app.
func New(opts Options) *App {
	a := &App{
		opts:   opts,
		log:    opts.Logger,
		bridge: opts.Bridge,
		events: opts.Events,
		loader: opts.Loader,
	}
	supOpts := opts.Supervisor
	supOpts.Notifier = a
	a.backend = supervisor.New(supOpts)
	return a
}

// Backend exposes the supervisor for status reporting.
func (a *App) Backend() *supervisor.Supervisor {
	return a.backend
}

// SetTray records whether a tray icon exists.
func (a *App) SetTray(present bool) {
	a.mu.Lock()
	a.tray = present
	a.mu.Unlock()
}

// HasTray reports whether a tray icon exists.
func (a *App) HasTray() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tray
}

// Startup runs once the window exists: it exposes the window to the bridge,
// starts the backend and schedules the frontend load. The window stays hidden
// until DomReady.
func (a *App) Startup(ctx context.Context, host Host) {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		a.log.Warn().Msg("Startup called twice, ignoring")
		return
	}
	a.started = true
	a.host = &host
	loadCtx, cancel := context.WithCancel(ctx)
	a.loadCancel = cancel
	a.loadDone = make(chan struct{})
	a.mu.Unlock()

	a.events.SetSink(host.Sink)
	a.bridge.Attach(&bridge.Host{
		Window:    host.Window,
		Dialogs:   host.Dialogs,
		Clipboard: host.Clipboard,
		Shell:     host.Shell,
	})

	if err := a.backend.Start(ctx); err != nil {
		a.log.Error().Err(err).Msg("Backend unavailable, continuing without it")
	}

	go func() {
		defer close(a.loadDone)
		if err := a.loader.Load(loadCtx, host.Window); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Error().Err(err).Msg("Failed to load frontend")
		}
	}()
}

// DomReady shows the window once there is something to paint and replays a
// backend error the page missed while loading.
func (a *App) DomReady(context.Context) {
	w := a.window()
	if w == nil {
		return
	}
	w.Show()

	a.mu.Lock()
	a.visible = true
	missed := ""
	if !a.domReady {
		a.domReady = true
		missed = a.pendingError
		a.pendingError = ""
	}
	a.mu.Unlock()

	if missed != "" {
		a.log.Debug().Str("error", missed).Msg("Replaying backend error to page")
		a.events.BackendError(missed)
	}
}

// SecondInstance brings the existing window forward.
func (a *App) SecondInstance() {
	w := a.window()
	if w == nil {
		return
	}
	a.log.Info().Msg("Second instance launched, focusing window")
	if w.IsMinimised() {
		w.Unminimise()
	}
	w.Show()
	a.setVisible(true)
}

// TrayActivate focuses a visible window and shows a hidden one.
func (a *App) TrayActivate() {
	w := a.window()
	if w == nil {
		return
	}
	if a.Visible() {
		w.Unminimise()
	}
	w.Show()
	a.setVisible(true)
}

// ShowWindow is the tray's Show item.
func (a *App) ShowWindow() {
	if w := a.window(); w != nil {
		w.Show()
		a.setVisible(true)
	}
}

// HideWindow is the tray's Hide item.
func (a *App) HideWindow() {
	if w := a.window(); w != nil {
		w.Hide()
		a.setVisible(false)
	}
}

// Quit asks the toolkit to quit; Shutdown runs from its shutdown hook.
func (a *App) Quit() {
	if w := a.window(); w != nil {
		w.Quit()
	}
}

// BeforeClose decides what closing the window means. On macOS the window is
// hidden and the app keeps running; elsewhere the close proceeds and quits.
func (a *App) BeforeClose(context.Context) (prevent bool) {
	if a.opts.GOOS != "darwin" {
		a.log.Info().Msg("Window closed, quitting")
		return false
	}
	a.log.Info().Msg("Window close requested, hiding")
	a.HideWindow()
	return true
}

// RequestClose closes the window the way the title bar button does.
func (a *App) RequestClose() {
	w := a.window()
	if w == nil {
		return
	}
	if !a.BeforeClose(context.Background()) {
		w.Quit()
	}
}

// Visible reports whether the window was last shown rather than hidden.
func (a *App) Visible() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.visible
}

// BackendError forwards a backend failure to the renderer and, while the
// window is hidden, to the desktop.
func (a *App) BackendError(message string) {
	a.mu.Lock()
	if !a.domReady {
		a.pendingError = message
	}
	a.mu.Unlock()

	a.events.BackendError(message)
	if a.opts.Alerter != nil && !a.Visible() {
		a.opts.Alerter.BackendError(message)
	}
}

// MenuAction runs a menu item.
func (a *App) MenuAction(item appmenu.Item) {
	switch item.Action {
	case appmenu.ActionNewChat:
		a.events.MenuAction(bridge.ChannelMenuNewChat)
		return
	case appmenu.ActionAbout:
		a.events.MenuAction(bridge.ChannelMenuAbout)
		return
	case appmenu.ActionOpenURL:
		a.openURL(item.URL)
		return
	}

	w := a.window()
	if w == nil {
		return
	}
	switch item.Action {
	case appmenu.ActionQuit:
		w.Quit()
	case appmenu.ActionReload:
		w.Reload()
	case appmenu.ActionForceReload:
		w.ForceReload()
	case appmenu.ActionToggleDevTools:
		if err := w.ToggleDevTools(); err != nil {
			a.log.Warn().Err(err).Msg("Cannot toggle developer tools")
		}
	case appmenu.ActionResetZoom:
		w.SetZoom(a.adjustZoom(0, true))
	case appmenu.ActionZoomIn:
		w.SetZoom(a.adjustZoom(1, false))
	case appmenu.ActionZoomOut:
		w.SetZoom(a.adjustZoom(-1, false))
	case appmenu.ActionToggleFullscreen:
		w.ToggleFullscreen()
	case appmenu.ActionMinimise:
		w.Minimise()
	case appmenu.ActionCloseWindow:
		a.RequestClose()
	default:
		a.log.Debug().Str("action", string(item.Action)).Msg("Unhandled menu action")
	}
}

const (
	zoomStep  = 0.1
	zoomLimit = 5
)

// adjustZoom moves the zoom level by delta steps and returns the factor.
func (a *App) adjustZoom(delta int, reset bool) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if reset {
		a.zoom = 0
	} else {
		a.zoom = max(-zoomLimit, min(zoomLimit, a.zoom+delta))
	}
	return 1 + float64(a.zoom)*zoomStep
}

func (a *App) openURL(url string) {
	a.mu.Lock()
	host := a.host
	a.mu.Unlock()
	if host == nil || host.Shell == nil || url == "" {
		return
	}
	if err := host.Shell.OpenExternal(url); err != nil {
		a.log.Warn().Err(err).Str("url", url).Msg("Failed to open link")
	}
}

// Shutdown stops the frontend load, the backend and the file watchers. It
// returns once all of them are done or ctx expires.
func (a *App) Shutdown(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultShutdownTimeout)
		defer cancel()
	}

	a.mu.Lock()
	cancelLoad := a.loadCancel
	loadDone := a.loadDone
	a.mu.Unlock()
	if cancelLoad != nil {
		cancelLoad()
		select {
		case <-loadDone:
		case <-ctx.Done():
		}
	}

	a.log.Info().Msg("Shutting down")
	var g errgroup.Group
	g.Go(func() error {
		if err := a.backend.Shutdown(ctx); err != nil {
			return fmt.Errorf("backend: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := a.bridge.Close(); err != nil {
			return fmt.Errorf("bridge: %w", err)
		}
		return nil
	})
	err := g.Wait()

	a.bridge.Detach()
	a.events.SetSink(nil)
	a.mu.Lock()
	a.host = nil
	a.visible = false
	a.pendingError = ""
	a.mu.Unlock()

	if err != nil {
		a.log.Error().Err(err).Msg("Shutdown incomplete")
		return err
	}
	a.log.Info().Msg("Shutdown complete")
	return nil
}

func (a *App) window() Window {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.host == nil {
		return nil
	}
	return a.host.Window
}

func (a *App) setVisible(v bool) {
	a.mu.Lock()
	a.visible = v
	a.mu.Unlock()
}
