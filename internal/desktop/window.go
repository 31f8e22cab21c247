package desktop

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/tokenring-ai/coder-desktop/internal/bridge"
)

// Window drives the Wails main window.
type Window struct {
	ctx     context.Context
	onClose func()
}

// NewWindow wraps the Wails context. onClose runs for close requests coming
// from the renderer.
func NewWindow(ctx context.Context, onClose func()) *Window {
	return &Window{ctx: ctx, onClose: onClose}
}

func (w *Window) Minimise()         { runtime.WindowMinimise(w.ctx) }
func (w *Window) Maximise()         { runtime.WindowMaximise(w.ctx) }
func (w *Window) Unmaximise()       { runtime.WindowUnmaximise(w.ctx) }
func (w *Window) IsMaximised() bool { return runtime.WindowIsMaximised(w.ctx) }
func (w *Window) Unminimise()       { runtime.WindowUnminimise(w.ctx) }
func (w *Window) IsMinimised() bool { return runtime.WindowIsMinimised(w.ctx) }
func (w *Window) Show()             { runtime.WindowShow(w.ctx) }
func (w *Window) Hide()             { runtime.WindowHide(w.ctx) }
func (w *Window) Reload()           { runtime.WindowReload(w.ctx) }
func (w *Window) ForceReload()      { runtime.WindowReloadApp(w.ctx) }
func (w *Window) Quit()             { runtime.Quit(w.ctx) }

// Close follows the platform close rule instead of destroying the window.
func (w *Window) Close() {
	if w.onClose != nil {
		w.onClose()
		return
	}
	runtime.Quit(w.ctx)
}

// Navigate replaces the current page with path on the window's origin, where
// the IPC binding is available.
func (w *Window) Navigate(path string) {
	quoted, err := sonic.MarshalString(path)
	if err != nil {
		return
	}
	runtime.WindowExecJS(w.ctx, fmt.Sprintf("window.location.replace(%s);", quoted))
}

// SetZoom scales the page content.
func (w *Window) SetZoom(factor float64) {
	runtime.WindowExecJS(w.ctx, fmt.Sprintf("document.body.style.zoom = %q;", strconv.FormatFloat(factor, 'f', 2, 64)))
}

// ToggleFullscreen switches between fullscreen and windowed.
func (w *Window) ToggleFullscreen() {
	if runtime.WindowIsFullscreen(w.ctx) {
		runtime.WindowUnfullscreen(w.ctx)
		return
	}
	runtime.WindowFullscreen(w.ctx)
}

// ToggleDevTools is not exposed by the Wails runtime; debug builds open the
// inspector from the context menu instead.
func (w *Window) ToggleDevTools() error {
	return fmt.Errorf("developer tools: %w", bridge.ErrNotSupported)
}
