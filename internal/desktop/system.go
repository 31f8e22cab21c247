package desktop

import (
	"context"

	"github.com/pkg/browser"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// Clipboard uses the Wails clipboard.
type Clipboard struct {
	ctx context.Context
}

func (c *Clipboard) ReadText() (string, error) { return runtime.ClipboardGetText(c.ctx) }
func (c *Clipboard) WriteText(text string) error {
	return runtime.ClipboardSetText(c.ctx, text)
}

// Shell opens links in the browser and paths in their default application.
type Shell struct {
	ctx context.Context
}

func (s *Shell) OpenExternal(url string) error {
	runtime.BrowserOpenURL(s.ctx, url)
	return nil
}

func (s *Shell) OpenPath(path string) error {
	return browser.OpenFile(path)
}

// Sink emits bridge events to the renderer.
type Sink struct {
	ctx context.Context
}

func (s *Sink) Emit(channel string, data any) {
	if data == nil {
		runtime.EventsEmit(s.ctx, channel)
		return
	}
	runtime.EventsEmit(s.ctx, channel, data)
}
