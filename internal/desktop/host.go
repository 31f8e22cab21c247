// Package desktop adapts the shell to Wails and the system tray.
package desktop

import (
	"context"

	"github.com/tokenring-ai/coder-desktop/internal/shell"
)

// NewHost builds the shell host from the Wails startup context.
func NewHost(ctx context.Context, app *shell.App) shell.Host {
	return shell.Host{
		Window:    NewWindow(ctx, app.RequestClose),
		Dialogs:   &Dialogs{ctx: ctx},
		Clipboard: &Clipboard{ctx: ctx},
		Shell:     &Shell{ctx: ctx},
		Sink:      &Sink{ctx: ctx},
	}
}
