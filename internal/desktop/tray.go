//go:build !darwin

package desktop

import (
	"github.com/getlantern/systray"
	"github.com/rs/zerolog"

	"github.com/tokenring-ai/coder-desktop/internal/shell"
	"github.com/tokenring-ai/coder-desktop/internal/version"
)

// TrayManager owns the system tray icon.
type TrayManager struct {
	app *shell.App
	log zerolog.Logger

	menuShow *systray.MenuItem
	menuHide *systray.MenuItem
	menuQuit *systray.MenuItem
	stop     chan struct{}
}

// NewTrayManager creates the tray for app.
func NewTrayManager(app *shell.App, log zerolog.Logger) *TrayManager {
	return &TrayManager{app: app, log: log, stop: make(chan struct{})}
}

// Start installs the tray icon without blocking.
func (t *TrayManager) Start() {
	startTrayLoop(t.onReady, t.onExit)
}

// Stop removes the tray icon.
func (t *TrayManager) Stop() {
	systray.Quit()
}

func (t *TrayManager) onReady() {
	t.log.Info().Msg("Initializing system tray")

	systray.SetIcon(trayIcon)
	systray.SetTitle(version.Name)
	systray.SetTooltip(version.Name)

	t.menuShow = systray.AddMenuItem("Show", "Show the window")
	t.menuHide = systray.AddMenuItem("Hide", "Hide the window")
	systray.AddSeparator()
	t.menuQuit = systray.AddMenuItem("Quit", "Quit "+version.Name)

	t.app.SetTray(true)
	go t.handleMenuEvents()
}

func (t *TrayManager) onExit() {
	t.app.SetTray(false)
	close(t.stop)
	t.log.Info().Msg("System tray exited")
}

func (t *TrayManager) handleMenuEvents() {
	for {
		select {
		case <-t.menuShow.ClickedCh:
			t.log.Debug().Msg("Show clicked")
			t.app.TrayActivate()
		case <-t.menuHide.ClickedCh:
			t.log.Debug().Msg("Hide clicked")
			t.app.HideWindow()
		case <-t.menuQuit.ClickedCh:
			t.log.Info().Msg("Quit clicked")
			t.app.Quit()
			return
		case <-t.stop:
			return
		}
	}
}
