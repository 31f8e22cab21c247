//go:build !darwin && !windows

package desktop

import "github.com/getlantern/systray"

var trayIcon = AppIcon

// startTrayLoop registers the tray with the GTK loop Wails already runs.
func startTrayLoop(onReady, onExit func()) {
	systray.Register(onReady, onExit)
}
