package desktop

import (
	_ "embed"

	"github.com/getlantern/systray"
)

//go:embed icon.ico
var trayIcon []byte

// startTrayLoop runs the tray's own message loop on a separate thread.
func startTrayLoop(onReady, onExit func()) {
	go systray.Run(onReady, onExit)
}
