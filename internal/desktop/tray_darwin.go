package desktop

import (
	"github.com/rs/zerolog"

	"github.com/tokenring-ai/coder-desktop/internal/shell"
)

// TrayManager is empty on macOS, where the dock takes the tray's role.
type TrayManager struct{}

func NewTrayManager(*shell.App, zerolog.Logger) *TrayManager { return &TrayManager{} }

func (t *TrayManager) Start() {}
func (t *TrayManager) Stop()  {}
