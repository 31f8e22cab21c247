package desktop

import _ "embed"

// AppIcon is the application icon in PNG form.
//
//go:embed icon.png
var AppIcon []byte
