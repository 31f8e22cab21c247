package bridge

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

func (b *Bridge) registerSystem() {
	b.handle("app:getVersion", nil, b.constant("version", b.opts.Version))
	b.handle("app:getPlatform", nil, b.constant("platform", platformName(b.opts.GOOS)))
	b.handle("app:getArch", nil, b.constant("arch", archName(b.opts.GOARCH)))
	b.handle("app:notify", Schema{
		required("title", KindString),
		optional("body", KindString),
	}, b.notify)

	b.handle("clipboard:readText", nil, b.readClipboard)
	b.handle("clipboard:writeText", Schema{required("text", KindString)}, b.writeClipboard)

	b.handle("shell:openExternal", Schema{required("url", KindString)}, b.openExternal)
	b.handle("shell:openPath", pathOnly, b.openPath)
}

func (b *Bridge) constant(key string, value any) handlerFunc {
	return func(context.Context, Args) (map[string]any, error) {
		return map[string]any{key: value}, nil
	}
}

// platformName uses the renderer's platform names (darwin, linux, win32).
func platformName(goos string) string {
	if goos == "windows" {
		return "win32"
	}
	return goos
}

// archName uses the renderer's architecture names (x64, ia32, arm64).
func archName(goarch string) string {
	switch goarch {
	case "amd64":
		return "x64"
	case "386":
		return "ia32"
	default:
		return goarch
	}
}

func (b *Bridge) notify(_ context.Context, args Args) (map[string]any, error) {
	if b.opts.Notifier == nil {
		return nil, fmt.Errorf("notifications: %w", ErrNotSupported)
	}
	return nil, b.opts.Notifier.Notify(args.String("title"), args.String("body"))
}

func (b *Bridge) readClipboard(context.Context, Args) (map[string]any, error) {
	host, err := b.currentHost()
	if err != nil {
		return nil, err
	}
	text, err := host.Clipboard.ReadText()
	if err != nil {
		return nil, err
	}
	return map[string]any{"text": text}, nil
}

func (b *Bridge) writeClipboard(_ context.Context, args Args) (map[string]any, error) {
	host, err := b.currentHost()
	if err != nil {
		return nil, err
	}
	return nil, host.Clipboard.WriteText(args.String("text"))
}

// openExternal only hands web and mail links to the system browser.
func (b *Bridge) openExternal(_ context.Context, args Args) (map[string]any, error) {
	raw := args.String("url")
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedURL, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mailto":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, u.Scheme)
	}
	host, err := b.currentHost()
	if err != nil {
		return nil, err
	}
	return nil, host.Shell.OpenExternal(raw)
}

func (b *Bridge) openPath(_ context.Context, args Args) (map[string]any, error) {
	host, err := b.currentHost()
	if err != nil {
		return nil, err
	}
	return nil, host.Shell.OpenPath(args.String("path"))
}
