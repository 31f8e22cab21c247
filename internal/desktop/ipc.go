package desktop

import (
	"context"
	"sync"

	"github.com/tokenring-ai/coder-desktop/internal/bridge"
)

// IPC is bound into the webview. Its only method carries every bridge channel.
type IPC struct {
	bridge *bridge.Bridge

	mu  sync.RWMutex
	ctx context.Context
}

// NewIPC binds b.
func NewIPC(b *bridge.Bridge) *IPC {
	return &IPC{bridge: b, ctx: context.Background()}
}

// SetContext scopes calls to the app lifetime.
func (i *IPC) SetContext(ctx context.Context) {
	i.mu.Lock()
	i.ctx = ctx
	i.mu.Unlock()
}

// Invoke runs channel with the JSON argument object in payload.
func (i *IPC) Invoke(channel string, payload string) bridge.Response {
	i.mu.RLock()
	ctx := i.ctx
	i.mu.RUnlock()
	return i.bridge.Call(ctx, channel, []byte(payload))
}

// Channels lists the available channels for the renderer.
func (i *IPC) Channels() []string {
	return i.bridge.Channels()
}
