package bridge

import "context"

func (b *Bridge) registerWindow() {
	b.handle("window:minimize", nil, b.windowAction(func(w Window) { w.Minimise() }))
	b.handle("window:maximize", nil, b.windowAction(toggleMaximise))
	b.handle("window:close", nil, b.windowAction(func(w Window) { w.Close() }))
}

func toggleMaximise(w Window) {
	if w.IsMaximised() {
		w.Unmaximise()
		return
	}
	w.Maximise()
}

func (b *Bridge) windowAction(fn func(Window)) handlerFunc {
	return func(_ context.Context, _ Args) (map[string]any, error) {
		host, err := b.currentHost()
		if err != nil {
			return nil, err
		}
		fn(host.Window)
		return nil, nil
	}
}
