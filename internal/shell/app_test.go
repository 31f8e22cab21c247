package shell

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/phayes/freeport"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenring-ai/coder-desktop/internal/appmenu"
	"github.com/tokenring-ai/coder-desktop/internal/bridge"
	"github.com/tokenring-ai/coder-desktop/internal/frontend"
	"github.com/tokenring-ai/coder-desktop/internal/supervisor"
)

const fakeBackendEnv = "TR_SHELL_FAKE_BACKEND"

// TestMain turns the test binary into a fake backend when fakeBackendEnv is set.
func TestMain(m *testing.M) {
	if mode := os.Getenv(fakeBackendEnv); mode != "" {
		runFakeBackend(mode)
		return
	}
	os.Exit(m.Run())
}

func runFakeBackend(mode string) {
	switch mode {
	case "http":
		var addr string
		for i, arg := range os.Args {
			if arg == "--http" && i+1 < len(os.Args) {
				addr = os.Args[i+1]
			}
		}
		mux := http.NewServeMux()
		mux.HandleFunc("/chat/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "chat ui")
		})
		fmt.Println("listening on " + addr)
		_ = http.ListenAndServe(addr, mux)
	case "crash":
		os.Exit(2)
	}
	os.Exit(0)
}

type fakeWindow struct {
	mu         sync.Mutex
	calls      []string
	minimised  bool
	maximised  bool
	navigated  chan string
	zoom       float64
	fullscreen bool
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{navigated: make(chan string, 4), zoom: 1}
}

func (w *fakeWindow) record(call string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, call)
}

func (w *fakeWindow) Calls() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.calls...)
}

func (w *fakeWindow) Minimise() {
	w.record("minimise")
	w.mu.Lock()
	w.minimised = true
	w.mu.Unlock()
}

func (w *fakeWindow) Unminimise() {
	w.record("unminimise")
	w.mu.Lock()
	w.minimised = false
	w.mu.Unlock()
}

func (w *fakeWindow) IsMinimised() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.minimised
}

func (w *fakeWindow) Maximise() {
	w.mu.Lock()
	w.maximised = true
	w.mu.Unlock()
}

func (w *fakeWindow) Unmaximise() {
	w.mu.Lock()
	w.maximised = false
	w.mu.Unlock()
}

func (w *fakeWindow) IsMaximised() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.maximised
}

func (w *fakeWindow) SetZoom(f float64) {
	w.mu.Lock()
	w.zoom = f
	w.mu.Unlock()
}

func (w *fakeWindow) Zoom() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.zoom
}

func (w *fakeWindow) ToggleFullscreen() {
	w.mu.Lock()
	w.fullscreen = !w.fullscreen
	w.mu.Unlock()
}

func (w *fakeWindow) Close()                { w.record("close") }
func (w *fakeWindow) Show()                 { w.record("show") }
func (w *fakeWindow) Hide()                 { w.record("hide") }
func (w *fakeWindow) Reload()               { w.record("reload") }
func (w *fakeWindow) ForceReload()          { w.record("force-reload") }
func (w *fakeWindow) ToggleDevTools() error { return bridge.ErrNotSupported }
func (w *fakeWindow) Quit()                 { w.record("quit") }
func (w *fakeWindow) Navigate(path string)  { w.navigated <- path }

type fakeShell struct {
	mu     sync.Mutex
	opened []string
}

func (s *fakeShell) OpenExternal(u string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = append(s.opened, u)
	return nil
}

func (s *fakeShell) OpenPath(p string) error { return s.OpenExternal(p) }

type sentEvent struct {
	channel string
	data    any
}

type recordingSink struct {
	mu     sync.Mutex
	events []sentEvent
}

func (s *recordingSink) Emit(channel string, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, sentEvent{channel, data})
}

func (s *recordingSink) Channel(name string) []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []any
	for _, e := range s.events {
		if e.channel == name {
			out = append(out, e.data)
		}
	}
	return out
}

type recordingAlerter struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingAlerter) BackendError(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func (r *recordingAlerter) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

type fixture struct {
	app     *App
	bridge  *bridge.Bridge
	loader  *frontend.Loader
	window  *fakeWindow
	shell   *fakeShell
	sink    *recordingSink
	alerter *recordingAlerter
}

type fixtureOptions struct {
	goos    string
	url     string
	delay   time.Duration
	sup     supervisor.Options
	noStart bool
}

func newFixture(t *testing.T, fo fixtureOptions) *fixture {
	t.Helper()
	if fo.goos == "" {
		fo.goos = "linux"
	}
	if fo.url == "" {
		fo.url = "http://localhost:5173/chat"
	}
	if fo.sup.Command == "" {
		fo.sup.Command = os.Args[0]
		fo.sup.Script = filepath.Join(t.TempDir(), "missing", "tr-coder.js")
	}
	fo.sup.Logger = zerolog.Nop()

	log := zerolog.Nop()
	events := bridge.NewEvents(log)
	br := bridge.New(events, bridge.Options{Version: "9.9.9", Logger: log})
	loader, err := frontend.NewLoader(frontend.Options{
		URL:       fo.url,
		Delay:     fo.delay,
		Immediate: fo.delay == 0,
		Logger:    log,
	})
	require.NoError(t, err)

	f := &fixture{
		bridge:  br,
		loader:  loader,
		window:  newFakeWindow(),
		shell:   &fakeShell{},
		sink:    &recordingSink{},
		alerter: &recordingAlerter{},
	}
	f.app = New(Options{
		GOOS:       fo.goos,
		Supervisor: fo.sup,
		Bridge:     br,
		Events:     events,
		Loader:     loader,
		Alerter:    f.alerter,
		Logger:     log,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = f.app.Shutdown(ctx)
	})
	if !fo.noStart {
		f.startup()
	}
	return f
}

func (f *fixture) startup() {
	f.app.Startup(context.Background(), Host{
		Window: f.window,
		Shell:  f.shell,
		Sink:   f.sink,
	})
}

func (f *fixture) call(channel, payload string) bridge.Response {
	return f.bridge.Call(context.Background(), channel, []byte(payload))
}

func waitNavigation(t *testing.T, w *fakeWindow, within time.Duration) string {
	t.Helper()
	select {
	case p := <-w.navigated:
		return p
	case <-time.After(within):
		t.Fatal("window was never navigated")
		return ""
	}
}

func TestStartup_BackendMissingKeepsRunning(t *testing.T) {
	f := newFixture(t, fixtureOptions{})

	assert.Equal(t, "/chat", waitNavigation(t, f.window, 5*time.Second))

	errs := f.sink.Channel(bridge.ChannelBackendError)
	require.Len(t, errs, 1)
	msg := errs[0].(map[string]any)["error"].(string)
	assert.Contains(t, msg, "Failed to start backend")
	assert.Equal(t, supervisor.StateStopped, f.app.Backend().State())

	// Window hidden until DOM ready, so the desktop is told as well.
	assert.Len(t, f.alerter.Messages(), 1)

	resp := f.call("app:getVersion", "")
	require.True(t, resp.Success)
	assert.Equal(t, "9.9.9", resp.Payload["version"])
}

func TestStartup_Twice(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	waitNavigation(t, f.window, 5*time.Second)

	f.startup()
	assert.Len(t, f.sink.Channel(bridge.ChannelBackendError), 1)
	assert.Empty(t, f.window.navigated)
}

func TestEndToEnd_ProductionLoad(t *testing.T) {
	port, err := freeport.GetFreePort()
	require.NoError(t, err)
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	frontendURL := "http://" + addr + "/chat/"

	f := newFixture(t, fixtureOptions{
		url:   frontendURL,
		delay: 300 * time.Millisecond,
		sup: supervisor.Options{
			Command:     os.Args[0],
			Args:        []string{"--workingDirectory", t.TempDir(), "--dataDirectory", t.TempDir(), "--http", addr},
			Env:         []string{fakeBackendEnv + "=http"},
			GracePeriod: 2 * time.Second,
			KillWait:    2 * time.Second,
		},
	})
	require.Equal(t, supervisor.StateRunning, f.app.Backend().State())

	// Nothing is loaded before the delay.
	select {
	case p := <-f.window.navigated:
		t.Fatalf("navigated to %s before the startup delay", p)
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, "/chat/", waitNavigation(t, f.window, 5*time.Second))

	proxy, err := frontend.NewProxy(f.loader.Origin(), zerolog.Nop())
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		proxy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://wails.localhost/chat/", nil))
		return rec.Code == http.StatusOK && rec.Body.String() == "chat ui"
	}, 5*time.Second, 50*time.Millisecond)

	f.app.DomReady(context.Background())
	assert.True(t, f.app.Visible())
	assert.Contains(t, f.window.Calls(), "show")

	require.True(t, f.call("window:maximize", "").Success)
	assert.True(t, f.window.IsMaximised())

	resp := f.call("app:getVersion", "")
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, "9.9.9", resp.Payload["version"])

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, f.app.Shutdown(ctx))

	select {
	case <-f.app.Backend().Done():
	default:
		t.Fatal("backend still running after shutdown")
	}
	assert.True(t, f.app.Backend().Record().Exited)
	assert.Empty(t, f.sink.Channel(bridge.ChannelBackendError), "requested shutdown is not an error")
	assert.Equal(t, "No main window", f.call("window:minimize", "").Error)
}

func TestBackendCrashNotifies(t *testing.T) {
	f := newFixture(t, fixtureOptions{
		sup: supervisor.Options{
			Command: os.Args[0],
			Env:     []string{fakeBackendEnv + "=crash"},
		},
	})

	select {
	case <-f.app.Backend().Done():
	case <-time.After(5 * time.Second):
		t.Fatal("backend did not exit")
	}
	errs := f.sink.Channel(bridge.ChannelBackendError)
	require.Len(t, errs, 1)
	assert.Equal(t, map[string]any{"error": "Backend process exited with code 2"}, errs[0])
}

func TestBackendError_AlertsOnlyWhenHidden(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	f.alerter.messages = nil

	f.app.DomReady(context.Background())
	f.app.BackendError("visible")
	f.app.HideWindow()
	f.app.BackendError("hidden")

	assert.Equal(t, []string{"hidden"}, f.alerter.Messages())
	// Startup failure, its replay on DOM ready, then the two above.
	assert.Len(t, f.sink.Channel(bridge.ChannelBackendError), 4)
}

func TestDomReady_ReplaysStartupFailure(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	waitNavigation(t, f.window, 5*time.Second)
	require.Len(t, f.sink.Channel(bridge.ChannelBackendError), 1)

	f.app.DomReady(context.Background())
	errs := f.sink.Channel(bridge.ChannelBackendError)
	require.Len(t, errs, 2)
	assert.Equal(t, errs[0], errs[1])
	assert.Contains(t, errs[1].(map[string]any)["error"], "Failed to start backend")

	// Later page loads do not repeat it.
	f.app.DomReady(context.Background())
	assert.Len(t, f.sink.Channel(bridge.ChannelBackendError), 2)
	assert.Len(t, f.alerter.Messages(), 1)
}

func TestDomReady_ReplaysLatestError(t *testing.T) {
	f := newFixture(t, fixtureOptions{noStart: true})
	f.startup()
	f.app.BackendError("early")
	f.app.DomReady(context.Background())
	f.app.BackendError("late")
	f.app.DomReady(context.Background())

	var got []string
	for _, e := range f.sink.Channel(bridge.ChannelBackendError) {
		got = append(got, e.(map[string]any)["error"].(string))
	}
	// The startup failure is superseded by the later error before DOM ready.
	require.Len(t, got, 4)
	assert.Equal(t, []string{"early", "late"}, got[2:])
	assert.Equal(t, "early", got[1])
}

func TestShutdown_CancelsPendingLoad(t *testing.T) {
	f := newFixture(t, fixtureOptions{url: "http://127.0.0.1:3456/chat/", delay: time.Hour})

	start := time.Now()
	require.NoError(t, f.app.Shutdown(context.Background()))
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Empty(t, f.window.navigated)
}

func TestShutdown_BeforeStartup(t *testing.T) {
	f := newFixture(t, fixtureOptions{noStart: true})
	require.NoError(t, f.app.Shutdown(context.Background()))

	f.app.DomReady(context.Background())
	f.app.SecondInstance()
	f.app.TrayActivate()
	assert.Empty(t, f.window.Calls())
}

func TestSecondInstance_RestoresWindow(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	f.window.Minimise()

	f.app.SecondInstance()
	assert.False(t, f.window.IsMinimised())
	assert.Equal(t, []string{"minimise", "unminimise", "show"}, f.window.Calls())
	assert.True(t, f.app.Visible())
}

func TestTray(t *testing.T) {
	f := newFixture(t, fixtureOptions{})

	f.app.TrayActivate()
	assert.Equal(t, []string{"show"}, f.window.Calls())

	f.app.TrayActivate()
	assert.Equal(t, []string{"show", "unminimise", "show"}, f.window.Calls())

	f.app.HideWindow()
	assert.False(t, f.app.Visible())
	f.app.ShowWindow()
	assert.True(t, f.app.Visible())
}

func TestBeforeClose(t *testing.T) {
	tests := []struct {
		goos        string
		wantPrevent bool
		wantCalls   []string
	}{
		{"darwin", true, []string{"hide"}},
		{"linux", false, nil},
		{"windows", false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			f := newFixture(t, fixtureOptions{goos: tt.goos})
			assert.Equal(t, tt.wantPrevent, f.app.BeforeClose(context.Background()))
			assert.Equal(t, tt.wantCalls, f.window.Calls())
		})
	}
}

func TestMenuAction(t *testing.T) {
	f := newFixture(t, fixtureOptions{})

	f.app.MenuAction(appmenu.Item{Action: appmenu.ActionNewChat})
	f.app.MenuAction(appmenu.Item{Action: appmenu.ActionAbout})
	assert.Len(t, f.sink.Channel(bridge.ChannelMenuNewChat), 1)
	assert.Len(t, f.sink.Channel(bridge.ChannelMenuAbout), 1)

	f.app.MenuAction(appmenu.Item{Action: appmenu.ActionZoomIn})
	f.app.MenuAction(appmenu.Item{Action: appmenu.ActionZoomIn})
	assert.InDelta(t, 1.2, f.window.Zoom(), 1e-9)
	f.app.MenuAction(appmenu.Item{Action: appmenu.ActionResetZoom})
	assert.InDelta(t, 1.0, f.window.Zoom(), 1e-9)
	for range 10 {
		f.app.MenuAction(appmenu.Item{Action: appmenu.ActionZoomOut})
	}
	assert.InDelta(t, 0.5, f.window.Zoom(), 1e-9)

	f.app.MenuAction(appmenu.Item{Action: appmenu.ActionOpenURL, URL: "https://docs.tokenring.ai"})
	assert.Equal(t, []string{"https://docs.tokenring.ai"}, f.shell.opened)

	f.app.MenuAction(appmenu.Item{Action: appmenu.ActionToggleDevTools})
	f.app.MenuAction(appmenu.Item{Action: appmenu.ActionReload})
	f.app.MenuAction(appmenu.Item{Action: appmenu.ActionCloseWindow})
	assert.Equal(t, []string{"reload", "quit"}, f.window.Calls())
}

func TestMenuNewChat_ReachesListener(t *testing.T) {
	log := zerolog.Nop()
	events := bridge.NewEvents(log)
	got := make(chan string, 1)
	events.On(bridge.KindMenu, func(ch string, _ any) { got <- ch })

	loader, err := frontend.NewLoader(frontend.Options{URL: "http://localhost:5173/chat", Immediate: true, Logger: log})
	require.NoError(t, err)
	app := New(Options{
		GOOS:   "linux",
		Bridge: bridge.New(events, bridge.Options{Logger: log}),
		Events: events,
		Loader: loader,
		Logger: log,
	})

	app.MenuAction(appmenu.Item{Action: appmenu.ActionNewChat})
	assert.Equal(t, bridge.ChannelMenuNewChat, <-got)
}
