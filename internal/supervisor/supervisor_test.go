package supervisor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeBackendEnv = "TR_FAKE_BACKEND"

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
	case "serve":
		fmt.Println("ready")
		fmt.Fprintln(os.Stderr, "warming")
		time.Sleep(time.Hour)
	case "args":
		fmt.Println("args: " + strings.Join(os.Args[1:], " "))
		fmt.Println("env: NODE_ENV=" + os.Getenv("NODE_ENV"))
		time.Sleep(time.Hour)
	case "graceful":
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM)
		fmt.Println("ready")
		<-ch
		fmt.Println("bye")
		os.Exit(0)
	case "stubborn":
		signal.Ignore(syscall.SIGTERM)
		fmt.Println("ready")
		time.Sleep(time.Hour)
	case "crash":
		fmt.Fprintln(os.Stderr, "boom")
		os.Exit(3)
	case "clean":
		fmt.Print("done without newline")
		os.Exit(0)
	}
	os.Exit(0)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) BackendError(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

type harness struct {
	sup      *Supervisor
	logs     *syncBuffer
	notifier *recordingNotifier
}

func newHarness(t *testing.T, mode string, mutate func(*Options)) *harness {
	t.Helper()
	logs := &syncBuffer{}
	notifier := &recordingNotifier{}
	opts := Options{
		Command:     os.Args[0],
		Args:        []string{"--workingDirectory", "/w", "--dataDirectory", "/d", "--http", "127.0.0.1:3456"},
		Env:         []string{fakeBackendEnv + "=" + mode},
		GracePeriod: 2 * time.Second,
		KillWait:    2 * time.Second,
		Notifier:    notifier,
		Logger:      zerolog.New(logs),
	}
	if mutate != nil {
		mutate(&opts)
	}
	h := &harness{sup: New(opts), logs: logs, notifier: notifier}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.sup.Shutdown(ctx)
	})
	return h
}

func (h *harness) waitForLog(t *testing.T, text string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return strings.Contains(h.logs.String(), text)
	}, 5*time.Second, 10*time.Millisecond, "log never contained %q; got:\n%s", text, h.logs.String())
}

func waitDone(t *testing.T, s *Supervisor) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("backend did not exit")
	}
}

func TestStartMissingScript(t *testing.T) {
	h := newHarness(t, "serve", func(o *Options) {
		o.Command = "node"
		o.Script = filepath.Join(t.TempDir(), "dist", "tr-coder.js")
	})

	err := h.sup.Start(context.Background())

	require.ErrorIs(t, err, ErrBackendNotFound)
	assert.Len(t, h.notifier.Messages(), 1)
	assert.Contains(t, h.notifier.Messages()[0], "Failed to start backend")
	assert.Equal(t, StateStopped, h.sup.State())
	waitDone(t, h.sup)
}

func TestStartMissingCommand(t *testing.T) {
	h := newHarness(t, "serve", func(o *Options) {
		o.Command = "tokenring-backend-that-does-not-exist"
	})

	err := h.sup.Start(context.Background())

	require.ErrorIs(t, err, ErrBackendNotFound)
	assert.Len(t, h.notifier.Messages(), 1)
}

func TestStartOnlyOnce(t *testing.T) {
	h := newHarness(t, "serve", nil)

	require.NoError(t, h.sup.Start(context.Background()))
	assert.ErrorIs(t, h.sup.Start(context.Background()), ErrAlreadyStarted)
	assert.Empty(t, h.notifier.Messages())
	assert.Equal(t, StateRunning, h.sup.State())
	assert.NotZero(t, h.sup.Record().PID)
	assert.NotEmpty(t, h.sup.Record().RunID)
}

func TestFailedStartCannotBeRetried(t *testing.T) {
	h := newHarness(t, "serve", func(o *Options) {
		o.Command = "tokenring-backend-that-does-not-exist"
	})

	require.Error(t, h.sup.Start(context.Background()))
	assert.ErrorIs(t, h.sup.Start(context.Background()), ErrAlreadyStarted)
	assert.Len(t, h.notifier.Messages(), 1)
}

func TestOutputForwardedToLog(t *testing.T) {
	h := newHarness(t, "serve", nil)
	require.NoError(t, h.sup.Start(context.Background()))

	h.waitForLog(t, `"stream":"stdout"`)
	h.waitForLog(t, `"message":"ready"`)
	h.waitForLog(t, `"message":"warming"`)
	assert.Contains(t, h.logs.String(), `"stream":"stderr"`)
}

func TestFixedArgumentsAndEnvironment(t *testing.T) {
	h := newHarness(t, "args", nil)
	require.NoError(t, h.sup.Start(context.Background()))

	h.waitForLog(t, "args: --workingDirectory /w --dataDirectory /d --http 127.0.0.1:3456")
	h.waitForLog(t, "env: NODE_ENV=production")
}

func TestUnexpectedExitNotifies(t *testing.T) {
	h := newHarness(t, "crash", nil)
	require.NoError(t, h.sup.Start(context.Background()))

	waitDone(t, h.sup)

	assert.Equal(t, []string{"Backend process exited with code 3"}, h.notifier.Messages())
	rec := h.sup.Record()
	assert.True(t, rec.Exited)
	assert.Equal(t, 3, rec.ExitCode)
	assert.Equal(t, StateStopped, h.sup.State())
	assert.Contains(t, h.logs.String(), "boom")
}

func TestCleanExitDoesNotNotify(t *testing.T) {
	h := newHarness(t, "clean", nil)
	require.NoError(t, h.sup.Start(context.Background()))

	waitDone(t, h.sup)

	assert.Empty(t, h.notifier.Messages())
	assert.Equal(t, 0, h.sup.Record().ExitCode)
	assert.Contains(t, h.logs.String(), "done without newline")
}

func TestShutdownWhenNotStarted(t *testing.T) {
	h := newHarness(t, "serve", nil)
	assert.NoError(t, h.sup.Shutdown(context.Background()))
	assert.Equal(t, StateStopped, h.sup.State())
}

func TestShutdownAfterTimeoutIsBounded(t *testing.T) {
	s := New(Options{
		GracePeriod: 100 * time.Millisecond,
		KillWait:    100 * time.Millisecond,
		Logger:      zerolog.Nop(),
	})
	// A previous Shutdown gave up while the process never exited.
	s.launched = true
	s.state = StateStopping

	start := time.Now()
	err := s.Shutdown(context.Background())
	assert.ErrorIs(t, err, ErrShutdownTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, StateStopping, s.State())
}

func TestLineWriter(t *testing.T) {
	var buf bytes.Buffer
	w := newLineWriter(zerolog.New(&buf), "stdout", zerolog.InfoLevel)

	_, _ = w.Write([]byte("first li"))
	_, _ = w.Write([]byte("ne\r\nsecond\n\npartial"))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), `"message":"first line"`)
	assert.Contains(t, buf.String(), `"message":"second"`)

	w.Flush()
	assert.Contains(t, buf.String(), `"message":"partial"`)
	assert.Equal(t, 3, strings.Count(buf.String(), `"stream":"stdout"`))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "starting", StateStarting.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "stopping", StateStopping.String())
}
