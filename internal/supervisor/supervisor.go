// Package supervisor runs the backend as a single child process: it spawns it
// once, forwards its output to the log, reports failures to the window and
// stops it with a bounded terminate-then-kill sequence.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultGracePeriod is the wait between the termination signal and Kill.
	DefaultGracePeriod = 5 * time.Second
	// DefaultKillWait bounds the wait for exit after Kill.
	DefaultKillWait = 2 * time.Second
	// outputWaitDelay bounds how long Wait keeps copying output after exit,
	// in case a grandchild still holds the pipes.
	outputWaitDelay = time.Second
)

// Notifier receives backend failures meant for the user.
type Notifier interface {
	BackendError(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// BackendError implements Notifier.
func (f NotifierFunc) BackendError(message string) { f(message) }

// Options configures a Supervisor.
type Options struct {
	// Command is the program to run, e.g. "node" or the backend binary.
	Command string
	// Script, when set, is passed as the first argument and must exist.
	Script string
	// Args are the fixed backend arguments appended after Script.
	Args []string
	// Env entries are appended to the host environment and NODE_ENV=production.
	Env []string
	// Listen is the backend host:port, used for the port pre-check.
	Listen string

	GracePeriod time.Duration
	KillWait    time.Duration

	Notifier Notifier
	Logger   zerolog.Logger
}

// Supervisor owns the backend child process.
type Supervisor struct {
	opts Options
	log  zerolog.Logger

	mu       sync.Mutex
	state    State
	launched bool
	cmd      *exec.Cmd
	record   ProcessRecord
	done     chan struct{}
}

// New creates a stopped supervisor.
func New(opts Options) *Supervisor {
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	if opts.KillWait <= 0 {
		opts.KillWait = DefaultKillWait
	}
	return &Supervisor{
		opts: opts,
		log:  opts.Logger,
		done: make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Record returns a copy of the process record.
func (s *Supervisor) Record() ProcessRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record
}

// Done is closed once the backend has exited or failed to start.
func (s *Supervisor) Done() <-chan struct{} {
	return s.done
}

// Start launches the backend. It runs at most once per supervisor; a failure is
// reported once through the Notifier and returned for logging, and the caller
// is expected to keep running.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.launched {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.launched = true
	s.state = StateStarting
	s.mu.Unlock()

	cmd, stdout, stderr, err := s.prepare(ctx)
	if err == nil {
		err = cmd.Start()
		if err != nil {
			err = fmt.Errorf("failed to spawn backend: %w", err)
		}
	}
	if err != nil {
		s.mu.Lock()
		s.state = StateStopped
		s.mu.Unlock()
		s.log.Error().Err(err).Msg("Backend failed to start")
		s.notify(fmt.Sprintf("Failed to start backend: %v", err))
		close(s.done)
		return err
	}

	s.mu.Lock()
	s.cmd = cmd
	s.record = ProcessRecord{
		RunID:     uuid.NewString(),
		PID:       cmd.Process.Pid,
		StartedAt: time.Now(),
	}
	s.state = StateRunning
	record := s.record
	s.mu.Unlock()

	s.log.Info().Int("pid", record.PID).Str("run_id", record.RunID).Msg("Backend started")

	go s.wait(cmd, stdout, stderr)
	return nil
}

// prepare resolves the program and builds the command.
func (s *Supervisor) prepare(ctx context.Context) (*exec.Cmd, *lineWriter, *lineWriter, error) {
	var args []string
	program := s.opts.Command

	if s.opts.Script != "" {
		if _, err := os.Stat(s.opts.Script); err != nil {
			return nil, nil, nil, fmt.Errorf("%w at %s", ErrBackendNotFound, s.opts.Script)
		}
		args = append(args, s.opts.Script)
	}
	path, err := exec.LookPath(program)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %s: %v", ErrBackendNotFound, program, err)
	}
	args = append(args, s.opts.Args...)

	s.checkPort(ctx)

	cmd := exec.Command(path, args...)
	cmd.Env = append(os.Environ(), "NODE_ENV=production")
	cmd.Env = append(cmd.Env, s.opts.Env...)

	backendLog := s.log.With().Str("source", "backend").Logger()
	stdout := newLineWriter(backendLog, "stdout", zerolog.InfoLevel)
	stderr := newLineWriter(backendLog, "stderr", zerolog.WarnLevel)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = outputWaitDelay

	s.log.Debug().Str("command", path).Strs("args", args).Msg("Spawning backend")
	return cmd, stdout, stderr, nil
}

// checkPort warns when something already listens on the backend port.
func (s *Supervisor) checkPort(ctx context.Context) {
	port, ok := portOf(s.opts.Listen)
	if !ok {
		return
	}
	pid, err := CheckPortOccupied(ctx, port)
	if err != nil {
		s.log.Debug().Err(err).Int("port", port).Msg("Port check failed")
		return
	}
	if pid != -1 {
		s.log.Warn().Int("port", port).Int("owner_pid", pid).Msg("Backend port already in use")
	}
}

// wait reaps the child and records how it ended.
func (s *Supervisor) wait(cmd *exec.Cmd, stdout, stderr *lineWriter) {
	err := cmd.Wait()
	stdout.Flush()
	stderr.Flush()

	code := -1
	sig := ""
	if cmd.ProcessState != nil {
		code = cmd.ProcessState.ExitCode()
		sig = exitSignal(cmd.ProcessState)
	}

	s.mu.Lock()
	stopping := s.state == StateStopping
	s.record.Exited = true
	s.record.ExitCode = code
	s.record.Signal = sig
	s.state = StateStopped
	s.cmd = nil
	s.mu.Unlock()

	event := s.log.Info()
	if err != nil && !stopping {
		event = s.log.Warn().Err(err)
	}
	event.Int("code", code).Str("signal", sig).Msg("Backend exited")

	if code != 0 && code != -1 && !stopping {
		s.notify(fmt.Sprintf("Backend process exited with code %d", code))
	}
	close(s.done)
}

// Shutdown stops the backend: termination signal, grace period, then Kill.
// It returns once the process is gone or the kill wait has also elapsed.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.state == StateStopping:
		s.mu.Unlock()
		return s.awaitStop(ctx)
	case s.state != StateRunning || s.cmd == nil:
		s.mu.Unlock()
		return nil
	}
	s.state = StateStopping
	proc := s.cmd.Process
	s.mu.Unlock()

	s.log.Info().Int("pid", proc.Pid).Dur("grace", s.opts.GracePeriod).Msg("Stopping backend")
	if err := terminate(proc); err != nil && !errors.Is(err, os.ErrProcessDone) {
		s.log.Warn().Err(err).Msg("Failed to signal backend")
	}

	grace := time.NewTimer(s.opts.GracePeriod)
	defer grace.Stop()

	select {
	case <-s.done:
		s.log.Info().Msg("Backend stopped")
		return nil
	case <-grace.C:
		s.log.Warn().Msg("Backend did not exit within grace period, force killing")
	case <-ctx.Done():
		s.log.Warn().Msg("Shutdown deadline reached, force killing backend")
	}

	if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		s.log.Error().Err(err).Msg("Failed to kill backend")
	}

	killWait := time.NewTimer(s.opts.KillWait)
	defer killWait.Stop()

	select {
	case <-s.done:
		s.log.Info().Msg("Backend killed")
		return nil
	case <-killWait.C:
		return ErrShutdownTimeout
	}
}

// awaitStop waits for a shutdown already in progress, or one that gave up
// after the kill wait, for at most one full terminate-then-kill sequence.
func (s *Supervisor) awaitStop(ctx context.Context) error {
	bound := time.NewTimer(s.opts.GracePeriod + s.opts.KillWait)
	defer bound.Stop()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return nil
	case <-bound.C:
		return ErrShutdownTimeout
	}
}

func (s *Supervisor) notify(message string) {
	if s.opts.Notifier != nil {
		s.opts.Notifier.BackendError(message)
	}
}
