package supervisor

import "time"

// State is the supervisor lifecycle position.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// ProcessRecord describes the backend child of this lifetime.
type ProcessRecord struct {
	RunID     string
	PID       int
	StartedAt time.Time
	Exited    bool
	// ExitCode is -1 when the process was terminated by a signal.
	ExitCode int
	Signal   string
}
