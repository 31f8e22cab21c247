package supervisor

import "errors"

var (
	// ErrAlreadyStarted is returned by a second Start in the same lifetime.
	ErrAlreadyStarted = errors.New("backend already started")

	// ErrBackendNotFound is returned when the script or executable is missing.
	ErrBackendNotFound = errors.New("backend executable not found")

	// ErrShutdownTimeout is returned when the process survives the forced kill wait.
	ErrShutdownTimeout = errors.New("backend did not exit after kill")
)
