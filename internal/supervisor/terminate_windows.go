//go:build windows

package supervisor

import "os"

// terminate kills the process: Windows has no SIGTERM to deliver to a console
// child, so the grace period only bounds the wait for exit.
func terminate(p *os.Process) error {
	return p.Kill()
}

func exitSignal(ps *os.ProcessState) string {
	return ""
}
