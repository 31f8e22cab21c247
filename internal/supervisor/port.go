package supervisor

import (
	"context"
	"fmt"
	"net"
	"strconv"

	psnet "github.com/shirou/gopsutil/v3/net"
)

// CheckPortOccupied returns the PID listening on the TCP port, 0 when a
// listener exists but its owner cannot be read, or -1 when the port is free.
func CheckPortOccupied(ctx context.Context, port int) (int, error) {
	conns, err := psnet.ConnectionsWithContext(ctx, "tcp")
	if err != nil {
		return -1, fmt.Errorf("failed to list connections: %w", err)
	}
	for _, c := range conns {
		if c.Status == "LISTEN" && int(c.Laddr.Port) == port {
			return int(c.Pid), nil
		}
	}
	return -1, nil
}

func portOf(addr string) (int, bool) {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, false
	}
	port, err := strconv.Atoi(p)
	if err != nil || port <= 0 {
		return 0, false
	}
	return port, true
}
