//go:build darwin

package priority

import (
	"golang.org/x/sys/unix"
)

// Renice sets pid's nice value through setpriority(2).
func (p *Priority) Renice(pid, nice int) error {
	return unix.Setpriority(unix.PRIO_PROCESS, pid, nice)
}
