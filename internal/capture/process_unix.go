//go:build unix

package capture

import "syscall"

// detachedAttr puts the recorder in its own session, so terminal signals
// delivered to the daemon's process group never reach it.
func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
