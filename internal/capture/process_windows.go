//go:build windows

package capture

import "syscall"

// detachedAttr gives the recorder its own console process group, so a
// Ctrl+C in the daemon's console never reaches it.
func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
		HideWindow:    true,
	}
}
