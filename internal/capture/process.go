package capture

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// spawnDetached starts the recorder with stdio discarded, in its own
// process group, and returns its pid. The group split matters: a Ctrl+C
// aimed at the daemon's terminal signals the whole foreground group, and
// a background recording must survive it. The child is reaped in the
// background so a recorder that exits on its own doesn't linger as a
// zombie.
func spawnDetached(bin string, args []string) (int, error) {
	cmd := exec.Command(bin, args...)
	cmd.SysProcAttr = detachedAttr()
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("capture: spawn %s: %w", bin, err)
	}
	pid := cmd.Process.Pid
	go cmd.Wait()
	return pid, nil
}

// stopPID asks the recorder to terminate: SIGTERM on unix so ffmpeg gets
// to finalize the container, taskkill on Windows.
func stopPID(goos string, pid int) error {
	var cmd *exec.Cmd
	if goos == "windows" {
		cmd = exec.Command("taskkill", "/PID", strconv.Itoa(pid), "/F")
	} else {
		cmd = exec.Command("kill", "-TERM", strconv.Itoa(pid))
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("capture: stop pid %d: %w", pid, err)
	}
	return nil
}

// pidAlive probes whether the process still exists.
func pidAlive(goos string, pid int) bool {
	if goos == "windows" {
		out, err := exec.Command("tasklist", "/FI", fmt.Sprintf("PID eq %d", pid)).Output()
		if err != nil {
			return false
		}
		return strings.Contains(string(out), strconv.Itoa(pid))
	}
	return exec.Command("kill", "-0", strconv.Itoa(pid)).Run() == nil
}
