//go:build unix

package outline

import (
	"errors"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// helperSysProcAttr puts the helper in its own process group so a kill
// reaches anything it forked.
func helperSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

func killHelper(proc *os.Process) error {
	err := unix.Kill(-proc.Pid, unix.SIGKILL)
	if err == nil || errors.Is(err, unix.ESRCH) {
		return nil
	}
	// Fall back to the process itself if the group signal was refused.
	if kerr := proc.Kill(); kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
		return kerr
	}
	return nil
}
