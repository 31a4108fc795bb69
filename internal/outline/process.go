package outline

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// child is a spawned helper: the process handle and the write end of its
// stdin pipe travel together and are released together.
type child struct {
	pid    int
	stdin  *os.File
	kill   func() error
	exited chan struct{}
}

// hasExited reports whether the reaper observed the process exit.
func (c *child) hasExited() bool {
	select {
	case <-c.exited:
		return true
	default:
	}
	return false
}

// spawnHelper starts the helper with stdin attached to a pipe we own and
// stdout/stderr discarded. The read end is handed to the child directly so
// writes on our end can carry deadlines.
func spawnHelper(path string, args []string) (*child, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create helper stdin pipe: %w", err)
	}

	cmd := exec.Command(path, args...)
	cmd.Stdin = r
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = helperSysProcAttr()

	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		return nil, fmt.Errorf("failed to start helper %s: %w", path, err)
	}
	// The child holds its own copy of the read end.
	r.Close()

	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()

	proc := cmd.Process
	return &child{
		pid:    proc.Pid,
		stdin:  w,
		kill:   func() error { return killHelper(proc) },
		exited: exited,
	}, nil
}

// SweepMode controls the by-name termination sweep performed after a kill.
type SweepMode string

const (
	SweepAuto   SweepMode = "auto"
	SweepAlways SweepMode = "always"
	SweepNever  SweepMode = "never"
)

// Enabled resolves the mode for the running OS. Process groups are reliable
// on Linux; macOS helpers have been observed to outlive their group.
func (m SweepMode) Enabled() bool {
	switch m {
	case SweepAlways:
		return true
	case SweepNever:
		return false
	default:
		return runtime.GOOS == "darwin"
	}
}

// ParseSweepMode validates a configured sweep mode.
func ParseSweepMode(s string) (SweepMode, error) {
	switch SweepMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", SweepAuto:
		return SweepAuto, nil
	case SweepAlways:
		return SweepAlways, nil
	case SweepNever:
		return SweepNever, nil
	default:
		return "", fmt.Errorf("sweep must be one of: auto, always, never")
	}
}

// sweepByName kills any process whose command line mentions name.
// pkill exits 1 when nothing matched, which is not an error here.
func sweepByName(name string) error {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	pkill, err := exec.LookPath("pkill")
	if err != nil {
		return fmt.Errorf("pkill not available: %w", err)
	}
	err = exec.Command(pkill, "-f", name).Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return nil
	}
	return err
}
