//go:build !unix

package outline

import (
	"errors"
	"os"
	"syscall"
)

func helperSysProcAttr() *syscall.SysProcAttr {
	return nil
}

func killHelper(proc *os.Process) error {
	if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}
