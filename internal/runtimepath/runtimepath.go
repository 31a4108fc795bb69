// Package runtimepath locates the per-user runtime directory that holds the
// daemon socket.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	// SocketEnv overrides the daemon socket path.
	SocketEnv = "SKYDESK_SOCKET"

	socketName = "skydesk.sock"
)

// Dir returns $XDG_RUNTIME_DIR, else /run/user/<uid> when it exists, else a
// private directory under the system temp dir, created with mode 0700.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir, nil
	}
	uid := strconv.Itoa(os.Getuid())
	if info, err := os.Stat(filepath.Join("/run/user", uid)); err == nil && info.IsDir() {
		return filepath.Join("/run/user", uid), nil
	}
	fallback := filepath.Join(os.TempDir(), "skydesk-runtime-"+uid)
	if err := os.MkdirAll(fallback, 0o700); err != nil {
		return "", fmt.Errorf("create runtime dir: %w", err)
	}
	return fallback, nil
}

// SocketPath returns $SKYDESK_SOCKET or skydesk.sock inside Dir.
func SocketPath() (string, error) {
	if p := os.Getenv(SocketEnv); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, socketName), nil
}
