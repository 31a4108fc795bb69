package outline

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// HelperPathEnv overrides helper discovery when set.
const HelperPathEnv = "OUTLINE_HELPER_PATH"

// ErrHelperNotFound is returned when no helper candidate exists on disk.
var ErrHelperNotFound = errors.New("outline helper not found")

// Locator resolves the helper executable. Candidates are tried in order:
// explicit override, working-directory relative, install-root relative.
type Locator struct {
	// Override is an explicit path (config or environment).
	Override string
	// RelativePath is joined onto the current working directory.
	RelativePath string
	// InstallRelativePath is joined onto the directory above the running
	// executable's directory.
	InstallRelativePath string
	// Logger receives a warning when the override is skipped. May be nil.
	Logger *slog.Logger

	getwd      func() (string, error)
	executable func() (string, error)
	stat       func(string) (os.FileInfo, error)
}

// NewLocator builds a Locator backed by the real process environment.
func NewLocator(override, relativePath, installRelativePath string) *Locator {
	return &Locator{
		Override:            override,
		RelativePath:        relativePath,
		InstallRelativePath: installRelativePath,
		getwd:               os.Getwd,
		executable:          os.Executable,
		stat:                os.Stat,
	}
}

// Candidates returns the ordered candidate list. Candidates that cannot be
// computed (e.g. no working directory) are omitted.
func (l *Locator) Candidates() []string {
	var out []string
	if p := strings.TrimSpace(l.Override); p != "" {
		out = append(out, p)
	}
	if l.RelativePath != "" && l.getwd != nil {
		if cwd, err := l.getwd(); err == nil {
			out = append(out, filepath.Join(cwd, l.RelativePath))
		}
	}
	if l.InstallRelativePath != "" && l.executable != nil {
		if exe, err := l.executable(); err == nil {
			root := filepath.Dir(filepath.Dir(exe))
			out = append(out, filepath.Join(root, l.InstallRelativePath))
		}
	}
	return out
}

// Resolve returns the first existing candidate.
func (l *Locator) Resolve() (string, error) {
	stat := l.stat
	if stat == nil {
		stat = os.Stat
	}
	candidates := l.Candidates()
	override := strings.TrimSpace(l.Override)
	for _, c := range candidates {
		info, err := stat(c)
		if err != nil || info.IsDir() {
			if c == override && l.Logger != nil {
				reason := "is a directory"
				if err != nil {
					reason = err.Error()
				}
				l.Logger.Warn("configured outline helper path skipped", "path", c, "reason", reason)
			}
			continue
		}
		return c, nil
	}
	return "", fmt.Errorf("%w (searched: %s); build it with `go build -o bin/outline-helper ./cmd/outline-helper` or set %s",
		ErrHelperNotFound, strings.Join(candidates, ", "), HelperPathEnv)
}
