package outline

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLocator(override string, existing map[string]bool) *Locator {
	l := NewLocator(override, "bin/outline-helper", "libexec/outline-helper")
	l.getwd = func() (string, error) { return "/work", nil }
	l.executable = func() (string, error) { return "/opt/skydesk/bin/skydesk", nil }
	l.stat = func(p string) (os.FileInfo, error) {
		if existing[p] {
			return fakeFileInfo{}, nil
		}
		return nil, os.ErrNotExist
	}
	return l
}

type fakeFileInfo struct{ os.FileInfo }

func (fakeFileInfo) IsDir() bool { return false }

func TestLocatorCandidateOrder(t *testing.T) {
	l := testLocator("/custom/helper", nil)
	assert.Equal(t, []string{
		"/custom/helper",
		filepath.Join("/work", "bin/outline-helper"),
		filepath.Join("/opt/skydesk", "libexec/outline-helper"),
	}, l.Candidates())
}

func TestLocatorResolvePrefersEarlierCandidates(t *testing.T) {
	cwdPath := filepath.Join("/work", "bin/outline-helper")
	installPath := filepath.Join("/opt/skydesk", "libexec/outline-helper")

	tests := []struct {
		name     string
		override string
		existing map[string]bool
		want     string
	}{
		{
			name:     "override wins",
			override: "/custom/helper",
			existing: map[string]bool{"/custom/helper": true, cwdPath: true, installPath: true},
			want:     "/custom/helper",
		},
		{
			name:     "missing override falls through",
			override: "/custom/helper",
			existing: map[string]bool{cwdPath: true, installPath: true},
			want:     cwdPath,
		},
		{
			name:     "install root last",
			existing: map[string]bool{installPath: true},
			want:     installPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := testLocator(tt.override, tt.existing).Resolve()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocatorResolveNotFound(t *testing.T) {
	_, err := testLocator("", nil).Resolve()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrHelperNotFound))
	assert.Contains(t, err.Error(), HelperPathEnv)
	assert.Contains(t, err.Error(), "/work")
}

func TestLocatorSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	l := NewLocator(dir, "", "")
	_, err := l.Resolve()
	assert.True(t, errors.Is(err, ErrHelperNotFound))

	file := filepath.Join(dir, "helper")
	require.NoError(t, os.WriteFile(file, []byte("#!/bin/sh\n"), 0o755))
	l.Override = file
	got, err := l.Resolve()
	require.NoError(t, err)
	assert.Equal(t, file, got)
}

func TestLocatorWarnsWhenOverrideSkipped(t *testing.T) {
	cwdPath := filepath.Join("/work", "bin/outline-helper")
	var buf bytes.Buffer

	l := testLocator("/custom/helpr", map[string]bool{cwdPath: true})
	l.Logger = slog.New(slog.NewTextHandler(&buf, nil))
	got, err := l.Resolve()
	require.NoError(t, err)
	assert.Equal(t, cwdPath, got)
	assert.Contains(t, buf.String(), "configured outline helper path skipped")
	assert.Contains(t, buf.String(), "/custom/helpr")

	buf.Reset()
	l = testLocator("", map[string]bool{cwdPath: true})
	l.Logger = slog.New(slog.NewTextHandler(&buf, nil))
	_, err = l.Resolve()
	require.NoError(t, err)
	assert.Empty(t, buf.String(), "no override, nothing to warn about")
}

func TestSupervisorSharesLoggerWithLocator(t *testing.T) {
	var buf bytes.Buffer
	s := NewSupervisor(Options{
		Locator: NewLocator(filepath.Join(t.TempDir(), "missing"), "", ""),
		Logger:  slog.New(slog.NewTextHandler(&buf, nil)),
		Sweep:   SweepNever,
	})

	err := s.Start(StartOptions{Color: "red"})
	assert.True(t, errors.Is(err, ErrHelperNotFound))
	assert.Contains(t, buf.String(), "configured outline helper path skipped")
}
