package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/skygen/skydesk/internal/outline"
)

// ConfigPathEnv overrides the config file location.
const ConfigPathEnv = "SKYDESK_CONFIG"

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
	SourceEnv     SourceKind = "env"
)

// Source records where a config value came from.
type Source struct {
	Kind   SourceKind
	Name   string // env var or "defaults"
	File   string
	Line   int
	Column int
}

// LoadResult is an effective config plus the provenance of each value.
type LoadResult struct {
	Config *Config
	// Sources maps a YAML path to the last file position (or env var) that set it.
	Sources map[string]Source
	// Files lists every file read, includes first.
	Files []string
}

// DefaultConfigPath returns $SKYDESK_CONFIG or ~/.config/skydesk/config.yaml.
func DefaultConfigPath() (string, error) {
	if env := strings.TrimSpace(os.Getenv(ConfigPathEnv)); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate config: %w", err)
	}
	return filepath.Join(home, ".config", "skydesk", "config.yaml"), nil
}

// Load returns the effective config from the default location.
func Load() (*Config, error) {
	res, err := LoadWithSources()
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadWithSources is Load with per-value provenance.
func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads path and its includes. A missing file yields defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	l := newFileLoader()
	_, err := os.Stat(path)
	switch {
	case err == nil:
		if err := l.load(path); err != nil {
			return nil, err
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	if strings.TrimSpace(os.Getenv(outline.HelperPathEnv)) != "" {
		l.sources["outline.helper_path"] = Source{Kind: SourceEnv, Name: outline.HelperPathEnv}
	}

	cfg, err := BuildEffectiveConfig(l.raw)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		return nil, withSource(err, l.sources)
	}
	return &LoadResult{Config: cfg, Sources: l.sources, Files: l.files}, nil
}

// withSource points a ValidationError at the file position of its path.
func withSource(err error, sources map[string]Source) error {
	var verr *ValidationError
	if errors.As(err, &verr) && verr.Path != "" {
		if src, ok := sources[verr.Path]; ok {
			verr.Source = src
		}
	}
	return err
}
