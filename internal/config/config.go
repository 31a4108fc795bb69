package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/skygen/skydesk/internal/outline"
	"github.com/skygen/skydesk/internal/platform"
)

const (
	DefaultHotkey          = "Mod1-space"
	DefaultMainWindowTitle = "SkyDesk"
	DefaultPanelWidth      = 720
	DefaultPanelHeight     = 120
	DefaultDimOpacity      = 0.35
	DefaultOutlineColor    = "#FF4D4F"
	DefaultHelperName      = "outline-helper"
	DefaultRelativePath    = "bin/outline-helper"

	// DefaultInstallRelativePath is relative to the install root (the parent of
	// the executable's directory).
	DefaultInstallRelativePath = "libexec/skydesk/outline-helper"
	DefaultWriteTimeoutMs      = 2000
	DefaultKillTimeoutMs       = 2000
	DefaultPython              = "python3"
	DefaultAuthTimeoutSeconds  = 60
	DefaultLogLevel            = "info"
	DefaultReconcileSeconds    = 5
	DefaultPaletteBackend      = "auto"
)

// PaletteBackends lists the accepted palette.backend values.
var PaletteBackends = []string{"auto", "rofi", "fuzzel", "wofi", "dmenu"}

// PanelConfig sizes the overlay panel.
type PanelConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// DimConfig configures the full-screen dim layer.
type DimConfig struct {
	Opacity float64 `yaml:"opacity"`
}

// OutlineConfig configures helper discovery and supervision.
type OutlineConfig struct {
	// HelperPath is an explicit helper executable; OUTLINE_HELPER_PATH wins.
	HelperPath          string `yaml:"helper_path,omitempty"`
	HelperName          string `yaml:"helper_name"`
	RelativePath        string `yaml:"relative_path"`
	InstallRelativePath string `yaml:"install_relative_path"`
	DefaultColor        string `yaml:"default_color"`
	// Sweep is "auto", "always" or "never".
	Sweep          string `yaml:"sweep"`
	WriteTimeoutMs int    `yaml:"write_timeout_ms"`
	KillTimeoutMs  int    `yaml:"kill_timeout_ms"`
}

// AuthConfig locates the external auth script.
type AuthConfig struct {
	Python         string `yaml:"python"`
	Script         string `yaml:"script,omitempty"`
	InstallScript  string `yaml:"install_script,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// LoggingConfig configures daemon logging.
type LoggingConfig struct {
	// Level controls logging verbosity: debug, info, warn, error
	Level string `yaml:"level"`
}

// PaletteConfig configures the quick-action launcher.
type PaletteConfig struct {
	Backend string `yaml:"backend"`
	// Hotkey opens the launcher from the daemon; empty disables it.
	Hotkey string `yaml:"hotkey,omitempty"`
}

// Config is the effective daemon configuration.
type Config struct {
	Hotkey          string        `yaml:"hotkey"`
	MainWindowTitle string        `yaml:"main_window_title"`
	Panel           PanelConfig   `yaml:"panel"`
	Dim             DimConfig     `yaml:"dim"`
	Outline         OutlineConfig `yaml:"outline"`
	Auth            AuthConfig    `yaml:"auth"`
	Logging         LoggingConfig `yaml:"logging"`
	Palette         PaletteConfig `yaml:"palette"`

	ReconcileIntervalSeconds int `yaml:"reconcile_interval_seconds"`

	// Display is "" for $DISPLAY, "headless" for the in-memory backend, or an
	// X display name such as ":1".
	Display string `yaml:"display,omitempty"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Hotkey:          DefaultHotkey,
		MainWindowTitle: DefaultMainWindowTitle,
		Panel: PanelConfig{
			Width:  DefaultPanelWidth,
			Height: DefaultPanelHeight,
		},
		Dim: DimConfig{Opacity: DefaultDimOpacity},
		Outline: OutlineConfig{
			HelperName:          DefaultHelperName,
			RelativePath:        DefaultRelativePath,
			InstallRelativePath: DefaultInstallRelativePath,
			DefaultColor:        DefaultOutlineColor,
			Sweep:               string(outline.SweepAuto),
			WriteTimeoutMs:      DefaultWriteTimeoutMs,
			KillTimeoutMs:       DefaultKillTimeoutMs,
		},
		Auth: AuthConfig{
			Python:         DefaultPython,
			TimeoutSeconds: DefaultAuthTimeoutSeconds,
		},
		Logging:                  LoggingConfig{Level: DefaultLogLevel},
		Palette:                  PaletteConfig{Backend: DefaultPaletteBackend},
		ReconcileIntervalSeconds: DefaultReconcileSeconds,
	}
}

// WriteTimeout is the bounded wait for one helper stdin write.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Outline.WriteTimeoutMs) * time.Millisecond
}

// KillTimeout is the bounded wait for a killed helper to exit.
func (c *Config) KillTimeout() time.Duration {
	return time.Duration(c.Outline.KillTimeoutMs) * time.Millisecond
}

func (c *Config) AuthTimeout() time.Duration {
	return time.Duration(c.Auth.TimeoutSeconds) * time.Second
}

func (c *Config) ReconcileInterval() time.Duration {
	return time.Duration(c.ReconcileIntervalSeconds) * time.Second
}

// HelperPath returns the explicit helper path, preferring OUTLINE_HELPER_PATH.
func (c *Config) HelperPath() string {
	if env := strings.TrimSpace(os.Getenv(outline.HelperPathEnv)); env != "" {
		return env
	}
	return c.Outline.HelperPath
}

// SweepMode returns the parsed sweep mode. Validate guarantees it parses.
func (c *Config) SweepMode() outline.SweepMode {
	mode, err := outline.ParseSweepMode(c.Outline.Sweep)
	if err != nil {
		return outline.SweepAuto
	}
	return mode
}

// Save writes the configuration to the standard location.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the effective configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Hotkey) == "" {
		return &ValidationError{Path: "hotkey", Err: fmt.Errorf("must not be empty")}
	}
	if c.Panel.Width <= 0 {
		return &ValidationError{Path: "panel.width", Err: fmt.Errorf("must be > 0 (got %d)", c.Panel.Width)}
	}
	if c.Panel.Height <= 0 {
		return &ValidationError{Path: "panel.height", Err: fmt.Errorf("must be > 0 (got %d)", c.Panel.Height)}
	}
	if c.Dim.Opacity <= 0 || c.Dim.Opacity > 1 {
		return &ValidationError{Path: "dim.opacity", Err: fmt.Errorf("must be in (0, 1] (got %g)", c.Dim.Opacity)}
	}
	if strings.TrimSpace(c.Outline.HelperName) == "" {
		return &ValidationError{Path: "outline.helper_name", Err: fmt.Errorf("must not be empty")}
	}
	if strings.TrimSpace(c.Outline.DefaultColor) == "" {
		return &ValidationError{Path: "outline.default_color", Err: fmt.Errorf("must not be empty")}
	}
	if _, err := outline.ParseColor(c.Outline.DefaultColor); err != nil {
		return &ValidationError{Path: "outline.default_color", Err: err}
	}
	if _, err := outline.ParseSweepMode(c.Outline.Sweep); err != nil {
		return &ValidationError{Path: "outline.sweep", Err: err}
	}
	if c.Outline.WriteTimeoutMs <= 0 {
		return &ValidationError{Path: "outline.write_timeout_ms", Err: fmt.Errorf("must be > 0 (got %d)", c.Outline.WriteTimeoutMs)}
	}
	if c.Outline.KillTimeoutMs <= 0 {
		return &ValidationError{Path: "outline.kill_timeout_ms", Err: fmt.Errorf("must be > 0 (got %d)", c.Outline.KillTimeoutMs)}
	}
	if strings.TrimSpace(c.Auth.Python) == "" {
		return &ValidationError{Path: "auth.python", Err: fmt.Errorf("must not be empty")}
	}
	if c.Auth.TimeoutSeconds <= 0 {
		return &ValidationError{Path: "auth.timeout_seconds", Err: fmt.Errorf("must be > 0 (got %d)", c.Auth.TimeoutSeconds)}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "logging.level", Err: fmt.Errorf("must be one of debug, info, warn, error (got %q)", c.Logging.Level)}
	}
	if !slices.Contains(PaletteBackends, strings.ToLower(c.Palette.Backend)) {
		return &ValidationError{Path: "palette.backend", Err: fmt.Errorf("must be one of %s (got %q)", strings.Join(PaletteBackends, ", "), c.Palette.Backend)}
	}
	if c.ReconcileIntervalSeconds <= 0 {
		return &ValidationError{Path: "reconcile_interval_seconds", Err: fmt.Errorf("must be > 0 (got %d)", c.ReconcileIntervalSeconds)}
	}
	if c.Display != "" && c.Display != platform.HeadlessDisplay && !strings.Contains(c.Display, ":") {
		return &ValidationError{Path: "display", Err: fmt.Errorf("must be empty, %q, or an X display like \":0\" (got %q)", platform.HeadlessDisplay, c.Display)}
	}
	return nil
}
