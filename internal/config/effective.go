package config

import (
	"fmt"
	"sort"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BuildEffectiveConfig applies the set fields of raw over DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.Hotkey != nil {
		cfg.Hotkey = *raw.Hotkey
	}
	if raw.MainWindowTitle != nil {
		cfg.MainWindowTitle = *raw.MainWindowTitle
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	cfg.ReconcileIntervalSeconds = derefInt(raw.ReconcileIntervalSeconds, cfg.ReconcileIntervalSeconds)

	if p := raw.Panel; p != nil {
		cfg.Panel.Width = derefInt(p.Width, cfg.Panel.Width)
		cfg.Panel.Height = derefInt(p.Height, cfg.Panel.Height)
	}
	if d := raw.Dim; d != nil && d.Opacity != nil {
		cfg.Dim.Opacity = *d.Opacity
	}
	if o := raw.Outline; o != nil {
		cfg.Outline.HelperPath = derefString(o.HelperPath, cfg.Outline.HelperPath)
		cfg.Outline.HelperName = derefString(o.HelperName, cfg.Outline.HelperName)
		cfg.Outline.RelativePath = derefString(o.RelativePath, cfg.Outline.RelativePath)
		cfg.Outline.InstallRelativePath = derefString(o.InstallRelativePath, cfg.Outline.InstallRelativePath)
		cfg.Outline.DefaultColor = derefString(o.DefaultColor, cfg.Outline.DefaultColor)
		cfg.Outline.Sweep = derefString(o.Sweep, cfg.Outline.Sweep)
		cfg.Outline.WriteTimeoutMs = derefInt(o.WriteTimeoutMs, cfg.Outline.WriteTimeoutMs)
		cfg.Outline.KillTimeoutMs = derefInt(o.KillTimeoutMs, cfg.Outline.KillTimeoutMs)
	}
	if a := raw.Auth; a != nil {
		cfg.Auth.Python = derefString(a.Python, cfg.Auth.Python)
		cfg.Auth.Script = derefString(a.Script, cfg.Auth.Script)
		cfg.Auth.InstallScript = derefString(a.InstallScript, cfg.Auth.InstallScript)
		cfg.Auth.TimeoutSeconds = derefInt(a.TimeoutSeconds, cfg.Auth.TimeoutSeconds)
	}
	if l := raw.Logging; l != nil {
		cfg.Logging.Level = derefString(l.Level, cfg.Logging.Level)
	}
	if p := raw.Palette; p != nil {
		cfg.Palette.Backend = derefString(p.Backend, cfg.Palette.Backend)
		cfg.Palette.Hotkey = derefString(p.Hotkey, cfg.Palette.Hotkey)
	}

	return cfg, nil
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func derefString(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
