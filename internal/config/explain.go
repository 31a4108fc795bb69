package config

import (
	"fmt"
	"strings"
)

var explainPaths = map[string]func(*Config) any{
	"hotkey":                        func(c *Config) any { return c.Hotkey },
	"main_window_title":             func(c *Config) any { return c.MainWindowTitle },
	"panel":                         func(c *Config) any { return c.Panel },
	"panel.width":                   func(c *Config) any { return c.Panel.Width },
	"panel.height":                  func(c *Config) any { return c.Panel.Height },
	"dim":                           func(c *Config) any { return c.Dim },
	"dim.opacity":                   func(c *Config) any { return c.Dim.Opacity },
	"outline":                       func(c *Config) any { return c.Outline },
	"outline.helper_path":           func(c *Config) any { return c.HelperPath() },
	"outline.helper_name":           func(c *Config) any { return c.Outline.HelperName },
	"outline.relative_path":         func(c *Config) any { return c.Outline.RelativePath },
	"outline.install_relative_path": func(c *Config) any { return c.Outline.InstallRelativePath },
	"outline.default_color":         func(c *Config) any { return c.Outline.DefaultColor },
	"outline.sweep":                 func(c *Config) any { return c.Outline.Sweep },
	"outline.write_timeout_ms":      func(c *Config) any { return c.Outline.WriteTimeoutMs },
	"outline.kill_timeout_ms":       func(c *Config) any { return c.Outline.KillTimeoutMs },
	"auth":                          func(c *Config) any { return c.Auth },
	"auth.python":                   func(c *Config) any { return c.Auth.Python },
	"auth.script":                   func(c *Config) any { return c.Auth.Script },
	"auth.install_script":           func(c *Config) any { return c.Auth.InstallScript },
	"auth.timeout_seconds":          func(c *Config) any { return c.Auth.TimeoutSeconds },
	"logging":                       func(c *Config) any { return c.Logging },
	"logging.level":                 func(c *Config) any { return c.Logging.Level },
	"palette":                       func(c *Config) any { return c.Palette },
	"palette.backend":               func(c *Config) any { return c.Palette.Backend },
	"palette.hotkey":                func(c *Config) any { return c.Palette.Hotkey },
	"reconcile_interval_seconds":    func(c *Config) any { return c.ReconcileIntervalSeconds },
	"display":                       func(c *Config) any { return c.Display },
}

// ExplainPaths lists every path Explain accepts, sorted.
func ExplainPaths() []string {
	return sortedKeys(explainPaths)
}

// Explain returns the effective value at the given YAML-like path and its
// source: the file that last set it, the environment, or the defaults.
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	get, ok := explainPaths[path]
	if !ok {
		return nil, Source{}, fmt.Errorf("unknown path: %s", path)
	}
	value := get(res.Config)

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

// String renders a source for CLI output.
func (s Source) String() string {
	switch s.Kind {
	case SourceFile:
		return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
	case SourceEnv:
		return "$" + s.Name
	default:
		return string(s.Kind)
	}
}
