package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawPanel struct {
	Width  *int `yaml:"width"`
	Height *int `yaml:"height"`
}

type RawDim struct {
	Opacity *float64 `yaml:"opacity"`
}

type RawOutline struct {
	HelperPath          *string `yaml:"helper_path"`
	HelperName          *string `yaml:"helper_name"`
	RelativePath        *string `yaml:"relative_path"`
	InstallRelativePath *string `yaml:"install_relative_path"`
	DefaultColor        *string `yaml:"default_color"`
	Sweep               *string `yaml:"sweep"`
	WriteTimeoutMs      *int    `yaml:"write_timeout_ms"`
	KillTimeoutMs       *int    `yaml:"kill_timeout_ms"`
}

type RawAuth struct {
	Python         *string `yaml:"python"`
	Script         *string `yaml:"script"`
	InstallScript  *string `yaml:"install_script"`
	TimeoutSeconds *int    `yaml:"timeout_seconds"`
}

type RawLogging struct {
	Level *string `yaml:"level"`
}

type RawPalette struct {
	Backend *string `yaml:"backend"`
	Hotkey  *string `yaml:"hotkey"`
}

// RawConfig mirrors the YAML file. Nil fields were not set and keep their
// defaults.
type RawConfig struct {
	Include                  IncludeList `yaml:"include"`
	Hotkey                   *string     `yaml:"hotkey"`
	MainWindowTitle          *string     `yaml:"main_window_title"`
	Panel                    *RawPanel   `yaml:"panel"`
	Dim                      *RawDim     `yaml:"dim"`
	Outline                  *RawOutline `yaml:"outline"`
	Auth                     *RawAuth    `yaml:"auth"`
	Logging                  *RawLogging `yaml:"logging"`
	Palette                  *RawPalette `yaml:"palette"`
	ReconcileIntervalSeconds *int        `yaml:"reconcile_interval_seconds"`
	Display                  *string     `yaml:"display"`
}

// merge returns c with every field set in overlay replacing c's value.
func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c
	out.Include = nil

	setString(&out.Hotkey, overlay.Hotkey)
	setString(&out.MainWindowTitle, overlay.MainWindowTitle)
	setInt(&out.ReconcileIntervalSeconds, overlay.ReconcileIntervalSeconds)
	setString(&out.Display, overlay.Display)

	if overlay.Panel != nil {
		p := RawPanel{}
		if out.Panel != nil {
			p = *out.Panel
		}
		setInt(&p.Width, overlay.Panel.Width)
		setInt(&p.Height, overlay.Panel.Height)
		out.Panel = &p
	}
	if overlay.Dim != nil {
		d := RawDim{}
		if out.Dim != nil {
			d = *out.Dim
		}
		if overlay.Dim.Opacity != nil {
			v := *overlay.Dim.Opacity
			d.Opacity = &v
		}
		out.Dim = &d
	}
	if overlay.Outline != nil {
		o := RawOutline{}
		if out.Outline != nil {
			o = *out.Outline
		}
		setString(&o.HelperPath, overlay.Outline.HelperPath)
		setString(&o.HelperName, overlay.Outline.HelperName)
		setString(&o.RelativePath, overlay.Outline.RelativePath)
		setString(&o.InstallRelativePath, overlay.Outline.InstallRelativePath)
		setString(&o.DefaultColor, overlay.Outline.DefaultColor)
		setString(&o.Sweep, overlay.Outline.Sweep)
		setInt(&o.WriteTimeoutMs, overlay.Outline.WriteTimeoutMs)
		setInt(&o.KillTimeoutMs, overlay.Outline.KillTimeoutMs)
		out.Outline = &o
	}
	if overlay.Auth != nil {
		a := RawAuth{}
		if out.Auth != nil {
			a = *out.Auth
		}
		setString(&a.Python, overlay.Auth.Python)
		setString(&a.Script, overlay.Auth.Script)
		setString(&a.InstallScript, overlay.Auth.InstallScript)
		setInt(&a.TimeoutSeconds, overlay.Auth.TimeoutSeconds)
		out.Auth = &a
	}
	if overlay.Logging != nil {
		l := RawLogging{}
		if out.Logging != nil {
			l = *out.Logging
		}
		setString(&l.Level, overlay.Logging.Level)
		out.Logging = &l
	}
	if overlay.Palette != nil {
		p := RawPalette{}
		if out.Palette != nil {
			p = *out.Palette
		}
		setString(&p.Backend, overlay.Palette.Backend)
		setString(&p.Hotkey, overlay.Palette.Hotkey)
		out.Palette = &p
	}
	return out
}

func setString(dst **string, src *string) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func setInt(dst **int, src *int) {
	if src != nil {
		v := *src
		*dst = &v
	}
}
