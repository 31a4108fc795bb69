package tui

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/skygen/skydesk/internal/config"
	"github.com/skygen/skydesk/internal/outline"
)

// setting is one editable config value. Options turns the input into a
// select; set reports false when the text is not acceptable.
type setting struct {
	title   string
	desc    string
	options []string
	get     func(*config.Config) string
	set     func(*config.Config, string) bool
}

func setText(dst *string, v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	*dst = v
	return true
}

func setPositive(dst *int, v string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return false
	}
	*dst = n
	return true
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

var generalSettings = [][]setting{
	{
		{
			title: "Hotkey", desc: "X11 keybinding that toggles the overlay",
			get: func(c *config.Config) string { return c.Hotkey },
			set: func(c *config.Config, v string) bool { return setText(&c.Hotkey, v) },
		},
		{
			title: "Main Window Title", desc: "Window focused after the overlay is shown",
			get: func(c *config.Config) string { return c.MainWindowTitle },
			set: func(c *config.Config, v string) bool { return setText(&c.MainWindowTitle, v) },
		},
		{
			title: "Panel Width",
			get:   func(c *config.Config) string { return strconv.Itoa(c.Panel.Width) },
			set:   func(c *config.Config, v string) bool { return setPositive(&c.Panel.Width, v) },
		},
		{
			title: "Panel Height",
			get:   func(c *config.Config) string { return strconv.Itoa(c.Panel.Height) },
			set:   func(c *config.Config, v string) bool { return setPositive(&c.Panel.Height, v) },
		},
		{
			title: "Dim Opacity", desc: "0 < opacity <= 1",
			get: func(c *config.Config) string { return formatFloat(c.Dim.Opacity) },
			set: func(c *config.Config, v string) bool {
				f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
				if err != nil || f <= 0 || f > 1 {
					return false
				}
				c.Dim.Opacity = f
				return true
			},
		},
	},
	{
		{
			title: "Default Outline Color",
			get:   func(c *config.Config) string { return c.Outline.DefaultColor },
			set: func(c *config.Config, v string) bool {
				if _, err := outline.ParseColor(v); err != nil {
					return false
				}
				return setText(&c.Outline.DefaultColor, v)
			},
		},
		{
			title: "Helper Sweep", desc: "Kill stray helpers by name after stopping",
			options: []string{"auto", "always", "never"},
			get:     func(c *config.Config) string { return c.Outline.Sweep },
			set:     func(c *config.Config, v string) bool { return setText(&c.Outline.Sweep, v) },
		},
		{
			title: "Palette Launcher", options: config.PaletteBackends,
			get: func(c *config.Config) string { return c.Palette.Backend },
			set: func(c *config.Config, v string) bool { return setText(&c.Palette.Backend, v) },
		},
		{
			title: "Palette Hotkey", desc: "Leave empty to disable",
			get: func(c *config.Config) string { return c.Palette.Hotkey },
			set: func(c *config.Config, v string) bool {
				c.Palette.Hotkey = strings.TrimSpace(v)
				return true
			},
		},
		{
			title: "Log Level", options: []string{"debug", "info", "warn", "error"},
			get: func(c *config.Config) string { return c.Logging.Level },
			set: func(c *config.Config, v string) bool { return setText(&c.Logging.Level, v) },
		},
	},
}

// GeneralTab shows and edits the daemon settings.
type GeneralTab struct {
	cfg           *config.Config
	width, height int

	editing bool
	form    *huh.Form
	// values is bound to the form fields, in generalSettings order.
	values []string
}

// NewGeneralTab creates a GeneralTab over cfg, which may be nil.
func NewGeneralTab(cfg *config.Config) GeneralTab {
	return GeneralTab{cfg: cfg}
}

func (g GeneralTab) Update(msg tea.Msg) (GeneralTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		g.width, g.height = msg.Width, msg.Height
		if !g.editing {
			return g, nil
		}
	case tea.KeyMsg:
		switch {
		case !g.editing && msg.String() == "e" && g.cfg != nil:
			g.startEditing()
			return g, g.form.Init()
		case g.editing && msg.String() == "esc":
			g.editing, g.form = false, nil
			return g, nil
		}
	}
	if !g.editing {
		return g, nil
	}

	form, cmd := g.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		g.form = f
	}
	if g.form.State == huh.StateCompleted {
		g.applyForm()
		g.editing, g.form = false, nil
		return g, nil
	}
	return g, cmd
}

func (g *GeneralTab) startEditing() {
	g.values = nil
	for _, group := range generalSettings {
		for _, s := range group {
			g.values = append(g.values, s.get(g.cfg))
		}
	}

	var groups []*huh.Group
	i := 0
	for _, group := range generalSettings {
		var fields []huh.Field
		for _, s := range group {
			if s.options != nil {
				fields = append(fields, huh.NewSelect[string]().
					Title(s.title).Description(s.desc).
					Options(huh.NewOptions(s.options...)...).
					Value(&g.values[i]))
			} else {
				fields = append(fields, huh.NewInput().
					Title(s.title).Description(s.desc).
					Value(&g.values[i]))
			}
			i++
		}
		groups = append(groups, huh.NewGroup(fields...))
	}

	g.form = huh.NewForm(groups...).
		WithWidth(max(g.width-4, 40)).
		WithShowHelp(true).
		WithShowErrors(true)
	g.editing = true
}

// applyForm writes accepted values into the config. Rejected values keep
// the previous setting.
func (g *GeneralTab) applyForm() {
	if g.cfg == nil {
		return
	}
	i := 0
	for _, group := range generalSettings {
		for _, s := range group {
			s.set(g.cfg, g.values[i])
			i++
		}
	}
}

func (g GeneralTab) View() string {
	box := lipgloss.NewStyle().Width(g.width).Height(g.height).Padding(1, 2)
	if g.editing && g.form != nil {
		header := lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true).
			Render("Editing General Settings") + hintStyle.Render("  (esc to cancel)")
		return box.Render(header + "\n\n" + g.form.View())
	}
	if g.cfg == nil {
		return box.Align(lipgloss.Center, lipgloss.Center).Render(hintStyle.Render("No config loaded"))
	}

	var b strings.Builder
	for _, group := range generalSettings {
		for _, s := range group {
			b.WriteString(row(s.title, displayOrDefault(s.get(g.cfg), "(none)")) + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(row("Helper", displayOrDefault(g.cfg.HelperPath(), "(search)")) + "\n")
	b.WriteString(row("Display", displayOrDefault(g.cfg.Display, "$DISPLAY")) + "\n\n")
	b.WriteString(hintStyle.Render("  Press 'e' to edit settings"))
	return box.Render(b.String())
}
