package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/skygen/skydesk/internal/ipc"
)

// OverlayTab drives the overlay panel, dim layer and outline helper.
type OverlayTab struct {
	daemon       Daemon
	status       *ipc.StatusData
	defaultColor string

	width  int
	height int

	// Outline form
	editing bool
	form    *huh.Form
	fColor  string
	fWidth  string
	fBlur   string

	lastAction string
	lastErr    error
}

// NewOverlayTab creates the overlay tab.
func NewOverlayTab(daemon Daemon, defaultColor string) OverlayTab {
	return OverlayTab{daemon: daemon, defaultColor: defaultColor}
}

// SetStatus records the latest daemon status.
func (o *OverlayTab) SetStatus(status *ipc.StatusData) {
	o.status = status
}

func (o OverlayTab) outlineRunning() bool {
	return o.status != nil && o.status.Overlay.Outline != nil
}

// Update implements tea.Model.
func (o OverlayTab) Update(msg tea.Msg) (OverlayTab, tea.Cmd) {
	if o.editing {
		return o.updateEditing(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		o.width = msg.Width
		o.height = msg.Height
	case actionDoneMsg:
		o.lastAction = msg.action
		o.lastErr = msg.err
	case tea.KeyMsg:
		if o.daemon == nil {
			return o, nil
		}
		d := o.daemon
		switch msg.String() {
		case "s":
			return o, runAction("show overlay", d.ShowOverlay)
		case "h":
			return o, runAction("hide overlay", d.HideOverlay)
		case "t":
			return o, runAction("toggle overlay", d.ToggleOverlay)
		case "d":
			return o, runAction("show dim", d.ShowDim)
		case "D":
			return o, runAction("hide dim", d.HideDim)
		case "o":
			color := o.defaultColor
			return o, runAction("start outline", func() error {
				return d.StartOutline(ipc.StartOutlinePayload{Color: color})
			})
		case "x":
			return o, runAction("stop outline", d.StopOutline)
		case "e":
			o.startEditing()
			return o, o.form.Init()
		}
	}
	return o, nil
}

func (o OverlayTab) updateEditing(msg tea.Msg) (OverlayTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" {
			o.editing = false
			o.form = nil
			return o, nil
		}
	case tea.WindowSizeMsg:
		o.width = msg.Width
		o.height = msg.Height
	}

	form, cmd := o.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		o.form = f
	}

	if o.form.State == huh.StateCompleted {
		o.editing = false
		o.form = nil
		return o, o.submitOutline()
	}
	return o, cmd
}

func (o *OverlayTab) startEditing() {
	o.fColor = o.defaultColor
	o.fWidth = ""
	o.fBlur = ""
	if o.outlineRunning() {
		cur := o.status.Overlay.Outline
		o.fColor = cur.Color
		if cur.Width != nil {
			o.fWidth = strconv.FormatUint(uint64(*cur.Width), 10)
		}
		if cur.Blur != nil {
			o.fBlur = strconv.FormatUint(uint64(*cur.Blur), 10)
		}
	}

	w := o.width - 4
	if w < 40 {
		w = 40
	}

	o.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("color").
				Title("Color").
				Description("#RRGGBB, #RGB or a color name").
				Value(&o.fColor).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("color is required")
					}
					return nil
				}),
			huh.NewInput().
				Key("width").
				Title("Width").
				Description("Border thickness in pixels (blank for helper default)").
				Value(&o.fWidth).
				Validate(validateOptionalUint),
			huh.NewInput().
				Key("blur").
				Title("Blur").
				Description("Blur radius in pixels (blank to leave unset)").
				Value(&o.fBlur).
				Validate(validateOptionalUint),
		),
	).WithWidth(w).WithShowHelp(true).WithShowErrors(true)

	o.editing = true
}

// submitOutline updates a running helper in place, or starts one.
func (o OverlayTab) submitOutline() tea.Cmd {
	if o.daemon == nil {
		return nil
	}
	d := o.daemon
	color := strings.TrimSpace(o.fColor)
	width := parseOptionalUint(o.fWidth)
	blur := parseOptionalUint(o.fBlur)

	if o.outlineRunning() {
		return runAction("update outline", func() error {
			return d.UpdateOutline(ipc.UpdateOutlinePayload{Color: &color, Width: width, Blur: blur})
		})
	}
	return runAction("start outline", func() error {
		return d.StartOutline(ipc.StartOutlinePayload{Color: color, Width: width, Blur: blur})
	})
}

func validateOptionalUint(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := strconv.ParseUint(s, 10, 32); err != nil {
		return fmt.Errorf("must be a non-negative integer")
	}
	return nil
}

func parseOptionalUint(s string) *uint32 {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return nil
	}
	u := uint32(v)
	return &u
}

// View implements tea.Model.
func (o OverlayTab) View() string {
	style := lipgloss.NewStyle().
		Width(o.width).
		Height(o.height).
		Padding(1, 2)

	if o.editing && o.form != nil {
		header := lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Render("Outline") +
			hintStyle.Render("  (esc to cancel)")
		return style.Render(header + "\n\n" + o.form.View())
	}

	var lines []string
	if o.status == nil {
		lines = append(lines, hintStyle.Render("Daemon not running; start it with 'skydesk daemon'"))
	} else {
		st := o.status.Overlay
		lines = append(lines,
			row("Panel", yesNo(st.Visible)),
			row("Dim layer", yesNo(st.DimVisible)),
		)
		if st.Outline != nil {
			desc := st.Outline.Color
			if st.Outline.Width != nil {
				desc += fmt.Sprintf("  width:%d", *st.Outline.Width)
			}
			if st.Outline.Blur != nil {
				desc += fmt.Sprintf("  blur:%d", *st.Outline.Blur)
			}
			lines = append(lines, row("Outline", desc), row("Session", st.Outline.SessionID))
		} else {
			lines = append(lines, row("Outline", "stopped"))
		}
		caps := st.Capabilities
		lines = append(lines,
			"",
			row("Backend", caps.Backend),
			row("Click-through", yesNo(caps.ClickThrough)),
		)
	}

	if o.lastAction != "" {
		lines = append(lines, "")
		if o.lastErr != nil {
			lines = append(lines, errorStyle.Render(o.lastAction+": "+o.lastErr.Error()))
		} else {
			lines = append(lines, okStyle.Render(o.lastAction+": ok"))
		}
	}

	lines = append(lines,
		"",
		hintStyle.Render("  s/h/t: show/hide/toggle panel  d/D: show/hide dim"),
		hintStyle.Render("  o: start outline  e: edit outline  x: stop outline"),
	)
	return style.Render(strings.Join(lines, "\n"))
}
