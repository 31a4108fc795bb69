package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/skygen/skydesk/internal/config"
)

type savePhase int

const (
	saveHidden savePhase = iota
	savePreview
	saveResult
)

var (
	saveTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	savePathStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	saveOldStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	saveNewStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	saveBoxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)
)

// SaveOverlay previews pending config changes and writes them on confirm.
type SaveOverlay struct {
	phase    savePhase
	changes  []config.Change
	err      error
	reloaded bool
	scroll   int
}

// Active reports whether the overlay is visible.
func (s SaveOverlay) Active() bool {
	return s.phase != saveHidden
}

// Show opens the preview of the changes from original to current.
func (s *SaveOverlay) Show(original, current *config.Config) {
	s.err = nil
	s.reloaded = false
	s.scroll = 0
	s.changes = config.Diff(original, current)
	if len(s.changes) == 0 {
		s.phase = saveResult
		s.err = fmt.Errorf("no changes to save")
		return
	}
	s.phase = savePreview
}

// SaveSucceeded reports whether the last save completed without error.
func (s SaveOverlay) SaveSucceeded() bool {
	return s.phase == saveResult && s.err == nil
}

// Update handles input while the overlay is active. path may be empty for
// the default location; reload is nil when no daemon is connected.
func (s SaveOverlay) Update(msg tea.Msg, cfg *config.Config, path string, reload func() error) SaveOverlay {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return s
	}
	if s.phase == saveResult {
		s.phase = saveHidden
		return s
	}
	if s.phase != savePreview {
		return s
	}

	switch km.String() {
	case "esc", "n":
		s.phase = saveHidden
	case "enter", "y":
		if err := cfg.Validate(); err != nil {
			s.err = err
		} else if path != "" {
			s.err = cfg.SaveTo(path)
		} else {
			s.err = cfg.Save()
		}
		if s.err == nil && reload != nil {
			s.reloaded = reload() == nil
		}
		s.phase = saveResult
	case "up", "k":
		if s.scroll > 0 {
			s.scroll--
		}
	case "down", "j":
		if s.scroll < len(s.changes)-1 {
			s.scroll++
		}
	}
	return s
}

// View renders the overlay centered in a width x height area.
func (s SaveOverlay) View(width, height int) string {
	var content string
	switch s.phase {
	case savePreview:
		content = s.viewPreview(height)
	case saveResult:
		content = s.viewResult()
	default:
		return ""
	}
	boxW := min(max(width-8, 30), 80)
	box := saveBoxStyle.Width(boxW).Render(content)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

func (s SaveOverlay) viewPreview(height int) string {
	rows := max(height-10, 3)
	end := min(s.scroll+rows, len(s.changes))

	var b strings.Builder
	b.WriteString(saveTitleStyle.Render(fmt.Sprintf("Save %d change(s)?", len(s.changes))))
	b.WriteString("\n\n")
	for _, c := range s.changes[s.scroll:end] {
		fmt.Fprintf(&b, "%s  %s -> %s\n",
			savePathStyle.Render(c.Path),
			saveOldStyle.Render(displayValue(c.Old)),
			saveNewStyle.Render(displayValue(c.New)))
	}
	if end < len(s.changes) {
		b.WriteString(hintStyle.Render(fmt.Sprintf("... %d more", len(s.changes)-end)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("enter: save  esc: cancel  j/k: scroll"))
	return b.String()
}

func (s SaveOverlay) viewResult() string {
	var msg string
	if s.err != nil {
		msg = errorStyle.Render("Error: " + s.err.Error())
	} else {
		msg = okStyle.Render("Config saved")
		if s.reloaded {
			msg += "\n" + okStyle.Render("Daemon reloaded")
		}
	}
	return msg + "\n\n" + hintStyle.Render("press any key to dismiss")
}

func displayValue(v any) string {
	if s, ok := v.(string); ok && s == "" {
		return `""`
	}
	return fmt.Sprint(v)
}
