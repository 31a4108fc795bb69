package palette

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os/exec"
	"strconv"
	"strings"
)

type launcherKind int

const (
	kindRofi launcherKind = iota
	kindFuzzel
	kindWofi
	kindDmenu
)

// runFunc executes a launcher with input on stdin.
type runFunc func(name string, args []string, input string) (stdout, stderr string, err error)

// launcher drives any dmenu-compatible program.
type launcher struct {
	command string
	kind    launcherKind
	caps    Capabilities
	run     runFunc
}

func newLauncher(kind launcherKind) *launcher {
	l := &launcher{kind: kind, run: runLauncher}
	switch kind {
	case kindRofi:
		l.command = "rofi"
		l.caps = Capabilities{Icons: true, Markup: true, NonSelectable: true, IndexOutput: true, MessageBar: true, RowStates: true}
	case kindFuzzel:
		l.command = "fuzzel"
		l.caps = Capabilities{Icons: true, IndexOutput: true}
	case kindWofi:
		l.command = "wofi"
		l.caps = Capabilities{Icons: true, Markup: true}
	default:
		l.command = "dmenu"
	}
	return l
}

func runLauncher(name string, args []string, input string) (string, string, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdin = strings.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func (l *launcher) Capabilities() Capabilities {
	return l.caps
}

func (l *launcher) Show(prompt string, items []Item, message string) (Item, error) {
	if len(items) == 0 {
		return Item{}, fmt.Errorf("palette: no items to show")
	}

	rows := make([]Item, len(items))
	copy(rows, items)
	input, selected := l.formatInput(rows)

	out, stderr, err := l.run(l.command, l.buildArgs(prompt, message, rows, selected), input)
	selection := strings.TrimSpace(out)
	if err != nil {
		if selection == "" && isCancelExit(err) {
			return Item{}, ErrCancelled
		}
		if msg := strings.TrimSpace(stderr); msg != "" {
			return Item{}, fmt.Errorf("%s failed: %s", l.command, msg)
		}
		return Item{}, fmt.Errorf("%s failed: %w", l.command, err)
	}
	if selection == "" {
		return Item{}, ErrCancelled
	}
	return l.parseSelection(selection, rows)
}

func (l *launcher) buildArgs(prompt, message string, rows []Item, selected int) []string {
	var args []string
	switch l.kind {
	case kindRofi:
		// Index output keeps selection parsing independent of markup.
		args = []string{"-dmenu", "-i", "-format", "i", "-no-custom", "-markup-rows", "-show-icons"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
		var active []string
		for i, it := range rows {
			if it.IsActive && it.selectable() {
				active = append(active, strconv.Itoa(i))
			}
		}
		if len(active) > 0 {
			args = append(args, "-a", strings.Join(active, ","))
		}
		if selected >= 0 {
			args = append(args, "-selected-row", strconv.Itoa(selected))
		}
		if message != "" {
			args = append(args, "-mesg", message)
		}
	case kindFuzzel:
		args = []string{"--dmenu", "--index"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
	case kindWofi:
		args = []string{"--dmenu", "--allow-markup"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
	default:
		args = []string{"-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
	}
	return args
}

// formatInput renders rows and returns the row to preselect: the first active
// selectable row, else the first selectable one, else -1.
func (l *launcher) formatInput(rows []Item) (string, int) {
	// Text-matched launchers need unique labels.
	if !l.caps.IndexOutput {
		seen := make(map[string]int)
		for i := range rows {
			if !rows[i].selectable() {
				continue
			}
			key := sanitizeLabel(rows[i].Label)
			if n := seen[key]; n > 0 {
				rows[i].Label = fmt.Sprintf("%s (%d)", key, n+1)
			}
			seen[key]++
		}
	}

	lines := make([]string, 0, len(rows))
	first, firstActive := -1, -1
	for i, it := range rows {
		lines = append(lines, l.formatItem(it))
		if !it.selectable() {
			continue
		}
		if first < 0 {
			first = i
		}
		if it.IsActive && firstActive < 0 {
			firstActive = i
		}
	}
	if firstActive >= 0 {
		return strings.Join(lines, "\n"), firstActive
	}
	return strings.Join(lines, "\n"), first
}

func (l *launcher) formatItem(it Item) string {
	display := sanitizeLabel(it.Label)
	if l.caps.Markup {
		display = html.EscapeString(display)
		switch {
		case it.IsHeader:
			display = "<b>" + display + "</b>"
		case it.IsDivider:
			display = "<span foreground='#666666'>" + display + "</span>"
		}
	}
	if l.kind != kindRofi {
		return display
	}

	// Rofi row properties: one NUL, then key\x1fvalue pairs joined by \x1f.
	var attrs []string
	if !it.selectable() {
		attrs = append(attrs, "nonselectable", "true")
	}
	if it.Icon != "" {
		attrs = append(attrs, "icon", sanitizeField(it.Icon))
	}
	if it.Meta != "" {
		attrs = append(attrs, "meta", sanitizeField(it.Meta))
	}
	if len(attrs) == 0 {
		return display
	}
	return display + "\x00" + strings.Join(attrs, "\x1f")
}

func (l *launcher) parseSelection(selection string, rows []Item) (Item, error) {
	if l.caps.IndexOutput {
		if idx, err := strconv.Atoi(selection); err == nil {
			if idx < 0 || idx >= len(rows) {
				return Item{}, fmt.Errorf("palette: index %d out of range", idx)
			}
			return rows[idx], nil
		}
	}
	for _, it := range rows {
		if sanitizeLabel(it.Label) == selection {
			return it, nil
		}
	}
	return Item{}, fmt.Errorf("palette: unknown selection %q", selection)
}

func sanitizeLabel(label string) string {
	return strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ").Replace(label))
}

func sanitizeField(value string) string {
	return strings.TrimSpace(strings.NewReplacer("\x00", " ", "\x1f", " ", "\r", " ", "\n", " ").Replace(value))
}

// isCancelExit reports the launcher exit codes for "nothing chosen" (1) and
// Ctrl+C (130).
func isCancelExit(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	code := exitErr.ExitCode()
	return code == 1 || code == 130
}
