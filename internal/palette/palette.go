// Package palette shows quick overlay actions in an external launcher menu
// (rofi, fuzzel, wofi or dmenu) and runs the chosen one against the daemon.
package palette

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrCancelled is returned when the user closes the menu without choosing.
var ErrCancelled = errors.New("palette cancelled")

// Item is a single row in the menu.
type Item struct {
	Label     string
	Action    string // returned on selection
	Icon      string // rofi -show-icons name
	Meta      string // hidden search keywords
	IsHeader  bool   // non-selectable section title
	IsDivider bool
	IsActive  bool // highlighted as the current state
}

func (i Item) selectable() bool {
	return !i.IsHeader && !i.IsDivider
}

// Capabilities describes what a launcher can render.
type Capabilities struct {
	Icons         bool
	Markup        bool
	NonSelectable bool
	IndexOutput   bool
	MessageBar    bool
	RowStates     bool
}

// Backend shows a menu and returns the chosen item.
type Backend interface {
	Show(prompt string, items []Item, message string) (Item, error)
	Capabilities() Capabilities
}

// detectOrder is the launcher preference for "auto".
var detectOrder = []string{"rofi", "fuzzel", "wofi", "dmenu"}

// DetectBackend returns the first launcher found in PATH.
func DetectBackend() (string, error) {
	for _, name := range detectOrder {
		if _, err := exec.LookPath(name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("no palette backend found in PATH (looked for: %s)", strings.Join(detectOrder, ", "))
}

// NewBackend creates a backend by name: auto, rofi, fuzzel, wofi or dmenu.
func NewBackend(name string) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		detected, err := DetectBackend()
		if err != nil {
			return nil, err
		}
		name = detected
	}

	var b *launcher
	switch name {
	case "rofi":
		b = newLauncher(kindRofi)
	case "fuzzel":
		b = newLauncher(kindFuzzel)
	case "wofi":
		b = newLauncher(kindWofi)
	case "dmenu":
		b = newLauncher(kindDmenu)
	default:
		return nil, fmt.Errorf("unknown palette backend: %q (expected: auto, %s)", name, strings.Join(detectOrder, ", "))
	}
	if _, err := exec.LookPath(b.command); err != nil {
		return nil, fmt.Errorf("palette backend %q not found in PATH", b.command)
	}
	return b, nil
}
