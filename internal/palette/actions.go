package palette

import (
	"errors"
	"fmt"
	"strings"

	"github.com/skygen/skydesk/internal/ipc"
)

// Action identifiers carried by menu items.
const (
	ActionShowOverlay  = "overlay.show"
	ActionHideOverlay  = "overlay.hide"
	ActionShowDim      = "dim.show"
	ActionHideDim      = "dim.hide"
	ActionStopOutline  = "outline.stop"
	actionOutlineColor = "outline.color:"
)

// presetColors are offered after the configured default color.
var presetColors = []string{"#FF4D4F", "#52C41A", "#1890FF", "#FAAD14", "#FFFFFF"}

// Daemon is the part of the IPC client the palette drives.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	ShowOverlay() error
	HideOverlay() error
	ShowDim() error
	HideDim() error
	StartOutline(p ipc.StartOutlinePayload) error
	UpdateOutline(p ipc.UpdateOutlinePayload) error
	StopOutline() error
}

var _ Daemon = (*ipc.Client)(nil)

// Items builds the menu for the current daemon state. Rows matching the
// current state are marked active.
func Items(status *ipc.StatusData, defaultColor string) []Item {
	ov := status.Overlay
	running := ov.Outline != nil
	current := ""
	if running {
		current = strings.ToUpper(ov.Outline.Color)
	}

	items := []Item{
		{Label: "Overlay", IsHeader: true},
		{Label: "Show overlay", Action: ActionShowOverlay, Icon: "view-visible", IsActive: ov.Visible},
		{Label: "Hide overlay", Action: ActionHideOverlay, Icon: "view-hidden", IsActive: !ov.Visible},
		{Label: "Dim screen", Action: ActionShowDim, Icon: "weather-clear-night", IsActive: ov.DimVisible},
		{Label: "Undim screen", Action: ActionHideDim, Icon: "weather-clear", IsActive: !ov.DimVisible},
		{Label: "Outline", IsHeader: true},
	}

	verb := "Start outline"
	if running {
		verb = "Outline color"
	}
	seen := make(map[string]bool)
	for _, c := range append([]string{defaultColor}, presetColors...) {
		key := strings.ToUpper(strings.TrimSpace(c))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, Item{
			Label:    fmt.Sprintf("%s %s", verb, key),
			Action:   actionOutlineColor + key,
			Icon:     "color-select",
			Meta:     "border frame color",
			IsActive: key == current,
		})
	}
	if running {
		items = append(items, Item{Label: "Stop outline", Action: ActionStopOutline, Icon: "process-stop"})
	}
	return items
}

// Message summarizes the state for launchers with a message bar.
func Message(status *ipc.StatusData) string {
	ov := status.Overlay
	parts := []string{
		"overlay: " + onOff(ov.Visible, "shown", "hidden"),
		"dim: " + onOff(ov.DimVisible, "on", "off"),
	}
	if ov.Outline != nil {
		parts = append(parts, "outline: "+ov.Outline.Color)
	} else {
		parts = append(parts, "outline: off")
	}
	return strings.Join(parts, "  |  ")
}

func onOff(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}

// Execute runs action against d. Color actions start the outline when it is
// not running and update its color otherwise.
func Execute(d Daemon, action string, status *ipc.StatusData) error {
	switch action {
	case ActionShowOverlay:
		return d.ShowOverlay()
	case ActionHideOverlay:
		return d.HideOverlay()
	case ActionShowDim:
		return d.ShowDim()
	case ActionHideDim:
		return d.HideDim()
	case ActionStopOutline:
		return d.StopOutline()
	}

	color, ok := strings.CutPrefix(action, actionOutlineColor)
	if !ok || color == "" {
		return fmt.Errorf("unknown palette action %q", action)
	}
	if status != nil && status.Overlay.Outline != nil {
		return d.UpdateOutline(ipc.UpdateOutlinePayload{Color: &color})
	}
	return d.StartOutline(ipc.StartOutlinePayload{Color: color})
}

// Run shows the menu for the daemon's current state and executes the chosen
// action. It returns the action, or ErrCancelled.
func Run(b Backend, d Daemon, defaultColor string) (string, error) {
	status, err := d.GetStatus()
	if err != nil {
		return "", err
	}

	var message string
	if b.Capabilities().MessageBar {
		message = Message(status)
	}
	for {
		item, err := b.Show("skydesk", Items(status, defaultColor), message)
		if err != nil {
			return "", err
		}
		// Launchers without non-selectable rows can return a header.
		if !item.selectable() {
			continue
		}
		if err := Execute(d, item.Action, status); err != nil {
			return item.Action, err
		}
		return item.Action, nil
	}
}

// IsCancelled reports whether err means the user dismissed the menu.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
