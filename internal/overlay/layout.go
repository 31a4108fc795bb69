package overlay

import "github.com/skygen/skydesk/internal/platform"

const (
	DefaultPanelWidth  = 720
	DefaultPanelHeight = 120
)

// CenteredBounds centers a width x height panel on the display. It is the
// only place panel geometry is computed; the panel is created at these
// bounds and never moved afterwards. Panels larger than the display are
// clamped to it.
func CenteredBounds(display platform.Rect, width, height int) platform.Rect {
	if width > display.Width {
		width = display.Width
	}
	if height > display.Height {
		height = display.Height
	}
	return platform.Rect{
		X:      display.X + (display.Width-width)/2,
		Y:      display.Y + (display.Height-height)/2,
		Width:  width,
		Height: height,
	}
}
