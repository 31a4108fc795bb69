package overlay

import (
	"errors"
	"fmt"

	"github.com/skygen/skydesk/internal/platform"
)

// Logical window names.
const (
	PanelWindow = "overlay"
	DimWindow   = "overlay_dim"
	MainWindow  = "main"
)

const (
	DefaultPanelOpacity = 0.92
	DefaultDimOpacity   = 0.35
)

// WindowOptions configures a WindowManager.
type WindowOptions struct {
	// MainTitle identifies the pre-existing main window by title substring.
	MainTitle    string
	PanelOpacity float64
	DimOpacity   float64
}

// WindowManager owns the panel and dim windows on top of a platform backend.
// It holds no state of its own beyond the backend's window set.
type WindowManager struct {
	backend platform.WindowManager
	opts    WindowOptions
}

// NewWindowManager wraps backend.
func NewWindowManager(backend platform.WindowManager, opts WindowOptions) *WindowManager {
	if opts.PanelOpacity <= 0 || opts.PanelOpacity > 1 {
		opts.PanelOpacity = DefaultPanelOpacity
	}
	if opts.DimOpacity <= 0 || opts.DimOpacity > 1 {
		opts.DimOpacity = DefaultDimOpacity
	}
	return &WindowManager{backend: backend, opts: opts}
}

// PrimaryDisplay returns the display the overlay is placed on.
func (m *WindowManager) PrimaryDisplay() (platform.Display, error) {
	return m.backend.PrimaryDisplay()
}

// ShowPanel creates the panel at bounds, or shows it if it already exists.
// The panel never takes keyboard focus.
func (m *WindowManager) ShowPanel(bounds platform.Rect) error {
	return m.backend.Open(platform.WindowSpec{
		Name:        PanelWindow,
		Title:       "Overlay",
		Bounds:      bounds,
		Level:       platform.LevelPanel,
		Opacity:     m.opts.PanelOpacity,
		AllDesktops: true,
		SkipTaskbar: true,
	})
}

// ClosePanel closes the panel. A missing panel is not an error.
func (m *WindowManager) ClosePanel() error {
	return tolerateMissing(m.backend.Close(PanelWindow))
}

// ShowDimLayer covers the primary display with the click-through dim window,
// or shows the existing one.
func (m *WindowManager) ShowDimLayer() error {
	if m.backend.Exists(DimWindow) {
		return m.backend.Open(platform.WindowSpec{Name: DimWindow, Level: platform.LevelDim, Focusable: true})
	}

	display, err := m.backend.PrimaryDisplay()
	if err != nil {
		return fmt.Errorf("failed to get primary display: %w", err)
	}
	return m.backend.Open(platform.WindowSpec{
		Name:         DimWindow,
		Title:        "Dim",
		Bounds:       display.Bounds,
		Level:        platform.LevelDim,
		Opacity:      m.opts.DimOpacity,
		ClickThrough: true,
		AllDesktops:  true,
		SkipTaskbar:  true,
	})
}

// HideDimLayer closes the dim window. A missing window is not an error.
func (m *WindowManager) HideDimLayer() error {
	return tolerateMissing(m.backend.Close(DimWindow))
}

// FocusMain gives focus back to the main window, if there is one.
func (m *WindowManager) FocusMain() error {
	if m.opts.MainTitle == "" {
		return fmt.Errorf("%w: no main window title configured", platform.ErrWindowNotFound)
	}
	return m.backend.FocusTitle(m.opts.MainTitle)
}

func (m *WindowManager) PanelExists() bool { return m.backend.Exists(PanelWindow) }

func (m *WindowManager) DimExists() bool { return m.backend.Exists(DimWindow) }

func (m *WindowManager) Capabilities() platform.Capabilities {
	return m.backend.Capabilities()
}

func tolerateMissing(err error) error {
	if errors.Is(err, platform.ErrWindowNotFound) {
		return nil
	}
	return err
}
