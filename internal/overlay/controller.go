package overlay

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/skygen/skydesk/internal/outline"
	"github.com/skygen/skydesk/internal/platform"
)

// Helper is the outline helper supervisor the controller drives.
type Helper interface {
	Start(opts outline.StartOptions) error
	Update(u outline.Update) error
	Stop() error
	Running() bool
	SessionID() string
	Current() (outline.StartOptions, bool)
	ReapIfExited() bool
}

var _ Helper = (*outline.Supervisor)(nil)

// Options configures a Controller.
type Options struct {
	PanelWidth  int
	PanelHeight int
	Logger      *slog.Logger
}

// Controller is the single source of truth for overlay visibility. Every
// public method holds mu for its whole transition.
type Controller struct {
	mu      sync.Mutex
	visible bool

	windows *WindowManager
	helper  Helper

	panelWidth  int
	panelHeight int
	logger      *slog.Logger
}

// NewController creates a hidden controller.
func NewController(windows *WindowManager, helper Helper, opts Options) *Controller {
	if opts.PanelWidth <= 0 {
		opts.PanelWidth = DefaultPanelWidth
	}
	if opts.PanelHeight <= 0 {
		opts.PanelHeight = DefaultPanelHeight
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{
		windows:     windows,
		helper:      helper,
		panelWidth:  opts.PanelWidth,
		panelHeight: opts.PanelHeight,
		logger:      opts.Logger,
	}
}

// Show shows the panel centered on the primary display's usable area.
// Showing a visible overlay is a no-op.
func (c *Controller) Show() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.showLocked()
}

// Hide closes the panel and the dim window. Hiding a hidden overlay is a
// no-op.
func (c *Controller) Hide() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hideLocked()
}

// Toggle flips visibility. The read and the transition happen under one
// lock so no other command can interleave.
func (c *Controller) Toggle() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.visible {
		return c.hideLocked()
	}
	return c.showLocked()
}

func (c *Controller) showLocked() error {
	if c.visible {
		return nil
	}

	display, err := c.windows.PrimaryDisplay()
	if err != nil {
		return fmt.Errorf("failed to get primary display: %w", err)
	}
	area := display.Usable
	if area.Width <= 0 || area.Height <= 0 {
		area = display.Bounds
	}
	bounds := CenteredBounds(area, c.panelWidth, c.panelHeight)

	if err := c.windows.ShowPanel(bounds); err != nil {
		// Leave nothing half-built behind.
		if cerr := c.windows.ClosePanel(); cerr != nil {
			c.logger.Warn("failed to clean up panel", "error", cerr)
		}
		return fmt.Errorf("failed to show overlay: %w", err)
	}

	if err := c.windows.FocusMain(); err != nil {
		c.logger.Debug("main window not focused", "error", err)
	}

	c.visible = true
	c.logger.Info("overlay shown",
		"x", bounds.X, "y", bounds.Y,
		"width", bounds.Width, "height", bounds.Height,
		"display", display.Name)
	return nil
}

func (c *Controller) hideLocked() error {
	if !c.visible {
		return nil
	}
	if err := c.windows.ClosePanel(); err != nil {
		return fmt.Errorf("failed to close overlay: %w", err)
	}
	c.visible = false

	if err := c.windows.HideDimLayer(); err != nil {
		c.logger.Warn("failed to close dim window", "error", err)
	}
	c.logger.Info("overlay hidden")
	return nil
}

// ShowDim shows the dim layer.
func (c *Controller) ShowDim() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.windows.ShowDimLayer(); err != nil {
		return fmt.Errorf("failed to show dim window: %w", err)
	}
	return nil
}

// HideDim hides the dim layer.
func (c *Controller) HideDim() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.windows.HideDimLayer(); err != nil {
		return fmt.Errorf("failed to close dim window: %w", err)
	}
	return nil
}

// StartOutline starts the outline helper, replacing any running one.
func (c *Controller) StartOutline(opts outline.StartOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.helper.Start(opts)
}

// UpdateOutline streams an update to the running helper.
func (c *Controller) UpdateOutline(u outline.Update) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.helper.Update(u)
}

// StopOutline stops the helper. Stopping with no helper is a no-op.
func (c *Controller) StopOutline() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.helper.Stop()
}

// Shutdown stops the helper and closes every overlay window. Errors are
// logged; shutdown always runs to completion.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.helper.Stop(); err != nil {
		c.logger.Error("failed to stop outline helper during shutdown", "error", err)
	}
	if err := c.windows.ClosePanel(); err != nil {
		c.logger.Warn("failed to close panel during shutdown", "error", err)
	}
	if err := c.windows.HideDimLayer(); err != nil {
		c.logger.Warn("failed to close dim window during shutdown", "error", err)
	}
	c.visible = false
	c.logger.Info("overlay controller shut down")
}

// OutlineStatus describes the running helper.
type OutlineStatus struct {
	SessionID string  `json:"session_id"`
	Color     string  `json:"color"`
	Width     *uint32 `json:"width,omitempty"`
	Blur      *uint32 `json:"blur,omitempty"`
}

// Status is a point-in-time snapshot of the controller.
type Status struct {
	Visible      bool                  `json:"visible"`
	DimVisible   bool                  `json:"dim_visible"`
	Outline      *OutlineStatus        `json:"outline,omitempty"`
	Capabilities platform.Capabilities `json:"capabilities"`
}

// Status returns a snapshot of the controller state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		Visible:      c.visible,
		DimVisible:   c.windows.DimExists(),
		Capabilities: c.windows.Capabilities(),
	}
	if c.helper.Running() {
		opts, _ := c.helper.Current()
		st.Outline = &OutlineStatus{
			SessionID: c.helper.SessionID(),
			Color:     opts.Color,
			Width:     opts.Width,
			Blur:      opts.Blur,
		}
	}
	return st
}

// ReconcileResult lists the repairs made by one Reconcile pass.
type ReconcileResult struct {
	PanelLost        bool
	StrayPanelClosed bool
	HelperReaped     bool
}

// Changed reports whether anything was repaired.
func (r ReconcileResult) Changed() bool {
	return r.PanelLost || r.StrayPanelClosed || r.HelperReaped
}

// Reconcile repairs drift between recorded state and the real windows and
// helper: a panel closed behind our back marks the overlay hidden, a stray
// panel while hidden is closed, and a helper that exited is released.
func (c *Controller) Reconcile() ReconcileResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	var res ReconcileResult
	exists := c.windows.PanelExists()
	switch {
	case c.visible && !exists:
		c.visible = false
		res.PanelLost = true
		if err := c.windows.HideDimLayer(); err != nil {
			c.logger.Warn("reconcile: failed to close dim window", "error", err)
		}
	case !c.visible && exists:
		if err := c.windows.ClosePanel(); err != nil {
			c.logger.Warn("reconcile: failed to close stray panel", "error", err)
		} else {
			res.StrayPanelClosed = true
		}
	}

	res.HelperReaped = c.helper.ReapIfExited()
	return res
}
