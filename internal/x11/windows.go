package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/motif"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// WindowOptions describes a WM-managed window and its chrome.
type WindowOptions struct {
	Title      string
	X, Y       int
	Width      int
	Height     int
	Background uint32
	// WindowType is an EWMH window type atom name.
	WindowType string
	// Opacity in (0,1); zero or one means opaque.
	Opacity float64

	KeepAbove    bool
	AllDesktops  bool
	SkipTaskbar  bool
	Decorations  bool
	Focusable    bool
	ClickThrough bool
}

// CreateManagedWindow creates, decorates and maps a top-level window.
// Chrome properties are set before mapping so the window manager sees them
// on the initial MapRequest.
func (c *Connection) CreateManagedWindow(opts WindowOptions) (*xwindow.Window, error) {
	if opts.Width < 1 || opts.Height < 1 {
		return nil, fmt.Errorf("invalid window size %dx%d", opts.Width, opts.Height)
	}

	win, err := xwindow.Generate(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate window id: %w", err)
	}

	err = win.CreateChecked(c.Root, opts.X, opts.Y, opts.Width, opts.Height,
		xproto.CwBackPixel|xproto.CwEventMask,
		opts.Background, xproto.EventMaskStructureNotify)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	if err := c.applyChrome(win.Id, opts); err != nil {
		win.Destroy()
		return nil, err
	}

	win.Map()
	return win, nil
}

func (c *Connection) applyChrome(id xproto.Window, opts WindowOptions) error {
	xu := c.XUtil

	if opts.Title != "" {
		if err := ewmh.WmNameSet(xu, id, opts.Title); err != nil {
			return fmt.Errorf("failed to set window title: %w", err)
		}
		_ = icccm.WmNameSet(xu, id, opts.Title)
	}

	// Position is program-specified; ask the WM to honor it.
	_ = icccm.WmNormalHintsSet(xu, id, &icccm.NormalHints{
		Flags:  icccm.SizeHintUSPosition | icccm.SizeHintUSSize | icccm.SizeHintPPosition | icccm.SizeHintPSize,
		X:      opts.X,
		Y:      opts.Y,
		Width:  uint(opts.Width),
		Height: uint(opts.Height),
	})

	if opts.WindowType != "" {
		if err := ewmh.WmWindowTypeSet(xu, id, []string{opts.WindowType}); err != nil {
			return fmt.Errorf("failed to set window type: %w", err)
		}
	}

	var states []string
	if opts.KeepAbove {
		states = append(states, "_NET_WM_STATE_ABOVE")
	}
	if opts.AllDesktops {
		states = append(states, "_NET_WM_STATE_STICKY")
		if err := ewmh.WmDesktopSet(xu, id, AllDesktops); err != nil {
			return fmt.Errorf("failed to set window desktop: %w", err)
		}
	}
	if opts.SkipTaskbar {
		states = append(states, "_NET_WM_STATE_SKIP_TASKBAR", "_NET_WM_STATE_SKIP_PAGER")
	}
	if len(states) > 0 {
		if err := ewmh.WmStateSet(xu, id, states); err != nil {
			return fmt.Errorf("failed to set window state: %w", err)
		}
	}

	if !opts.Decorations {
		if err := motif.WmHintsSet(xu, id, &motif.Hints{
			Flags:      motif.HintDecorations,
			Decoration: motif.DecorationNone,
		}); err != nil {
			return fmt.Errorf("failed to disable decorations: %w", err)
		}
	}

	if !opts.Focusable {
		if err := icccm.WmHintsSet(xu, id, &icccm.Hints{
			Flags:        icccm.HintInput | icccm.HintState,
			Input:        0,
			InitialState: icccm.StateNormal,
		}); err != nil {
			return fmt.Errorf("failed to set input hint: %w", err)
		}
	}

	if opts.Opacity > 0 && opts.Opacity < 1 {
		if err := ewmh.WmWindowOpacitySet(xu, id, opts.Opacity); err != nil {
			return fmt.Errorf("failed to set window opacity: %w", err)
		}
	}

	if opts.ClickThrough {
		if err := c.SetClickThrough(id); err != nil {
			return err
		}
	}
	return nil
}

// SetClickThrough gives the window an empty input region so pointer events
// fall through to whatever is below it.
func (c *Connection) SetClickThrough(id xproto.Window) error {
	if !c.HasShape {
		return fmt.Errorf("click-through requires the SHAPE extension")
	}
	err := shape.RectanglesChecked(c.XUtil.Conn(),
		shape.SoSet, shape.SkInput, xproto.ClipOrderingUnsorted,
		id, 0, 0, nil).Check()
	if err != nil {
		return fmt.Errorf("failed to clear input region: %w", err)
	}
	return nil
}

// StackAbove restacks win directly above sibling through the window manager.
func (c *Connection) StackAbove(win, sibling xproto.Window) error {
	return ewmh.RestackWindowExtra(c.XUtil, win, xproto.StackModeAbove, sibling, 2)
}

// WindowAlive reports whether the server still knows the window.
func (c *Connection) WindowAlive(id xproto.Window) bool {
	_, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(id)).Reply()
	return err == nil
}
