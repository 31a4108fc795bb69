package x11

import (
	"github.com/BurntSushi/xgb/xproto"
)

// DefaultBorderColor is used when no color is given.
const DefaultBorderColor = 0xFF4D4F

// DefaultBorderWidth is the border thickness in pixels.
const DefaultBorderWidth = 4

// Border is a rectangular outline made of 4 thin override-redirect windows.
type Border struct {
	conn   *Connection
	Top    xproto.Window
	Bottom xproto.Window
	Left   xproto.Window
	Right  xproto.Window
	mapped bool
}

// NewBorder creates the border windows unmapped.
func (c *Connection) NewBorder() (*Border, error) {
	b := &Border{conn: c}
	for _, slot := range []*xproto.Window{&b.Top, &b.Bottom, &b.Left, &b.Right} {
		wid, err := c.createOverrideRedirectWindow()
		if err != nil {
			b.Destroy()
			return nil, err
		}
		*slot = wid
		if c.HasShape {
			if err := c.SetClickThrough(wid); err != nil {
				b.Destroy()
				return nil, err
			}
		}
	}
	return b, nil
}

// Show places the border just inside rect with the given thickness and color.
func (b *Border) Show(m Monitor, thickness int, color uint32) {
	if thickness < 1 {
		thickness = 1
	}
	x, y, w, h, t := m.X, m.Y, m.Width, m.Height, thickness

	b.conn.updateWindow(b.Top, x, y, w, t, color)
	b.conn.updateWindow(b.Bottom, x, y+h-t, w, t, color)
	b.conn.updateWindow(b.Left, x, y+t, t, h-2*t, color)
	b.conn.updateWindow(b.Right, x+w-t, y+t, t, h-2*t, color)

	if !b.mapped {
		for _, wid := range b.windows() {
			xproto.MapWindow(b.conn.XUtil.Conn(), wid)
		}
		b.mapped = true
	}
}

// Destroy destroys the border windows.
func (b *Border) Destroy() {
	for _, wid := range b.windows() {
		if wid != 0 {
			xproto.DestroyWindow(b.conn.XUtil.Conn(), wid)
		}
	}
	b.Top, b.Bottom, b.Left, b.Right = 0, 0, 0, 0
	b.mapped = false
}

func (b *Border) windows() []xproto.Window {
	return []xproto.Window{b.Top, b.Bottom, b.Left, b.Right}
}

func (c *Connection) createOverrideRedirectWindow() (xproto.Window, error) {
	conn := c.XUtil.Conn()
	screen := c.XUtil.Screen()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return 0, err
	}

	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		c.Root,
		0, 0,
		1, 1,
		0,
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwOverrideRedirect|xproto.CwBackPixel,
		// Values follow mask bit order: CwBackPixel before CwOverrideRedirect.
		[]uint32{0, 1},
	).Check()
	if err != nil {
		return 0, err
	}
	return wid, nil
}

// updateWindow moves, resizes, raises and recolors a window.
func (c *Connection) updateWindow(wid xproto.Window, x, y, width, height int, color uint32) {
	conn := c.XUtil.Conn()

	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	xproto.ConfigureWindow(
		conn,
		wid,
		xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight|xproto.ConfigWindowStackMode,
		[]uint32{
			uint32(x),
			uint32(y),
			uint32(width),
			uint32(height),
			xproto.StackModeAbove,
		},
	)
	xproto.ChangeWindowAttributes(conn, wid, xproto.CwBackPixel, []uint32{color})
	xproto.ClearArea(conn, false, wid, 0, 0, 0, 0)
}
