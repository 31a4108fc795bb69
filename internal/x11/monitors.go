package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// Monitor represents a physical display
type Monitor struct {
	ID      int
	Name    string
	X       int
	Y       int
	Width   int
	Height  int
	Primary bool
}

// GetMonitors retrieves all active monitors using XRandR
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primary randr.Output
	if reply, err := randr.GetOutputPrimary(c.XUtil.Conn(), c.Root).Reply(); err == nil {
		primary = reply.Output
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		outputName := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			outputName = string(outputInfo.Name)
		}

		isPrimary := false
		for _, out := range crtcInfo.Outputs {
			if primary != 0 && out == primary {
				isPrimary = true
			}
		}

		monitors = append(monitors, Monitor{
			ID:      i,
			Name:    outputName,
			X:       int(crtcInfo.X),
			Y:       int(crtcInfo.Y),
			Width:   int(crtcInfo.Width),
			Height:  int(crtcInfo.Height),
			Primary: isPrimary,
		})
	}

	return monitors, nil
}

// PrimaryMonitor returns the RandR primary output. Without one it falls back
// to the monitor under the pointer, then the first monitor, then the root
// window geometry.
func (c *Connection) PrimaryMonitor() (Monitor, error) {
	monitors, err := c.GetMonitors()
	if err == nil && len(monitors) > 0 {
		for _, m := range monitors {
			if m.Primary {
				return m, nil
			}
		}
		if m := findMonitorForPointer(c, monitors); m != nil {
			return *m, nil
		}
		return monitors[0], nil
	}

	geom := xwindow.RootGeometry(c.XUtil)
	if geom.Width() == 0 || geom.Height() == 0 {
		if err == nil {
			err = fmt.Errorf("no monitors found")
		}
		return Monitor{}, err
	}
	return Monitor{
		Name:    "root",
		X:       geom.X(),
		Y:       geom.Y(),
		Width:   geom.Width(),
		Height:  geom.Height(),
		Primary: true,
	}, nil
}

func findMonitorForPointer(c *Connection, monitors []Monitor) *Monitor {
	reply, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil
	}
	x, y := int(reply.RootX), int(reply.RootY)
	for i := range monitors {
		m := &monitors[i]
		if x >= m.X && x < m.X+m.Width && y >= m.Y && y < m.Y+m.Height {
			return m
		}
	}
	return nil
}

// WorkArea returns the part of m left free by panels and docks, from the
// EWMH work area of the current desktop. ok is false when the window
// manager publishes no work area or it misses m entirely.
func (c *Connection) WorkArea(m Monitor) (Monitor, bool) {
	areas, err := ewmh.WorkareaGet(c.XUtil)
	if err != nil || len(areas) == 0 {
		return m, false
	}
	idx := 0
	if cur, err := ewmh.CurrentDesktopGet(c.XUtil); err == nil && int(cur) < len(areas) {
		idx = int(cur)
	}
	wa := areas[idx]
	return clipToWorkArea(m, int(wa.X), int(wa.Y), int(wa.Width), int(wa.Height))
}

func clipToWorkArea(m Monitor, x, y, w, h int) (Monitor, bool) {
	x1 := max(m.X, x)
	y1 := max(m.Y, y)
	x2 := min(m.X+m.Width, x+w)
	y2 := min(m.Y+m.Height, y+h)
	if x2 <= x1 || y2 <= y1 {
		return m, false
	}
	m.X, m.Y = x1, y1
	m.Width, m.Height = x2-x1, y2-y1
	return m, true
}
