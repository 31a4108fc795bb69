package x11

import (
	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
)

// Connection is an open X display plus the extensions the overlay needs.
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window
	// HasShape reports the SHAPE extension, needed for click-through windows.
	HasShape bool
}

// NewConnection opens display name, or $DISPLAY when name is empty.
func NewConnection(name string) (*Connection, error) {
	open := xgbutil.NewConn
	if name != "" {
		open = func() (*xgbutil.XUtil, error) { return xgbutil.NewConnDisplay(name) }
	}
	xu, err := open()
	if err != nil {
		return nil, err
	}
	keybind.Initialize(xu)
	return &Connection{
		XUtil:    xu,
		Root:     xu.RootWin(),
		HasShape: shape.Init(xu.Conn()) == nil,
	}, nil
}

// Close disconnects from the X server.
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
