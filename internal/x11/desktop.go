package x11

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xprop"
)

// AllDesktops is the _NET_WM_DESKTOP value for windows shown on every desktop.
const AllDesktops = 0xFFFFFFFF

// ErrWindowNotFound is returned when no client window matches a title.
var ErrWindowNotFound = errors.New("window not found")

// FocusWindow asks the window manager to activate and raise win. The
// _NET_ACTIVE_WINDOW client message is sent by hand since the ewmh request
// helpers panic on this xgbutil version.
func (c *Connection) FocusWindow(win xproto.Window) error {
	atom, err := xprop.Atm(c.XUtil, "_NET_ACTIVE_WINDOW")
	if err != nil {
		return fmt.Errorf("intern _NET_ACTIVE_WINDOW: %w", err)
	}
	// Source indication 2: a pager or direct user action.
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{2, 0, 0, 0, 0}),
	}
	mask := xproto.EventMaskSubstructureRedirect | xproto.EventMaskSubstructureNotify
	return xproto.SendEventChecked(c.XUtil.Conn(), false, c.Root, uint32(mask), string(ev.Bytes())).Check()
}

// FindWindowByTitle returns the first EWMH client whose title contains sub.
func (c *Connection) FindWindowByTitle(sub string) (xproto.Window, error) {
	if sub == "" {
		return 0, fmt.Errorf("%w: empty title", ErrWindowNotFound)
	}
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("read client list: %w", err)
	}
	for _, win := range clients {
		if strings.Contains(c.title(win), sub) {
			return win, nil
		}
	}
	return 0, fmt.Errorf("%w: title containing %q", ErrWindowNotFound, sub)
}

// title prefers the UTF-8 _NET_WM_NAME and falls back to WM_NAME.
func (c *Connection) title(win xproto.Window) string {
	if name, err := ewmh.WmNameGet(c.XUtil, win); err == nil && strings.TrimSpace(name) != "" {
		return name
	}
	name, _ := icccm.WmNameGet(c.XUtil, win)
	return name
}
