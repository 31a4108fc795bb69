// Package hotkeys binds global X11 key sequences to overlay actions.
package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// DefaultToggleKey is Alt+Space.
const DefaultToggleKey = "Mod1-space"

// Toggler flips overlay visibility.
type Toggler interface {
	Toggle() error
}

// X11Accessor is implemented by backends that expose their X11 connection.
type X11Accessor interface {
	XUtil() *xgbutil.XUtil
}

// ErrNoX11 is returned by NewHandler for backends without an X11 connection.
var ErrNoX11 = errors.New("global hotkeys require an X11 backend")

// Handler grabs key sequences on the root window.
type Handler struct {
	xu     *xgbutil.XUtil
	logger *slog.Logger
}

var lockModsOnce sync.Once

// NewHandler returns a Handler for backend. logger may be nil.
func NewHandler(backend any, logger *slog.Logger) (*Handler, error) {
	acc, ok := backend.(X11Accessor)
	if !ok || acc.XUtil() == nil {
		return nil, ErrNoX11
	}
	if logger == nil {
		logger = slog.Default()
	}
	xu := acc.XUtil()
	lockModsOnce.Do(func() {
		xevent.IgnoreMods = ignoreMaskSet(
			uint16(xproto.ModMaskLock),
			lockMask(xu, "Num_Lock"),
			lockMask(xu, "Scroll_Lock"),
		)
	})
	return &Handler{xu: xu, logger: logger}, nil
}

// RegisterToggle binds seq to t.Toggle.
func (h *Handler) RegisterToggle(seq string, t Toggler) error {
	if err := h.RegisterFunc(seq, toggleCallback(t, h.logger)); err != nil {
		return fmt.Errorf("register toggle hotkey %q: %w", seq, err)
	}
	return nil
}

// RegisterFunc binds seq to fn. fn runs on the X event loop and must not
// block.
func (h *Handler) RegisterFunc(seq string, fn func()) error {
	return keybind.KeyPressFun(func(*xgbutil.XUtil, xevent.KeyPressEvent) {
		fn()
	}).Connect(h.xu, h.xu.RootWin(), seq, true)
}

// toggleCallback runs t.Toggle on its own goroutine because window work is
// marshaled back onto the event loop. Presses during a running toggle, such
// as key repeat, are dropped.
func toggleCallback(t Toggler, logger *slog.Logger) func() {
	var running atomic.Bool
	return func() {
		if !running.CompareAndSwap(false, true) {
			return
		}
		go func() {
			defer running.Store(false)
			if err := t.Toggle(); err != nil {
				logger.Error("overlay toggle failed", "error", err)
			}
		}()
	}
}

// ignoreMaskSet returns every combination of the distinct non-zero lock
// masks, including the empty one, sorted ascending.
func ignoreMaskSet(locks ...uint16) []uint16 {
	masks := []uint16{0}
	var seen []uint16
	for _, l := range locks {
		if l == 0 || slices.Contains(seen, l) {
			continue
		}
		seen = append(seen, l)
		for _, m := range masks {
			masks = append(masks, m|l)
		}
	}
	slices.Sort(masks)
	return masks
}

func lockMask(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, code := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, code); mask != 0 {
			return mask
		}
	}
	return 0
}
