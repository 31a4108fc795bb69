//go:build linux

package platform

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xwindow"
	"github.com/skygen/skydesk/internal/x11"
)

// Default panel background, a dark neutral that reads well when translucent.
const (
	panelBackground = 0x1F2933
	dimBackground   = 0x000000
)

// LinuxBackend implements WindowManager on X11. Every X request runs on the
// dispatcher's event loop.
type LinuxBackend struct {
	conn       *x11.Connection
	dispatcher *x11.Dispatcher
	logger     *slog.Logger

	mu      sync.Mutex
	windows map[string]*managedWindow
}

type managedWindow struct {
	win   *xwindow.Window
	level Level
}

var _ WindowManager = (*LinuxBackend)(nil)

// New returns the backend for display: "headless" selects the in-memory
// backend, anything else is an X display name ("" for $DISPLAY). logger may
// be nil.
func New(display string, logger *slog.Logger) (WindowManager, error) {
	if display == HeadlessDisplay {
		return NewHeadlessBackend(DefaultHeadlessWidth, DefaultHeadlessHeight), nil
	}
	return NewLinuxBackend(display, logger)
}

// NewLinuxBackend opens the named X display ("" for $DISPLAY).
func NewLinuxBackend(display string, logger *slog.Logger) (*LinuxBackend, error) {
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDisplay, err)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LinuxBackend{
		conn:       conn,
		dispatcher: x11.NewDispatcher(conn),
		logger:     logger,
		windows:    make(map[string]*managedWindow),
	}, nil
}

// EventLoop runs the X11 event loop (blocking) until Shutdown.
func (b *LinuxBackend) EventLoop() {
	b.dispatcher.Run()
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	return b.conn.XUtil
}

// Dispatcher returns the UI-loop dispatcher.
func (b *LinuxBackend) Dispatcher() *x11.Dispatcher {
	return b.dispatcher
}

func (b *LinuxBackend) PrimaryDisplay() (Display, error) {
	var d Display
	err := b.dispatcher.Do(func() error {
		m, err := b.conn.PrimaryMonitor()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNoDisplay, err)
		}
		d = displayFromMonitor(m)
		if wa, ok := b.conn.WorkArea(m); ok {
			d.Usable = Rect{X: wa.X, Y: wa.Y, Width: wa.Width, Height: wa.Height}
		}
		return nil
	})
	return d, err
}

func (b *LinuxBackend) Open(spec WindowSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("window name is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.dispatcher.Do(func() error {
		if existing, ok := b.windows[spec.Name]; ok {
			if b.conn.WindowAlive(existing.win.Id) {
				existing.win.Map()
				if spec.Focusable {
					_ = b.conn.FocusWindow(existing.win.Id)
				}
				b.restackLocked()
				return nil
			}
			delete(b.windows, spec.Name)
		}

		if spec.ClickThrough && !b.conn.HasShape {
			b.logger.Debug("SHAPE extension missing, window will take input", "window", spec.Name)
		}
		win, err := b.conn.CreateManagedWindow(windowOptions(spec, b.conn.HasShape))
		if err != nil {
			return fmt.Errorf("failed to open %s window: %w", spec.Name, err)
		}
		b.windows[spec.Name] = &managedWindow{win: win, level: spec.Level}
		b.restackLocked()
		return nil
	})
}

func (b *LinuxBackend) Close(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	w, ok := b.windows[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrWindowNotFound, name)
	}
	delete(b.windows, name)
	return b.dispatcher.Do(func() error {
		w.win.Destroy()
		return nil
	})
}

func (b *LinuxBackend) Exists(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	w, ok := b.windows[name]
	if !ok {
		return false
	}
	alive := false
	if err := b.dispatcher.Do(func() error {
		alive = b.conn.WindowAlive(w.win.Id)
		return nil
	}); err != nil {
		return false
	}
	if !alive {
		delete(b.windows, name)
	}
	return alive
}

func (b *LinuxBackend) FocusTitle(title string) error {
	return b.dispatcher.Do(func() error {
		win, err := b.conn.FindWindowByTitle(title)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrWindowNotFound, err)
		}
		return b.conn.FocusWindow(win)
	})
}

func (b *LinuxBackend) Capabilities() Capabilities {
	return Capabilities{
		Backend:      "x11",
		ClickThrough: b.conn.HasShape,
		Opacity:      true,
		AllDesktops:  true,
		Stacking:     true,
	}
}

// Shutdown destroys owned windows, stops the event loop and disconnects.
func (b *LinuxBackend) Shutdown() {
	b.mu.Lock()
	windows := b.windows
	b.windows = make(map[string]*managedWindow)
	b.mu.Unlock()

	_ = b.dispatcher.Do(func() error {
		for _, w := range windows {
			w.win.Destroy()
		}
		b.conn.XUtil.Sync()
		return nil
	})
	b.dispatcher.Stop()
	b.conn.Close()
}

// restackLocked orders owned windows by level, each directly above the
// next lower one.
func (b *LinuxBackend) restackLocked() {
	ordered := make([]*managedWindow, 0, len(b.windows))
	for _, w := range b.windows {
		ordered = append(ordered, w)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].level < ordered[j].level })
	for i := 1; i < len(ordered); i++ {
		if ordered[i].level == ordered[i-1].level {
			continue
		}
		_ = b.conn.StackAbove(ordered[i].win.Id, ordered[i-1].win.Id)
	}
}

// windowOptions maps spec onto X window options. Click-through is dropped
// when the server has no SHAPE extension.
func windowOptions(spec WindowSpec, hasShape bool) x11.WindowOptions {
	opts := x11.WindowOptions{
		Title:        spec.Title,
		X:            spec.Bounds.X,
		Y:            spec.Bounds.Y,
		Width:        spec.Bounds.Width,
		Height:       spec.Bounds.Height,
		Opacity:      spec.Opacity,
		KeepAbove:    spec.Level > LevelNormal,
		AllDesktops:  spec.AllDesktops,
		SkipTaskbar:  spec.SkipTaskbar,
		Decorations:  spec.Decorations,
		Focusable:    spec.Focusable,
		ClickThrough: spec.ClickThrough && hasShape,
	}
	switch spec.Level {
	case LevelDim:
		opts.Background = dimBackground
		opts.WindowType = "_NET_WM_WINDOW_TYPE_NOTIFICATION"
	case LevelPanel:
		opts.Background = panelBackground
		opts.WindowType = "_NET_WM_WINDOW_TYPE_UTILITY"
	default:
		opts.WindowType = "_NET_WM_WINDOW_TYPE_NORMAL"
	}
	return opts
}

func displayFromMonitor(m x11.Monitor) Display {
	bounds := Rect{
		X:      m.X,
		Y:      m.Y,
		Width:  m.Width,
		Height: m.Height,
	}
	return Display{
		ID:     m.ID,
		Name:   m.Name,
		Bounds: bounds,
		Usable: bounds,
	}
}
