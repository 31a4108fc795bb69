package platform

import "errors"

var (
	// ErrWindowNotFound is returned for operations on a window name that has
	// no live window.
	ErrWindowNotFound = errors.New("window not found")
	// ErrNoDisplay is returned when no display server is reachable.
	ErrNoDisplay = errors.New("no display available")
)

// HeadlessDisplay selects the in-memory backend.
const HeadlessDisplay = "headless"

const (
	DefaultHeadlessWidth  = 1920
	DefaultHeadlessHeight = 1080
)

// EventLooper is implemented by backends that own a UI event loop. The loop
// must be running for window operations to complete.
type EventLooper interface {
	EventLoop()
}

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Display describes a physical display and its usable work area.
type Display struct {
	ID     int
	Name   string
	Bounds Rect
	Usable Rect
}

// Level is a stacking level for managed windows. Higher levels stack above
// lower ones.
type Level int

const (
	LevelNormal Level = iota
	LevelDim
	LevelPanel
)

func (l Level) String() string {
	switch l {
	case LevelDim:
		return "dim"
	case LevelPanel:
		return "panel"
	default:
		return "normal"
	}
}

// WindowSpec describes a window owned by the window manager.
type WindowSpec struct {
	Name   string
	Title  string
	Bounds Rect
	Level  Level

	// Opacity in (0,1]; zero means opaque.
	Opacity float64

	ClickThrough bool
	AllDesktops  bool
	SkipTaskbar  bool
	Decorations  bool
	// Focusable windows may receive keyboard focus when shown.
	Focusable bool
}

// Capabilities reports which chrome features a backend can honor. Features a
// backend lacks are skipped silently.
type Capabilities struct {
	Backend      string `json:"backend"`
	ClickThrough bool   `json:"click_through"`
	Opacity      bool   `json:"opacity"`
	AllDesktops  bool   `json:"all_desktops"`
	Stacking     bool   `json:"stacking"`
}

// WindowManager owns named windows and can focus pre-existing ones.
type WindowManager interface {
	// PrimaryDisplay returns the display new windows are placed on.
	PrimaryDisplay() (Display, error)
	// Open creates and maps the window described by spec. Opening a name
	// that already has a live window maps and raises it instead.
	Open(spec WindowSpec) error
	// Close destroys the named window. Closing an unknown name returns
	// ErrWindowNotFound.
	Close(name string) error
	// Exists reports whether the named window is still alive.
	Exists(name string) bool
	// FocusTitle activates the first window whose title contains title.
	FocusTitle(title string) error
	Capabilities() Capabilities
	// Shutdown destroys every owned window and releases the backend.
	Shutdown()
}
