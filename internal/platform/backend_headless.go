package platform

import (
	"fmt"
	"strings"
	"sync"
)

// HeadlessBackend keeps windows in memory. It is used when no display is
// configured and by tests.
type HeadlessBackend struct {
	mu      sync.Mutex
	display Display
	windows map[string]*headlessWindow
	nextID  WindowID
	// foreign titles that can be focused but are never owned
	foreign []string
	focused string

	opens  int
	closes int

	// FailOpen makes Open return an error for the named window.
	FailOpen map[string]error
	// FailClose makes Close return an error for the named window and keep it.
	FailClose map[string]error
}

type headlessWindow struct {
	id   WindowID
	spec WindowSpec
}

var _ WindowManager = (*HeadlessBackend)(nil)

// NewHeadlessBackend creates an in-memory backend with one display of the
// given size.
func NewHeadlessBackend(width, height int) *HeadlessBackend {
	bounds := Rect{Width: width, Height: height}
	return &HeadlessBackend{
		display: Display{ID: 0, Name: "headless", Bounds: bounds, Usable: bounds},
		windows: make(map[string]*headlessWindow),
		nextID:  1,
	}
}

// AddForeignWindow registers a window the backend does not own, such as the
// application's main window.
func (b *HeadlessBackend) AddForeignWindow(title string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.foreign = append(b.foreign, title)
}

// SetUsable sets the display's usable area, as if panels or docks reserved
// the rest.
func (b *HeadlessBackend) SetUsable(r Rect) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.display.Usable = r
}

// Vanish drops a window as if something outside the backend destroyed it.
func (b *HeadlessBackend) Vanish(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.windows, name)
}

func (b *HeadlessBackend) PrimaryDisplay() (Display, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.display, nil
}

func (b *HeadlessBackend) Open(spec WindowSpec) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.FailOpen[spec.Name]; err != nil {
		return err
	}
	if spec.Name == "" {
		return fmt.Errorf("window name is required")
	}
	if w, ok := b.windows[spec.Name]; ok {
		w.spec.Bounds = spec.Bounds
		if spec.Focusable {
			b.focused = spec.Name
		}
		return nil
	}

	b.windows[spec.Name] = &headlessWindow{id: b.nextID, spec: spec}
	b.nextID++
	b.opens++
	if spec.Focusable {
		b.focused = spec.Name
	}
	return nil
}

func (b *HeadlessBackend) Close(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.FailClose[name]; err != nil {
		return err
	}
	if _, ok := b.windows[name]; !ok {
		return fmt.Errorf("%w: %s", ErrWindowNotFound, name)
	}
	delete(b.windows, name)
	b.closes++
	if b.focused == name {
		b.focused = ""
	}
	return nil
}

func (b *HeadlessBackend) Exists(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.windows[name]
	return ok
}

func (b *HeadlessBackend) FocusTitle(title string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.foreign {
		if strings.Contains(t, title) {
			b.focused = t
			return nil
		}
	}
	return fmt.Errorf("%w: title containing %q", ErrWindowNotFound, title)
}

func (b *HeadlessBackend) Capabilities() Capabilities {
	return Capabilities{
		Backend:      "headless",
		ClickThrough: true,
		Opacity:      true,
		AllDesktops:  true,
		Stacking:     true,
	}
}

func (b *HeadlessBackend) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for name := range b.windows {
		delete(b.windows, name)
		b.closes++
	}
}

// Spec returns the spec a live window was opened with.
func (b *HeadlessBackend) Spec(name string) (WindowSpec, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[name]
	if !ok {
		return WindowSpec{}, false
	}
	return w.spec, true
}

// Count returns the number of live windows with the given name (0 or 1).
func (b *HeadlessBackend) Count(name string) int {
	if b.Exists(name) {
		return 1
	}
	return 0
}

// Focused returns the name or title of the last focused window.
func (b *HeadlessBackend) Focused() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.focused
}

// Stats returns how many windows were created and destroyed.
func (b *HeadlessBackend) Stats() (opens, closes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opens, b.closes
}
