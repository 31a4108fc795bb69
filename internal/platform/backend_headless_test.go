package platform

import (
	"errors"
	"testing"
)

func TestHeadlessOpenIsShowForExistingName(t *testing.T) {
	b := NewHeadlessBackend(1920, 1080)

	spec := WindowSpec{Name: "overlay", Bounds: Rect{X: 10, Y: 10, Width: 100, Height: 50}}
	if err := b.Open(spec); err != nil {
		t.Fatalf("first open: %v", err)
	}
	spec.Bounds.X = 20
	if err := b.Open(spec); err != nil {
		t.Fatalf("second open: %v", err)
	}

	opens, _ := b.Stats()
	if opens != 1 {
		t.Fatalf("opens = %d, want 1", opens)
	}
	got, ok := b.Spec("overlay")
	if !ok {
		t.Fatalf("overlay window missing")
	}
	if got.Bounds.X != 20 {
		t.Fatalf("bounds not updated: %+v", got.Bounds)
	}
}

func TestHeadlessCloseUnknown(t *testing.T) {
	b := NewHeadlessBackend(800, 600)
	err := b.Close("overlay")
	if !errors.Is(err, ErrWindowNotFound) {
		t.Fatalf("Close() error = %v, want ErrWindowNotFound", err)
	}
}

func TestHeadlessFocusTitle(t *testing.T) {
	b := NewHeadlessBackend(800, 600)
	if err := b.FocusTitle("Skydesk"); !errors.Is(err, ErrWindowNotFound) {
		t.Fatalf("FocusTitle() error = %v, want ErrWindowNotFound", err)
	}

	b.AddForeignWindow("Skydesk - main")
	if err := b.FocusTitle("Skydesk"); err != nil {
		t.Fatalf("FocusTitle() error = %v", err)
	}
	if got := b.Focused(); got != "Skydesk - main" {
		t.Fatalf("Focused() = %q", got)
	}
}

func TestHeadlessVanishAndShutdown(t *testing.T) {
	b := NewHeadlessBackend(800, 600)
	_ = b.Open(WindowSpec{Name: "overlay"})
	_ = b.Open(WindowSpec{Name: "overlay_dim"})

	b.Vanish("overlay")
	if b.Exists("overlay") {
		t.Fatalf("overlay should be gone")
	}

	b.Shutdown()
	if b.Exists("overlay_dim") {
		t.Fatalf("shutdown should close every window")
	}
}

func TestNewHeadless(t *testing.T) {
	wm, err := New(HeadlessDisplay, nil)
	if err != nil {
		t.Fatalf("New(headless) error = %v", err)
	}
	d, err := wm.PrimaryDisplay()
	if err != nil {
		t.Fatalf("PrimaryDisplay() error = %v", err)
	}
	if d.Bounds.Width != DefaultHeadlessWidth || d.Bounds.Height != DefaultHeadlessHeight {
		t.Fatalf("unexpected display %+v", d)
	}
	if wm.Capabilities().Backend != "headless" {
		t.Fatalf("unexpected capabilities %+v", wm.Capabilities())
	}
}

func TestLevelString(t *testing.T) {
	if LevelPanel.String() != "panel" || LevelDim.String() != "dim" || LevelNormal.String() != "normal" {
		t.Fatalf("unexpected level names")
	}
	if !(LevelPanel > LevelDim && LevelDim > LevelNormal) {
		t.Fatalf("panel must stack above dim")
	}
}
