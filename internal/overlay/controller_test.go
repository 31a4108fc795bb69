package overlay

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/skygen/skydesk/internal/outline"
	"github.com/skygen/skydesk/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHelper mimics the supervisor's contract: a single session whose
// process and pipe come and go together.
type fakeHelper struct {
	mu       sync.Mutex
	running  bool
	exited   bool
	opts     outline.StartOptions
	starts   int
	stops    int
	lines    []outline.Update
	startErr error
	live     int
	maxLive  int
}

func (h *fakeHelper) Start(opts outline.StartOptions) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := opts.Validate(); err != nil {
		return err
	}
	if h.running {
		h.running = false
		h.live--
	}
	if h.startErr != nil {
		return h.startErr
	}
	h.running = true
	h.exited = false
	h.opts = opts
	h.starts++
	h.live++
	if h.live > h.maxLive {
		h.maxLive = h.live
	}
	return nil
}

func (h *fakeHelper) Update(u outline.Update) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return outline.ErrHelperNotRunning
	}
	if h.exited {
		return outline.ErrHelperExited
	}
	h.lines = append(h.lines, u)
	h.opts = u.Apply(h.opts)
	return nil
}

func (h *fakeHelper) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		h.running = false
		h.live--
		h.stops++
	}
	return nil
}

func (h *fakeHelper) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running && !h.exited
}

func (h *fakeHelper) SessionID() string {
	if h.Running() {
		return "session-1"
	}
	return ""
}

func (h *fakeHelper) Current() (outline.StartOptions, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.opts, h.running
}

func (h *fakeHelper) ReapIfExited() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running && h.exited {
		h.running = false
		h.live--
		return true
	}
	return false
}

func (h *fakeHelper) exit() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exited = true
}

func newTestController(t *testing.T) (*Controller, *platform.HeadlessBackend, *fakeHelper) {
	t.Helper()
	backend := platform.NewHeadlessBackend(1920, 1080)
	backend.AddForeignWindow("Skydesk")
	helper := &fakeHelper{}
	windows := NewWindowManager(backend, WindowOptions{MainTitle: "Skydesk"})
	return NewController(windows, helper, Options{}), backend, helper
}

func TestShowCentersPanelAndRestoresFocus(t *testing.T) {
	c, backend, _ := newTestController(t)

	require.NoError(t, c.Show())
	assert.True(t, c.Status().Visible)

	spec, ok := backend.Spec(PanelWindow)
	require.True(t, ok)
	assert.Equal(t, platform.Rect{X: 600, Y: 480, Width: 720, Height: 120}, spec.Bounds)
	assert.Equal(t, platform.LevelPanel, spec.Level)
	assert.True(t, spec.AllDesktops)
	assert.True(t, spec.SkipTaskbar)
	assert.False(t, spec.Focusable)
	assert.False(t, spec.Decorations)
	assert.Equal(t, "Skydesk", backend.Focused())
}

func TestShowTwiceCreatesOnePanel(t *testing.T) {
	c, backend, _ := newTestController(t)

	require.NoError(t, c.Show())
	require.NoError(t, c.Show())

	opens, _ := backend.Stats()
	assert.Equal(t, 1, opens)
}

func TestShowWithoutMainWindowSucceeds(t *testing.T) {
	backend := platform.NewHeadlessBackend(800, 600)
	c := NewController(NewWindowManager(backend, WindowOptions{MainTitle: "missing"}), &fakeHelper{}, Options{})

	require.NoError(t, c.Show())
	assert.True(t, c.Status().Visible)
}

func TestShowFailureLeavesHidden(t *testing.T) {
	c, backend, _ := newTestController(t)
	backend.FailOpen = map[string]error{PanelWindow: errors.New("boom")}

	err := c.Show()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.False(t, c.Status().Visible)
	assert.False(t, backend.Exists(PanelWindow))
}

func TestHideIsIdempotent(t *testing.T) {
	c, backend, _ := newTestController(t)

	require.NoError(t, c.Hide())

	require.NoError(t, c.Show())
	require.NoError(t, c.ShowDim())
	require.NoError(t, c.Hide())
	assert.False(t, backend.Exists(PanelWindow))
	assert.False(t, backend.Exists(DimWindow))

	require.NoError(t, c.Hide())
}

func TestHideToleratesVanishedPanel(t *testing.T) {
	c, backend, _ := newTestController(t)
	require.NoError(t, c.Show())

	backend.Vanish(PanelWindow)
	require.NoError(t, c.Hide())
	assert.False(t, c.Status().Visible)
}

func TestHideLogsDimCloseFailure(t *testing.T) {
	backend := platform.NewHeadlessBackend(1920, 1080)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	c := NewController(NewWindowManager(backend, WindowOptions{}), &fakeHelper{}, Options{Logger: logger})

	require.NoError(t, c.Show())
	require.NoError(t, c.ShowDim())
	backend.FailClose = map[string]error{DimWindow: errors.New("dim stuck")}

	require.NoError(t, c.Hide())
	assert.False(t, c.Status().Visible)
	assert.False(t, backend.Exists(PanelWindow))
	assert.Contains(t, buf.String(), "failed to close dim window")
	assert.Contains(t, buf.String(), "dim stuck")

	// A later hide is a no-op; HideDim still reports the failure.
	require.NoError(t, c.Hide())
	require.Error(t, c.HideDim())
}

func TestShowCentersOnUsableArea(t *testing.T) {
	c, backend, _ := newTestController(t)
	backend.SetUsable(platform.Rect{X: 0, Y: 40, Width: 1920, Height: 1040})

	require.NoError(t, c.Show())
	spec, ok := backend.Spec(PanelWindow)
	require.True(t, ok)
	assert.Equal(t, platform.Rect{X: 600, Y: 500, Width: 720, Height: 120}, spec.Bounds)
}

func TestToggle(t *testing.T) {
	c, backend, _ := newTestController(t)

	require.NoError(t, c.Toggle())
	assert.True(t, c.Status().Visible)
	assert.True(t, backend.Exists(PanelWindow))

	require.NoError(t, c.Toggle())
	assert.False(t, c.Status().Visible)
	assert.False(t, backend.Exists(PanelWindow))
}

func TestDimLayer(t *testing.T) {
	c, backend, _ := newTestController(t)

	require.NoError(t, c.HideDim())
	require.NoError(t, c.ShowDim())
	require.NoError(t, c.ShowDim())

	opens, _ := backend.Stats()
	assert.Equal(t, 1, opens)

	spec, ok := backend.Spec(DimWindow)
	require.True(t, ok)
	assert.Equal(t, platform.Rect{Width: 1920, Height: 1080}, spec.Bounds)
	assert.True(t, spec.ClickThrough)
	assert.Equal(t, platform.LevelDim, spec.Level)
	assert.True(t, c.Status().DimVisible)

	require.NoError(t, c.HideDim())
	assert.False(t, backend.Exists(DimWindow))
}

func TestConcurrentTransitionsKeepVisibilityConsistent(t *testing.T) {
	c, backend, _ := newTestController(t)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			switch i % 3 {
			case 0:
				_ = c.Show()
			case 1:
				_ = c.Hide()
			default:
				_ = c.Toggle()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, c.Status().Visible, backend.Exists(PanelWindow))
	assert.LessOrEqual(t, backend.Count(PanelWindow), 1)
}

func TestOutlineOperationsDelegate(t *testing.T) {
	c, _, helper := newTestController(t)

	err := c.UpdateOutline(outline.Update{Width: u32(2)})
	assert.True(t, errors.Is(err, outline.ErrHelperNotRunning))

	require.NoError(t, c.StartOutline(outline.StartOptions{Color: "blue", Width: u32(5)}))
	require.NoError(t, c.StartOutline(outline.StartOptions{Color: "blue", Width: u32(5)}))
	assert.Equal(t, 1, helper.maxLive)

	red := "red"
	require.NoError(t, c.UpdateOutline(outline.Update{Color: &red}))

	st := c.Status()
	require.NotNil(t, st.Outline)
	assert.Equal(t, "red", st.Outline.Color)
	assert.Equal(t, uint32(5), *st.Outline.Width)

	require.NoError(t, c.StopOutline())
	require.NoError(t, c.StopOutline())
	assert.Nil(t, c.Status().Outline)
}

func TestShutdownReleasesEverything(t *testing.T) {
	c, backend, helper := newTestController(t)

	require.NoError(t, c.Show())
	require.NoError(t, c.ShowDim())
	require.NoError(t, c.StartOutline(outline.StartOptions{Color: "red"}))

	c.Shutdown()

	assert.False(t, helper.Running())
	assert.Equal(t, 0, helper.live)
	assert.False(t, backend.Exists(PanelWindow))
	assert.False(t, backend.Exists(DimWindow))
	assert.False(t, c.Status().Visible)

	// Shutdown from a clean state is harmless.
	c.Shutdown()
}

func TestReconcile(t *testing.T) {
	c, backend, helper := newTestController(t)

	assert.False(t, c.Reconcile().Changed())

	require.NoError(t, c.Show())
	backend.Vanish(PanelWindow)
	res := c.Reconcile()
	assert.True(t, res.PanelLost)
	assert.False(t, c.Status().Visible)

	require.NoError(t, backend.Open(platform.WindowSpec{Name: PanelWindow}))
	res = c.Reconcile()
	assert.True(t, res.StrayPanelClosed)
	assert.False(t, backend.Exists(PanelWindow))

	require.NoError(t, c.StartOutline(outline.StartOptions{Color: "red"}))
	helper.exit()
	res = c.Reconcile()
	assert.True(t, res.HelperReaped)
	assert.False(t, helper.Running())
}

func u32(v uint32) *uint32 { return &v }
