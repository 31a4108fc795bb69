package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skygen/skydesk/internal/authbridge"
	"github.com/skygen/skydesk/internal/ipc"
	"github.com/skygen/skydesk/internal/overlay"
	"github.com/skygen/skydesk/internal/platform"
)

type fakeDaemon struct {
	mu      sync.Mutex
	visible bool
	dim     bool
	outline *overlay.OutlineStatus
	calls   []string
	err     error
}

func (d *fakeDaemon) record(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, name)
	return d.err
}

func (d *fakeDaemon) GetStatus() (*ipc.StatusData, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return &ipc.StatusData{
		Overlay: overlay.Status{
			Visible:      d.visible,
			DimVisible:   d.dim,
			Outline:      d.outline,
			Capabilities: platform.Capabilities{Backend: "headless", ClickThrough: true},
		},
		DaemonRunning: true,
		PID:           42,
	}, nil
}

func (d *fakeDaemon) set(fn func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	fn()
	return nil
}

func (d *fakeDaemon) ShowOverlay() error {
	d.record("show")
	return d.set(func() { d.visible = true })
}

func (d *fakeDaemon) HideOverlay() error {
	d.record("hide")
	return d.set(func() { d.visible = false })
}

func (d *fakeDaemon) ToggleOverlay() error {
	d.record("toggle")
	return d.set(func() { d.visible = !d.visible })
}

func (d *fakeDaemon) ShowDim() error { return d.set(func() { d.dim = true }) }
func (d *fakeDaemon) HideDim() error { return d.set(func() { d.dim = false }) }

func (d *fakeDaemon) StartOutline(p ipc.StartOutlinePayload) error {
	return d.set(func() {
		d.outline = &overlay.OutlineStatus{SessionID: "s-1", Color: p.Color, Width: p.Width, Blur: p.Blur}
	})
}

func (d *fakeDaemon) UpdateOutline(p ipc.UpdateOutlinePayload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.outline == nil {
		return errors.New("outline helper is not running")
	}
	if p.Color != nil {
		d.outline.Color = *p.Color
	}
	if p.Width != nil {
		d.outline.Width = p.Width
	}
	return nil
}

func (d *fakeDaemon) StopOutline() error { return d.set(func() { d.outline = nil }) }

func (d *fakeDaemon) AuthStatus() (*authbridge.StatusResponse, error) {
	return &authbridge.StatusResponse{Authenticated: true, DeviceEnrolled: true, Platform: "linux"}, nil
}

func (d *fakeDaemon) EnrollDevice() (*authbridge.AuthResponse, error) {
	return &authbridge.AuthResponse{Success: true, Data: json.RawMessage(`{"device_id":"dev-1"}`)}, nil
}

func (d *fakeDaemon) Connect() (*authbridge.AuthResponse, error) {
	return &authbridge.AuthResponse{Success: false, Error: "device not enrolled"}, nil
}

func connect(t *testing.T, d Daemon) *mcpsdk.ClientSession {
	t.Helper()
	ctx := context.Background()
	srv := NewServer(d, "#FF4D4F", nil)

	serverT, clientT := mcpsdk.NewInMemoryTransports()
	ss, err := srv.Connect(ctx, serverT)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

func call[T any](t *testing.T, cs *mcpsdk.ClientSession, name string, args any) (T, *mcpsdk.CallToolResult) {
	t.Helper()
	var out T
	res, err := cs.CallTool(context.Background(), &mcpsdk.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	if res.IsError || res.StructuredContent == nil {
		return out, res
	}
	data, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &out))
	return out, res
}

func errorText(res *mcpsdk.CallToolResult) string {
	for _, c := range res.Content {
		if tc, ok := c.(*mcpsdk.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestToolsAreRegistered(t *testing.T) {
	cs := connect(t, &fakeDaemon{})
	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	for _, want := range []string{
		"show_overlay", "hide_overlay", "toggle_overlay", "show_dim", "hide_dim",
		"start_outline", "update_outline", "stop_outline", "get_status",
		"auth_status", "enroll_device", "connect",
	} {
		assert.Contains(t, names, want)
	}
}

func TestOverlayTools(t *testing.T) {
	d := &fakeDaemon{}
	cs := connect(t, d)

	out, _ := call[OverlayOutput](t, cs, "show_overlay", map[string]any{})
	assert.True(t, out.Visible)

	out, _ = call[OverlayOutput](t, cs, "toggle_overlay", map[string]any{})
	assert.False(t, out.Visible)

	out, _ = call[OverlayOutput](t, cs, "show_dim", map[string]any{})
	assert.True(t, out.DimVisible)
	assert.False(t, out.Visible)

	d.mu.Lock()
	assert.Equal(t, []string{"show", "toggle"}, d.calls)
	d.mu.Unlock()
}

func TestOverlayToolError(t *testing.T) {
	d := &fakeDaemon{err: errors.New("daemon error: no display available")}
	cs := connect(t, d)

	_, res := call[OverlayOutput](t, cs, "show_overlay", map[string]any{})
	assert.True(t, res.IsError)
	assert.Contains(t, errorText(res), "no display available")
}

func TestOutlineTools(t *testing.T) {
	cs := connect(t, &fakeDaemon{})

	_, res := call[OutlineOutput](t, cs, "update_outline", map[string]any{"width": 3})
	assert.True(t, res.IsError)
	assert.Contains(t, errorText(res), "not running")

	out, _ := call[OutlineOutput](t, cs, "start_outline", map[string]any{"width": 6})
	assert.True(t, out.Running)
	assert.Equal(t, "#FF4D4F", out.Color, "default color used when omitted")
	require.NotNil(t, out.Width)
	assert.Equal(t, uint32(6), *out.Width)

	out, _ = call[OutlineOutput](t, cs, "update_outline", map[string]any{"color": "blue"})
	assert.Equal(t, "blue", out.Color)
	assert.Equal(t, uint32(6), *out.Width)

	_, res = call[OutlineOutput](t, cs, "update_outline", map[string]any{})
	assert.True(t, res.IsError)

	status, _ := call[StatusOutput](t, cs, "get_status", map[string]any{})
	require.NotNil(t, status.Outline)
	assert.Equal(t, "s-1", status.Outline.SessionID)
	assert.Equal(t, "headless", status.Backend)
	assert.Equal(t, 42, status.PID)

	out, _ = call[OutlineOutput](t, cs, "stop_outline", map[string]any{})
	assert.False(t, out.Running)

	status, _ = call[StatusOutput](t, cs, "get_status", map[string]any{})
	assert.Nil(t, status.Outline)
}

func TestAuthTools(t *testing.T) {
	cs := connect(t, &fakeDaemon{})

	st, _ := call[AuthStatusOutput](t, cs, "auth_status", map[string]any{})
	assert.True(t, st.Authenticated)
	assert.True(t, st.DeviceEnrolled)
	assert.Equal(t, "linux", st.Platform)

	enroll, _ := call[ConnectOutput](t, cs, "enroll_device", map[string]any{})
	assert.True(t, enroll.Success)
	assert.JSONEq(t, `{"device_id":"dev-1"}`, enroll.Data)

	conn, _ := call[ConnectOutput](t, cs, "connect", map[string]any{})
	assert.False(t, conn.Success)
	assert.Equal(t, "device not enrolled", conn.Error)
}
