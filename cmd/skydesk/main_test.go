package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/skygen/skydesk/internal/ipc"
	"github.com/skygen/skydesk/internal/outline"
	"github.com/skygen/skydesk/internal/overlay"
	"github.com/skygen/skydesk/internal/runtimepath"
)

type stubOverlay struct {
	mu      sync.Mutex
	calls   []string
	outline *outline.StartOptions
}

func (s *stubOverlay) record(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
	return nil
}

func (s *stubOverlay) Show() error    { return s.record("show") }
func (s *stubOverlay) Hide() error    { return s.record("hide") }
func (s *stubOverlay) Toggle() error  { return s.record("toggle") }
func (s *stubOverlay) ShowDim() error { return s.record("show_dim") }
func (s *stubOverlay) HideDim() error { return s.record("hide_dim") }
func (s *stubOverlay) StopOutline() error {
	return s.record("stop_outline")
}

func (s *stubOverlay) StartOutline(opts outline.StartOptions) error {
	s.mu.Lock()
	s.outline = &opts
	s.mu.Unlock()
	return s.record("start_outline")
}

func (s *stubOverlay) UpdateOutline(u outline.Update) error {
	s.mu.Lock()
	if s.outline != nil {
		next := u.Apply(*s.outline)
		s.outline = &next
	}
	s.mu.Unlock()
	return s.record("update_outline")
}

func (s *stubOverlay) Status() overlay.Status {
	return overlay.Status{Visible: true}
}

func (s *stubOverlay) snapshot() ([]string, *outline.StartOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...), s.outline
}

func startStubDaemon(t *testing.T) *stubOverlay {
	t.Helper()
	dir, err := os.MkdirTemp("", "skd")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	socket := filepath.Join(dir, "d.sock")
	t.Setenv(runtimepath.SocketEnv, socket)

	stub := &stubOverlay{}
	srv := ipc.NewServer(socket, stub, nil, nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(srv.Stop)
	return stub
}

func TestRunOverlayCommands(t *testing.T) {
	stub := startStubDaemon(t)

	for _, cmd := range []string{"show", "hide", "toggle", "dim", "undim"} {
		if rc := runOverlay([]string{cmd}); rc != 0 {
			t.Fatalf("runOverlay(%s) rc=%d, want 0", cmd, rc)
		}
	}

	calls, _ := stub.snapshot()
	want := []string{"show", "hide", "toggle", "show_dim", "hide_dim"}
	if len(calls) != len(want) {
		t.Fatalf("calls=%v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls[%d]=%q, want %q", i, calls[i], want[i])
		}
	}
}

func TestRunOverlayUsageErrors(t *testing.T) {
	if rc := runOverlay(nil); rc != 2 {
		t.Fatalf("no args rc=%d, want 2", rc)
	}
	if rc := runOverlay([]string{"spin"}); rc != 2 {
		t.Fatalf("unknown rc=%d, want 2", rc)
	}
	if rc := runOverlay([]string{"show", "extra"}); rc != 2 {
		t.Fatalf("extra args rc=%d, want 2", rc)
	}
}

func TestRunOutlineStartUpdateStop(t *testing.T) {
	stub := startStubDaemon(t)

	if rc := runOutline([]string{"start", "--color", "#00FF00", "--width", "6"}); rc != 0 {
		t.Fatalf("start rc=%d, want 0", rc)
	}
	if rc := runOutline([]string{"update", "--blur", "2"}); rc != 0 {
		t.Fatalf("update rc=%d, want 0", rc)
	}

	_, opts := stub.snapshot()
	if opts == nil {
		t.Fatalf("outline not started")
	}
	if opts.Color != "#00FF00" {
		t.Fatalf("color=%q, want #00FF00", opts.Color)
	}
	if opts.Width == nil || *opts.Width != 6 {
		t.Fatalf("width=%v, want 6", opts.Width)
	}
	if opts.Blur == nil || *opts.Blur != 2 {
		t.Fatalf("blur=%v, want 2", opts.Blur)
	}

	if rc := runOutline([]string{"stop"}); rc != 0 {
		t.Fatalf("stop rc=%d, want 0", rc)
	}
	calls, _ := stub.snapshot()
	if got := calls[len(calls)-1]; got != "stop_outline" {
		t.Fatalf("last call=%q, want stop_outline", got)
	}
}

func TestRunOutlineStartUsesConfigDefaultColor(t *testing.T) {
	stub := startStubDaemon(t)

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("outline:\n  default_color: \"#123456\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("SKYDESK_CONFIG", cfgPath)

	if rc := runOutline([]string{"start"}); rc != 0 {
		t.Fatalf("start rc=%d, want 0", rc)
	}
	_, opts := stub.snapshot()
	if opts == nil || opts.Color != "#123456" {
		t.Fatalf("opts=%+v, want color #123456", opts)
	}
}

func TestRunOutlineFlagErrors(t *testing.T) {
	if rc := runOutline([]string{"update"}); rc != 2 {
		t.Fatalf("update without flags rc=%d, want 2", rc)
	}
	if rc := runOutline([]string{"start", "--width", "-3"}); rc != 2 {
		t.Fatalf("negative width rc=%d, want 2", rc)
	}
	if rc := runOutline([]string{"stop", "now"}); rc != 2 {
		t.Fatalf("stop with args rc=%d, want 2", rc)
	}
}

func TestRunStatusWithoutDaemon(t *testing.T) {
	t.Setenv(runtimepath.SocketEnv, filepath.Join(t.TempDir(), "missing.sock"))
	if rc := runStatus(nil); rc != 1 {
		t.Fatalf("rc=%d, want 1", rc)
	}
}

func TestRunStatusWithDaemon(t *testing.T) {
	startStubDaemon(t)
	if rc := runStatus(nil); rc != 0 {
		t.Fatalf("rc=%d, want 0", rc)
	}
}

func TestRunAuthWithoutBridge(t *testing.T) {
	startStubDaemon(t)
	if rc := runAuth([]string{"status"}); rc != 1 {
		t.Fatalf("rc=%d, want 1 when the daemon has no auth bridge", rc)
	}
	if rc := runAuth([]string{"enroll", "now"}); rc != 2 {
		t.Fatalf("rc=%d, want 2 for extra args", rc)
	}
}

func TestRunConfigCommands(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, []byte("hotkey: Mod4-o\npanel:\n  width: 800\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("hotkey: Mod4-o\nnot_a_key: 1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	tests := []struct {
		args []string
		want int
	}{
		{[]string{"validate", "--path", good}, 0},
		{[]string{"validate", "--path", bad}, 1},
		{[]string{"print", "--path", good}, 0},
		{[]string{"print", "--defaults"}, 0},
		{[]string{"explain", "--path", good, "panel.width"}, 0},
		{[]string{"explain", "--path", good, "panel.depth"}, 1},
		{[]string{"explain", "--path", good}, 2},
		{[]string{"path"}, 0},
		{[]string{"frobnicate"}, 2},
		{nil, 2},
	}
	for _, tt := range tests {
		if rc := runConfig(tt.args); rc != tt.want {
			t.Fatalf("runConfig(%v) rc=%d, want %d", tt.args, rc, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		" error ": slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q)=%v, want %v", in, got, want)
		}
	}
}

func TestRunPaletteRejectsUnknownBackend(t *testing.T) {
	t.Setenv("SKYDESK_CONFIG", filepath.Join(t.TempDir(), "none.yaml"))
	if rc := runPalette([]string{"--backend", "albert"}); rc != 1 {
		t.Fatalf("rc=%d, want 1", rc)
	}
	if rc := runPalette([]string{"extra"}); rc != 2 {
		t.Fatalf("rc=%d, want 2", rc)
	}
}
