package x11

import "testing"

func TestClipToWorkArea(t *testing.T) {
	m := Monitor{Name: "DP-1", X: 1920, Y: 0, Width: 2560, Height: 1440}

	tests := []struct {
		name       string
		x, y, w, h int
		want       Monitor
		wantOK     bool
	}{
		{
			name: "top bar spanning both monitors",
			x:    0, y: 32, w: 4480, h: 1408,
			want:   Monitor{Name: "DP-1", X: 1920, Y: 32, Width: 2560, Height: 1408},
			wantOK: true,
		},
		{
			name: "work area covers the monitor",
			x:    0, y: 0, w: 4480, h: 1440,
			want:   m,
			wantOK: true,
		},
		{
			name: "work area on another monitor",
			x:    0, y: 0, w: 1920, h: 1080,
			want:   m,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		got, ok := clipToWorkArea(m, tt.x, tt.y, tt.w, tt.h)
		if ok != tt.wantOK {
			t.Fatalf("%s: ok = %v, want %v", tt.name, ok, tt.wantOK)
		}
		if got != tt.want {
			t.Fatalf("%s: got %+v, want %+v", tt.name, got, tt.want)
		}
	}
}
