package overlay

import (
	"testing"

	"github.com/skygen/skydesk/internal/platform"
)

func TestCenteredBounds(t *testing.T) {
	tests := []struct {
		name    string
		display platform.Rect
		w       int
		h       int
		want    platform.Rect
	}{
		{
			name:    "1080p",
			display: platform.Rect{Width: 1920, Height: 1080},
			w:       720,
			h:       120,
			want:    platform.Rect{X: 600, Y: 480, Width: 720, Height: 120},
		},
		{
			name:    "offset display",
			display: platform.Rect{X: 1920, Y: 0, Width: 2560, Height: 1440},
			w:       720,
			h:       120,
			want:    platform.Rect{X: 1920 + 920, Y: 660, Width: 720, Height: 120},
		},
		{
			name:    "panel larger than display",
			display: platform.Rect{Width: 640, Height: 100},
			w:       720,
			h:       120,
			want:    platform.Rect{X: 0, Y: 0, Width: 640, Height: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CenteredBounds(tt.display, tt.w, tt.h)
			if got != tt.want {
				t.Fatalf("CenteredBounds() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
