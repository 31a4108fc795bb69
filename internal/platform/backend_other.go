//go:build !linux

package platform

import (
	"fmt"
	"log/slog"
)

// New returns the in-memory backend for "headless". Other platforms have no
// native window backend.
func New(display string, _ *slog.Logger) (WindowManager, error) {
	if display == HeadlessDisplay {
		return NewHeadlessBackend(DefaultHeadlessWidth, DefaultHeadlessHeight), nil
	}
	return nil, fmt.Errorf("%w: no native window backend on this platform; set display: headless", ErrNoDisplay)
}
