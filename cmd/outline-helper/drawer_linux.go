//go:build linux

package main

import (
	"fmt"

	"github.com/skygen/skydesk/internal/outline"
	"github.com/skygen/skydesk/internal/x11"
)

type x11Drawer struct {
	conn    *x11.Connection
	border  *x11.Border
	monitor x11.Monitor
}

func newDrawer() (drawer, error) {
	conn, err := x11.NewConnection("")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to display: %w", err)
	}
	m, err := conn.PrimaryMonitor()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to find primary monitor: %w", err)
	}
	b, err := conn.NewBorder()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create border: %w", err)
	}
	return &x11Drawer{conn: conn, border: b, monitor: m}, nil
}

func (d *x11Drawer) Draw(opts outline.StartOptions) error {
	color, err := outline.ParseColor(opts.Color)
	if err != nil {
		return err
	}
	width := x11.DefaultBorderWidth
	if opts.Width != nil && *opts.Width > 0 {
		width = int(*opts.Width)
	}
	if limit := min(d.monitor.Width, d.monitor.Height) / 2; width > limit {
		width = limit
	}
	d.border.Show(d.monitor, width, color)
	d.conn.XUtil.Sync()
	return nil
}

func (d *x11Drawer) Close() {
	if d.border == nil {
		return
	}
	d.border.Destroy()
	d.border = nil
	d.conn.XUtil.Sync()
	d.conn.Close()
}
