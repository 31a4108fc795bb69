//go:build !linux

package main

import "fmt"

func newDrawer() (drawer, error) {
	return nil, fmt.Errorf("outline drawing is only supported on X11")
}
