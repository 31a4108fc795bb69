package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/skygen/skydesk/internal/config"
	"github.com/skygen/skydesk/internal/ipc"
	"github.com/skygen/skydesk/internal/palette"
)

func runPalette(args []string) int {
	fs := flag.NewFlagSet("palette", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	backendName := fs.String("backend", "", "Launcher: auto, rofi, fuzzel, wofi, dmenu (default: palette.backend)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: skydesk palette [--backend NAME]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Open a launcher menu with overlay, dim and outline actions.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	if code := parseNoArgs(fs, "palette", args); code >= 0 {
		return code
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	name := cfg.Palette.Backend
	if *backendName != "" {
		name = *backendName
	}
	backend, err := palette.NewBackend(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if _, err := palette.Run(backend, ipc.NewClient(), cfg.Outline.DefaultColor); err != nil {
		if palette.IsCancelled(err) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
