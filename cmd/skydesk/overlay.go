package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/skygen/skydesk/internal/config"
	"github.com/skygen/skydesk/internal/ipc"
)

func printOverlayUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: skydesk overlay <show|hide|toggle|dim|undim>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Control the overlay panel and dim layer of the running daemon.")
}

func runOverlay(args []string) int {
	if len(args) == 0 {
		printOverlayUsage(os.Stderr)
		return 2
	}
	if isHelp(args[0]) {
		printOverlayUsage(os.Stdout)
		return 0
	}
	if len(args) > 1 {
		fmt.Fprintf(os.Stderr, "overlay %s takes no arguments\n", args[0])
		return 2
	}

	client := ipc.NewClient()
	var err error
	switch args[0] {
	case "show":
		err = client.ShowOverlay()
	case "hide":
		err = client.HideOverlay()
	case "toggle":
		err = client.ToggleOverlay()
	case "dim":
		err = client.ShowDim()
	case "undim":
		err = client.HideDim()
	default:
		fmt.Fprintf(os.Stderr, "Unknown overlay command: %s\n\n", args[0])
		printOverlayUsage(os.Stderr)
		return 2
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func printOutlineUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  skydesk outline start [--color C] [--width N] [--blur N]")
	fmt.Fprintln(w, "  skydesk outline update [--color C] [--width N] [--blur N]")
	fmt.Fprintln(w, "  skydesk outline stop")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'skydesk outline <command> --help' for command-specific options.")
}

// outlineFlags collects the optional outline settings. Unset flags stay nil so
// updates only carry what the user passed.
type outlineFlags struct {
	color *string
	width *uint32
	blur  *uint32
}

func (o *outlineFlags) register(fs *flag.FlagSet) {
	fs.Func("color", "Outline color (#RRGGBB, #RGB or a color name)", func(s string) error {
		o.color = &s
		return nil
	})
	fs.Func("width", "Outline thickness in pixels", func(s string) error {
		v, err := parseUint32(s)
		if err != nil {
			return err
		}
		o.width = &v
		return nil
	})
	fs.Func("blur", "Outline blur radius", func(s string) error {
		v, err := parseUint32(s)
		if err != nil {
			return err
		}
		o.blur = &v
		return nil
	})
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return uint32(v), nil
}

func runOutline(args []string) int {
	if len(args) == 0 {
		printOutlineUsage(os.Stderr)
		return 2
	}
	if isHelp(args[0]) {
		printOutlineUsage(os.Stdout)
		return 0
	}

	client := ipc.NewClient()

	switch args[0] {
	case "start":
		fs := flag.NewFlagSet("start", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: skydesk outline start [--color C] [--width N] [--blur N]")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Start the outline helper, replacing any running one.")
			fmt.Fprintln(os.Stderr, "The color defaults to outline.default_color from config.")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Flags:")
			fs.PrintDefaults()
		}
		var of outlineFlags
		of.register(fs)
		if code := parseNoArgs(fs, "outline start", args[1:]); code >= 0 {
			return code
		}

		payload := ipc.StartOutlinePayload{Width: of.width, Blur: of.blur}
		if of.color != nil {
			payload.Color = *of.color
		} else {
			cfg, err := config.Load()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			payload.Color = cfg.Outline.DefaultColor
		}
		if err := client.StartOutline(payload); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	case "update":
		fs := flag.NewFlagSet("update", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: skydesk outline update [--color C] [--width N] [--blur N]")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Send a live update to the running outline helper.")
			fmt.Fprintln(os.Stderr, "Only the flags given are changed.")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Flags:")
			fs.PrintDefaults()
		}
		var of outlineFlags
		of.register(fs)
		if code := parseNoArgs(fs, "outline update", args[1:]); code >= 0 {
			return code
		}
		if of.color == nil && of.width == nil && of.blur == nil {
			fmt.Fprintln(os.Stderr, "outline update requires at least one of --color, --width, --blur")
			fs.Usage()
			return 2
		}
		if err := client.UpdateOutline(ipc.UpdateOutlinePayload{Color: of.color, Width: of.width, Blur: of.blur}); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	case "stop":
		if len(args) > 1 {
			if isHelp(args[1]) {
				fmt.Fprintln(os.Stdout, "Usage: skydesk outline stop")
				return 0
			}
			fmt.Fprintln(os.Stderr, "outline stop takes no arguments")
			return 2
		}
		if err := client.StopOutline(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown outline command: %s\n\n", args[0])
		printOutlineUsage(os.Stderr)
		return 2
	}
}
