package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/skygen/skydesk/internal/ipc"
	"github.com/skygen/skydesk/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		if len(os.Args) > 2 && isHelp(os.Args[2]) {
			fmt.Fprintln(os.Stdout, "Usage: skydesk daemon")
			os.Exit(0)
		}
		if len(os.Args) > 2 {
			fmt.Fprintln(os.Stderr, "daemon takes no arguments")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Usage: skydesk daemon")
			os.Exit(2)
		}
		os.Exit(runDaemon())
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "overlay":
		os.Exit(runOverlay(os.Args[2:]))
	case "outline":
		os.Exit(runOutline(os.Args[2:]))
	case "auth":
		os.Exit(runAuth(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "palette":
		os.Exit(runPalette(os.Args[2:]))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func isHelp(arg string) bool {
	return arg == "help" || arg == "-h" || arg == "--help"
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: skydesk <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the skydesk daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon and overlay status")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  overlay show        Show the overlay panel")
	fmt.Fprintln(w, "  overlay hide        Hide the overlay panel")
	fmt.Fprintln(w, "  overlay toggle      Toggle the overlay panel")
	fmt.Fprintln(w, "  overlay dim         Show the dim layer")
	fmt.Fprintln(w, "  overlay undim       Hide the dim layer")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  outline start       Start the screen outline helper")
	fmt.Fprintln(w, "  outline update      Change outline color, width or blur")
	fmt.Fprintln(w, "  outline stop        Stop the screen outline helper")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  auth login          Log in with email and password")
	fmt.Fprintln(w, "  auth signup         Create an account")
	fmt.Fprintln(w, "  auth enroll         Enroll this device")
	fmt.Fprintln(w, "  auth connect        Connect this device")
	fmt.Fprintln(w, "  auth status         Show account and device status")
	fmt.Fprintln(w, "  auth install        Install auth script dependencies")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "  config path         Print the config file path")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  palette             Open the quick-action launcher")
	fmt.Fprintln(w, "  tui                 Open the control panel")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'skydesk <command> --help' for command-specific options.")
}

// parseNoArgs parses a flag set that takes no positional arguments. It
// returns -1 when the caller should continue, else the exit code.
func parseNoArgs(fs *flag.FlagSet, name string, args []string) int {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", name)
		fs.Usage()
		return 2
	}
	return -1
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: skydesk status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if code := parseNoArgs(fs, "status", args); code >= 0 {
		return code
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	ov := status.Overlay
	fmt.Printf("daemon_running:  %v\n", status.DaemonRunning)
	fmt.Printf("pid:             %d\n", status.PID)
	fmt.Printf("uptime:          %s\n", time.Duration(status.UptimeSeconds)*time.Second)
	fmt.Printf("backend:         %s\n", ov.Capabilities.Backend)
	fmt.Printf("overlay_visible: %v\n", ov.Visible)
	fmt.Printf("dim_visible:     %v\n", ov.DimVisible)
	if ov.Outline == nil {
		fmt.Println("outline:         stopped")
		return 0
	}
	fmt.Printf("outline:         running (session %s)\n", ov.Outline.SessionID)
	fmt.Printf("outline_color:   %s\n", ov.Outline.Color)
	if ov.Outline.Width != nil {
		fmt.Printf("outline_width:   %d\n", *ov.Outline.Width)
	}
	if ov.Outline.Blur != nil {
		fmt.Printf("outline_blur:    %d\n", *ov.Outline.Blur)
	}
	return 0
}

func runTUI(args []string) int {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/skydesk/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: skydesk tui [--path PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Interactive control panel for the overlay, outline and account.")
		fmt.Fprintln(os.Stderr, "Settings can be edited offline; daemon actions need a running daemon.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  1/2/3, Tab  Switch tabs")
		fmt.Fprintln(os.Stderr, "  Ctrl+S      Review and save settings")
		fmt.Fprintln(os.Stderr, "  Ctrl+R      Refresh status")
		fmt.Fprintln(os.Stderr, "  q, Ctrl+C   Quit")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	if code := parseNoArgs(fs, "tui", args); code >= 0 {
		return code
	}

	if err := tui.Run(*path); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
