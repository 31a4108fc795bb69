package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/skygen/skydesk/internal/authbridge"
	"github.com/skygen/skydesk/internal/ipc"
)

// Daemon is the daemon surface the control panel drives.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	Reload() error
	ShowOverlay() error
	HideOverlay() error
	ToggleOverlay() error
	ShowDim() error
	HideDim() error
	StartOutline(p ipc.StartOutlinePayload) error
	UpdateOutline(p ipc.UpdateOutlinePayload) error
	StopOutline() error
	Login(email, password string) (*authbridge.AuthResponse, error)
	Signup(email, password string) (*authbridge.AuthResponse, error)
	EnrollDevice() (*authbridge.AuthResponse, error)
	Connect() (*authbridge.AuthResponse, error)
	AuthStatus() (*authbridge.StatusResponse, error)
	InstallDependencies() (string, error)
}

var _ Daemon = (*ipc.Client)(nil)

// Run starts the control panel. configPath may be empty for the default
// location.
func Run(configPath string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	p := tea.NewProgram(newModel(configPath, ipc.NewClient()), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
