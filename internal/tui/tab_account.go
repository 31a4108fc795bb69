package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/skygen/skydesk/internal/authbridge"
)

type authStatusMsg struct {
	status *authbridge.StatusResponse
	err    error
}

type authResultMsg struct {
	action string
	resp   *authbridge.AuthResponse
	err    error
}

type installDoneMsg struct {
	output string
	err    error
}

// AccountTab signs in, enrolls this device and connects through the daemon's
// auth bridge.
type AccountTab struct {
	daemon Daemon
	auth   *authbridge.StatusResponse

	width  int
	height int

	editing bool
	signup  bool
	form    *huh.Form
	fEmail  string
	fPass   string

	busy    string
	message string
	lastErr error
	output  string
}

// NewAccountTab creates the account tab.
func NewAccountTab(daemon Daemon) AccountTab {
	return AccountTab{daemon: daemon}
}

// Refresh queries auth status.
func (a AccountTab) Refresh() tea.Cmd {
	if a.daemon == nil {
		return nil
	}
	d := a.daemon
	return func() tea.Msg {
		st, err := d.AuthStatus()
		return authStatusMsg{status: st, err: err}
	}
}

func (a AccountTab) authCmd(action string, fn func() (*authbridge.AuthResponse, error)) tea.Cmd {
	return func() tea.Msg {
		resp, err := fn()
		return authResultMsg{action: action, resp: resp, err: err}
	}
}

// Update implements tea.Model.
func (a AccountTab) Update(msg tea.Msg) (AccountTab, tea.Cmd) {
	switch msg := msg.(type) {
	case authStatusMsg:
		if msg.err != nil {
			a.lastErr = msg.err
		} else {
			a.auth = msg.status
		}
		return a, nil
	case authResultMsg:
		a.busy = ""
		a.lastErr = msg.err
		a.message = ""
		if msg.err == nil {
			if msg.resp.Success {
				a.message = msg.action + " succeeded"
			} else {
				a.lastErr = fmt.Errorf("%s", displayOrDefault(msg.resp.Error, "request rejected"))
			}
		}
		return a, a.Refresh()
	case installDoneMsg:
		a.busy = ""
		a.lastErr = msg.err
		a.output = msg.output
		if msg.err == nil {
			a.message = "dependencies installed"
		}
		return a, a.Refresh()
	}

	if a.editing {
		return a.updateEditing(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
	case tea.KeyMsg:
		if a.daemon == nil || a.busy != "" {
			return a, nil
		}
		d := a.daemon
		switch msg.String() {
		case "l":
			a.startEditing(false)
			return a, a.form.Init()
		case "n":
			a.startEditing(true)
			return a, a.form.Init()
		case "E":
			a.busy = "enrolling device"
			return a, a.authCmd("enroll", d.EnrollDevice)
		case "c":
			a.busy = "connecting"
			return a, a.authCmd("connect", d.Connect)
		case "i":
			a.busy = "installing dependencies"
			return a, func() tea.Msg {
				out, err := d.InstallDependencies()
				return installDoneMsg{output: out, err: err}
			}
		case "r":
			return a, a.Refresh()
		}
	}
	return a, nil
}

func (a AccountTab) updateEditing(msg tea.Msg) (AccountTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" {
			a.editing = false
			a.form = nil
			a.fPass = ""
			return a, nil
		}
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
	}

	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	if a.form.State == huh.StateCompleted {
		a.editing = false
		a.form = nil
		email, pass := strings.TrimSpace(a.fEmail), a.fPass
		a.fPass = ""
		d := a.daemon
		if a.signup {
			a.busy = "signing up"
			return a, a.authCmd("signup", func() (*authbridge.AuthResponse, error) { return d.Signup(email, pass) })
		}
		a.busy = "signing in"
		return a, a.authCmd("login", func() (*authbridge.AuthResponse, error) { return d.Login(email, pass) })
	}
	return a, cmd
}

func (a *AccountTab) startEditing(signup bool) {
	a.signup = signup
	a.fPass = ""

	w := a.width - 4
	if w < 40 {
		w = 40
	}

	required := func(name string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", name)
			}
			return nil
		}
	}

	a.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("email").
				Title("Email").
				Value(&a.fEmail).
				Validate(required("email")),
			huh.NewInput().
				Key("password").
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&a.fPass).
				Validate(required("password")),
		),
	).WithWidth(w).WithShowHelp(true).WithShowErrors(true)

	a.editing = true
}

// View implements tea.Model.
func (a AccountTab) View() string {
	style := lipgloss.NewStyle().
		Width(a.width).
		Height(a.height).
		Padding(1, 2)

	if a.editing && a.form != nil {
		title := "Sign in"
		if a.signup {
			title = "Create account"
		}
		header := lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Render(title) +
			hintStyle.Render("  (esc to cancel)")
		return style.Render(header + "\n\n" + a.form.View())
	}

	var lines []string
	if a.auth == nil {
		lines = append(lines, hintStyle.Render("Account status unknown (r to refresh)"))
	} else {
		st := a.auth
		lines = append(lines,
			row("Signed in", yesNo(st.Authenticated)),
			row("Device enrolled", yesNo(st.DeviceEnrolled)),
			row("Device ID", displayOrDefault(st.DeviceID, "-")),
			row("Connected", yesNo(st.Connected)),
			row("Platform", displayOrDefault(st.Platform, "-")),
			row("Desktop environment", yesNo(st.DesktopEnvAvailable)),
		)
	}

	lines = append(lines, "")
	switch {
	case a.busy != "":
		lines = append(lines, hintStyle.Render(a.busy+"..."))
	case a.lastErr != nil:
		lines = append(lines, errorStyle.Render("Error: "+a.lastErr.Error()))
	case a.message != "":
		lines = append(lines, okStyle.Render(a.message))
	}
	if a.output != "" {
		lines = append(lines, "", hintStyle.Render(lastLines(a.output, 6)))
	}

	lines = append(lines,
		"",
		hintStyle.Render("  l: sign in  n: sign up  E: enroll device  c: connect"),
		hintStyle.Render("  i: install desktop dependencies  r: refresh"),
	)
	return style.Render(strings.Join(lines, "\n"))
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

func displayOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
