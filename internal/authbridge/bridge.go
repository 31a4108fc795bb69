package authbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultPython            = "python3"
	DefaultTimeout           = 60 * time.Second
	DefaultInstallScriptName = "install_desktop_env.py"
)

// ErrScriptNotFound is returned when the auth script cannot be located.
var ErrScriptNotFound = errors.New("auth script not found")

// AuthResponse is the reply to login, signup, enroll and connect.
type AuthResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// StatusResponse is the reply to the status probe.
type StatusResponse struct {
	Authenticated       bool   `json:"authenticated"`
	DeviceEnrolled      bool   `json:"device_enrolled"`
	Connected           bool   `json:"connected"`
	DeviceID            string `json:"device_id,omitempty"`
	Platform            string `json:"platform"`
	DesktopEnvAvailable bool   `json:"desktop_env_available"`
}

// CommandError reports a non-zero exit from the external script.
type CommandError struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = fmt.Sprintf("exit status %d", e.ExitCode)
	}
	return fmt.Sprintf("auth command %q failed: %s", e.Command, msg)
}

// Options configures a Bridge.
type Options struct {
	Python string
	// Script is an explicit path to the auth script. When empty the script
	// is searched for next to the executable and in the working directory.
	Script        string
	InstallScript string
	Timeout       time.Duration
	Logger        *slog.Logger
}

// Bridge runs the external auth script. It keeps no state between calls.
type Bridge struct {
	python        string
	script        string
	installScript string
	timeout       time.Duration
	logger        *slog.Logger

	run        func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
	executable func() (string, error)
	getwd      func() (string, error)
	stat       func(string) (os.FileInfo, error)
}

// New creates a Bridge.
func New(opts Options) *Bridge {
	if opts.Python == "" {
		opts.Python = DefaultPython
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bridge{
		python:        opts.Python,
		script:        opts.Script,
		installScript: opts.InstallScript,
		timeout:       opts.Timeout,
		logger:        opts.Logger,
		run:           runCommand,
		executable:    os.Executable,
		getwd:         os.Getwd,
		stat:          os.Stat,
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Login signs in with email and password.
func (b *Bridge) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	return b.authCommand(ctx, "login", email, password)
}

// Signup creates an account.
func (b *Bridge) Signup(ctx context.Context, email, password string) (*AuthResponse, error) {
	return b.authCommand(ctx, "signup", email, password)
}

// EnrollDevice registers this machine with the account.
func (b *Bridge) EnrollDevice(ctx context.Context) (*AuthResponse, error) {
	return b.authCommand(ctx, "enroll")
}

// Connect opens the device connection.
func (b *Bridge) Connect(ctx context.Context) (*AuthResponse, error) {
	return b.authCommand(ctx, "connect")
}

// GetStatus probes authentication, enrollment and connection state.
func (b *Bridge) GetStatus(ctx context.Context) (*StatusResponse, error) {
	out, err := b.runScript(ctx, "test")
	if err != nil {
		return nil, err
	}
	var resp StatusResponse
	if err := decode(out, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// InstallDependencies runs the desktop environment installer and returns a
// human-readable report.
func (b *Bridge) InstallDependencies(ctx context.Context) (string, error) {
	script, err := b.InstallScriptPath()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	b.logger.Info("running dependency installer", "script", script)
	stdout, stderr, err := b.run(ctx, b.python, script)
	if err != nil {
		return "", fmt.Errorf("Installation failed:\nSTDOUT: %s\nSTDERR: %s", stdout, stderr)
	}
	return "Installation completed successfully:\n" + string(stdout), nil
}

// ScriptPath resolves the auth script.
func (b *Bridge) ScriptPath() (string, error) {
	if b.script != "" {
		if b.exists(b.script) {
			return b.script, nil
		}
		return "", fmt.Errorf("%w: %s", ErrScriptNotFound, b.script)
	}

	candidates := b.scriptCandidates()
	for _, c := range candidates {
		if b.exists(c) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w (searched: %s); set auth.script in the config", ErrScriptNotFound, strings.Join(candidates, ", "))
}

// InstallScriptPath resolves the installer, by default next to the auth
// script.
func (b *Bridge) InstallScriptPath() (string, error) {
	path := b.installScript
	if path == "" {
		script, err := b.ScriptPath()
		if err != nil {
			return "", err
		}
		path = filepath.Join(filepath.Dir(script), DefaultInstallScriptName)
	}
	if !b.exists(path) {
		return "", fmt.Errorf("installation script not found: %s", path)
	}
	return path, nil
}

func (b *Bridge) scriptCandidates() []string {
	var out []string
	if exe, err := b.executable(); err == nil {
		dir := filepath.Dir(exe)
		out = append(out,
			filepath.Join(dir, "..", "share", "skydesk", "python", "main.py"),
			filepath.Join(dir, "..", "Resources", "python", "main.py"),
		)
	}
	if cwd, err := b.getwd(); err == nil {
		out = append(out, filepath.Join(cwd, "python", "main.py"))
	}
	return out
}

func (b *Bridge) exists(path string) bool {
	info, err := b.stat(path)
	return err == nil && !info.IsDir()
}

func (b *Bridge) authCommand(ctx context.Context, args ...string) (*AuthResponse, error) {
	out, err := b.runScript(ctx, args...)
	if err != nil {
		return nil, err
	}
	var resp AuthResponse
	if err := decode(out, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (b *Bridge) runScript(ctx context.Context, args ...string) ([]byte, error) {
	script, err := b.ScriptPath()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	// Only the command name is logged; arguments may carry credentials.
	start := time.Now()
	stdout, stderr, err := b.run(ctx, b.python, append([]string{script}, args...)...)
	b.logger.Debug("auth command finished", "command", args[0], "duration", time.Since(start), "error", err)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("auth command %q timed out after %s: %w", args[0], b.timeout, ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &CommandError{
				Command:  args[0],
				ExitCode: exitErr.ExitCode(),
				Stdout:   string(stdout),
				Stderr:   string(stderr),
			}
		}
		return nil, fmt.Errorf("failed to run auth script: %w", err)
	}
	return stdout, nil
}

func decode(out []byte, v any) error {
	if err := json.Unmarshal(bytes.TrimSpace(out), v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
