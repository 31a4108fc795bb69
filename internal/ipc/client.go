package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/skygen/skydesk/internal/authbridge"
	"github.com/skygen/skydesk/internal/runtimepath"
)

const (
	// DefaultTimeout bounds overlay and status requests.
	DefaultTimeout = 5 * time.Second
	// AuthTimeout bounds requests that run the external auth script.
	AuthTimeout = authbridge.DefaultTimeout + 5*time.Second
	// InstallTimeout bounds INSTALL_DEPENDENCIES, which may download packages.
	InstallTimeout = 15 * time.Minute
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientWithSocket(socketPath)
}

// NewClientWithSocket creates a client for an explicit socket path.
func NewClientWithSocket(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    DefaultTimeout,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request, timeout time.Duration) (*Response, error) {
	if timeout <= 0 {
		timeout = c.timeout
	}

	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

func (c *Client) simple(cmd CommandType) error {
	_, err := c.sendRequest(&Request{Command: cmd}, 0)
	return err
}

func (c *Client) withPayload(cmd CommandType, payload any, timeout time.Duration) (*Response, error) {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		req.Payload = data
	}
	return c.sendRequest(req, timeout)
}

func decodeData(resp *Response, v any) error {
	if len(resp.Data) == 0 {
		return fmt.Errorf("daemon returned no data")
	}
	if err := json.Unmarshal(resp.Data, v); err != nil {
		return fmt.Errorf("failed to parse response data: %w", err)
	}
	return nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error { return c.simple(CommandReload) }

// GetStatus retrieves the current daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStatus}, 0)
	if err != nil {
		return nil, err
	}
	var status StatusData
	if err := decodeData(resp, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Ping checks if the daemon is running
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}

func (c *Client) ShowOverlay() error   { return c.simple(CommandShowOverlay) }
func (c *Client) HideOverlay() error   { return c.simple(CommandHideOverlay) }
func (c *Client) ToggleOverlay() error { return c.simple(CommandToggleOverlay) }
func (c *Client) ShowDim() error       { return c.simple(CommandShowDim) }
func (c *Client) HideDim() error       { return c.simple(CommandHideDim) }
func (c *Client) StopOutline() error   { return c.simple(CommandStopOutline) }

// StartOutline asks the daemon to launch the outline helper.
func (c *Client) StartOutline(p StartOutlinePayload) error {
	_, err := c.withPayload(CommandStartOutline, p, 0)
	return err
}

// UpdateOutline sends a partial update to the running outline helper.
func (c *Client) UpdateOutline(p UpdateOutlinePayload) error {
	_, err := c.withPayload(CommandUpdateOutline, p, 0)
	return err
}

// Login authenticates with the account service.
func (c *Client) Login(email, password string) (*authbridge.AuthResponse, error) {
	return c.authRequest(CommandAuthLogin, CredentialsPayload{Email: email, Password: password})
}

// Signup creates an account.
func (c *Client) Signup(email, password string) (*authbridge.AuthResponse, error) {
	return c.authRequest(CommandAuthSignup, CredentialsPayload{Email: email, Password: password})
}

// EnrollDevice registers this machine with the account.
func (c *Client) EnrollDevice() (*authbridge.AuthResponse, error) {
	return c.authRequest(CommandAuthEnroll, nil)
}

// Connect opens the remote session for the enrolled device.
func (c *Client) Connect() (*authbridge.AuthResponse, error) {
	return c.authRequest(CommandAuthConnect, nil)
}

// AuthStatus reports account and enrollment state.
func (c *Client) AuthStatus() (*authbridge.StatusResponse, error) {
	resp, err := c.withPayload(CommandAuthStatus, nil, AuthTimeout)
	if err != nil {
		return nil, err
	}
	var status authbridge.StatusResponse
	if err := decodeData(resp, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// InstallDependencies runs the desktop environment installer and returns its
// output.
func (c *Client) InstallDependencies() (string, error) {
	resp, err := c.withPayload(CommandInstallDeps, nil, InstallTimeout)
	if err != nil {
		return "", err
	}
	var data InstallData
	if err := decodeData(resp, &data); err != nil {
		return "", err
	}
	return data.Output, nil
}

func (c *Client) authRequest(cmd CommandType, payload any) (*authbridge.AuthResponse, error) {
	resp, err := c.withPayload(cmd, payload, AuthTimeout)
	if err != nil {
		return nil, err
	}
	var out authbridge.AuthResponse
	if err := decodeData(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
