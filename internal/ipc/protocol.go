package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/skygen/skydesk/internal/overlay"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload        CommandType = "RELOAD"
	CommandGetStatus     CommandType = "GET_STATUS"
	CommandShowOverlay   CommandType = "SHOW_OVERLAY"
	CommandHideOverlay   CommandType = "HIDE_OVERLAY"
	CommandToggleOverlay CommandType = "TOGGLE_OVERLAY"
	CommandShowDim       CommandType = "SHOW_DIM"
	CommandHideDim       CommandType = "HIDE_DIM"
	CommandStartOutline  CommandType = "START_OUTLINE"
	CommandStopOutline   CommandType = "STOP_OUTLINE"
	CommandUpdateOutline CommandType = "UPDATE_OUTLINE"
	CommandAuthLogin     CommandType = "AUTH_LOGIN"
	CommandAuthSignup    CommandType = "AUTH_SIGNUP"
	CommandAuthEnroll    CommandType = "AUTH_ENROLL"
	CommandAuthConnect   CommandType = "AUTH_CONNECT"
	CommandAuthStatus    CommandType = "AUTH_STATUS"
	CommandInstallDeps   CommandType = "INSTALL_DEPENDENCIES"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	Overlay       overlay.Status `json:"overlay"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	DaemonRunning bool           `json:"daemon_running"`
	PID           int            `json:"pid"`
}

// StartOutlinePayload is the payload for START_OUTLINE.
type StartOutlinePayload struct {
	Color string  `json:"color"`
	Width *uint32 `json:"width,omitempty"`
	Blur  *uint32 `json:"blur,omitempty"`
}

// UpdateOutlinePayload is the payload for UPDATE_OUTLINE. Absent fields are
// left unchanged.
type UpdateOutlinePayload struct {
	Color *string `json:"color,omitempty"`
	Width *uint32 `json:"width,omitempty"`
	Blur  *uint32 `json:"blur,omitempty"`
}

// CredentialsPayload is the payload for AUTH_LOGIN and AUTH_SIGNUP.
type CredentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// InstallData is returned by INSTALL_DEPENDENCIES.
type InstallData struct {
	Output string `json:"output"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("missing command")
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
