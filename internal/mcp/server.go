package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/skygen/skydesk/internal/authbridge"
	"github.com/skygen/skydesk/internal/ipc"
)

const (
	ServerName    = "skydesk"
	ServerVersion = "0.1.0"
)

// Daemon is the subset of the IPC client the MCP tools forward to.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	ShowOverlay() error
	HideOverlay() error
	ToggleOverlay() error
	ShowDim() error
	HideDim() error
	StartOutline(p ipc.StartOutlinePayload) error
	UpdateOutline(p ipc.UpdateOutlinePayload) error
	StopOutline() error
	AuthStatus() (*authbridge.StatusResponse, error)
	EnrollDevice() (*authbridge.AuthResponse, error)
	Connect() (*authbridge.AuthResponse, error)
}

var _ Daemon = (*ipc.Client)(nil)

// Server exposes daemon controls as MCP tools. It holds no overlay state of
// its own; every call goes to the running daemon.
type Server struct {
	mcpServer    *mcpsdk.Server
	daemon       Daemon
	defaultColor string
	logger       *slog.Logger
}

// NewServer creates an MCP server that forwards to daemon. defaultColor is
// used by start_outline when no color is given.
func NewServer(daemon Daemon, defaultColor string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		daemon:       daemon,
		defaultColor: defaultColor,
		logger:       logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Connect serves a single session over t.
func (s *Server) Connect(ctx context.Context, t mcpsdk.Transport) (*mcpsdk.ServerSession, error) {
	return s.mcpServer.Connect(ctx, t, nil)
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "show_overlay",
		Description: "Show the overlay panel centered on the primary display and return focus to the main window. No-op when already visible.",
	}, s.overlayTool("show_overlay", s.daemon.ShowOverlay))

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "hide_overlay",
		Description: "Hide the overlay panel. No-op when already hidden.",
	}, s.overlayTool("hide_overlay", s.daemon.HideOverlay))

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toggle_overlay",
		Description: "Toggle overlay panel visibility, the same action as the global hotkey.",
	}, s.overlayTool("toggle_overlay", s.daemon.ToggleOverlay))

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "show_dim",
		Description: "Cover the primary display with a translucent click-through dim layer.",
	}, s.overlayTool("show_dim", s.daemon.ShowDim))

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "hide_dim",
		Description: "Remove the dim layer.",
	}, s.overlayTool("hide_dim", s.daemon.HideDim))

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "start_outline",
		Description: "Launch the screen outline helper, replacing any running one. Draws a colored border around the primary display.",
	}, s.handleStartOutline)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "update_outline",
		Description: "Change color, width or blur of the running outline without restarting it. Fails when no outline is running.",
	}, s.handleUpdateOutline)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "stop_outline",
		Description: "Stop the outline helper. No-op when none is running.",
	}, s.handleStopOutline)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report overlay, dim layer and outline state plus the window backend in use.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "auth_status",
		Description: "Report account sign-in, device enrollment and connection state from the auth script.",
	}, s.handleAuthStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "enroll_device",
		Description: "Enroll this machine with the signed-in account.",
	}, s.connectTool("enroll_device", s.daemon.EnrollDevice))

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "connect",
		Description: "Open the remote desktop connection for the enrolled device.",
	}, s.connectTool("connect", s.daemon.Connect))
}

func (s *Server) overlayTool(name string, fn func() error) mcpsdk.ToolHandlerFor[EmptyInput, OverlayOutput] {
	return func(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, OverlayOutput, error) {
		if err := fn(); err != nil {
			s.logger.Warn("mcp tool failed", "tool", name, "error", err)
			return nil, OverlayOutput{}, err
		}
		status, err := s.daemon.GetStatus()
		if err != nil {
			return nil, OverlayOutput{}, err
		}
		return nil, OverlayOutput{
			Visible:    status.Overlay.Visible,
			DimVisible: status.Overlay.DimVisible,
		}, nil
	}
}

func (s *Server) connectTool(name string, fn func() (*authbridge.AuthResponse, error)) mcpsdk.ToolHandlerFor[EmptyInput, ConnectOutput] {
	return func(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ConnectOutput, error) {
		resp, err := fn()
		if err != nil {
			s.logger.Warn("mcp tool failed", "tool", name, "error", err)
			return nil, ConnectOutput{}, err
		}
		return nil, ConnectOutput{
			Success: resp.Success,
			Error:   resp.Error,
			Data:    string(resp.Data),
		}, nil
	}
}

func (s *Server) handleStartOutline(_ context.Context, _ *mcpsdk.CallToolRequest, args StartOutlineInput) (*mcpsdk.CallToolResult, OutlineOutput, error) {
	color := strings.TrimSpace(args.Color)
	if color == "" {
		color = s.defaultColor
	}
	if color == "" {
		return nil, OutlineOutput{}, fmt.Errorf("color is required")
	}
	if err := s.daemon.StartOutline(ipc.StartOutlinePayload{
		Color: color,
		Width: args.Width,
		Blur:  args.Blur,
	}); err != nil {
		return nil, OutlineOutput{}, err
	}
	return nil, s.outlineState(), nil
}

func (s *Server) handleUpdateOutline(_ context.Context, _ *mcpsdk.CallToolRequest, args UpdateOutlineInput) (*mcpsdk.CallToolResult, OutlineOutput, error) {
	if args.Color == nil && args.Width == nil && args.Blur == nil {
		return nil, OutlineOutput{}, fmt.Errorf("at least one of color, width or blur is required")
	}
	if err := s.daemon.UpdateOutline(ipc.UpdateOutlinePayload{
		Color: args.Color,
		Width: args.Width,
		Blur:  args.Blur,
	}); err != nil {
		return nil, OutlineOutput{}, err
	}
	return nil, s.outlineState(), nil
}

func (s *Server) handleStopOutline(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, OutlineOutput, error) {
	if err := s.daemon.StopOutline(); err != nil {
		return nil, OutlineOutput{}, err
	}
	return nil, OutlineOutput{Running: false}, nil
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	status, err := s.daemon.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, err
	}
	out := StatusOutput{
		Visible:       status.Overlay.Visible,
		DimVisible:    status.Overlay.DimVisible,
		Backend:       status.Overlay.Capabilities.Backend,
		ClickThrough:  status.Overlay.Capabilities.ClickThrough,
		UptimeSeconds: status.UptimeSeconds,
		PID:           status.PID,
	}
	out.Outline = outlineFromStatus(status)
	return nil, out, nil
}

func (s *Server) handleAuthStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, AuthStatusOutput, error) {
	st, err := s.daemon.AuthStatus()
	if err != nil {
		return nil, AuthStatusOutput{}, err
	}
	return nil, AuthStatusOutput{
		Authenticated:       st.Authenticated,
		DeviceEnrolled:      st.DeviceEnrolled,
		Connected:           st.Connected,
		DeviceID:            st.DeviceID,
		Platform:            st.Platform,
		DesktopEnvAvailable: st.DesktopEnvAvailable,
	}, nil
}

// outlineState is best-effort: the mutation already succeeded.
func (s *Server) outlineState() OutlineOutput {
	status, err := s.daemon.GetStatus()
	if err != nil {
		s.logger.Debug("status after outline change failed", "error", err)
		return OutlineOutput{Running: true}
	}
	if out := outlineFromStatus(status); out != nil {
		return *out
	}
	return OutlineOutput{}
}

func outlineFromStatus(status *ipc.StatusData) *OutlineOutput {
	o := status.Overlay.Outline
	if o == nil {
		return nil
	}
	return &OutlineOutput{
		Running:   true,
		SessionID: o.SessionID,
		Color:     o.Color,
		Width:     o.Width,
		Blur:      o.Blur,
	}
}
