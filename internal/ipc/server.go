package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skygen/skydesk/internal/authbridge"
	"github.com/skygen/skydesk/internal/outline"
	"github.com/skygen/skydesk/internal/overlay"
)

// OverlayService is the overlay surface the daemon exposes.
type OverlayService interface {
	Show() error
	Hide() error
	Toggle() error
	ShowDim() error
	HideDim() error
	StartOutline(opts outline.StartOptions) error
	StopOutline() error
	UpdateOutline(u outline.Update) error
	Status() overlay.Status
}

// AuthService proxies account operations to the external auth script.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*authbridge.AuthResponse, error)
	Signup(ctx context.Context, email, password string) (*authbridge.AuthResponse, error)
	EnrollDevice(ctx context.Context) (*authbridge.AuthResponse, error)
	Connect(ctx context.Context) (*authbridge.AuthResponse, error)
	GetStatus(ctx context.Context) (*authbridge.StatusResponse, error)
	InstallDependencies(ctx context.Context) (string, error)
}

var (
	_ OverlayService = (*overlay.Controller)(nil)
	_ AuthService    = (*authbridge.Bridge)(nil)
)

// requestReadTimeout bounds how long a client may take to send its request.
const requestReadTimeout = 5 * time.Second

// Server answers one JSON request per connection on a unix socket.
type Server struct {
	socketPath string
	listener   net.Listener
	overlay    OverlayService
	auth       AuthService
	reload     func() error
	startTime  time.Time
	logger     *slog.Logger

	// ctx is cancelled by Stop so long auth commands abort.
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stopped atomic.Bool
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the server logger. The default is slog.Default().
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a server for socketPath. auth and reload may be nil.
func NewServer(socketPath string, overlay OverlayService, auth AuthService, reload func() error, opts ...ServerOption) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		socketPath: socketPath,
		overlay:    overlay,
		auth:       auth,
		reload:     reload,
		startTime:  time.Now(),
		logger:     slog.Default(),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start replaces any stale socket, listens with mode 0600 and serves in the
// background.
func (s *Server) Start() error {
	_ = os.Remove(s.socketPath)
	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.socketPath, err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		ln.Close()
		return fmt.Errorf("restrict socket permissions: %w", err)
	}
	s.listener = ln

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.stopped.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("ipc accept failed", "error", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serve(conn)
		}()
	}
}

func (s *Server) serve(conn net.Conn) {
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(requestReadTimeout))
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		s.logger.Debug("ipc read failed", "error", err)
		return
	}

	var resp *Response
	if req, err := ParseRequest(line); err != nil {
		resp = NewErrorResponse(fmt.Sprintf("Invalid request: %v", err))
	} else {
		s.logger.Debug("ipc request", "command", req.Command)
		resp = s.handleCommand(s.ctx, req)
	}

	data, err := resp.Marshal()
	if err != nil {
		s.logger.Error("ipc marshal response", "error", err)
		return
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		s.logger.Debug("ipc write failed", "error", err)
	}
}

func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandShowOverlay:
		return result(s.overlay.Show())
	case CommandHideOverlay:
		return result(s.overlay.Hide())
	case CommandToggleOverlay:
		return result(s.overlay.Toggle())
	case CommandShowDim:
		return result(s.overlay.ShowDim())
	case CommandHideDim:
		return result(s.overlay.HideDim())
	case CommandStartOutline:
		return s.handleStartOutline(req.Payload)
	case CommandStopOutline:
		return result(s.overlay.StopOutline())
	case CommandUpdateOutline:
		return s.handleUpdateOutline(req.Payload)
	case CommandAuthLogin, CommandAuthSignup, CommandAuthEnroll, CommandAuthConnect, CommandAuthStatus, CommandInstallDeps:
		return s.handleAuth(ctx, req)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func result(err error) *Response {
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func dataResult(data any, err error) *Response {
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, merr := NewOKResponse(data)
	if merr != nil {
		return NewErrorResponse(merr.Error())
	}
	return resp
}

func (s *Server) handleReload() *Response {
	if s.reload == nil {
		return NewErrorResponse("reload is not supported")
	}
	if err := s.reload(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	return result(nil)
}

func (s *Server) handleGetStatus() *Response {
	status := StatusData{
		Overlay:       s.overlay.Status(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
		PID:           os.Getpid(),
	}
	return dataResult(status, nil)
}

func (s *Server) handleStartOutline(payload json.RawMessage) *Response {
	var req StartOutlinePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid start_outline payload: %v", err))
	}
	return result(s.overlay.StartOutline(outline.StartOptions{
		Color: req.Color,
		Width: req.Width,
		Blur:  req.Blur,
	}))
}

func (s *Server) handleUpdateOutline(payload json.RawMessage) *Response {
	var req UpdateOutlinePayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid update_outline payload: %v", err))
		}
	}
	return result(s.overlay.UpdateOutline(outline.Update{
		Color: req.Color,
		Width: req.Width,
		Blur:  req.Blur,
	}))
}

func (s *Server) handleAuth(ctx context.Context, req *Request) *Response {
	if s.auth == nil {
		return NewErrorResponse("auth bridge is not configured")
	}

	switch req.Command {
	case CommandAuthLogin, CommandAuthSignup:
		var creds CredentialsPayload
		if err := json.Unmarshal(req.Payload, &creds); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid credentials payload: %v", err))
		}
		if creds.Email == "" || creds.Password == "" {
			return NewErrorResponse("email and password are required")
		}
		if req.Command == CommandAuthLogin {
			return dataResult(s.auth.Login(ctx, creds.Email, creds.Password))
		}
		return dataResult(s.auth.Signup(ctx, creds.Email, creds.Password))
	case CommandAuthEnroll:
		return dataResult(s.auth.EnrollDevice(ctx))
	case CommandAuthConnect:
		return dataResult(s.auth.Connect(ctx))
	case CommandAuthStatus:
		return dataResult(s.auth.GetStatus(ctx))
	default:
		out, err := s.auth.InstallDependencies(ctx)
		if err != nil {
			return NewErrorResponse(err.Error())
		}
		return dataResult(InstallData{Output: out}, nil)
	}
}

// Stop closes the listener, cancels in-flight auth commands and waits for
// open connections to finish. It is safe to call more than once.
func (s *Server) Stop() {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}
	s.cancel()
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	_ = os.Remove(s.socketPath)
}
