package outline

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrHelperNotRunning is returned by Update when no helper is held.
	ErrHelperNotRunning = errors.New("outline helper is not running")
	// ErrHelperExited is returned by Update when the held helper has exited
	// on its own and can no longer accept updates.
	ErrHelperExited = errors.New("outline helper has exited")
)

const (
	DefaultWriteTimeout = 2 * time.Second
	DefaultKillTimeout  = 2 * time.Second
)

// Options configures a Supervisor.
type Options struct {
	Locator *Locator
	// HelperName is the executable name used by the termination sweep.
	HelperName   string
	Sweep        SweepMode
	WriteTimeout time.Duration
	KillTimeout  time.Duration
	Logger       *slog.Logger
}

// helperSession is everything owned for one running helper.
type helperSession struct {
	id      string
	path    string
	opts    StartOptions
	proc    *child
	started time.Time
}

// Supervisor owns at most one helper process and its stdin pipe.
type Supervisor struct {
	mu      sync.Mutex
	session *helperSession

	locator      *Locator
	helperName   string
	sweep        SweepMode
	writeTimeout time.Duration
	killTimeout  time.Duration
	logger       *slog.Logger

	// Process hooks (replaced in tests).
	spawnFn func(path string, args []string) (*child, error)
	sweepFn func(name string) error
	newID   func() string
}

// NewSupervisor creates a Supervisor with no helper running.
func NewSupervisor(opts Options) *Supervisor {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.KillTimeout <= 0 {
		opts.KillTimeout = DefaultKillTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Locator == nil {
		opts.Locator = NewLocator("", "", "")
	}
	if opts.Locator.Logger == nil {
		opts.Locator.Logger = opts.Logger
	}
	if opts.Sweep == "" {
		opts.Sweep = SweepAuto
	}
	return &Supervisor{
		locator:      opts.Locator,
		helperName:   opts.HelperName,
		sweep:        opts.Sweep,
		writeTimeout: opts.WriteTimeout,
		killTimeout:  opts.KillTimeout,
		logger:       opts.Logger,
		spawnFn:      spawnHelper,
		sweepFn:      sweepByName,
		newID:        uuid.NewString,
	}
}

// Start launches a helper with opts, terminating any helper already held.
func (s *Supervisor) Start(opts StartOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		if err := s.stopLocked(); err != nil {
			s.logger.Warn("failed to stop previous outline helper", "error", err)
		}
	}

	path, err := s.locator.Resolve()
	if err != nil {
		return err
	}

	proc, err := s.spawnFn(path, opts.Args())
	if err != nil {
		return err
	}

	s.session = &helperSession{
		id:      s.newID(),
		path:    path,
		opts:    opts,
		proc:    proc,
		started: time.Now(),
	}
	s.logger.Info("outline helper started",
		"session", s.session.id,
		"pid", proc.pid,
		"path", path,
		"args", opts.Args())
	return nil
}

// Update sends the present fields of u to the running helper.
func (s *Supervisor) Update(u Update) error {
	if u.Color != nil {
		if _, err := ParseColor(*u.Color); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return ErrHelperNotRunning
	}
	sess := s.session
	if sess.proc.hasExited() {
		return ErrHelperExited
	}

	line, err := EncodeUpdate(u)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(s.writeTimeout)
	if err := sess.proc.stdin.SetWriteDeadline(deadline); err != nil && !errors.Is(err, os.ErrNoDeadline) {
		return fmt.Errorf("failed to set helper write deadline: %w", err)
	}
	if _, err := sess.proc.stdin.Write(line); err != nil {
		if sess.proc.hasExited() {
			return fmt.Errorf("%w: %v", ErrHelperExited, err)
		}
		return fmt.Errorf("failed to write outline update: %w", err)
	}

	sess.opts = u.Apply(sess.opts)
	s.logger.Debug("outline update sent", "session", sess.id, "line", string(line[:len(line)-1]))
	return nil
}

// Stop closes the helper's stdin, kills it, and optionally sweeps by name.
// Stopping with no helper is a no-op.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

// ReapIfExited releases the session of a helper that exited on its own.
func (s *Supervisor) ReapIfExited() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil || !s.session.proc.hasExited() {
		return false
	}
	id := s.session.id
	if err := s.stopLocked(); err != nil {
		s.logger.Warn("failed to release exited outline helper", "session", id, "error", err)
	}
	s.logger.Info("outline helper exited on its own", "session", id)
	return true
}

// Running reports whether a live helper is held.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil && !s.session.proc.hasExited()
}

// SessionID returns the id of the held helper session, or "".
func (s *Supervisor) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return ""
	}
	return s.session.id
}

// Current returns the effective options of the held helper.
func (s *Supervisor) Current() (StartOptions, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return StartOptions{}, false
	}
	return s.session.opts, true
}

func (s *Supervisor) stopLocked() error {
	sess := s.session
	if sess == nil {
		return nil
	}
	s.session = nil

	// Closing stdin first lets a well-behaved helper exit on EOF.
	if err := sess.proc.stdin.Close(); err != nil {
		s.logger.Debug("failed to close helper stdin", "session", sess.id, "error", err)
	}

	var stopErr error
	if err := sess.proc.kill(); err != nil {
		stopErr = fmt.Errorf("failed to kill outline helper pid %d: %w", sess.proc.pid, err)
	}

	select {
	case <-sess.proc.exited:
	case <-time.After(s.killTimeout):
		if stopErr == nil {
			stopErr = fmt.Errorf("outline helper pid %d did not exit within %s", sess.proc.pid, s.killTimeout)
		}
	}

	if s.sweep.Enabled() && s.sweepFn != nil {
		if err := s.sweepFn(s.helperName); err != nil {
			s.logger.Debug("helper sweep failed", "name", s.helperName, "error", err)
		}
	}

	if stopErr != nil {
		s.logger.Warn("outline helper stop incomplete", "session", sess.id, "error", stopErr)
		return stopErr
	}
	s.logger.Info("outline helper stopped", "session", sess.id, "pid", sess.proc.pid)
	return nil
}
