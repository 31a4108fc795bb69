package outline

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	envWantHelper    = "GO_WANT_HELPER_PROCESS"
	envRecordFile    = "OUTLINE_TEST_RECORD"
	envExitImmediate = "OUTLINE_TEST_EXIT_IMMEDIATELY"
)

// TestHelperProcess is the fake outline helper. It records its argv and
// every stdin line into the file named by OUTLINE_TEST_RECORD.
func TestHelperProcess(t *testing.T) {
	if os.Getenv(envWantHelper) != "1" {
		return
	}
	defer os.Exit(0)

	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}

	f, err := os.OpenFile(os.Getenv(envRecordFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		os.Exit(2)
	}
	fmt.Fprintf(f, "args %s\n", strings.Join(args, " "))

	if os.Getenv(envExitImmediate) == "1" {
		f.Close()
		os.Exit(0)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fmt.Fprintf(f, "line %s\n", scanner.Text())
	}
	fmt.Fprintln(f, "eof")
	f.Close()
	// Stay alive so only the kill ends us.
	time.Sleep(time.Minute)
}

type spawnRecorder struct {
	mu    sync.Mutex
	calls int
	procs []*child
}

func newTestSupervisor(t *testing.T, opts Options) (*Supervisor, string, *spawnRecorder) {
	t.Helper()

	exe, err := os.Executable()
	require.NoError(t, err)

	record := t.TempDir() + "/record.log"
	t.Setenv(envWantHelper, "1")
	t.Setenv(envRecordFile, record)

	if opts.Locator == nil {
		opts.Locator = NewLocator(exe, "", "")
	}
	if opts.Sweep == "" {
		opts.Sweep = SweepNever
	}
	s := NewSupervisor(opts)

	rec := &spawnRecorder{}
	s.spawnFn = func(path string, args []string) (*child, error) {
		full := append([]string{"-test.run=^TestHelperProcess$", "--"}, args...)
		proc, err := spawnHelper(path, full)
		if err == nil {
			rec.mu.Lock()
			rec.calls++
			rec.procs = append(rec.procs, proc)
			rec.mu.Unlock()
		}
		return proc, err
	}
	t.Cleanup(func() { _ = s.Stop() })
	return s, record, rec
}

func readRecord(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func waitForRecord(t *testing.T, path string, want ...string) {
	t.Helper()
	require.Eventually(t, func() bool {
		lines := readRecord(t, path)
		for _, w := range want {
			found := false
			for _, l := range lines {
				if l == w {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}, 5*time.Second, 20*time.Millisecond, "record missing %v; have %v", want, readRecord(t, path))
}

func TestSupervisorStartUpdateStop(t *testing.T) {
	s, record, rec := newTestSupervisor(t, Options{})

	require.NoError(t, s.Start(StartOptions{Color: "#ff0000", Width: u32(3)}))
	assert.True(t, s.Running())
	assert.NotEmpty(t, s.SessionID())
	waitForRecord(t, record, "args --color #ff0000 --width 3")

	require.NoError(t, s.Update(Update{Blur: u32(10)}))
	waitForRecord(t, record, `line {"blur":10}`)

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "#ff0000", current.Color)
	assert.Equal(t, uint32(3), *current.Width)
	assert.Equal(t, uint32(10), *current.Blur)

	require.NoError(t, s.Stop())
	assert.False(t, s.Running())
	assert.Empty(t, s.SessionID())

	rec.mu.Lock()
	proc := rec.procs[0]
	rec.mu.Unlock()
	assert.True(t, proc.hasExited(), "helper process should be gone after stop")
	_, err := proc.stdin.Write([]byte("{}\n"))
	assert.Error(t, err, "helper stdin should be closed after stop")

	// Second stop is a no-op.
	require.NoError(t, s.Stop())
}

func TestSupervisorUpdateWithoutHelper(t *testing.T) {
	s, _, _ := newTestSupervisor(t, Options{})
	err := s.Update(Update{Color: str("red")})
	assert.True(t, errors.Is(err, ErrHelperNotRunning))
}

func TestSupervisorStartReplacesExistingHelper(t *testing.T) {
	s, record, rec := newTestSupervisor(t, Options{})

	require.NoError(t, s.Start(StartOptions{Color: "red"}))
	first := s.SessionID()
	require.NoError(t, s.Start(StartOptions{Color: "blue"}))
	second := s.SessionID()

	assert.NotEqual(t, first, second)
	waitForRecord(t, record, "args --color red", "args --color blue")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.procs, 2)
	assert.True(t, rec.procs[0].hasExited(), "previous helper should be gone before the next starts")
	assert.False(t, rec.procs[1].hasExited())
}

func TestSupervisorStartValidatesColor(t *testing.T) {
	s, _, rec := newTestSupervisor(t, Options{})
	require.Error(t, s.Start(StartOptions{}))
	assert.Equal(t, 0, rec.calls)
	assert.False(t, s.Running())

	err := s.Start(StartOptions{Color: "not-a-color"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid color")
	assert.Equal(t, 0, rec.calls)
	assert.False(t, s.Running())
}

func TestSupervisorUpdateRejectsBadColor(t *testing.T) {
	s, record, _ := newTestSupervisor(t, Options{})

	require.NoError(t, s.Start(StartOptions{Color: "#ff0000"}))
	waitForRecord(t, record, "args --color #ff0000")

	err := s.Update(Update{Color: str("bogus"), Width: u32(5)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid color")

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "#ff0000", current.Color)
	assert.Nil(t, current.Width)

	require.NoError(t, s.Update(Update{Blur: u32(1)}))
	waitForRecord(t, record, `line {"blur":1}`)
	for _, l := range readRecord(t, record) {
		assert.NotContains(t, l, "bogus")
	}
}

func TestSupervisorStartHelperNotFound(t *testing.T) {
	s, _, rec := newTestSupervisor(t, Options{Locator: NewLocator(t.TempDir()+"/missing", "", "")})
	err := s.Start(StartOptions{Color: "red"})
	assert.True(t, errors.Is(err, ErrHelperNotFound))
	assert.Equal(t, 0, rec.calls)
	assert.Empty(t, s.SessionID())
}

func TestSupervisorUpdateAfterHelperExit(t *testing.T) {
	s, record, rec := newTestSupervisor(t, Options{})
	t.Setenv(envExitImmediate, "1")

	require.NoError(t, s.Start(StartOptions{Color: "red"}))
	waitForRecord(t, record, "args --color red")
	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return rec.procs[0].hasExited()
	}, 5*time.Second, 20*time.Millisecond)

	err := s.Update(Update{Width: u32(1)})
	assert.True(t, errors.Is(err, ErrHelperExited))

	assert.True(t, s.ReapIfExited())
	assert.False(t, s.ReapIfExited())
	assert.True(t, errors.Is(s.Update(Update{Width: u32(1)}), ErrHelperNotRunning))
}

func TestSupervisorSweepModes(t *testing.T) {
	tests := []struct {
		mode      SweepMode
		wantSwept bool
	}{
		{mode: SweepAlways, wantSwept: true},
		{mode: SweepNever, wantSwept: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			s, _, _ := newTestSupervisor(t, Options{Sweep: tt.mode, HelperName: "outline-helper"})
			var swept []string
			s.sweepFn = func(name string) error {
				swept = append(swept, name)
				return nil
			}

			require.NoError(t, s.Start(StartOptions{Color: "red"}))
			require.NoError(t, s.Stop())

			if tt.wantSwept {
				assert.Equal(t, []string{"outline-helper"}, swept)
			} else {
				assert.Empty(t, swept)
			}
		})
	}
}

func TestParseSweepMode(t *testing.T) {
	for in, want := range map[string]SweepMode{"": SweepAuto, "AUTO": SweepAuto, "always": SweepAlways, " never ": SweepNever} {
		got, err := ParseSweepMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseSweepMode("sometimes")
	assert.Error(t, err)
}

func TestSupervisorConcurrentCallsHoldOneHelper(t *testing.T) {
	s, _, rec := newTestSupervisor(t, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			switch i % 3 {
			case 0:
				_ = s.Start(StartOptions{Color: "red"})
			case 1:
				_ = s.Update(Update{Width: u32(uint32(i))})
			default:
				_ = s.Stop()
			}
		}(i)
	}
	wg.Wait()

	rec.mu.Lock()
	live := 0
	for _, p := range rec.procs {
		if !p.hasExited() {
			live++
		}
	}
	rec.mu.Unlock()
	assert.LessOrEqual(t, live, 1)
}
