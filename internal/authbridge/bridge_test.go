package authbridge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScript is run by /bin/sh in place of the python auth script.
const fakeScript = `
case "$1" in
  login)
    if [ "$3" = "secret" ]; then
      echo '{"success":true,"data":{"email":"'"$2"'"}}'
    else
      echo '{"success":false,"error":"invalid credentials"}'
    fi ;;
  signup) echo '{"success":true}' ;;
  enroll) echo '{"success":true,"data":{"device_id":"dev-1"}}' ;;
  connect) echo 'not json' ;;
  test) echo '{"authenticated":true,"device_enrolled":true,"connected":false,"device_id":"dev-1","platform":"linux","desktop_env_available":true}' ;;
  *) echo "unknown command $1" >&2; exit 3 ;;
esac
`

func newScriptBridge(t *testing.T) (*Bridge, string) {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "main.py")
	require.NoError(t, os.WriteFile(script, []byte(fakeScript), 0o644))
	return New(Options{Python: "/bin/sh", Script: script, Timeout: 5 * time.Second}), dir
}

func TestLoginParsesResponse(t *testing.T) {
	b, _ := newScriptBridge(t)

	resp, err := b.Login(context.Background(), "a@example.com", "secret")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.JSONEq(t, `{"email":"a@example.com"}`, string(resp.Data))

	resp, err = b.Login(context.Background(), "a@example.com", "wrong")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "invalid credentials", resp.Error)
}

func TestSignupAndEnroll(t *testing.T) {
	b, _ := newScriptBridge(t)

	resp, err := b.Signup(context.Background(), "a@example.com", "pw")
	require.NoError(t, err)
	assert.True(t, resp.Success)

	resp, err = b.EnrollDevice(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"device_id":"dev-1"}`, string(resp.Data))
}

func TestConnectMalformedOutput(t *testing.T) {
	b, _ := newScriptBridge(t)

	_, err := b.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse response")
}

func TestGetStatus(t *testing.T) {
	b, _ := newScriptBridge(t)

	st, err := b.GetStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &StatusResponse{
		Authenticated:       true,
		DeviceEnrolled:      true,
		Connected:           false,
		DeviceID:            "dev-1",
		Platform:            "linux",
		DesktopEnvAvailable: true,
	}, st)
}

func TestNonZeroExitIsCommandError(t *testing.T) {
	b, _ := newScriptBridge(t)

	_, err := b.authCommand(context.Background(), "bogus")
	require.Error(t, err)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 3, cmdErr.ExitCode)
	assert.Equal(t, "bogus", cmdErr.Command)
	assert.Contains(t, cmdErr.Error(), "unknown command bogus")
}

func TestPasswordNotInErrors(t *testing.T) {
	b := New(Options{Script: "/nonexistent/main.py"})
	_, err := b.Login(context.Background(), "a@example.com", "hunter2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrScriptNotFound))
	assert.NotContains(t, err.Error(), "hunter2")
}

func TestScriptSearchOrder(t *testing.T) {
	b := New(Options{})
	b.executable = func() (string, error) { return "/opt/skydesk/bin/skydesk", nil }
	b.getwd = func() (string, error) { return "/work", nil }

	existing := map[string]bool{}
	b.stat = func(p string) (os.FileInfo, error) {
		if existing[p] {
			return fakeInfo{}, nil
		}
		return nil, os.ErrNotExist
	}

	share := filepath.Join("/opt/skydesk/bin", "..", "share", "skydesk", "python", "main.py")
	resources := filepath.Join("/opt/skydesk/bin", "..", "Resources", "python", "main.py")
	cwd := filepath.Join("/work", "python", "main.py")

	_, err := b.ScriptPath()
	require.True(t, errors.Is(err, ErrScriptNotFound))

	existing[cwd] = true
	got, err := b.ScriptPath()
	require.NoError(t, err)
	assert.Equal(t, cwd, got)

	existing[resources] = true
	got, _ = b.ScriptPath()
	assert.Equal(t, resources, got)

	existing[share] = true
	got, _ = b.ScriptPath()
	assert.Equal(t, share, got)
}

type fakeInfo struct{ os.FileInfo }

func (fakeInfo) IsDir() bool { return false }

func TestInstallDependencies(t *testing.T) {
	b, dir := newScriptBridge(t)

	_, err := b.InstallDependencies(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "installation script not found")

	installer := filepath.Join(dir, DefaultInstallScriptName)
	require.NoError(t, os.WriteFile(installer, []byte("echo installed xfce\n"), 0o644))
	out, err := b.InstallDependencies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Installation completed successfully:\ninstalled xfce\n", out)

	require.NoError(t, os.WriteFile(installer, []byte("echo partial; echo apt failed >&2; exit 1\n"), 0o644))
	_, err = b.InstallDependencies(context.Background())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Installation failed:\nSTDOUT: partial"))
	assert.Contains(t, err.Error(), "STDERR: apt failed")
}

func TestTimeout(t *testing.T) {
	b := New(Options{Script: "/ignored", Timeout: 10 * time.Millisecond})
	b.stat = func(string) (os.FileInfo, error) { return fakeInfo{}, nil }
	b.run = func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
		<-ctx.Done()
		return nil, nil, ctx.Err()
	}

	_, err := b.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
