package launch

import (
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"jobsh/internal/parser"
)

func TestMain(m *testing.M) {
	if Init() {
		return
	}
	os.Exit(m.Run())
}

func newTestLauncher() *Launcher {
	return New(NewTerminal(-1, false), nil)
}

func runForeground(t *testing.T, l *Launcher, req Request) unix.WaitStatus {
	t.Helper()
	pid, err := l.Start(req)
	require.NoError(t, err)
	ws, waitErr, termErr := l.Foreground(pid)
	require.NoError(t, waitErr)
	require.NoError(t, termErr)
	return ws
}

func TestChildArgs(t *testing.T) {
	req := Request{
		Path:     "/bin/echo",
		Args:     []string{"echo", "--stdin=x", "-a"},
		Redirect: parser.Redirect{Input: "in", Output: "out", Append: true},
	}
	assert.Equal(t, []string{
		childArgv0, "--stdin=in", "--stdout=out", "--append", "--",
		"/bin/echo", "echo", "--stdin=x", "-a",
	}, childArgs(req))

	assert.Equal(t, []string{childArgv0, "--", "ls", "ls"}, childArgs(Request{Path: "ls", Args: []string{"ls"}}))
}

func TestNewRequest(t *testing.T) {
	cmd, err := parser.Parse("/bin/sleep 5 > log &")
	require.NoError(t, err)

	req, err := NewRequest(cmd)
	require.NoError(t, err)
	assert.Equal(t, "/bin/sleep", req.Path)
	assert.Equal(t, []string{"sleep", "5"}, req.Args)
	assert.True(t, req.Background)
	assert.Equal(t, "log", req.Redirect.Output)

	_, err = NewRequest(&parser.Command{Args: []string{"&"}})
	assert.Error(t, err)
}

func TestRunChildErrors(t *testing.T) {
	var stderr strings.Builder
	assert.Equal(t, 1, runChild([]string{childArgv0}, Policy{}, &stderr))
	assert.Equal(t, childArgv0+": missing program\n", stderr.String())

	stderr.Reset()
	missing := filepath.Join(t.TempDir(), "missing")
	code := runChild([]string{childArgv0, "--stdin=" + missing, "--", "/bin/cat", "cat"}, Policy{}, &stderr)
	assert.Equal(t, 1, code)
	assert.Equal(t, "cat: no such file or directory\n", stderr.String())
}

func TestRedirectOutputTruncateAndAppend(t *testing.T) {
	l := newTestLauncher()
	out := filepath.Join(t.TempDir(), "out.txt")

	echo := func(word string, appendOut bool) {
		ws := runForeground(t, l, Request{
			Path:     "/bin/echo",
			Args:     []string{"echo", word},
			Redirect: parser.Redirect{Output: out, Append: appendOut},
		})
		require.True(t, ws.Exited())
		require.Equal(t, 0, ws.ExitStatus())
	}

	echo("first", false)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(data))

	echo("second", true)
	data, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))

	echo("third", false)
	data, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "third\n", string(data))
}

func TestRedirectInput(t *testing.T) {
	l := newTestLauncher()
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(in, []byte("line one\nline two\n"), 0644))

	ws := runForeground(t, l, Request{
		Path:     "/bin/cat",
		Args:     []string{"cat"},
		Redirect: parser.Redirect{Input: in, Output: out},
	})
	assert.True(t, ws.Exited())
	assert.Equal(t, 0, ws.ExitStatus())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", string(data))
}

func TestChildFailuresExitOne(t *testing.T) {
	l := newTestLauncher()
	dir := t.TempDir()

	ws := runForeground(t, l, Request{
		Path:     "/bin/cat",
		Args:     []string{"cat"},
		Redirect: parser.Redirect{Input: filepath.Join(dir, "missing")},
	})
	assert.True(t, ws.Exited())
	assert.Equal(t, 1, ws.ExitStatus())

	ws = runForeground(t, l, Request{
		Path: filepath.Join(dir, "no-such-program"),
		Args: []string{"no-such-program"},
	})
	assert.True(t, ws.Exited())
	assert.Equal(t, 1, ws.ExitStatus())
}

func TestForkFailure(t *testing.T) {
	l := newTestLauncher()
	l.Self = filepath.Join(t.TempDir(), "missing")

	_, err := l.Start(Request{Path: "/bin/true", Args: []string{"true"}})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "fork: "), err.Error())
}

func TestOwnProcessGroup(t *testing.T) {
	l := newTestLauncher()
	pid, err := l.Start(Request{Path: "/bin/sleep", Args: []string{"sleep", "30"}, Background: true})
	require.NoError(t, err)

	pgid, err := unix.Getpgid(pid)
	require.NoError(t, err)
	assert.Equal(t, pid, pgid)
	assert.NotEqual(t, l.Terminal.ShellGroup(), pgid)

	require.NoError(t, unix.Kill(-pid, unix.SIGKILL))
	ws, err := Wait(pid)
	require.NoError(t, err)
	assert.True(t, ws.Signaled())
	assert.Equal(t, unix.SIGKILL, ws.Signal())
}

func TestForegroundStopAndResume(t *testing.T) {
	l := newTestLauncher()
	pid, err := l.Start(Request{Path: "/bin/sh", Args: []string{"sh", "-c", "kill -STOP $$; exit 7"}})
	require.NoError(t, err)

	ws, waitErr, termErr := l.Foreground(pid)
	require.NoError(t, waitErr)
	require.NoError(t, termErr)
	require.True(t, ws.Stopped())
	assert.Equal(t, unix.SIGSTOP, ws.StopSignal())
	assert.Equal(t, l.Terminal.ShellGroup(), l.Terminal.Owner())

	require.NoError(t, l.Resume(pid, true))
	assert.Equal(t, pid, l.Terminal.Owner())

	ws, waitErr, termErr = l.Foreground(pid)
	require.NoError(t, waitErr)
	require.NoError(t, termErr)
	assert.True(t, ws.Exited())
	assert.Equal(t, 7, ws.ExitStatus())
	assert.Equal(t, l.Terminal.ShellGroup(), l.Terminal.Owner())
}

func TestForegroundKilled(t *testing.T) {
	l := newTestLauncher()
	ws := runForeground(t, l, Request{Path: "/bin/sh", Args: []string{"sh", "-c", "kill -KILL $$"}})
	assert.True(t, ws.Signaled())
	assert.Equal(t, unix.SIGKILL, ws.Signal())
}

func TestChildRestoresIgnoredSignals(t *testing.T) {
	InteractivePolicy.Ignore()
	defer signal.Reset(InteractivePolicy.Signals...)

	l := newTestLauncher()
	ws := runForeground(t, l, Request{Path: "/bin/sh", Args: []string{"sh", "-c", "kill -INT $$; exit 0"}})
	require.True(t, ws.Signaled(), "child survived SIGINT: %v", ws)
	assert.Equal(t, syscall.SIGINT, ws.Signal())
}

func TestPoll(t *testing.T) {
	_, ok, err := Poll()
	require.NoError(t, err)
	assert.False(t, ok)

	l := newTestLauncher()
	pid, err := l.Start(Request{Path: "/bin/sh", Args: []string{"sh", "-c", "exit 3"}, Background: true})
	require.NoError(t, err)

	deadline := time.Now().Add(5 * time.Second)
	for {
		c, ok, err := Poll()
		require.NoError(t, err)
		if ok {
			assert.Equal(t, pid, c.PID)
			assert.True(t, c.Status.Exited())
			assert.Equal(t, 3, c.Status.ExitStatus())
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("child exit never observed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
