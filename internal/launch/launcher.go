// Package launch starts external programs as jobs: each in its own process
// group, optionally owning the terminal, with redirections applied in the
// child.
package launch

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"syscall"

	"github.com/kballard/go-shellquote"
	"golang.org/x/sys/unix"

	"jobsh/internal/parser"
)

// selfExe is re-executed as the child stage. It always names the running
// binary on Linux, regardless of how it was started.
const selfExe = "/proc/self/exe"

// Request describes one program to start.
type Request struct {
	// Path is the executable exactly as typed.
	Path string
	// Args is the argument vector handed to the program, Args[0] included.
	Args       []string
	Redirect   parser.Redirect
	Background bool
}

// NewRequest builds a Request from a parsed command, stripping a trailing
// "&". Args[0] becomes the final path component of the program.
func NewRequest(cmd *parser.Command) (Request, error) {
	background := cmd.StripBackground()
	if len(cmd.Args) == 0 {
		return Request{}, errors.New("syntax error: no command")
	}
	args := append([]string{cmd.Name()}, cmd.Args[1:]...)
	return Request{
		Path:       cmd.Args[0],
		Args:       args,
		Redirect:   cmd.Redirect,
		Background: background,
	}, nil
}

type Launcher struct {
	Terminal *Terminal
	Logger   *log.Logger
	Self     string
}

func New(term *Terminal, logger *log.Logger) *Launcher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Launcher{
		Terminal: term,
		Logger:   logger,
		Self:     selfExe,
	}
}

func (l *Launcher) sysProcAttr(background bool) *syscall.SysProcAttr {
	if background || !l.Terminal.Enabled() {
		return &syscall.SysProcAttr{Setpgid: true}
	}
	return &syscall.SysProcAttr{
		Setpgid:    true,
		Foreground: true,
		Ctty:       l.Terminal.Fd(),
	}
}

// Start forks the child stage for req and returns the new pid, which is also
// the job's process group id. A foreground child owns the terminal by the
// time Start returns.
func (l *Launcher) Start(req Request) (int, error) {
	attr := &syscall.ProcAttr{
		Env:   os.Environ(),
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd()},
		Sys:   l.sysProcAttr(req.Background),
	}

	pid, err := syscall.ForkExec(l.Self, childArgs(req), attr)
	if err != nil {
		return 0, fmt.Errorf("fork: %w", err)
	}
	if attr.Sys.Foreground {
		l.Terminal.handedOff(pid)
	}

	l.Logger.Printf("started pid=%d background=%t argv=%s redirect=%+v",
		pid, req.Background, shellquote.Join(req.Args...), req.Redirect)
	return pid, nil
}

// Foreground blocks until pid terminates or stops, then gives the terminal
// back to the shell whatever the outcome. ws is only meaningful when waitErr
// is nil.
func (l *Launcher) Foreground(pid int) (ws unix.WaitStatus, waitErr, termErr error) {
	ws, waitErr = Wait(pid)
	if waitErr != nil {
		waitErr = fmt.Errorf("wait: %w", waitErr)
	}
	if termErr = l.Terminal.Reclaim(); termErr != nil {
		l.Logger.Printf("reclaim terminal after pid=%d: %v", pid, termErr)
	}
	l.Logger.Printf("foreground pid=%d status=%#x", pid, uint32(ws))
	return ws, waitErr, termErr
}

// Resume sends SIGCONT to the process group and, for a foreground resume,
// hands it the terminal.
func (l *Launcher) Resume(pgid int, foreground bool) error {
	if err := unix.Kill(-pgid, unix.SIGCONT); err != nil {
		l.Logger.Printf("continue pgid=%d: %v", pgid, err)
	}
	if !foreground {
		return nil
	}
	return l.Terminal.Give(pgid)
}
