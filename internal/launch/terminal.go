package launch

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/sys/unix"
)

// Terminal tracks which process group owns the controlling terminal.
//
// Job control is only enabled when the file is a terminal. Otherwise every
// ownership change is a no-op and children are started without a terminal
// handoff.
type Terminal struct {
	fd      int
	shell   int
	owner   int
	enabled bool
}

// OpenTerminal wraps f, normally os.Stdin. The shell's own process group is
// recorded as the current owner.
func OpenTerminal(f *os.File) *Terminal {
	return NewTerminal(int(f.Fd()), isatty.IsTerminal(f.Fd()))
}

// NewTerminal is OpenTerminal for a raw descriptor. With enabled false the
// descriptor is never touched.
func NewTerminal(fd int, enabled bool) *Terminal {
	pgrp := unix.Getpgrp()
	return &Terminal{
		fd:      fd,
		shell:   pgrp,
		owner:   pgrp,
		enabled: enabled,
	}
}

// Enabled reports whether job control is active.
func (t *Terminal) Enabled() bool {
	return t.enabled
}

func (t *Terminal) Fd() int {
	return t.fd
}

// ShellGroup is the shell's own process group id.
func (t *Terminal) ShellGroup() int {
	return t.shell
}

// Owner is the process group the shell last gave the terminal to.
func (t *Terminal) Owner() int {
	return t.owner
}

// Give makes pgid the foreground process group.
func (t *Terminal) Give(pgid int) error {
	if !t.enabled {
		t.owner = pgid
		return nil
	}
	if err := unix.IoctlSetPointerInt(t.fd, unix.TIOCSPGRP, pgid); err != nil {
		return fmt.Errorf("tcsetpgrp: %w", err)
	}
	t.owner = pgid
	return nil
}

// Reclaim gives the terminal back to the shell.
func (t *Terminal) Reclaim() error {
	return t.Give(t.shell)
}

// handedOff records a child that took the terminal for itself at fork time.
func (t *Terminal) handedOff(pgid int) {
	t.owner = pgid
}
