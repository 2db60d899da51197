package launch

import (
	"os"
	"os/signal"
	"syscall"
)

// Policy is the set of job-control signals the shell keeps away from itself.
type Policy struct {
	Signals []os.Signal
}

// InteractivePolicy covers interrupt, quit, terminal stop and background
// terminal output.
var InteractivePolicy = Policy{
	Signals: []os.Signal{syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTSTP, syscall.SIGTTOU},
}

// Ignore sets the policy's signals to SIG_IGN in the calling process. The
// kernel still delivers them to the foreground process group.
func (p Policy) Ignore() {
	if len(p.Signals) == 0 {
		return
	}
	signal.Ignore(p.Signals...)
}

// Restore prepares the policy's signals to be at their default disposition
// in the next exec'd image. execve resets caught signals to SIG_DFL but
// keeps ignored ones ignored, so they are caught here and dropped until the
// exec happens.
func (p Policy) Restore() {
	if len(p.Signals) == 0 {
		return
	}
	signal.Notify(make(chan os.Signal, len(p.Signals)), p.Signals...)
}
