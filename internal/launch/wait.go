package launch

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Wait blocks until pid exits, is killed by a signal or stops.
func Wait(pid int) (unix.WaitStatus, error) {
	var ws unix.WaitStatus
	for {
		_, err := unix.Wait4(pid, &ws, unix.WUNTRACED, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return ws, err
	}
}

// Change is one child state transition observed by Poll.
type Change struct {
	PID    int
	Status unix.WaitStatus
}

// Poll collects one pending state change from any child without blocking.
// ok is false when nothing is pending or there are no children at all.
func Poll() (c Change, ok bool, err error) {
	for {
		pid, err := unix.Wait4(-1, &c.Status, unix.WNOHANG|unix.WUNTRACED|unix.WCONTINUED, nil)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.ECHILD):
			return Change{}, false, nil
		case err != nil:
			return Change{}, false, err
		case pid <= 0:
			return Change{}, false, nil
		}
		c.PID = pid
		return c, true, nil
	}
}
