package shell

import (
	"fmt"

	"jobsh/internal/jobs"
	"jobsh/internal/launch"
)

// reap drains every pending child state change without blocking and brings
// the job table in line with it.
func (s *Shell) reap() {
	for {
		c, ok, err := launch.Poll()
		if err != nil {
			fmt.Fprintf(s.stderr, "wait: %v\n", err)
			return
		}
		if !ok {
			return
		}
		s.observe(c)
	}
}

func (s *Shell) observe(c launch.Change) {
	pid, ws := c.PID, c.Status
	id := s.jobIDOf(pid)

	switch {
	case ws.Exited():
		s.notify(id, pid, "terminated with exit status %d", ws.ExitStatus())
		s.jobs.RemoveByPID(pid)
	case ws.Signaled():
		s.notify(id, pid, "terminated by signal %d", int(ws.Signal()))
		s.jobs.RemoveByPID(pid)
	case ws.Stopped():
		s.notify(id, pid, "suspended by signal %d", int(ws.StopSignal()))
		s.jobs.UpdateByPID(pid, jobs.Stopped)
	case ws.Continued():
		s.notify(id, pid, "resumed")
		s.jobs.UpdateByPID(pid, jobs.Running)
	}
}
