package shell

import (
	"fmt"

	"jobsh/internal/jobs"
	"jobsh/internal/launch"
	"jobsh/internal/parser"
)

// runExternal starts cmd as a job. Background jobs are registered and left
// running; foreground jobs are waited for until they exit or stop.
func (s *Shell) runExternal(cmd *parser.Command) Outcome {
	req, err := launch.NewRequest(cmd)
	if err != nil {
		fmt.Fprintln(s.stderr, err)
		return HandledWithError
	}

	pid, err := s.launcher.Start(req)
	if err != nil {
		fmt.Fprintln(s.stderr, err)
		return HandledWithError
	}
	name := req.Args[0]

	if req.Background {
		id := s.allocJobID()
		if err := s.jobs.Add(id, pid, jobs.Running, name); err != nil {
			fmt.Fprintf(s.stderr, "jobs: %v\n", err)
			return HandledWithError
		}
		fmt.Fprintf(s.stdout, "[%d] (%d)\n", id, pid)
		return Handled
	}

	ws, waitErr, termErr := s.launcher.Foreground(pid)
	if waitErr != nil {
		fmt.Fprintln(s.stderr, waitErr)
	}
	if termErr != nil {
		fmt.Fprintln(s.stderr, termErr)
	}
	if waitErr != nil {
		return HandledWithError
	}

	switch {
	case ws.Stopped():
		id := s.allocJobID()
		s.notify(id, pid, "suspended by signal %d", int(ws.StopSignal()))
		if err := s.jobs.Add(id, pid, jobs.Stopped, name); err != nil {
			fmt.Fprintf(s.stderr, "jobs: %v\n", err)
			return HandledWithError
		}
	case ws.Signaled():
		s.notify(s.allocJobID(), pid, "terminated by signal %d", int(ws.Signal()))
	}

	if termErr != nil {
		return HandledWithError
	}
	return Handled
}
