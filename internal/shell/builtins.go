package shell

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"jobsh/internal/jobs"
	"jobsh/internal/parser"
)

// Outcome says whether a line was consumed by a builtin.
type Outcome int

const (
	NotBuiltin Outcome = iota
	Handled
	HandledWithError
)

type verb int

const (
	verbNone verb = iota
	verbExit
	verbCd
	verbRm
	verbLn
	verbJobs
	verbBg
	verbFg
)

var verbs = map[string]verb{
	"exit": verbExit,
	"cd":   verbCd,
	"rm":   verbRm,
	"ln":   verbLn,
	"jobs": verbJobs,
	"bg":   verbBg,
	"fg":   verbFg,
}

func (s *Shell) dispatch(cmd *parser.Command) Outcome {
	if len(cmd.Args) == 0 {
		fmt.Fprintln(s.stderr, "redirects with no command")
		return HandledWithError
	}

	name, args := cmd.Args[0], cmd.Args[1:]
	switch verbs[name] {
	case verbExit:
		s.exit()
		return Handled
	case verbCd:
		return s.pathBuiltin(name, args, 1, func(p []string) error { return os.Chdir(p[0]) })
	case verbRm:
		return s.pathBuiltin(name, args, 1, func(p []string) error { return unix.Unlink(p[0]) })
	case verbLn:
		return s.pathBuiltin(name, args, 2, func(p []string) error { return unix.Link(p[0], p[1]) })
	case verbJobs:
		return s.listJobs(args)
	case verbBg:
		return s.backgroundJob(args)
	case verbFg:
		return s.foregroundJob(args)
	default:
		return NotBuiltin
	}
}

func (s *Shell) exit() {
	s.logger.Printf("exit with %d jobs registered", s.jobs.Len())
	s.jobs.Close()
	s.exiting = true
}

// pathBuiltin checks arity and runs a filesystem call, reporting failures as
// "name: reason".
func (s *Shell) pathBuiltin(name string, args []string, arity int, fn func([]string) error) Outcome {
	if len(args) != arity {
		fmt.Fprintf(s.stderr, "%s: syntax error\n", name)
		return HandledWithError
	}
	if err := fn(args); err != nil {
		fmt.Fprintf(s.stderr, "%s: %v\n", name, reason(err))
		return HandledWithError
	}
	return Handled
}

// reason strips the operation and path from filesystem errors.
func reason(err error) error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return linkErr.Err
	}
	return err
}

func (s *Shell) listJobs(args []string) Outcome {
	if len(args) != 0 {
		fmt.Fprintln(s.stderr, "jobs: syntax error")
		return HandledWithError
	}
	if err := s.jobs.Print(s.stdout); err != nil {
		fmt.Fprintf(s.stderr, "jobs: %v\n", err)
		return HandledWithError
	}
	return Handled
}

// jobArg resolves a "%<id>" argument to a registered job.
func (s *Shell) jobArg(name string, args []string) (jobs.Job, bool) {
	if len(args) != 1 {
		fmt.Fprintf(s.stderr, "%s: syntax error\n", name)
		return jobs.Job{}, false
	}
	spec := args[0]
	if !strings.HasPrefix(spec, "%") {
		fmt.Fprintf(s.stderr, "%s: job input does not begin with %%\n", name)
		return jobs.Job{}, false
	}
	id, err := strconv.Atoi(spec[1:])
	if err != nil || id <= 0 {
		fmt.Fprintf(s.stderr, "%s: syntax error\n", name)
		return jobs.Job{}, false
	}
	job, ok := s.jobs.Lookup(id)
	if !ok {
		fmt.Fprintln(s.stderr, "job not found")
		return jobs.Job{}, false
	}
	return job, true
}

func (s *Shell) backgroundJob(args []string) Outcome {
	job, ok := s.jobArg("bg", args)
	if !ok {
		return HandledWithError
	}
	if err := s.launcher.Resume(job.PID, false); err != nil {
		fmt.Fprintln(s.stderr, err)
		return HandledWithError
	}
	s.jobs.UpdateByPID(job.PID, jobs.Running)
	return Handled
}

func (s *Shell) foregroundJob(args []string) Outcome {
	job, ok := s.jobArg("fg", args)
	if !ok {
		return HandledWithError
	}

	if err := s.launcher.Resume(job.PID, true); err != nil {
		fmt.Fprintln(s.stderr, err)
		if err := s.terminal.Reclaim(); err != nil {
			fmt.Fprintln(s.stderr, err)
		}
		return HandledWithError
	}

	ws, waitErr, termErr := s.launcher.Foreground(job.PID)
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
	case ws.Signaled():
		s.notify(job.ID, job.PID, "terminated by signal %d", int(ws.Signal()))
		s.jobs.RemoveByPID(job.PID)
	case ws.Stopped():
		s.notify(job.ID, job.PID, "suspended by signal %d", int(ws.StopSignal()))
		s.jobs.UpdateByID(job.ID, jobs.Stopped)
	case ws.Exited():
		s.jobs.RemoveByPID(job.PID)
	}

	if termErr != nil {
		return HandledWithError
	}
	return Handled
}
