package shell

import (
	"fmt"
)

// allocJobID hands out the next job id. Ids are never reused within a
// session, including ids printed for foreground jobs that were never
// registered.
func (s *Shell) allocJobID() int {
	id := s.nextJobID
	s.nextJobID++
	return id
}

// jobIDOf reports the registered job id for pid, or -1.
func (s *Shell) jobIDOf(pid int) int {
	if id, ok := s.jobs.IDOf(pid); ok {
		return id
	}
	return -1
}

// notify prints a job transition notice: "[id] (pid) <what>".
func (s *Shell) notify(id, pid int, format string, args ...interface{}) {
	fmt.Fprintf(s.stdout, "[%d] (%d) %s\n", id, pid, fmt.Sprintf(format, args...))
	s.logger.Printf("job %d pid=%d: "+format, append([]interface{}{id, pid}, args...)...)
}
