// Package jobs holds the shell's table of background and stopped jobs.
package jobs

import (
	"fmt"
	"io"
	"sort"
)

type State int

const (
	Running State = iota
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Job is one registered job. PID is also the job's process group id.
type Job struct {
	ID    int
	PID   int
	State State
	Name  string
}

func (j Job) String() string {
	return fmt.Sprintf("[%d] (%d) %s %s", j.ID, j.PID, j.State, j.Name)
}

// Registry is not safe for concurrent use; the shell only touches it from
// its own loop.
type Registry struct {
	byID  map[int]*Job
	byPID map[int]*Job
}

func New() *Registry {
	return &Registry{
		byID:  make(map[int]*Job),
		byPID: make(map[int]*Job),
	}
}

// Add registers a new job. Ids and pids must be unique among current jobs.
func (r *Registry) Add(id, pid int, state State, name string) error {
	if id <= 0 {
		return fmt.Errorf("invalid job id %d", id)
	}
	if _, ok := r.byID[id]; ok {
		return fmt.Errorf("job %d already registered", id)
	}
	if _, ok := r.byPID[pid]; ok {
		return fmt.Errorf("process %d already registered", pid)
	}
	job := &Job{ID: id, PID: pid, State: state, Name: name}
	r.byID[id] = job
	r.byPID[pid] = job
	return nil
}

// RemoveByPID deletes the job for pid, if any.
func (r *Registry) RemoveByPID(pid int) {
	job, ok := r.byPID[pid]
	if !ok {
		return
	}
	delete(r.byPID, pid)
	delete(r.byID, job.ID)
}

func (r *Registry) UpdateByPID(pid int, state State) bool {
	job, ok := r.byPID[pid]
	if ok {
		job.State = state
	}
	return ok
}

func (r *Registry) UpdateByID(id int, state State) bool {
	job, ok := r.byID[id]
	if ok {
		job.State = state
	}
	return ok
}

func (r *Registry) PIDOf(id int) (int, bool) {
	job, ok := r.byID[id]
	if !ok {
		return 0, false
	}
	return job.PID, true
}

func (r *Registry) IDOf(pid int) (int, bool) {
	job, ok := r.byPID[pid]
	if !ok {
		return 0, false
	}
	return job.ID, true
}

func (r *Registry) Lookup(id int) (Job, bool) {
	job, ok := r.byID[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

func (r *Registry) Len() int {
	return len(r.byID)
}

// Jobs returns a snapshot ordered by job id.
func (r *Registry) Jobs() []Job {
	out := make([]Job, 0, len(r.byID))
	for _, job := range r.byID {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Print writes one line per job in the format used by the jobs builtin.
func (r *Registry) Print(w io.Writer) error {
	for _, job := range r.Jobs() {
		if _, err := fmt.Fprintln(w, job); err != nil {
			return err
		}
	}
	return nil
}

// Close drops every record. The registry is empty but usable afterwards.
func (r *Registry) Close() {
	r.byID = make(map[int]*Job)
	r.byPID = make(map[int]*Job)
}
