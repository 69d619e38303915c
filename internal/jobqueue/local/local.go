// Package local is the in-process job backend: it runs each job's script
// through the shell with a bounded worker pool, releasing a job only once
// every job in its after-set has finished successfully. Always usable; it
// is the fallback when no real batch system is reachable.
package local

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/google/uuid"

	"github.com/vk/modforge/internal/dag"
	"github.com/vk/modforge/internal/jobqueue"
)

// DefaultWorkers is the worker-pool size when the caller does not choose.
const DefaultWorkers = 4

// job is the local backend's concrete Job.
type job struct {
	id   string
	spec jobqueue.JobSpec
}

// Name implements jobqueue.Job.
func (j *job) Name() string { return j.spec.Name }

// Runner executes one job's script. Injectable so tests can observe
// execution order without spawning shells.
type Runner func(ctx context.Context, spec jobqueue.JobSpec) error

// Server is the local backend. It buffers submissions during the
// transaction and executes the whole batch on Commit.
type Server struct {
	jobqueue.Txn

	workers int
	runner  Runner
	ctx     context.Context

	queued []*job
	byID   map[string]*job
	graph  *dag.Graph
}

// Option configures a Server.
type Option func(*Server)

// WithWorkers sets the worker-pool size.
func WithWorkers(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithRunner replaces the shell runner.
func WithRunner(r Runner) Option {
	return func(s *Server) { s.runner = r }
}

// New creates a local backend.
func New(ctx context.Context, opts ...Option) *Server {
	s := &Server{
		workers: DefaultWorkers,
		runner:  runShell,
		ctx:     ctx,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds the local backend to a registry under the name "local".
func Register(r *jobqueue.Registry, opts ...Option) {
	r.Register("local", jobqueue.Factory{
		New: func(ctx context.Context) (jobqueue.Server, error) {
			return New(ctx, opts...), nil
		},
		Usable: func() bool { return true },
	})
}

// Begin implements jobqueue.Server.
func (s *Server) Begin() error {
	if err := s.BeginTxn(); err != nil {
		return err
	}
	s.queued = nil
	s.byID = make(map[string]*job)
	s.graph = dag.New()
	return nil
}

// MakeJob implements jobqueue.Server. Pure construction.
func (s *Server) MakeJob(spec jobqueue.JobSpec) (jobqueue.Job, error) {
	return &job{id: uuid.NewString(), spec: spec}, nil
}

// Submit implements jobqueue.Server.
func (s *Server) Submit(j jobqueue.Job, after []jobqueue.Job) error {
	if err := s.EnsureOpen("Submit"); err != nil {
		return err
	}
	lj, ok := j.(*job)
	if !ok {
		return fmt.Errorf("local: foreign job %q submitted", j.Name())
	}
	s.graph.AddNode(lj.id)
	for _, a := range after {
		la, ok := a.(*job)
		if !ok {
			return fmt.Errorf("local: foreign job %q in after-set of %q", a.Name(), j.Name())
		}
		if _, known := s.byID[la.id]; !known {
			return fmt.Errorf("local: job %q waits on unsubmitted job %q", j.Name(), a.Name())
		}
		if err := s.graph.AddEdge(la.id, lj.id); err != nil {
			return err
		}
	}
	s.byID[lj.id] = lj
	s.queued = append(s.queued, lj)
	return nil
}

// Commit implements jobqueue.Server: it runs the whole buffered batch and
// only then closes the transaction.
func (s *Server) Commit() error {
	if err := s.EnsureOpen("Commit"); err != nil {
		return err
	}
	if err := s.graph.DetectCycles(); err != nil {
		return err
	}
	runErr := s.execute(s.ctx)
	if err := s.CommitTxn(); err != nil {
		return err
	}
	return runErr
}

// runShell is the default Runner: sh -c with the job env layered over the
// process env.
func runShell(ctx context.Context, spec jobqueue.JobSpec) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", spec.Script)
	cmd.Env = os.Environ()
	for k, v := range spec.EnvVars {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("job %q: %w", spec.Name, err)
	}
	return nil
}
