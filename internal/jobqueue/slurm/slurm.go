// Package slurm is the job backend for Slurm's REST daemon (slurmrestd).
// Jobs are dispatched eagerly inside the transaction, one HTTP submission
// per job, with after-set constraints expressed as an "afterok" dependency
// list; Commit is the success barrier that closes the transaction.
//
// The backend is usable when both SLURM_RESTD_URL and SLURM_JWT are set.
package slurm

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"resty.dev/v3"

	"github.com/vk/modforge/internal/ctxlog"
	"github.com/vk/modforge/internal/jobqueue"
)

const (
	envRestdURL = "SLURM_RESTD_URL"
	envJWT      = "SLURM_JWT"

	submitPath = "/slurm/v0.0.39/job/submit"
)

// Usable reports whether the slurmrestd endpoint is configured.
func Usable() bool {
	return os.Getenv(envRestdURL) != "" && os.Getenv(envJWT) != ""
}

// Register adds the backend to a registry under the name "slurm".
func Register(r *jobqueue.Registry) {
	r.Register("slurm", jobqueue.Factory{
		New: func(ctx context.Context) (jobqueue.Server, error) {
			return New(ctx, os.Getenv(envRestdURL), os.Getenv(envJWT)), nil
		},
		Usable: Usable,
	})
}

// job is the slurm backend's concrete Job. The batch system's numeric ID
// is filled in on dispatch.
type job struct {
	spec  jobqueue.JobSpec
	jobID int
}

// Name implements jobqueue.Job.
func (j *job) Name() string { return j.spec.Name }

// submitRequest is the slurmrestd job submission payload.
type submitRequest struct {
	Script string        `json:"script"`
	Job    jobProperties `json:"job"`
}

type jobProperties struct {
	Name        string   `json:"name"`
	Environment []string `json:"environment,omitempty"`
	TimeLimit   int      `json:"time_limit,omitempty"`
	CPUs        int      `json:"cpus_per_task,omitempty"`
	Dependency  string   `json:"dependency,omitempty"`
}

// submitResponse is the subset of the slurmrestd reply we consume.
type submitResponse struct {
	JobID  int `json:"job_id"`
	Errors []struct {
		Error string `json:"error"`
	} `json:"errors"`
}

// Server talks to one slurmrestd endpoint.
type Server struct {
	jobqueue.Txn

	ctx    context.Context
	client *resty.Client
}

// New creates a slurm backend against the given endpoint.
func New(ctx context.Context, baseURL, token string) *Server {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("X-SLURM-USER-TOKEN", token).
		SetHeader("Content-Type", "application/json")
	return &Server{ctx: ctx, client: client}
}

// Begin implements jobqueue.Server.
func (s *Server) Begin() error {
	return s.BeginTxn()
}

// MakeJob implements jobqueue.Server. Pure construction.
func (s *Server) MakeJob(spec jobqueue.JobSpec) (jobqueue.Job, error) {
	return &job{spec: spec}, nil
}

// Submit implements jobqueue.Server. Dispatch happens immediately; the
// after-set jobs already carry batch IDs because the caller submits in
// dependency-first order.
func (s *Server) Submit(j jobqueue.Job, after []jobqueue.Job) error {
	if err := s.EnsureOpen("Submit"); err != nil {
		return err
	}
	sj, ok := j.(*job)
	if !ok {
		return fmt.Errorf("slurm: foreign job %q submitted", j.Name())
	}

	dependency, err := afterOK(after)
	if err != nil {
		return err
	}

	req := submitRequest{
		Script: script(sj.spec),
		Job: jobProperties{
			Name:        sj.spec.Name,
			Environment: environment(sj.spec.EnvVars),
			TimeLimit:   sj.spec.Hours * 60,
			CPUs:        sj.spec.Cores,
			Dependency:  dependency,
		},
	}

	var out submitResponse
	res, err := s.client.R().
		SetContext(s.ctx).
		SetBody(req).
		SetResult(&out).
		Post(submitPath)
	if err != nil {
		return fmt.Errorf("slurm: submitting %q: %w", sj.spec.Name, err)
	}
	if !res.IsSuccess() {
		return fmt.Errorf("slurm: submitting %q: %s", sj.spec.Name, res.Status())
	}
	if len(out.Errors) > 0 {
		return fmt.Errorf("slurm: submitting %q: %s", sj.spec.Name, out.Errors[0].Error)
	}

	sj.jobID = out.JobID
	ctxlog.FromContext(s.ctx).Info("Job submitted to slurm.",
		"job", sj.spec.Name, "job_id", sj.jobID, "dependency", dependency)
	return nil
}

// Commit implements jobqueue.Server. Submissions were dispatched eagerly,
// so commit only closes the transaction.
func (s *Server) Commit() error {
	return s.CommitTxn()
}

// Close releases the underlying HTTP client.
func (s *Server) Close() error {
	return s.client.Close()
}

// afterOK renders the after-set as a slurm dependency expression,
// e.g. "afterok:4213:4214".
func afterOK(after []jobqueue.Job) (string, error) {
	if len(after) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(after)+1)
	parts = append(parts, "afterok")
	for _, a := range after {
		sa, ok := a.(*job)
		if !ok {
			return "", fmt.Errorf("slurm: foreign job %q in after-set", a.Name())
		}
		if sa.jobID == 0 {
			return "", fmt.Errorf("slurm: job %q in after-set was never submitted", a.Name())
		}
		parts = append(parts, strconv.Itoa(sa.jobID))
	}
	return strings.Join(parts, ":"), nil
}

// script wraps the job script with a shebang when the spec omits one;
// slurmrestd rejects scripts without an interpreter line.
func script(spec jobqueue.JobSpec) string {
	if strings.HasPrefix(spec.Script, "#!") {
		return spec.Script
	}
	return "#!/bin/bash\n" + spec.Script
}

func environment(env map[string]string) []string {
	if len(env) == 0 {
		// slurmrestd requires a non-empty environment list.
		return []string{"PATH=/usr/bin:/bin"}
	}
	vars := make([]string, 0, len(env))
	for k, v := range env {
		vars = append(vars, fmt.Sprintf("%s=%s", k, v))
	}
	return vars
}
