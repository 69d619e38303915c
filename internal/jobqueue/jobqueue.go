// Package jobqueue defines the abstract contract between the scheduling
// core and batch-queue backends: job construction, transactional bulk
// submission with predecessor constraints, and a registry of named
// backends with usability probing.
package jobqueue

// Job is an opaque handle to a unit submitted (or about to be submitted)
// to a batch system. Backends return their own concrete type.
type Job interface {
	// Name is the human-readable job name, unique within one transaction.
	Name() string
}

// JobSpec carries the parameters for constructing one job.
type JobSpec struct {
	// Script is the shell text the job runs.
	Script string
	Name   string
	// EnvVars are exported into the job's environment.
	EnvVars map[string]string
	// Hours is the requested walltime; zero means backend default.
	Hours int
	// Cores is the requested core count; zero means backend default.
	Cores int
}

// Server is the batch-queue backend contract. The lifecycle is a strict
// transaction: Begin opens a bulk submission, Submit registers intent,
// and nothing is guaranteed dispatched until Commit returns successfully.
// Calling Submit or Commit outside an open transaction, or Begin inside
// one, is a programming error reported as *TransactionError.
type Server interface {
	// Begin opens a submission transaction.
	Begin() error

	// MakeJob constructs a Job from the given parameters. Pure
	// construction: no side effect on the batch system.
	MakeJob(spec JobSpec) (Job, error)

	// Submit registers the job for submission, to run only after every
	// job in after has completed successfully. Jobs in after must have
	// been submitted before or within the same transaction. Actual
	// dispatch may be deferred to Commit.
	Submit(job Job, after []Job) error

	// Commit flushes all queued submissions and closes the transaction.
	Commit() error
}
