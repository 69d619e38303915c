package local

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/modforge/internal/jobqueue"
)

// orderRecorder notes the sequence in which jobs actually ran.
type orderRecorder struct {
	mu    sync.Mutex
	order []string
	fail  map[string]bool
}

func (r *orderRecorder) runner(_ context.Context, spec jobqueue.JobSpec) error {
	r.mu.Lock()
	r.order = append(r.order, spec.Name)
	r.mu.Unlock()
	if r.fail[spec.Name] {
		return errors.New("build failed")
	}
	return nil
}

func (r *orderRecorder) indexOf(name string) int {
	for i, n := range r.order {
		if n == name {
			return i
		}
	}
	return -1
}

// submitChain submits jobs with the given predecessor names already
// resolved to jobs.
func submitChain(t *testing.T, srv *Server, chain map[string][]string, order []string) map[string]jobqueue.Job {
	t.Helper()
	jobs := make(map[string]jobqueue.Job)
	for _, name := range order {
		job, err := srv.MakeJob(jobqueue.JobSpec{Name: name, Script: "true"})
		require.NoError(t, err)
		var after []jobqueue.Job
		for _, pre := range chain[name] {
			after = append(after, jobs[pre])
		}
		require.NoError(t, srv.Submit(job, after))
		jobs[name] = job
	}
	return jobs
}

func TestCommitRunsJobsInDependencyOrder(t *testing.T) {
	t.Parallel()

	rec := &orderRecorder{}
	srv := New(context.Background(), WithWorkers(4), WithRunner(rec.runner))

	require.NoError(t, srv.Begin())
	submitChain(t, srv, map[string][]string{
		"openmpi": {"gcc"},
		"app":     {"openmpi", "zlib"},
	}, []string{"gcc", "zlib", "openmpi", "app"})
	require.NoError(t, srv.Commit())

	require.Len(t, rec.order, 4)
	assert.Less(t, rec.indexOf("gcc"), rec.indexOf("openmpi"))
	assert.Less(t, rec.indexOf("openmpi"), rec.indexOf("app"))
	assert.Less(t, rec.indexOf("zlib"), rec.indexOf("app"))
}

func TestFailedJobSkipsDependents(t *testing.T) {
	t.Parallel()

	rec := &orderRecorder{fail: map[string]bool{"gcc": true}}
	srv := New(context.Background(), WithWorkers(2), WithRunner(rec.runner))

	require.NoError(t, srv.Begin())
	submitChain(t, srv, map[string][]string{
		"openmpi": {"gcc"},
		"app":     {"openmpi"},
	}, []string{"gcc", "zlib", "openmpi", "app"})

	err := srv.Commit()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jobs failed or were skipped")

	// gcc ran and failed; its transitive dependents never ran; the
	// independent zlib still did.
	assert.Equal(t, -1, rec.indexOf("openmpi"))
	assert.Equal(t, -1, rec.indexOf("app"))
	assert.NotEqual(t, -1, rec.indexOf("zlib"))
}

func TestTransactionGuards(t *testing.T) {
	t.Parallel()

	srv := New(context.Background())
	job, err := srv.MakeJob(jobqueue.JobSpec{Name: "a"})
	require.NoError(t, err)

	var terr *jobqueue.TransactionError
	require.ErrorAs(t, srv.Submit(job, nil), &terr)
	require.ErrorAs(t, srv.Commit(), &terr)

	require.NoError(t, srv.Begin())
	require.ErrorAs(t, srv.Begin(), &terr)
}

func TestSubmitRejectsUnsubmittedPredecessor(t *testing.T) {
	t.Parallel()

	srv := New(context.Background(), WithRunner(func(context.Context, jobqueue.JobSpec) error { return nil }))
	require.NoError(t, srv.Begin())

	a, err := srv.MakeJob(jobqueue.JobSpec{Name: "a"})
	require.NoError(t, err)
	b, err := srv.MakeJob(jobqueue.JobSpec{Name: "b"})
	require.NoError(t, err)

	// a was created but never submitted.
	err = srv.Submit(b, []jobqueue.Job{a})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsubmitted")
}

func TestCommitEmptyTransaction(t *testing.T) {
	t.Parallel()

	srv := New(context.Background(), WithRunner(func(context.Context, jobqueue.JobSpec) error { return nil }))
	require.NoError(t, srv.Begin())
	require.NoError(t, srv.Commit())

	// The transaction is closed; a new one can start.
	require.NoError(t, srv.Begin())
	require.NoError(t, srv.Commit())
}

func TestRegisterIsAlwaysUsable(t *testing.T) {
	t.Parallel()

	r := jobqueue.NewRegistry()
	Register(r)

	srv, err := r.Select(context.Background(), "local")
	require.NoError(t, err)
	assert.IsType(t, &Server{}, srv)
}
