package jobqueue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxnStateMachine(t *testing.T) {
	t.Parallel()

	var txn Txn

	// Submit/Commit before Begin are programming errors.
	var terr *TransactionError
	require.ErrorAs(t, txn.EnsureOpen("Submit"), &terr)
	assert.Equal(t, "Submit", terr.Op)
	require.ErrorAs(t, txn.CommitTxn(), &terr)

	require.NoError(t, txn.BeginTxn())
	require.NoError(t, txn.EnsureOpen("Submit"))

	// A second Begin inside an open transaction is also a programming error.
	require.ErrorAs(t, txn.BeginTxn(), &terr)
	assert.Equal(t, "Begin", terr.Op)

	require.NoError(t, txn.CommitTxn())

	// Back to idle: a fresh Begin works again.
	require.NoError(t, txn.BeginTxn())
	require.NoError(t, txn.CommitTxn())
}

// fakeServer records the submission sequence for assertions.
type fakeServer struct {
	Txn
	begun     int
	committed int
	submitted []submission
}

type submission struct {
	name  string
	after []string
}

type fakeJob struct{ name string }

func (j *fakeJob) Name() string { return j.name }

func (s *fakeServer) Begin() error {
	if err := s.BeginTxn(); err != nil {
		return err
	}
	s.begun++
	return nil
}

func (s *fakeServer) MakeJob(spec JobSpec) (Job, error) {
	return &fakeJob{name: spec.Name}, nil
}

func (s *fakeServer) Submit(job Job, after []Job) error {
	if err := s.EnsureOpen("Submit"); err != nil {
		return err
	}
	names := make([]string, len(after))
	for i, a := range after {
		names[i] = a.Name()
	}
	s.submitted = append(s.submitted, submission{name: job.Name(), after: names})
	return nil
}

func (s *fakeServer) Commit() error {
	if err := s.CommitTxn(); err != nil {
		return err
	}
	s.committed++
	return nil
}

func usableFactory(srv Server) Factory {
	return Factory{
		New:    func(context.Context) (Server, error) { return srv, nil },
		Usable: func() bool { return true },
	}
}

func unusableFactory() Factory {
	return Factory{
		New:    func(context.Context) (Server, error) { panic("must not be constructed") },
		Usable: func() bool { return false },
	}
}

func TestRegistrySelect(t *testing.T) {
	t.Parallel()

	srv := &fakeServer{}
	r := NewRegistry()
	r.Register("fake", usableFactory(srv))

	got, err := r.Select(context.Background(), "fake")
	require.NoError(t, err)
	assert.Same(t, Server(srv), got)
}

func TestRegistrySelectUnregistered(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	_, err := r.Select(context.Background(), "pbs")

	var serr *SelectionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "pbs", serr.Backend)
}

func TestRegistrySelectUnusable(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register("slurm", unusableFactory())

	_, err := r.Select(context.Background(), "slurm")
	var serr *SelectionError
	require.ErrorAs(t, err, &serr)
}

func TestRegistryPreferredSkipsUnusable(t *testing.T) {
	t.Parallel()

	srv := &fakeServer{}
	r := NewRegistry()
	r.Register("slurm", unusableFactory())
	r.Register("local", usableFactory(srv))

	got, err := r.Preferred(context.Background(), []string{"slurm", "local"})
	require.NoError(t, err)
	assert.Same(t, Server(srv), got)
}

func TestRegistryPreferredNoneUsable(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register("slurm", unusableFactory())

	_, err := r.Preferred(context.Background(), []string{"slurm", "pbs"})
	var serr *SelectionError
	require.ErrorAs(t, err, &serr)
}

func TestRegistryDuplicatePanics(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register("local", unusableFactory())
	assert.Panics(t, func() { r.Register("local", unusableFactory()) })
}
