package local

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/modforge/internal/ctxlog"
)

// execState tracks one batch execution: per-job predecessor counts, which
// jobs failed, and which must be skipped because an ancestor failed.
type execState struct {
	mu sync.Mutex
	// remaining counts unfinished predecessors per job ID.
	remaining map[string]int
	// blocked marks jobs with a failed or skipped predecessor.
	blocked map[string]bool
	// failures collects terminal errors keyed by job name.
	failures map[string]error
	wg       sync.WaitGroup
}

// execute runs the buffered batch with the worker pool. A failed job
// poisons its transitive dependents: they are skipped, never run.
func (s *Server) execute(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Executing local batch.", "jobs", len(s.queued), "workers", s.workers)

	st := &execState{
		remaining: make(map[string]int, len(s.queued)),
		blocked:   make(map[string]bool),
		failures:  make(map[string]error),
	}

	readyCh := make(chan *job, len(s.queued))
	st.wg.Add(len(s.queued))

	for _, j := range s.queued {
		after, err := s.graph.After(j.id)
		if err != nil {
			return err
		}
		st.remaining[j.id] = len(after)
		if len(after) == 0 {
			readyCh <- j
		}
	}

	workers := s.workers
	if workers > len(s.queued) {
		workers = len(s.queued)
	}
	for i := 0; i < workers; i++ {
		go s.worker(ctx, st, readyCh, i)
	}

	st.wg.Wait()
	close(readyCh)

	if len(st.failures) > 0 {
		var first error
		for _, err := range st.failures {
			first = err
			break
		}
		return fmt.Errorf("%d of %d jobs failed or were skipped: %w", len(st.failures), len(s.queued), first)
	}
	logger.Debug("Local batch finished.", "jobs", len(s.queued))
	return nil
}

// worker is the processing loop of one pool member.
func (s *Server) worker(ctx context.Context, st *execState, readyCh chan *job, workerID int) {
	logger := ctxlog.FromContext(ctx)
	for j := range readyCh {
		workerLogger := logger.With("workerID", workerID, "job", j.spec.Name)
		workerLogger.Debug("Worker picked up job.")

		err := s.runner(ctx, j.spec)
		if err != nil {
			workerLogger.Error("Job failed.", "error", err)
			st.mu.Lock()
			st.failures[j.spec.Name] = err
			st.mu.Unlock()
		} else {
			workerLogger.Debug("Job succeeded.")
		}

		s.finish(ctx, st, readyCh, j, err == nil)
		st.wg.Done()
	}
}

// finish settles a job's outcome and unlocks or skips its dependents.
// Each job passes through finish exactly once.
func (s *Server) finish(ctx context.Context, st *execState, readyCh chan *job, j *job, ok bool) {
	unlocks, err := s.graph.Unlocks(j.id)
	if err != nil {
		return
	}

	var ready, skipped []*job
	st.mu.Lock()
	for _, id := range unlocks {
		if !ok {
			st.blocked[id] = true
		}
		st.remaining[id]--
		if st.remaining[id] == 0 {
			next := s.byID[id]
			if st.blocked[id] {
				st.failures[next.spec.Name] = fmt.Errorf("job %q skipped: predecessor %q did not succeed", next.spec.Name, j.spec.Name)
				skipped = append(skipped, next)
			} else {
				ready = append(ready, next)
			}
		}
	}
	st.mu.Unlock()

	for _, next := range ready {
		readyCh <- next
	}
	for _, next := range skipped {
		ctxlog.FromContext(ctx).Warn("Skipping job, predecessor failed.", "job", next.spec.Name)
		s.finish(ctx, st, readyCh, next, false)
		st.wg.Done()
	}
}
