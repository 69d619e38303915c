package jobqueue

import (
	"context"
	"fmt"

	"github.com/vk/modforge/internal/buildspec"
	"github.com/vk/modforge/internal/ctxlog"
)

// SubmitOptions tunes how resolver output is turned into jobs.
type SubmitOptions struct {
	// Command renders the build command for a unit whose spec declares no
	// build block. Nil falls back to a plain "modforge build <path>" line.
	Command func(*buildspec.Spec) string
}

func defaultCommand(spec *buildspec.Spec) string {
	if spec.Path != "" {
		return fmt.Sprintf("modforge build %s", spec.Path)
	}
	return fmt.Sprintf("modforge build %s", spec.FullModName)
}

// SubmitOrdered walks the resolver's dependency-first unit list and turns
// it into one batch submission: one job per unit, with the after-set equal
// to the jobs already created for the unit's direct dependencies. The
// dependency-first order guarantees every after-set member pre-exists.
// Dependencies pruned from the list (module already installed) impose no
// constraint. The whole walk runs inside a single Begin/Commit bracket.
func SubmitOrdered(ctx context.Context, srv Server, ordered []*buildspec.Spec, opts SubmitOptions) ([]Job, error) {
	logger := ctxlog.FromContext(ctx)
	command := opts.Command
	if command == nil {
		command = defaultCommand
	}

	if err := srv.Begin(); err != nil {
		return nil, err
	}

	byModule := make(map[string]Job, len(ordered))
	jobs := make([]Job, 0, len(ordered))

	for _, spec := range ordered {
		js := JobSpec{
			Script: command(spec),
			Name:   spec.FullModName,
		}
		if spec.Build != nil {
			if spec.Build.Script != "" {
				js.Script = spec.Build.Script
			}
			js.EnvVars = spec.Build.Env
			js.Hours = spec.Build.Hours
			js.Cores = spec.Build.Cores
		}

		job, err := srv.MakeJob(js)
		if err != nil {
			return nil, fmt.Errorf("creating job for %s: %w", spec.FullModName, err)
		}

		var after []Job
		for _, dep := range spec.Dependencies {
			if pre, ok := byModule[dep.ModName()]; ok {
				after = append(after, pre)
			}
		}

		if err := srv.Submit(job, after); err != nil {
			return nil, fmt.Errorf("submitting job for %s: %w", spec.FullModName, err)
		}
		logger.Debug("Job queued.", "module", spec.FullModName, "after", len(after))

		byModule[spec.FullModName] = job
		jobs = append(jobs, job)
	}

	if err := srv.Commit(); err != nil {
		return nil, err
	}
	logger.Info("Batch submission committed.", "jobs", len(jobs))
	return jobs, nil
}
