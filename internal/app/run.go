package app

import (
	"context"
	"fmt"

	"github.com/vk/modforge/internal/buildspec"
	"github.com/vk/modforge/internal/ctxlog"
	"github.com/vk/modforge/internal/jobqueue"
	"github.com/vk/modforge/internal/modenv"
	"github.com/vk/modforge/internal/resolver"
	"github.com/vk/modforge/internal/specfile"
)

// Run executes one scheduling pass: load, filter, resolve, submit.
func (a *App) Run(ctx context.Context) error {
	logger := newLogger(a.cfg.LogLevel, a.cfg.LogFormat, a.outW)
	ctx = ctxlog.WithLogger(ctx, logger)

	avail, err := a.availability()
	if err != nil {
		return err
	}

	loader := specfile.NewLoader()
	roots := make([]*buildspec.Spec, 0, len(a.cfg.SpecPaths))
	for _, path := range a.cfg.SpecPaths {
		spec, err := loader.ParseFile(path)
		if err != nil {
			return err
		}
		roots = append(roots, spec)
	}
	logger.Info("Loaded root buildspecs.", "count", len(roots))

	policy := resolver.Policy{
		Force:         a.cfg.Force,
		RetainAllDeps: a.cfg.RetainAllDeps,
		SearchRoots:   a.cfg.SearchRoots,
	}

	roots = resolver.SkipAvailable(ctx, roots, policy, avail)
	if len(roots) == 0 {
		logger.Info("Nothing to build, all requested modules are installed.")
		return nil
	}

	ordered, err := resolver.New(loader, avail).Resolve(ctx, roots, policy)
	if err != nil {
		return err
	}
	logger.Info("Dependency resolution complete.", "units", len(ordered))

	if a.cfg.DryRun {
		for i, spec := range ordered {
			fmt.Fprintf(a.outW, "%3d  %s\n", i+1, spec.FullModName)
		}
		return nil
	}

	server, err := a.selectBackend(ctx)
	if err != nil {
		return err
	}

	_, err = jobqueue.SubmitOrdered(ctx, server, ordered, jobqueue.SubmitOptions{})
	return err
}

func (a *App) availability() (modenv.Availability, error) {
	if a.cfg.ModuleIndexPath == "" {
		return modenv.None{}, nil
	}
	return modenv.LoadIndex(a.cfg.ModuleIndexPath)
}

func (a *App) selectBackend(ctx context.Context) (jobqueue.Server, error) {
	if a.cfg.Backend != "" {
		return a.registry.Select(ctx, a.cfg.Backend)
	}
	return a.registry.Preferred(ctx, PreferredBackends)
}
