// Package app wires the scheduling pipeline together: load root specs,
// skip the ones whose module is already installed, resolve the dependency
// graph, and hand the ordered result to a job backend.
package app

import (
	"io"

	"github.com/vk/modforge/internal/jobqueue"
	"github.com/vk/modforge/internal/jobqueue/local"
	"github.com/vk/modforge/internal/jobqueue/slurm"
)

// PreferredBackends is the selection order used when no backend is named
// explicitly: a real batch system first, the in-process fallback last.
var PreferredBackends = []string{"slurm", "local"}

// App is one configured instance of the scheduler.
type App struct {
	outW     io.Writer
	cfg      *Config
	registry *jobqueue.Registry
}

// NewApp creates an App with the default backend registry.
func NewApp(outW io.Writer, cfg *Config) *App {
	registry := jobqueue.NewRegistry()
	local.Register(registry, local.WithWorkers(cfg.Workers))
	slurm.Register(registry)

	return &App{outW: outW, cfg: cfg, registry: registry}
}

// NewAppWithRegistry creates an App over a caller-supplied registry.
// Used by tests to inject recording backends.
func NewAppWithRegistry(outW io.Writer, cfg *Config, registry *jobqueue.Registry) *App {
	return &App{outW: outW, cfg: cfg, registry: registry}
}
