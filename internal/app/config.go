package app

import "errors"

// Config holds everything an App instance needs for one scheduling run.
type Config struct {
	// SpecPaths are the buildspec files explicitly supplied by the caller
	// (the root specs).
	SpecPaths []string
	// SearchRoots is the ordered robot path scanned for dependency specs.
	SearchRoots []string
	// ModuleIndexPath points at the YAML index of installed modules.
	// Empty means no module is considered installed.
	ModuleIndexPath string

	Force         bool
	RetainAllDeps bool

	// DryRun prints the resolved build order instead of submitting jobs.
	DryRun bool
	// Backend selects a job backend by name; empty picks the first usable
	// backend in preference order.
	Backend string
	Workers int

	LogFormat string
	LogLevel  string
}

// NewConfig validates and returns the configuration.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.SpecPaths) == 0 {
		return nil, errors.New("at least one buildspec path is required")
	}
	if cfg.Workers <= 0 {
		return nil, errors.New("workers must be positive")
	}
	return &cfg, nil
}
