// Package cli parses command-line arguments into an app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/vk/modforge/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("modforge", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
modforge - dependency-resolving build scheduler for HPC software stacks.

Usage:
  modforge [options] SPEC...

Arguments:
  SPEC
    One or more buildspec files (*.bs.hcl) to build.

Options:
`)
		flagSet.PrintDefaults()
	}

	robotFlag := flagSet.String("robot", "", "Search roots for dependency specs, separated by the path list separator.")
	forceFlag := flagSet.Bool("force", false, "Rebuild listed units even when their module is installed.")
	retainFlag := flagSet.Bool("retain-all-deps", false, "Keep all dependencies in the build order, installed or not.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Print the resolved build order without submitting jobs.")
	backendFlag := flagSet.String("backend", "", "Job backend to use. Empty selects the first usable backend.")
	indexFlag := flagSet.String("module-index", "", "Path to the YAML index of installed modules.")
	workersFlag := flagSet.Int("workers", 4, "Worker count for the local job backend.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		slog.Debug("No buildspec paths provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	var searchRoots []string
	if *robotFlag != "" {
		for _, root := range filepath.SplitList(*robotFlag) {
			if root != "" {
				searchRoots = append(searchRoots, root)
			}
		}
	}

	config, err := app.NewConfig(app.Config{
		SpecPaths:       flagSet.Args(),
		SearchRoots:     searchRoots,
		ModuleIndexPath: *indexFlag,
		Force:           *forceFlag,
		RetainAllDeps:   *retainFlag,
		DryRun:          *dryRunFlag,
		Backend:         *backendFlag,
		Workers:         *workersFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.")
	return config, false, nil
}
