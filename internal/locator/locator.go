// Package locator finds the build specification matching a dependency
// descriptor, either in an in-memory pool of already-known specs or by
// scanning an ordered list of search roots ("robot path") on disk.
package locator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/modforge/internal/buildspec"
	"github.com/vk/modforge/internal/ctxlog"
)

// Parser turns a buildspec file into a Spec. Satisfied by specfile.Loader.
type Parser interface {
	ParseFile(path string) (*buildspec.Spec, error)
}

// Locator matches dependency descriptors to concrete build specs.
type Locator struct {
	// SearchRoots are consulted in order when the pool has no match.
	// Empty means disk search is disabled.
	SearchRoots []string
	Parser      Parser
}

// New creates a Locator over the given search roots.
func New(parser Parser, searchRoots []string) *Locator {
	return &Locator{SearchRoots: searchRoots, Parser: parser}
}

// Locate finds a spec for the descriptor. The pool is checked first, by
// derived full module name; the first pool entry that matches wins and is
// reused as-is. Otherwise the search roots are scanned in order for a file
// following the buildspec naming convention. The second return value is
// false when no spec could be located, which is not an error by itself:
// the descriptor may still be satisfied by an installed module.
func (l *Locator) Locate(ctx context.Context, dep buildspec.Dependency, pool []*buildspec.Spec) (*buildspec.Spec, bool, error) {
	logger := ctxlog.FromContext(ctx)
	want := dep.ModName()

	for _, spec := range pool {
		if spec.FullModName == want {
			logger.Debug("Descriptor matched in-memory pool.", "module", want, "origin", spec.Path)
			return spec, true, nil
		}
	}

	if len(l.SearchRoots) == 0 {
		return nil, false, nil
	}

	path, found := l.findFile(ctx, dep)
	if !found {
		return nil, false, nil
	}
	spec, err := l.Parser.ParseFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("locating %s: %w", want, err)
	}
	logger.Debug("Descriptor located on disk.", "module", want, "path", path)
	return spec, true, nil
}

// findFile scans the search roots for the descriptor's conventional file
// name. Within each root three layouts are tried, mirroring how spec
// repositories are commonly organized: flat, grouped by unit name, and
// grouped by lowercased first letter then unit name.
func (l *Locator) findFile(ctx context.Context, dep buildspec.Dependency) (string, bool) {
	logger := ctxlog.FromContext(ctx)
	fname := dep.FileName()
	letter := strings.ToLower(dep.Name[:1])

	for _, root := range l.SearchRoots {
		candidates := []string{
			filepath.Join(root, fname),
			filepath.Join(root, dep.Name, fname),
			filepath.Join(root, letter, dep.Name, fname),
		}
		for _, c := range candidates {
			if info, err := os.Stat(c); err == nil && !info.IsDir() {
				return c, true
			}
		}
		logger.Debug("Descriptor not found under search root.", "root", root, "file", fname)
	}
	return "", false
}
