package resolver

import (
	"fmt"
	"strings"

	"github.com/vk/modforge/internal/buildspec"
)

// UnresolvedError reports every dependency descriptor that could neither
// be located as a spec nor satisfied by an installed module. The resolver
// finishes its traversal before failing so the error lists all offenders
// at once, not one per run.
type UnresolvedError struct {
	Deps []buildspec.Dependency
}

func (e *UnresolvedError) Error() string {
	names := make([]string, len(e.Deps))
	for i, d := range e.Deps {
		names[i] = d.ModName()
	}
	return fmt.Sprintf("irresolvable dependencies encountered: %s", strings.Join(names, ", "))
}

// CycleError reports a dependency that transitively depends on itself.
type CycleError struct {
	Module string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic dependency detected involving module %q", e.Module)
}
