// Package resolver expands a set of root build specs into a deduplicated,
// cycle-checked dependency graph and emits it in dependency-first order.
// Units whose module is already installed are pruned according to policy;
// the explicitly supplied roots are never pruned here (see SkipAvailable
// for the pre-pass that handles roots).
package resolver

import (
	"context"

	"github.com/vk/modforge/internal/buildspec"
	"github.com/vk/modforge/internal/ctxlog"
	"github.com/vk/modforge/internal/locator"
	"github.com/vk/modforge/internal/modenv"
)

// Policy controls one resolution call.
type Policy struct {
	// Force disables the availability pre-pass over roots (see
	// SkipAvailable). The resolver itself does not read it.
	Force bool
	// RetainAllDeps keeps every dependency in the result even when its
	// module is already installed.
	RetainAllDeps bool
	// SearchRoots is the ordered robot path scanned for spec files of
	// dependencies that are not in the explicit pool. Empty disables the
	// disk search.
	SearchRoots []string
	// Validate is carried for the caller's benefit; validation happens
	// outside the resolver.
	Validate bool
}

// Resolver expands build specs against an availability oracle and a spec
// parser. It is synchronous and keeps no state between calls.
type Resolver struct {
	parser locator.Parser
	avail  modenv.Availability
}

// New creates a Resolver.
func New(parser locator.Parser, avail modenv.Availability) *Resolver {
	return &Resolver{parser: parser, avail: avail}
}

// traversal colors for cycle detection. A bare memo cannot distinguish
// "in progress" from "not yet visited", so the walk keeps explicit state.
type color int

const (
	unvisited color = iota
	inProgress
	done
)

// node wraps a spec during one resolution call. Two descriptors deriving
// the same full module name share one node.
type node struct {
	spec *buildspec.Spec
	// pruned marks a node that was cut short because its module is
	// already installed; it is neither expanded nor emitted.
	pruned bool
}

// walk holds the mutable state of a single Resolve call.
type walk struct {
	r      *Resolver
	policy Policy
	loc    *locator.Locator

	// pool is the explicit roots plus every spec discovered on disk so
	// far; the locator matches descriptors against it first.
	pool []*buildspec.Spec

	memo       map[string]*node
	colors     map[string]color
	order      []*buildspec.Spec
	unresolved []buildspec.Dependency
}

// Resolve expands the ordered root specs into a deduplicated sequence in
// which no unit precedes any of its dependencies. Roots always appear in
// the result. It fails with *UnresolvedError listing every descriptor
// that could not be satisfied, or with *CycleError on a cyclic input; no
// partial result is returned on failure.
func (r *Resolver) Resolve(ctx context.Context, roots []*buildspec.Spec, policy Policy) ([]*buildspec.Spec, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolve: starting dependency resolution.",
		"roots", len(roots), "retain_all_deps", policy.RetainAllDeps, "search_roots", len(policy.SearchRoots))

	for _, root := range roots {
		root.DeriveModNames()
	}

	w := &walk{
		r:      r,
		policy: policy,
		loc:    locator.New(r.parser, policy.SearchRoots),
		pool:   append([]*buildspec.Spec(nil), roots...),
		memo:   make(map[string]*node),
		colors: make(map[string]color),
	}

	for _, root := range roots {
		if err := w.visitRoot(ctx, root); err != nil {
			return nil, err
		}
	}

	if len(w.unresolved) > 0 {
		logger.Debug("Resolve: traversal finished with unresolved descriptors.", "count", len(w.unresolved))
		return nil, &UnresolvedError{Deps: w.unresolved}
	}

	logger.Debug("Resolve: resolution complete.", "units", len(w.order))
	return w.order, nil
}

// visitRoot expands an explicitly supplied root. Roots are always emitted,
// even when an earlier branch shallow-pruned the same module as a
// dependency: availability pruning applies to discovered dependencies
// only.
func (w *walk) visitRoot(ctx context.Context, root *buildspec.Spec) error {
	name := root.FullModName
	if n, ok := w.memo[name]; ok && !n.pruned {
		return nil
	}
	delete(w.memo, name)
	w.colors[name] = unvisited
	return w.visit(ctx, root)
}

// visit expands one spec: dependencies first, in declared order, then the
// spec itself. The caller has already decided the spec must be emitted.
func (w *walk) visit(ctx context.Context, spec *buildspec.Spec) error {
	logger := ctxlog.FromContext(ctx)
	name := spec.FullModName

	switch w.colors[name] {
	case inProgress:
		return &CycleError{Module: name}
	case done:
		return nil
	}
	w.colors[name] = inProgress
	w.memo[name] = &node{spec: spec}

	for _, dep := range spec.Dependencies {
		if err := w.visitDep(ctx, dep); err != nil {
			return err
		}
	}

	w.colors[name] = done
	w.order = append(w.order, spec)
	logger.Debug("Resolve: unit emitted.", "module", name)
	return nil
}

// visitDep resolves a single dependency descriptor of the spec currently
// being expanded.
func (w *walk) visitDep(ctx context.Context, dep buildspec.Dependency) error {
	logger := ctxlog.FromContext(ctx)
	name := dep.ModName()

	if w.colors[name] == inProgress {
		return &CycleError{Module: name}
	}
	if _, ok := w.memo[name]; ok {
		// Already expanded or pruned through another branch; shared, not
		// duplicated.
		return nil
	}

	spec, found, err := w.loc.Locate(ctx, dep, w.pool)
	if err != nil {
		return err
	}

	if !found {
		if w.r.avail.Available(name) {
			logger.Debug("Resolve: descriptor satisfied by installed module.", "module", name)
			w.memo[name] = &node{pruned: true}
			w.colors[name] = done
			return nil
		}
		logger.Debug("Resolve: descriptor irresolvable, continuing to collect.", "module", name)
		w.unresolved = append(w.unresolved, dep)
		return nil
	}

	spec.DeriveModNames()
	if spec.Path != "" && !w.inPool(spec) {
		w.pool = append(w.pool, spec)
	}

	if !w.policy.RetainAllDeps && w.r.avail.Available(name) {
		// Shallow prune: the module exists, so neither the unit nor its
		// own dependency subtree needs building.
		logger.Debug("Resolve: pruning available dependency.", "module", name)
		w.memo[name] = &node{spec: spec, pruned: true}
		w.colors[name] = done
		return nil
	}

	return w.visit(ctx, spec)
}

func (w *walk) inPool(spec *buildspec.Spec) bool {
	for _, s := range w.pool {
		if s == spec {
			return true
		}
	}
	return false
}
