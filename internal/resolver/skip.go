package resolver

import (
	"context"

	"github.com/vk/modforge/internal/buildspec"
	"github.com/vk/modforge/internal/ctxlog"
	"github.com/vk/modforge/internal/modenv"
)

// SkipAvailable removes every spec whose own module is already installed,
// preserving the relative order of the remainder. With policy.Force the
// input is returned unchanged: a forced run rebuilds listed units even
// when their module exists. Intended as a pre-pass over the caller's root
// list; Resolve has no knowledge of it having run.
func SkipAvailable(ctx context.Context, specs []*buildspec.Spec, policy Policy, avail modenv.Availability) []*buildspec.Spec {
	if policy.Force {
		return specs
	}
	logger := ctxlog.FromContext(ctx)

	kept := make([]*buildspec.Spec, 0, len(specs))
	for _, spec := range specs {
		spec.DeriveModNames()
		if avail.Available(spec.FullModName) {
			logger.Info("Skipping unit, module already installed.", "module", spec.FullModName)
			continue
		}
		kept = append(kept, spec)
	}
	return kept
}
