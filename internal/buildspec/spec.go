// Package buildspec defines the data model for buildable units: the build
// specification, its dependency descriptors, and the module naming scheme
// that gives every unit its identity.
package buildspec

// Toolchain identifies the compiler+library stack a unit is built with.
// The zero-value-with-System form means the unit builds against the bare
// system toolchain and its module name carries no toolchain segment.
type Toolchain struct {
	Name    string
	Version string
	// System marks the "no toolchain" variant. Name and Version must be
	// empty when set.
	System bool
}

// SystemToolchain returns the toolchain variant for units built without
// a named toolchain.
func SystemToolchain() Toolchain {
	return Toolchain{System: true}
}

// Dependency describes a required unit before it has been matched to a
// concrete spec or an installed module.
type Dependency struct {
	Name          string
	Version       string
	VersionSuffix string
	Toolchain     Toolchain
}

// Spec is the declarative description of one buildable unit. Specs are
// created by the specfile loader or supplied pre-parsed by the caller and
// live only for the duration of one resolution call.
type Spec struct {
	Name          string
	Version       string
	VersionSuffix string
	Toolchain     Toolchain

	// FullModName is the unique identity key of the unit. Two descriptors
	// deriving the same full module name refer to the same unit.
	FullModName  string
	ShortModName string

	// Dependencies in declared order. Order is significant: it drives the
	// traversal and emission order of the resolver.
	Dependencies []Dependency

	// Parsed is set once the spec body has been through the loader, as
	// opposed to a caller-constructed stub.
	Parsed bool

	// Path is the origin token: the file this spec was parsed from, or ""
	// for in-memory specs.
	Path string

	// Build carries the optional build block of the spec file. Nil means
	// the scheduler falls back to its default build command.
	Build *BuildOptions
}

// BuildOptions are the batch-job parameters a spec may declare for its own
// build step.
type BuildOptions struct {
	Script string
	Env    map[string]string
	Hours  int
	Cores  int
}
