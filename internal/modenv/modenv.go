// Package modenv answers the one question the resolver asks about the
// target environment: is a named module already installed? The module
// system itself stays external; this package only models the availability
// oracle and a file-backed index of installed modules.
package modenv

// Availability reports whether a module is already present in the target
// environment.
type Availability interface {
	Available(fullModName string) bool
}

// Index is an in-memory availability oracle over a fixed set of installed
// module names.
type Index struct {
	modules map[string]struct{}
}

// NewIndex builds an oracle from a list of installed module names.
func NewIndex(modules []string) *Index {
	idx := &Index{modules: make(map[string]struct{}, len(modules))}
	for _, m := range modules {
		idx.modules[m] = struct{}{}
	}
	return idx
}

// Available implements Availability.
func (i *Index) Available(fullModName string) bool {
	_, ok := i.modules[fullModName]
	return ok
}

// None is an oracle that reports no module as installed. Useful as a
// default when no index is configured.
type None struct{}

// Available implements Availability.
func (None) Available(string) bool { return false }
