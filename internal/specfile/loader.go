// Package specfile loads buildspec files from disk. A buildspec file is a
// small declarative HCL document describing exactly one buildable unit:
//
//	unit "gzip" {
//	  version = "1.4"
//
//	  toolchain {
//	    name    = "GCC"
//	    version = "4.6.3"
//	  }
//
//	  dependency "zlib" {
//	    version = "1.2.8"
//	  }
//
//	  build {
//	    script = "make && make install"
//	    env    = { CC = "gcc" }
//	    hours  = 2
//	    cores  = 4
//	  }
//	}
//
// A unit or dependency without a toolchain block builds against the bare
// system toolchain.
package specfile

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/modforge/internal/buildspec"
)

// fileSchema is the HCL shape of one buildspec file.
type fileSchema struct {
	Units []*unitSchema `hcl:"unit,block"`
}

type unitSchema struct {
	Name          string       `hcl:"name,label"`
	Version       string       `hcl:"version"`
	VersionSuffix string       `hcl:"versionsuffix,optional"`
	Toolchain     *tcSchema    `hcl:"toolchain,block"`
	Dependencies  []*depSchema `hcl:"dependency,block"`
	Build         *buildSchema `hcl:"build,block"`
}

type tcSchema struct {
	Name    string `hcl:"name"`
	Version string `hcl:"version"`
}

type depSchema struct {
	Name          string    `hcl:"name,label"`
	Version       string    `hcl:"version"`
	VersionSuffix string    `hcl:"versionsuffix,optional"`
	Toolchain     *tcSchema `hcl:"toolchain,block"`
}

type buildSchema struct {
	Script string         `hcl:"script,optional"`
	Env    hcl.Expression `hcl:"env,optional"`
	Hours  int            `hcl:"hours,optional"`
	Cores  int            `hcl:"cores,optional"`
}

// Loader parses buildspec files. It keeps one hclparse.Parser so diagnostics
// across files share a source cache.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a ready-to-use buildspec loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// ParseFile reads and decodes a single buildspec file.
func (l *Loader) ParseFile(path string) (*buildspec.Spec, error) {
	file, diags := l.parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", path, diags)
	}
	return l.decode(file, path)
}

// ParseBytes decodes buildspec source held in memory. The filename is used
// only for diagnostics.
func (l *Loader) ParseBytes(src []byte, filename string) (*buildspec.Spec, error) {
	file, diags := l.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", filename, diags)
	}
	return l.decode(file, filename)
}

func (l *Loader) decode(file *hcl.File, path string) (*buildspec.Spec, error) {
	var fs fileSchema
	if diags := gohcl.DecodeBody(file.Body, nil, &fs); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %w", path, diags)
	}
	if len(fs.Units) != 1 {
		return nil, fmt.Errorf("%s: expected exactly one unit block, found %d", path, len(fs.Units))
	}
	return translateUnit(fs.Units[0], path)
}

// translateUnit converts the HCL-specific schema into the agnostic model.
func translateUnit(u *unitSchema, path string) (*buildspec.Spec, error) {
	spec := &buildspec.Spec{
		Name:          u.Name,
		Version:       u.Version,
		VersionSuffix: u.VersionSuffix,
		Toolchain:     translateToolchain(u.Toolchain),
		Parsed:        true,
		Path:          path,
	}
	// The toolchain is an implicit dependency of any unit built with it,
	// ahead of the declared dependencies.
	if !spec.Toolchain.System {
		spec.Dependencies = append(spec.Dependencies, buildspec.Dependency{
			Name:      spec.Toolchain.Name,
			Version:   spec.Toolchain.Version,
			Toolchain: buildspec.SystemToolchain(),
		})
	}
	for _, d := range u.Dependencies {
		spec.Dependencies = append(spec.Dependencies, buildspec.Dependency{
			Name:          d.Name,
			Version:       d.Version,
			VersionSuffix: d.VersionSuffix,
			Toolchain:     translateToolchain(d.Toolchain),
		})
	}
	if u.Build != nil {
		env, err := translateEnv(u.Build.Env)
		if err != nil {
			return nil, fmt.Errorf("%s: build env: %w", path, err)
		}
		spec.Build = &buildspec.BuildOptions{
			Script: u.Build.Script,
			Env:    env,
			Hours:  u.Build.Hours,
			Cores:  u.Build.Cores,
		}
	}
	spec.DeriveModNames()
	return spec, nil
}

func translateToolchain(tc *tcSchema) buildspec.Toolchain {
	if tc == nil {
		return buildspec.SystemToolchain()
	}
	return buildspec.Toolchain{Name: tc.Name, Version: tc.Version}
}

// translateEnv evaluates the env map expression into plain strings.
func translateEnv(expr hcl.Expression) (map[string]string, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("env must be a map of strings, got %s", val.Type().FriendlyName())
	}
	env := make(map[string]string)
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		if v.Type() != cty.String {
			return nil, fmt.Errorf("env value for %q must be a string", k.AsString())
		}
		env[k.AsString()] = v.AsString()
	}
	return env, nil
}
