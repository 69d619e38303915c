package modenv

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// indexFile is the YAML shape of a dumped module index, as produced by
// `module avail` post-processing or a spider-cache export:
//
//	modules:
//	  - GCC/4.7.2
//	  - OpenMPI/1.6.4-GCC-4.7.2
type indexFile struct {
	Modules []string `yaml:"modules"`
}

// LoadIndex reads a YAML module index from disk into an oracle.
func LoadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading module index: %w", err)
	}
	var f indexFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing module index %s: %w", path, err)
	}
	return NewIndex(f.Modules), nil
}
