package profile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/alignment-checker/internal/types"
)

// profileFile is the on-disk layout of a profile file.
// YAML is a superset of JSON, so both formats decode through yaml.v3.
type profileFile struct {
	Profiles []*types.StyleProfile `yaml:"profiles"`
}

// LoadFile reads and validates every style profile in a YAML or JSON file
func LoadFile(path string) ([]*types.StyleProfile, error) {
	if path == "" {
		return nil, fmt.Errorf("profile path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes and validates profiles from YAML or JSON content
func Parse(data []byte) ([]*types.StyleProfile, error) {
	var f profileFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}
	if len(f.Profiles) == 0 {
		return nil, fmt.Errorf("no profiles defined")
	}

	for i, p := range f.Profiles {
		if p == nil {
			return nil, fmt.Errorf("profile %d is empty", i)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("profile %q is invalid: %w", p.Name, err)
		}
	}

	return f.Profiles, nil
}
