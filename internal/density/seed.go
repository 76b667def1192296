package density

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

// SeedEntries parses the embedded seed table. Keys are normalized food names.
func SeedEntries() (map[string]Entry, error) {
	raw := make(map[string]Entry)
	if err := yaml.Unmarshal(seedYAML, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse seed density table: %w", err)
	}

	entries := make(map[string]Entry, len(raw))
	for name, entry := range raw {
		if entry.Density <= 0 {
			return nil, fmt.Errorf("seed entry %q has non-positive density %v", name, entry.Density)
		}
		if !entry.ShapePrior.Valid() {
			return nil, fmt.Errorf("seed entry %q has unknown shape prior %q", name, entry.ShapePrior)
		}
		entries[NormalizeName(name)] = entry
	}
	return entries, nil
}
