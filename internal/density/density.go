// Package density maintains the mapping from food identity to a density
// profile used to convert estimated volume into estimated weight. It is the
// only long-lived mutable state in the estimation core.
package density

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/MeKo-Tech/platesense/internal/shape"
)

// Entry is the density profile for one food.
type Entry struct {
	// Density in g/ml.
	Density float64 `yaml:"density" json:"density"`
	// DensityVariance captures how much the density varies across
	// preparations of the same food.
	DensityVariance float64 `yaml:"density_variance" json:"density_variance"`
	// ShapePrior is the canonical 3-D shape this food typically presents as.
	ShapePrior shape.Shape `yaml:"shape_prior" json:"shape_prior"`
	// Compressibility in [0,1]; 0 is rigid, 1 fully compressible.
	Compressibility float64 `yaml:"compressibility" json:"compressibility"`
}

// Default density profile for unknown foods: water-like density, no shape
// expectation, middling compressibility.
const (
	DefaultDensity         = 1.0
	DefaultVariance        = 0.2
	DefaultCompressibility = 0.5
)

// DefaultEntry returns the profile used when a food is not in the table.
// Unknown foods are not an error.
func DefaultEntry() Entry {
	return Entry{
		Density:         DefaultDensity,
		DensityVariance: DefaultVariance,
		ShapePrior:      shape.Irregular,
		Compressibility: DefaultCompressibility,
	}
}

// Store is the read/write contract for the density table. Implementations
// must be safe for concurrent readers with a single writer, and Lookup must
// return the default profile for unknown foods rather than failing.
type Store interface {
	// Lookup returns the entry for the food, or DefaultEntry when absent.
	// The second return reports whether the food was found.
	Lookup(foodName string) (Entry, bool)
	// Upsert replaces or inserts an entry. Entries are never deleted.
	Upsert(foodName string, entry Entry) error
	// Close releases any underlying resources.
	Close() error
}

var foldCaser = cases.Fold()

// NormalizeName canonicalizes a food name for use as a table key: Unicode
// case folding plus whitespace collapsing, so "Chicken  Breast" and
// "chicken breast" resolve to the same entry.
func NormalizeName(name string) string {
	folded := foldCaser.String(strings.TrimSpace(name))
	return strings.Join(strings.Fields(folded), " ")
}
