package volume

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/MeKo-Tech/platesense/internal/shape"
)

// TestVolumes_PositiveAndDeterministic verifies every formula produces a
// positive, repeatable volume for positive dimensions.
func TestVolumes_PositiveAndDeterministic(t *testing.T) {
	properties := gopter.NewProperties(nil)

	shapes := []shape.Shape{shape.Spherical, shape.Cylindrical, shape.Rectangular, shape.Irregular}

	properties.Property("volume is positive and deterministic", prop.ForAll(
		func(l, w, h float64, shapeIdx int) bool {
			d := shape.Dimensions{Length: l, Width: w, Height: h}
			s := shapes[shapeIdx%len(shapes)]
			v1 := Compute(s, d)
			v2 := Compute(s, d)
			return v1 > 0 && v1 == v2
		},
		gen.Float64Range(0.1, 100),
		gen.Float64Range(0.1, 100),
		gen.Float64Range(0.1, 100),
		gen.IntRange(0, 3),
	))

	properties.TestingRun(t)
}

// TestVolumes_ScaleCubically verifies doubling all dimensions multiplies the
// volume by 8, a basic sanity check on each closed form.
func TestVolumes_ScaleCubically(t *testing.T) {
	properties := gopter.NewProperties(nil)

	shapes := []shape.Shape{shape.Spherical, shape.Cylindrical, shape.Rectangular, shape.Irregular}

	properties.Property("volume scales with the cube of dimensions", prop.ForAll(
		func(l, w, h float64, shapeIdx int) bool {
			s := shapes[shapeIdx%len(shapes)]
			d := shape.Dimensions{Length: l, Width: w, Height: h}
			d2 := shape.Dimensions{Length: 2 * l, Width: 2 * w, Height: 2 * h}
			v := Compute(s, d)
			v2 := Compute(s, d2)
			ratio := v2 / v
			return ratio > 7.999 && ratio < 8.001
		},
		gen.Float64Range(0.1, 50),
		gen.Float64Range(0.1, 50),
		gen.Float64Range(0.1, 50),
		gen.IntRange(0, 3),
	))

	properties.TestingRun(t)
}

// TestSpherical_MonotonicInDiameter verifies bigger spheres have bigger
// volumes.
func TestSpherical_MonotonicInDiameter(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("spherical volume is monotonic", prop.ForAll(
		func(d1, d2 float64) bool {
			if d1 >= d2 {
				return true
			}
			return Spherical(d1, d1) < Spherical(d2, d2)
		},
		gen.Float64Range(0.1, 100),
		gen.Float64Range(0.1, 100),
	))

	properties.TestingRun(t)
}
