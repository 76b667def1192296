// Package shape classifies a bounded food region into one of a small set of
// canonical 3-D shapes and estimates its dimensions and surface area.
package shape

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/platesense/internal/utils"
)

// Shape is a canonical 3-D shape class for a food region.
type Shape string

const (
	Spherical   Shape = "spherical"
	Cylindrical Shape = "cylindrical"
	Rectangular Shape = "rectangular"
	Irregular   Shape = "irregular"
)

// Valid reports whether s is one of the canonical shapes.
func (s Shape) Valid() bool {
	switch s {
	case Spherical, Cylindrical, Rectangular, Irregular:
		return true
	}
	return false
}

// Parse converts a string into a Shape.
func Parse(s string) (Shape, error) {
	sh := Shape(s)
	if !sh.Valid() {
		return "", fmt.Errorf("unknown shape %q", s)
	}
	return sh, nil
}

// Dimensions holds the three axes of a region. Units depend on context:
// the analyzer reports image-relative (pixel) units; the orchestrator
// rescales to centimeters using whichever evidence source it selects.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Analysis is the derived shape classification for a region. It is recomputed
// per estimation call and never persisted independently of its parent result.
type Analysis struct {
	Shape       Shape      `json:"shape"`
	Dimensions  Dimensions `json:"dimensions"`
	SurfaceArea float64    `json:"surface_area"`
}

// Aspect-ratio bands for classification.
const (
	sphericalLow   = 0.8
	sphericalHigh  = 1.2
	cylindricalLow = 0.5
	cylindricalHi  = 2.0
)

// heightRatio estimates the unseen depth axis from the smaller visible axis
// when no depth measurement is available.
const heightRatio = 0.75

// Classify maps a bounding-box aspect ratio to a shape. Ratios near 1 read as
// spherical, strongly elongated boxes as cylindrical. In the middle bands the
// food's shape prior decides (sliced bread and block cheese present
// rectangular at many ratios); without a definite prior the region is
// irregular.
func Classify(aspectRatio float64, prior Shape) Shape {
	switch {
	case aspectRatio >= sphericalLow && aspectRatio <= sphericalHigh:
		return Spherical
	case aspectRatio > cylindricalHi || aspectRatio < cylindricalLow:
		return Cylindrical
	case prior.Valid() && prior != Irregular:
		return prior
	default:
		return Irregular
	}
}

// Analyze classifies the bounded region and estimates its dimensions in
// image-relative units. The analyzer is scale-agnostic; callers rescale the
// dimensions with a pixel-to-length factor before computing physical volume.
func Analyze(box utils.BoundingBox, prior Shape) Analysis {
	s := Classify(box.AspectRatio(), prior)

	length := float64(box.Width)
	width := float64(box.Height)

	var height float64
	if s == Cylindrical {
		// The cylinder axis runs along the elongated side.
		height = math.Max(length, width)
	} else {
		height = math.Min(length, width) * heightRatio
	}

	dims := Dimensions{Length: length, Width: width, Height: height}
	return Analysis{
		Shape:       s,
		Dimensions:  dims,
		SurfaceArea: SurfaceArea(s, dims),
	}
}

// Rescale returns a copy of the analysis with all dimensions multiplied by
// factor and the surface area recomputed. Used by the orchestrator once a
// pixel-to-centimeter scale has been established.
func (a Analysis) Rescale(factor float64) Analysis {
	dims := Dimensions{
		Length: a.Dimensions.Length * factor,
		Width:  a.Dimensions.Width * factor,
		Height: a.Dimensions.Height * factor,
	}
	return Analysis{Shape: a.Shape, Dimensions: dims, SurfaceArea: SurfaceArea(a.Shape, dims)}
}

// WithHeight returns a copy of the analysis with the height axis replaced
// (e.g., by a measured depth) and the surface area recomputed.
func (a Analysis) WithHeight(height float64) Analysis {
	dims := a.Dimensions
	dims.Height = height
	return Analysis{Shape: a.Shape, Dimensions: dims, SurfaceArea: SurfaceArea(a.Shape, dims)}
}

// SurfaceArea computes the closed-form surface area for the shape.
// The irregular formula is a documented heuristic approximation.
func SurfaceArea(s Shape, d Dimensions) float64 {
	switch s {
	case Spherical:
		r := math.Min(d.Length, d.Width) / 2
		return 4 * math.Pi * r * r
	case Cylindrical:
		r := math.Min(d.Length, d.Width) / 2
		return 2 * math.Pi * r * (r + d.Height)
	case Rectangular:
		return 2 * (d.Length*d.Width + d.Length*d.Height + d.Width*d.Height)
	default:
		return d.Length * d.Width * 1.5
	}
}
