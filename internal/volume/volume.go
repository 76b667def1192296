// Package volume converts canonical shapes with physical dimensions into
// volumes. Dimensions are expected in centimeters; results are in cubic
// centimeters, treated numerically as milliliters (1 cm³ = 1 ml).
package volume

import (
	"math"

	"github.com/MeKo-Tech/platesense/internal/shape"
)

// Spherical computes the volume of a sphere whose diameter is the smaller of
// the two visible axes: V = (4/3)π·r³.
func Spherical(length, width float64) float64 {
	r := math.Min(length, width) / 2
	return (4.0 / 3.0) * math.Pi * r * r * r
}

// Cylindrical computes V = π·r²·h with r from the smaller visible axis.
// A positive depth is used as the cylinder height; otherwise the elongated
// axis serves as the height.
func Cylindrical(length, width, depth float64) float64 {
	r := math.Min(length, width) / 2
	h := depth
	if h <= 0 {
		h = math.Max(length, width)
	}
	return math.Pi * r * r * h
}

// Rectangular computes V = length × width × height.
func Rectangular(length, width, height float64) float64 {
	return length * width * height
}

// Irregular approximates the region as an ellipsoid:
// V = (4/3)π·(length/2)·(width/2)·(height/2).
func Irregular(length, width, height float64) float64 {
	return (4.0 / 3.0) * math.Pi * (length / 2) * (width / 2) * (height / 2)
}

// formulas maps each canonical shape to its closed-form volume function, so
// adding a shape is a localized change.
var formulas = map[shape.Shape]func(shape.Dimensions) float64{
	shape.Spherical: func(d shape.Dimensions) float64 {
		return Spherical(d.Length, d.Width)
	},
	shape.Cylindrical: func(d shape.Dimensions) float64 {
		return Cylindrical(d.Length, d.Width, d.Height)
	},
	shape.Rectangular: func(d shape.Dimensions) float64 {
		return Rectangular(d.Length, d.Width, d.Height)
	},
	shape.Irregular: func(d shape.Dimensions) float64 {
		return Irregular(d.Length, d.Width, d.Height)
	},
}

// Compute returns the volume for the given shape and physical dimensions.
// Unknown shapes fall back to the irregular approximation.
func Compute(s shape.Shape, d shape.Dimensions) float64 {
	f, ok := formulas[s]
	if !ok {
		f = formulas[shape.Irregular]
	}
	return f(d)
}
