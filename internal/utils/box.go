package utils

import (
	"errors"
	"fmt"
	"image"
)

// ErrInvalidBoundingBox indicates a bounding box with non-positive dimensions.
// Callers supplying such a box violate the estimation contract.
var ErrInvalidBoundingBox = errors.New("invalid bounding box: width and height must be > 0")

// BoundingBox is an axis-aligned rectangle in image-pixel coordinates
// surrounding a detected food region.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Validate checks the bounding box contract: width > 0 and height > 0.
func (b BoundingBox) Validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w (got %dx%d)", ErrInvalidBoundingBox, b.Width, b.Height)
	}
	return nil
}

// AspectRatio returns width/height. The box must be valid.
func (b BoundingBox) AspectRatio() float64 {
	return float64(b.Width) / float64(b.Height)
}

// Area returns the pixel area of the box.
func (b BoundingBox) Area() float64 {
	return float64(b.Width) * float64(b.Height)
}

// Rect converts the box to an image.Rectangle.
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Clamp restricts the box to the given image bounds, preserving as much of the
// region as possible. Returns an invalid (zero-size) box if there is no overlap.
func (b BoundingBox) Clamp(bounds image.Rectangle) BoundingBox {
	r := b.Rect().Intersect(bounds)
	return BoundingBox{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}
