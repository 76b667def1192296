package utils

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// ImageProcessingError wraps failures from preprocessing steps with the
// operation that produced them.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

// ImageConstraints defines the size window model inputs must fit in.
type ImageConstraints struct {
	MaxWidth  int
	MaxHeight int
	MinWidth  int
	MinHeight int
}

// DefaultImageConstraints returns the constraints used for inference inputs.
func DefaultImageConstraints() ImageConstraints {
	return ImageConstraints{
		MaxWidth:  640,
		MaxHeight: 640,
		MinWidth:  32,
		MinHeight: 32,
	}
}

// ResizeImage resizes an image to fit the constraints while preserving aspect
// ratio. Output dimensions are rounded down to multiples of 32 for ONNX model
// compatibility. Images are only scaled down, never up.
func ResizeImage(img image.Image, constraints ImageConstraints) (image.Image, error) {
	if img == nil {
		return nil, &ImageProcessingError{Operation: "resize", Err: errors.New("input image is nil")}
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width < constraints.MinWidth || height < constraints.MinHeight {
		return nil, &ImageProcessingError{
			Operation: "resize",
			Err: fmt.Errorf("image dimensions %dx%d below minimum %dx%d",
				width, height, constraints.MinWidth, constraints.MinHeight),
		}
	}

	scaleX := float64(constraints.MaxWidth) / float64(width)
	scaleY := float64(constraints.MaxHeight) / float64(height)
	scale := math.Min(scaleX, scaleY)
	if scale >= 1.0 {
		scale = 1.0
	}

	newWidth := int(float64(width) * scale)
	newHeight := int(float64(height) * scale)

	// Multiples of 32 keep the detection and depth models happy.
	newWidth = (newWidth / 32) * 32
	newHeight = (newHeight / 32) * 32

	if newWidth < constraints.MinWidth {
		newWidth = constraints.MinWidth
	}
	if newHeight < constraints.MinHeight {
		newHeight = constraints.MinHeight
	}

	return imaging.Resize(img, newWidth, newHeight, imaging.Lanczos), nil
}

// CropRegion extracts the bounding-box region from an image. The box is
// clamped to the image bounds first; an empty intersection is an error.
func CropRegion(img image.Image, box BoundingBox) (image.Image, error) {
	if img == nil {
		return nil, &ImageProcessingError{Operation: "crop", Err: errors.New("input image is nil")}
	}
	if err := box.Validate(); err != nil {
		return nil, &ImageProcessingError{Operation: "crop", Err: err}
	}
	clamped := box.Clamp(img.Bounds())
	if clamped.Width <= 0 || clamped.Height <= 0 {
		return nil, &ImageProcessingError{
			Operation: "crop",
			Err:       fmt.Errorf("region %v lies outside image bounds %v", box.Rect(), img.Bounds()),
		}
	}
	return imaging.Crop(img, clamped.Rect()), nil
}

// NormalizeImage converts an image to a float32 tensor for inference:
// RGB channels, pixel values scaled from 0-255 to 0-1, NCHW channel order.
func NormalizeImage(img image.Image) ([]float32, int, int, error) {
	if img == nil {
		return nil, 0, 0, &ImageProcessingError{Operation: "normalize", Err: errors.New("input image is nil")}
	}

	// Clone to NRGBA so alpha is dropped and channel access is uniform.
	nrgba := imaging.Clone(img)
	bounds := nrgba.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, 0, 0, &ImageProcessingError{Operation: "normalize", Err: errors.New("invalid image dimensions")}
	}

	tensor := make([]float32, 3*height*width)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := nrgba.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()

			idx := y*width + x
			tensor[idx] = float32(r>>8) / 255.0
			tensor[height*width+idx] = float32(g>>8) / 255.0
			tensor[2*height*width+idx] = float32(b>>8) / 255.0
		}
	}

	return tensor, width, height, nil
}
