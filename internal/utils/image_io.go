package utils

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// supportedExtensions lists the image formats accepted for estimation input.
var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// ImageMetadata describes a loaded image file.
type ImageMetadata struct {
	Path   string
	Format string
	Width  int
	Height int
}

// IsSupportedImage reports whether the path has a supported image extension.
func IsSupportedImage(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// LoadImage loads an image file and returns it with basic metadata.
func LoadImage(path string) (image.Image, ImageMetadata, error) {
	var meta ImageMetadata

	if !IsSupportedImage(path) {
		return nil, meta, fmt.Errorf("unsupported image format: %s", filepath.Ext(path))
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, meta, &ImageProcessingError{
			Operation: "load",
			Err:       fmt.Errorf("failed to open %s: %w", path, err),
		}
	}

	bounds := img.Bounds()
	meta = ImageMetadata{
		Path:   path,
		Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}

	return img, meta, nil
}
