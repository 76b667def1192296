// Package refobject detects everyday objects of known physical size (coins,
// cards, plates, cutlery) in a frame so pixel measurements can be converted
// to real-world units.
package refobject

import (
	"errors"
	"image"

	"github.com/MeKo-Tech/platesense/internal/models"
	"github.com/MeKo-Tech/platesense/internal/onnx"
)

// PixelSize is the observed on-image size of a detection in pixels.
type PixelSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ReferenceObject is one detected calibration object. Produced per detection;
// never persisted.
type ReferenceObject struct {
	Name          string    `json:"name"`
	RealWorldSize Size      `json:"real_world_size"`
	PixelSize     PixelSize `json:"pixel_size"`
	Confidence    float64   `json:"confidence"`
}

// ScaleFactor returns the pixel-to-centimeter conversion derived from this
// object, averaging the horizontal and vertical scale ratios.
func (r ReferenceObject) ScaleFactor() float64 {
	if r.PixelSize.Width <= 0 || r.PixelSize.Height <= 0 {
		return 0
	}
	scaleX := r.RealWorldSize.Width / r.PixelSize.Width
	scaleY := r.RealWorldSize.Height / r.PixelSize.Height
	return (scaleX + scaleY) / 2
}

// Detector finds reference objects in a frame. Implementations return
// detections ordered by descending confidence; an empty slice is a valid
// "nothing found" result.
type Detector interface {
	Detect(img image.Image) ([]ReferenceObject, error)
}

// Config holds configuration for the ONNX reference-object detector.
type Config struct {
	ModelPath           string
	ConfidenceThreshold float64
	MaxImageSize        int
	NumThreads          int
	UseServerModel      bool
	GPU                 onnx.GPUConfig
}

// DefaultConfig returns the default detector configuration.
func DefaultConfig() Config {
	return Config{
		ModelPath:           models.GetRefObjectModelPath("", false),
		ConfidenceThreshold: 0.5,
		MaxImageSize:        640,
		NumThreads:          0,
		UseServerModel:      false,
		GPU:                 onnx.DefaultGPUConfig(),
	}
}

// UpdateModelPath recomputes the model path for a models directory.
func (c *Config) UpdateModelPath(modelsDir string) {
	c.ModelPath = models.GetRefObjectModelPath(modelsDir, c.UseServerModel)
}

func validateConfig(config Config) error {
	if config.ModelPath == "" {
		return errors.New("model path cannot be empty")
	}
	if config.ConfidenceThreshold < 0 || config.ConfidenceThreshold > 1 {
		return errors.New("confidence threshold must be in [0,1]")
	}
	if config.MaxImageSize <= 0 {
		return errors.New("max image size must be > 0")
	}
	return nil
}
