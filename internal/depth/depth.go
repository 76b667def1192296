// Package depth estimates the physical depth of a bounded image region using
// a learned monocular depth model. The model is a black-box capability: when
// it is unavailable or produces no confident signal, the estimator reports
// "no depth data", which is a valid result rather than an error.
package depth

import (
	"image"

	"gonum.org/v1/gonum/stat"

	"github.com/MeKo-Tech/platesense/internal/models"
	"github.com/MeKo-Tech/platesense/internal/onnx"
	"github.com/MeKo-Tech/platesense/internal/utils"
)

// Estimate is the depth evidence for a region. AverageDepth and DepthVariance
// are meaningless when HasDepthData is false.
type Estimate struct {
	HasDepthData  bool    `json:"has_depth_data"`
	AverageDepth  float64 `json:"average_depth"`
	DepthVariance float64 `json:"depth_variance"`
}

// NoData is the canonical "no evidence" result.
func NoData() Estimate { return Estimate{} }

// Estimator produces depth evidence for a bounded region of a frame.
type Estimator interface {
	Estimate(img image.Image, box utils.BoundingBox) (Estimate, error)
}

// Config holds configuration for the ONNX depth estimator.
type Config struct {
	ModelPath    string
	MaxImageSize int
	NumThreads   int
	// DepthScale converts model output units to centimeters. MiDaS emits
	// relative depth; the scale is a fixed calibration for tabletop distance.
	DepthScale float64
	GPU        onnx.GPUConfig
}

// DefaultConfig returns the default depth estimator configuration.
func DefaultConfig() Config {
	return Config{
		ModelPath:    models.GetDepthModelPath(""),
		MaxImageSize: 384,
		NumThreads:   0,
		DepthScale:   0.04,
		GPU:          onnx.DefaultGPUConfig(),
	}
}

// UpdateModelPath recomputes the model path for a models directory.
func (c *Config) UpdateModelPath(modelsDir string) {
	c.ModelPath = models.GetDepthModelPath(modelsDir)
}

// RegionStats computes the mean and variance of a depth map. Used on the raw
// model output over the bounded region.
func RegionStats(data []float32) (mean, variance float64) {
	if len(data) == 0 {
		return 0, 0
	}
	values := make([]float64, len(data))
	for i, v := range data {
		values[i] = float64(v)
	}
	mean, variance = stat.MeanVariance(values, nil)
	if len(data) == 1 {
		variance = 0
	}
	return mean, variance
}
