package estimator

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/MeKo-Tech/platesense/internal/calibration"
	"github.com/MeKo-Tech/platesense/internal/common"
	"github.com/MeKo-Tech/platesense/internal/density"
	"github.com/MeKo-Tech/platesense/internal/depth"
	"github.com/MeKo-Tech/platesense/internal/nutrition"
	"github.com/MeKo-Tech/platesense/internal/refobject"
	"github.com/MeKo-Tech/platesense/internal/shape"
	"github.com/MeKo-Tech/platesense/internal/utils"
	"github.com/MeKo-Tech/platesense/internal/volume"
)

var (
	ErrNilImage      = errors.New("image cannot be nil")
	ErrEmptyFoodName = errors.New("food name cannot be empty")
)

// Confidence assigned per evidence path. Reference-object results scale with
// the detector's own confidence; the other two paths are fixed.
const (
	refObjectConfidenceFactor = 0.9
	depthConfidence           = 0.85
	heuristicConfidence       = 0.6
)

// defaultPixelToCm converts pixel dimensions to centimeters when no
// reference object provides a measured scale.
const defaultPixelToCm = 0.05

// areaToVolumeScale converts shape-weighted pixel area to milliliters on the
// heuristic path.
const areaToVolumeScale = 0.01

// heuristicMultipliers weight the bounding-box area by how much of it a
// typical food of each shape actually fills.
var heuristicMultipliers = map[shape.Shape]float64{
	shape.Spherical:   0.5,
	shape.Cylindrical: 0.6,
	shape.Rectangular: 0.8,
	shape.Irregular:   0.4,
}

// categoryPriors maps a food category to a shape prior used when the food
// itself has no density-table entry.
var categoryPriors = map[string]shape.Shape{
	"fruits":     shape.Spherical,
	"vegetables": shape.Irregular,
	"bakery":     shape.Rectangular,
	"bread":      shape.Rectangular,
	"dairy":      shape.Rectangular,
	"meat":       shape.Irregular,
	"grains":     shape.Irregular,
	"beverages":  shape.Cylindrical,
}

// Config holds the estimator's tunables and sub-component configurations.
type Config struct {
	Detector  refobject.Config
	Depth     depth.Config
	PixelToCm float64
}

// DefaultConfig returns an estimator configuration with the standard
// sub-component defaults.
func DefaultConfig() Config {
	return Config{
		Detector:  refobject.DefaultConfig(),
		Depth:     depth.DefaultConfig(),
		PixelToCm: defaultPixelToCm,
	}
}

// Estimator orchestrates density lookup, reference-object detection, depth
// estimation, shape analysis and volume calculation into a single estimate.
// Safe for concurrent use.
type Estimator struct {
	config     Config
	store      density.Store
	detector   refobject.Detector
	depth      depth.Estimator
	calibrator *calibration.Calibrator
}

// Builder constructs an Estimator using a fluent interface.
type Builder struct {
	config   Config
	store    density.Store
	detector refobject.Detector
	depth    depth.Estimator
	err      error
}

// NewBuilder creates a builder with default configuration.
func NewBuilder() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(config Config) *Builder {
	b.config = config
	return b
}

// WithModelsDir resolves both model paths relative to the given directory.
func (b *Builder) WithModelsDir(dir string) *Builder {
	b.config.Detector.UpdateModelPath(dir)
	b.config.Depth.UpdateModelPath(dir)
	return b
}

// WithGPU enables GPU acceleration on both ONNX sessions.
func (b *Builder) WithGPU(useGPU bool) *Builder {
	b.config.Detector.GPU.UseGPU = useGPU
	b.config.Depth.GPU.UseGPU = useGPU
	return b
}

// WithConfidenceThreshold sets the minimum detector confidence for
// reference-object candidates.
func (b *Builder) WithConfidenceThreshold(threshold float64) *Builder {
	b.config.Detector.ConfidenceThreshold = threshold
	return b
}

// WithPixelToCm overrides the fallback pixel-to-centimeter scale used on the
// depth path.
func (b *Builder) WithPixelToCm(scale float64) *Builder {
	if scale <= 0 {
		b.err = fmt.Errorf("pixel-to-cm scale must be positive, got %f", scale)
		return b
	}
	b.config.PixelToCm = scale
	return b
}

// WithDensityStore injects a density store, replacing the embedded seed
// table. The estimator takes ownership and closes it on Close.
func (b *Builder) WithDensityStore(store density.Store) *Builder {
	b.store = store
	return b
}

// WithDetector injects a reference-object detector, replacing the ONNX one.
func (b *Builder) WithDetector(detector refobject.Detector) *Builder {
	b.detector = detector
	return b
}

// WithDepthEstimator injects a depth estimator, replacing the ONNX one.
func (b *Builder) WithDepthEstimator(estimator depth.Estimator) *Builder {
	b.depth = estimator
	return b
}

// Build assembles the estimator. A missing reference-object model is not an
// error: detection is disabled for the lifetime of the estimator and the
// remaining evidence paths carry on.
func (b *Builder) Build() (*Estimator, error) {
	if b.err != nil {
		return nil, b.err
	}

	store := b.store
	if store == nil {
		var err error

		store, err = density.NewSeededMemoryStore()
		if err != nil {
			return nil, fmt.Errorf("failed to load density table: %w", err)
		}
	}

	detector := b.detector
	if detector == nil {
		var err error

		detector, err = refobject.NewDetector(b.config.Detector)
		if err != nil {
			slog.Warn("reference-object detection unavailable", "error", err)

			detector = nil
		}
	}

	depthEstimator := b.depth
	if depthEstimator == nil {
		depthEstimator = depth.NewEstimator(b.config.Depth)
	}

	return &Estimator{
		config:     b.config,
		store:      store,
		detector:   detector,
		depth:      depthEstimator,
		calibrator: calibration.New(store),
	}, nil
}

// Estimate produces a volume and mass estimate for the food inside the given
// bounding box. The three evidence paths are tried in priority order:
// reference-object scaling, depth-backed analysis, then the area heuristic,
// which always succeeds.
func (e *Estimator) Estimate(img image.Image, foodName, category string, box utils.BoundingBox) (*Result, error) {
	if img == nil {
		return nil, ErrNilImage
	}

	if strings.TrimSpace(foodName) == "" {
		return nil, ErrEmptyFoodName
	}

	if err := box.Validate(); err != nil {
		return nil, fmt.Errorf("invalid estimation request: %w", err)
	}

	timer := common.NewNamedTimer("estimate complete")

	entry, found := e.store.Lookup(foodName)
	prior := entry.ShapePrior

	if !found {
		prior = priorForCategory(category)
	}

	refs, depthEst := e.gatherEvidence(img, box)

	analysis := shape.Analyze(box, prior)
	result := e.selectPath(analysis, refs, depthEst, box)

	result.Density = entry.Density
	result.BoundingBox = box
	result.EstimatedVolume = math.Round(math.Max(0, result.EstimatedVolume))
	result.EstimatedWeight = math.Round(result.EstimatedVolume * entry.Density)

	timer.StopAndLog(
		"food", foodName,
		"method", result.Method,
		"volume_ml", result.EstimatedVolume,
		"weight_g", result.EstimatedWeight,
		"confidence", result.Confidence)

	return result, nil
}

// gatherEvidence runs reference-object detection and depth estimation
// concurrently. Failures in either are absorbed: a failed source simply
// contributes no evidence.
func (e *Estimator) gatherEvidence(img image.Image, box utils.BoundingBox) ([]refobject.ReferenceObject, depth.Estimate) {
	var (
		wg       sync.WaitGroup
		refs     []refobject.ReferenceObject
		depthEst = depth.NoData()
	)

	if e.detector != nil {
		wg.Add(1)

		go func() {
			defer wg.Done()

			detected, err := e.detector.Detect(img)
			if err != nil {
				slog.Warn("reference-object detection failed", "error", err)

				return
			}

			refs = detected
		}()
	}

	if e.depth != nil {
		wg.Add(1)

		go func() {
			defer wg.Done()

			est, err := e.depth.Estimate(img, box)
			if err != nil {
				slog.Warn("depth estimation failed", "error", err)

				return
			}

			depthEst = est
		}()
	}

	wg.Wait()

	return refs, depthEst
}

// selectPath applies the first evidence path whose inputs are available and
// fills in volume, confidence, method, evidence and the (possibly rescaled)
// shape analysis.
func (e *Estimator) selectPath(analysis shape.Analysis, refs []refobject.ReferenceObject, depthEst depth.Estimate, box utils.BoundingBox) *Result {
	if len(refs) > 0 {
		obj := refs[0]
		scale := obj.ScaleFactor()
		scaled := analysis.Rescale(scale)

		return &Result{
			EstimatedVolume: volume.Compute(scaled.Shape, scaled.Dimensions),
			Confidence:      refObjectConfidenceFactor * obj.Confidence,
			Method:          MethodReferenceObject,
			ShapeAnalysis:   scaled,
			Evidence:        ReferenceObjectEvidence{Object: obj, ScaleFactor: scale},
		}
	}

	if depthEst.HasDepthData {
		scaled := analysis.Rescale(e.config.PixelToCm).WithHeight(depthEst.AverageDepth)

		return &Result{
			EstimatedVolume: volume.Compute(scaled.Shape, scaled.Dimensions),
			Confidence:      depthConfidence,
			Method:          Method3DAnalysis,
			ShapeAnalysis:   scaled,
			Evidence:        DepthEvidence{Depth: depthEst, PixelToCm: e.config.PixelToCm},
		}
	}

	multiplier := heuristicMultipliers[analysis.Shape]

	return &Result{
		EstimatedVolume: box.Area() * multiplier * areaToVolumeScale,
		Confidence:      heuristicConfidence,
		Method:          MethodMLEstimation,
		ShapeAnalysis:   analysis,
		Evidence:        HeuristicEvidence{Multiplier: multiplier, AreaScale: areaToVolumeScale},
	}
}

// Warmup primes the inference backends by running the evidence sources over a
// small synthetic frame, so the first real request does not pay lazy model
// initialization cost. Iterations below 1 are treated as 1.
func (e *Estimator) Warmup(iterations int) {
	if iterations < 1 {
		iterations = 1
	}

	timer := common.NewNamedTimer("warmup complete")
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	box := utils.BoundingBox{X: 8, Y: 8, Width: 48, Height: 48}

	for i := 0; i < iterations; i++ {
		e.gatherEvidence(img, box)
	}
	timer.StopAndLog("iterations", iterations)
}

// Calibrate folds a measured weight (and optionally volume) back into the
// density table so future estimates of the same food improve. priorResult
// identifies the estimate the feedback corrects; it carries no information
// the density table does not already hold, so it is logged for traceability
// and may be nil.
func (e *Estimator) Calibrate(foodName string, priorResult *Result, actualWeight, actualVolume float64) error {
	if priorResult != nil {
		slog.Debug("calibration feedback",
			"food", foodName,
			"prior_method", priorResult.Method,
			"prior_volume_ml", priorResult.EstimatedVolume,
			"prior_weight_g", priorResult.EstimatedWeight,
			"actual_weight_g", actualWeight)
	}
	return e.calibrator.Calibrate(foodName, actualWeight, actualVolume)
}

// Observations returns the calibration sample count recorded for a food.
func (e *Estimator) Observations(foodName string) int {
	return e.calibrator.Observations(foodName)
}

// Nutrition scales per-100g nutrition facts to the estimated portion weight.
func (e *Estimator) Nutrition(per100g nutrition.Info, result *Result) nutrition.Info {
	return nutrition.ForPortion(per100g, result.EstimatedWeight)
}

// priorForCategory maps a category string to a shape prior for foods absent
// from the density table.
func priorForCategory(category string) shape.Shape {
	if prior, ok := categoryPriors[strings.ToLower(strings.TrimSpace(category))]; ok {
		return prior
	}

	return shape.Irregular
}

// Info reports the estimator's component status for diagnostics endpoints.
func (e *Estimator) Info() map[string]any {
	return map[string]any{
		"reference_detection": e.detector != nil,
		"depth_estimation":    e.depth != nil,
		"pixel_to_cm":         e.config.PixelToCm,
	}
}

// Close releases the ONNX sessions and the density store.
func (e *Estimator) Close() error {
	var errs []error

	if closer, ok := e.detector.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close detector: %w", err))
		}
	}

	if closer, ok := e.depth.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close depth estimator: %w", err))
		}
	}

	if err := e.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close density store: %w", err))
	}

	return errors.Join(errs...)
}
