package estimator

import (
	"encoding/json"

	"github.com/MeKo-Tech/platesense/internal/depth"
	"github.com/MeKo-Tech/platesense/internal/refobject"
	"github.com/MeKo-Tech/platesense/internal/shape"
	"github.com/MeKo-Tech/platesense/internal/utils"
)

// Method identifies which evidence path produced a volume/weight result.
// It must reflect the source actually used, not merely attempted.
type Method string

const (
	MethodReferenceObject Method = "reference_object"
	Method3DAnalysis      Method = "3d_analysis"
	MethodMLEstimation    Method = "ml_estimation"
)

// Evidence carries the fields meaningful to one estimation method. Modeling
// the three paths as a tagged union keeps callers from reading depth fields
// on a reference-object result.
type Evidence interface {
	Method() Method
}

// ReferenceObjectEvidence backs a reference_object result: the calibration
// object used and the pixel-to-centimeter scale derived from it.
type ReferenceObjectEvidence struct {
	Object      refobject.ReferenceObject `json:"object"`
	ScaleFactor float64                   `json:"scale_factor"`
}

func (ReferenceObjectEvidence) Method() Method { return MethodReferenceObject }

// DepthEvidence backs a 3d_analysis result: the depth measurement and the
// fixed pixel-to-centimeter constant used for the planar axes.
type DepthEvidence struct {
	Depth     depth.Estimate `json:"depth"`
	PixelToCm float64        `json:"pixel_to_cm"`
}

func (DepthEvidence) Method() Method { return Method3DAnalysis }

// HeuristicEvidence backs an ml_estimation result: the shape multiplier and
// area-to-volume scale applied to the raw pixel area.
type HeuristicEvidence struct {
	Multiplier float64 `json:"multiplier"`
	AreaScale  float64 `json:"area_scale"`
}

func (HeuristicEvidence) Method() Method { return MethodMLEstimation }

// Result is a completed volume/mass estimate. Created fresh per call and
// immutable once returned; ownership transfers to the caller.
type Result struct {
	// EstimatedVolume in ml and EstimatedWeight in grams, both rounded to
	// integer units at the result boundary.
	EstimatedVolume float64
	EstimatedWeight float64
	// Confidence in [0,1], determined by the evidence path.
	Confidence float64
	Method     Method
	// Density in g/ml actually used for the volume-to-weight conversion.
	Density       float64
	BoundingBox   utils.BoundingBox
	ShapeAnalysis shape.Analysis
	Evidence      Evidence
}

// resultJSON is the serialized form of a Result.
type resultJSON struct {
	EstimatedVolume float64           `json:"estimated_volume"`
	EstimatedWeight float64           `json:"estimated_weight"`
	Confidence      float64           `json:"confidence"`
	Method          Method            `json:"method"`
	Density         float64           `json:"density"`
	BoundingBox     utils.BoundingBox `json:"bounding_box"`
	ShapeAnalysis   shape.Analysis    `json:"shape_analysis"`
	Evidence        Evidence          `json:"evidence,omitempty"`
}

// MarshalJSON serializes the result with its method-specific evidence.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		EstimatedVolume: r.EstimatedVolume,
		EstimatedWeight: r.EstimatedWeight,
		Confidence:      r.Confidence,
		Method:          r.Method,
		Density:         r.Density,
		BoundingBox:     r.BoundingBox,
		ShapeAnalysis:   r.ShapeAnalysis,
		Evidence:        r.Evidence,
	})
}
