// Package mock produces synthetic model outputs for testing the inference
// adapters without a real ONNX backend.
package mock

import "math"

// DepthMap represents a synthetic depth model output with NCHW shape [1,1,H,W].
// Values are relative depths in arbitrary model units.
type DepthMap struct {
	Data   []float32
	Width  int
	Height int
}

// NewUniformDepthMap creates a depth map of size WxH where every pixel sits at
// the same depth.
func NewUniformDepthMap(w, h int, depth float32) DepthMap {
	if w <= 0 || h <= 0 {
		return DepthMap{}
	}
	data := make([]float32, w*h)
	for i := range data {
		data[i] = depth
	}
	return DepthMap{Data: data, Width: w, Height: h}
}

// NewDomeDepthMap creates a depth map shaped like a dome: tallest at the
// center, falling off towards the edges. peak is the center depth, base the
// edge depth. Mimics a rounded food item sitting on a flat surface.
func NewDomeDepthMap(w, h int, peak, base float32) DepthMap {
	if w <= 0 || h <= 0 {
		return DepthMap{}
	}
	data := make([]float32, w*h)
	cx := float64(w-1) / 2.0
	cy := float64(h-1) / 2.0
	maxDist := math.Hypot(cx, cy)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dist := math.Hypot(float64(x)-cx, float64(y)-cy)
			t := 1.0 - dist/maxDist
			if t < 0 {
				t = 0
			}
			data[y*w+x] = base + float32(t)*(peak-base)
		}
	}
	return DepthMap{Data: data, Width: w, Height: h}
}

// NewGradientDepthMap creates a depth map increasing linearly from top to
// bottom, mimicking a tilted camera over a flat scene.
func NewGradientDepthMap(w, h int, near, far float32) DepthMap {
	if w <= 0 || h <= 0 {
		return DepthMap{}
	}
	data := make([]float32, w*h)
	for y := 0; y < h; y++ {
		var t float32
		if h > 1 {
			t = float32(y) / float32(h-1)
		}
		v := near + t*(far-near)
		off := y * w
		for x := 0; x < w; x++ {
			data[off+x] = v
		}
	}
	return DepthMap{Data: data, Width: w, Height: h}
}

// Detection is one synthetic detection row as emitted by the reference-object
// model: a pixel-space box, a score, and a class index.
type Detection struct {
	X1, Y1, X2, Y2 float32
	Score          float32
	Class          int
}

// DetectionOutput flattens detections into the raw [N,6] layout
// (x1, y1, x2, y2, score, class) the postprocessor consumes.
func DetectionOutput(dets []Detection) []float32 {
	out := make([]float32, 0, len(dets)*6)
	for _, d := range dets {
		out = append(out, d.X1, d.Y1, d.X2, d.Y2, d.Score, float32(d.Class))
	}
	return out
}
