package refobject

import "sort"

// detectionStride is the per-detection field count in the raw model output:
// x1, y1, x2, y2, score, class.
const detectionStride = 6

// DecodeDetections converts the flat [N,6] model output into reference
// objects. Detections below the confidence threshold, with degenerate boxes,
// or with class indices outside the catalog are discarded. scaleX/scaleY map
// resized-image coordinates back to the original frame. The result is ordered
// by descending confidence.
func DecodeDetections(raw []float32, confThreshold, scaleX, scaleY float64) []ReferenceObject {
	objects := make([]ReferenceObject, 0, len(raw)/detectionStride)

	for i := 0; i+detectionStride <= len(raw); i += detectionStride {
		score := float64(raw[i+4])
		if score < confThreshold {
			continue
		}

		key := labelForClass(int(raw[i+5]))
		if key == "" {
			continue
		}
		entry, ok := LookupCatalog(key)
		if !ok {
			continue
		}

		pixelWidth := float64(raw[i+2]-raw[i]) * scaleX
		pixelHeight := float64(raw[i+3]-raw[i+1]) * scaleY
		if pixelWidth <= 0 || pixelHeight <= 0 {
			continue
		}

		objects = append(objects, ReferenceObject{
			Name:          entry.Label,
			RealWorldSize: entry.Size,
			PixelSize:     PixelSize{Width: pixelWidth, Height: pixelHeight},
			Confidence:    score,
		})
	}

	sort.SliceStable(objects, func(i, j int) bool {
		return objects[i].Confidence > objects[j].Confidence
	})
	return objects
}
