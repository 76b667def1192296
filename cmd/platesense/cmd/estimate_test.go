package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/platesense/internal/estimator"
	"github.com/MeKo-Tech/platesense/internal/shape"
	"github.com/MeKo-Tech/platesense/internal/utils"
)

func TestParseBBoxSpec(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    utils.BoundingBox
		wantErr bool
	}{
		{
			name: "valid",
			spec: "120,80,200,180",
			want: utils.BoundingBox{X: 120, Y: 80, Width: 200, Height: 180},
		},
		{
			name: "valid with spaces",
			spec: "10, 20, 30, 40",
			want: utils.BoundingBox{X: 10, Y: 20, Width: 30, Height: 40},
		},
		{name: "empty", spec: "", wantErr: true},
		{name: "too few components", spec: "1,2,3", wantErr: true},
		{name: "non-numeric", spec: "a,b,c,d", wantErr: true},
		{name: "zero width", spec: "0,0,0,100", wantErr: true},
		{name: "negative origin", spec: "-1,0,100,100", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box, err := parseBBoxSpec(tt.spec)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, box)
		})
	}
}

func TestFormatResultText(t *testing.T) {
	result := &estimator.Result{
		EstimatedVolume: 180,
		EstimatedWeight: 153,
		Confidence:      0.6,
		Method:          estimator.MethodMLEstimation,
		ShapeAnalysis:   shape.Analysis{Shape: shape.Spherical},
	}

	output, err := formatResult(result, "apple", "fruits", "text", 2)
	require.NoError(t, err)

	assert.Contains(t, output, "Food: apple (fruits)")
	assert.Contains(t, output, "Method: ml_estimation")
	assert.Contains(t, output, "Shape: spherical")
	assert.Contains(t, output, "Estimated volume: 180 ml")
	assert.Contains(t, output, "Estimated weight: 153 g")
	assert.Contains(t, output, "Confidence: 0.60")
}

func TestFormatResultJSON(t *testing.T) {
	result := &estimator.Result{
		EstimatedVolume: 180,
		EstimatedWeight: 153,
		Confidence:      0.6,
		Method:          estimator.MethodMLEstimation,
	}

	output, err := formatResult(result, "apple", "", "json", 2)
	require.NoError(t, err)

	assert.Contains(t, output, `"food_name": "apple"`)
	assert.Contains(t, output, `"estimated_volume": 180`)
	assert.Contains(t, output, `"method": "ml_estimation"`)
}
