package estimator

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/platesense/internal/depth"
	"github.com/MeKo-Tech/platesense/internal/testutil"
	"github.com/MeKo-Tech/platesense/internal/utils"
)

// Runs the full pipeline over generated scenes: render, persist, reload the
// image and its fixture from disk, estimate, and score against ground truth.
func TestEstimateGeneratedScenes(t *testing.T) {
	tests := []struct {
		name     string
		config   func() testutil.SceneConfig
		expected testutil.GroundTruth
	}{
		{
			name:   "apple scene",
			config: testutil.DefaultSceneConfig,
			expected: testutil.GroundTruth{
				FoodName:    "apple",
				Category:    "fruits",
				BoundingBox: utils.BoundingBox{X: 220, Y: 150, Width: 200, Height: 180},
				VolumeML:    180,
				WeightGrams: 153,
			},
		},
		{
			name: "bread scene",
			config: func() testutil.SceneConfig {
				config := testutil.DefaultSceneConfig()
				config.FoodColor = testutil.BreadColor
				config.FoodBox = utils.BoundingBox{X: 200, Y: 170, Width: 240, Height: 150}
				return config
			},
			expected: testutil.GroundTruth{
				FoodName:    "bread",
				Category:    "bakery",
				BoundingBox: utils.BoundingBox{X: 200, Y: 170, Width: 240, Height: 150},
				VolumeML:    288,
				WeightGrams: 72,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			imagePath := filepath.Join(dir, "scene.png")
			testutil.SaveImage(t, testutil.GenerateMealScene(tt.config()), imagePath)

			fixturePath := testutil.SaveFixture(t, dir, testutil.EstimationFixture{
				Name:      "scene",
				InputFile: imagePath,
				Expected:  tt.expected,
			})
			fixture := testutil.LoadFixtureFile(t, fixturePath)

			img, _, err := utils.LoadImage(fixture.InputFile)
			require.NoError(t, err)

			est := newTestEstimator(t, &stubDetector{}, &stubDepth{est: depth.NoData()})
			result, err := est.Estimate(img,
				fixture.Expected.FoodName, fixture.Expected.Category, fixture.Expected.BoundingBox)
			require.NoError(t, err)

			assert.Equal(t, MethodMLEstimation, result.Method)
			assert.InDelta(t, fixture.Expected.VolumeML, result.EstimatedVolume, 1e-9)
			assert.InDelta(t, fixture.Expected.WeightGrams, result.EstimatedWeight, 1e-9)
		})
	}
}
