package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/platesense/internal/utils"
)

// GroundTruth is a measured reference portion used to score estimates.
type GroundTruth struct {
	FoodName    string            `json:"food_name"`
	Category    string            `json:"category,omitempty"`
	BoundingBox utils.BoundingBox `json:"bounding_box"`
	VolumeML    float64           `json:"volume_ml"`
	WeightGrams float64           `json:"weight_grams"`
}

// EstimationFixture couples an input image with its expected result.
type EstimationFixture struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	InputFile   string            `json:"input_file"`
	Expected    GroundTruth       `json:"expected"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// LoadFixture loads an estimation fixture from the fixtures directory.
func LoadFixture(t *testing.T, name string) EstimationFixture {
	t.Helper()
	return LoadFixtureFile(t, filepath.Join(GetFixturesDir(t), name+".json"))
}

// LoadFixtureFile loads an estimation fixture from an explicit path.
func LoadFixtureFile(t *testing.T, fixturePath string) EstimationFixture {
	t.Helper()

	data, err := os.ReadFile(fixturePath) //nolint:gosec // G304: fixture paths are test-controlled
	require.NoError(t, err, "Failed to read fixture file: %s", fixturePath)

	var fixture EstimationFixture
	require.NoError(t, json.Unmarshal(data, &fixture), "Failed to parse fixture: %s", fixturePath)

	return fixture
}

// SaveFixture writes an estimation fixture to the given directory.
func SaveFixture(t *testing.T, dir string, fixture EstimationFixture) string {
	t.Helper()

	require.NoError(t, EnsureDir(dir))

	data, err := json.MarshalIndent(fixture, "", "  ")
	require.NoError(t, err)

	path := filepath.Join(dir, fixture.Name+".json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path
}
