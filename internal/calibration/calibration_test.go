package calibration

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/platesense/internal/density"
)

func seededStore(t *testing.T) *density.MemoryStore {
	t.Helper()
	store, err := density.NewSeededMemoryStore()
	require.NoError(t, err)
	return store
}

func TestCalibrate_TwoPointAverage(t *testing.T) {
	store := seededStore(t)
	c := New(store)

	// apple seeded at 0.85; observed 200 g / 200 ml = 1.0
	require.NoError(t, c.Calibrate("apple", 200, 200))

	entry, found := store.Lookup("apple")
	require.True(t, found)
	assert.InDelta(t, (0.85+1.0)/2, entry.Density, 1e-9)
}

func TestCalibrate_ConvergesWithoutOvershoot(t *testing.T) {
	store := seededStore(t)
	c := New(store)

	// apple starts at 0.85 and repeatedly observes density 1.0
	const actualDensity = 1.0
	entry, _ := store.Lookup("apple")
	prev := entry.Density

	for n := 0; n < 10; n++ {
		require.NoError(t, c.Calibrate("apple", 100*actualDensity, 100))
		entry, _ = store.Lookup("apple")
		// monotone approach, never overshooting past the target in a step
		assert.Greater(t, entry.Density, prev)
		assert.LessOrEqual(t, entry.Density, actualDensity)
		assert.Less(t, math.Abs(entry.Density-actualDensity), math.Abs(prev-actualDensity))
		prev = entry.Density
	}

	assert.InDelta(t, actualDensity, prev, 1e-3)
}

func TestCalibrate_NoVolumeIsNoOp(t *testing.T) {
	store := seededStore(t)
	c := New(store)

	before, _ := store.Lookup("apple")
	require.NoError(t, c.Calibrate("apple", 200, 0))
	after, _ := store.Lookup("apple")

	assert.Equal(t, before, after)
	assert.Zero(t, c.Observations("apple"))
}

func TestCalibrate_UnknownFoodStartsFromDefault(t *testing.T) {
	store := seededStore(t)
	c := New(store)

	// default density 1.0; observed 1.2
	require.NoError(t, c.Calibrate("mystery stew", 120, 100))

	entry, found := store.Lookup("mystery stew")
	require.True(t, found)
	assert.InDelta(t, 1.1, entry.Density, 1e-9)
}

func TestCalibrate_VarianceTracksObservations(t *testing.T) {
	store := seededStore(t)
	c := New(store)

	require.NoError(t, c.Calibrate("banana", 100, 100)) // density 1.0
	require.NoError(t, c.Calibrate("banana", 80, 100))  // density 0.8

	entry, _ := store.Lookup("banana")
	assert.Positive(t, entry.DensityVariance)
	assert.Equal(t, 2, c.Observations("banana"))
}

func TestCalibrate_InvalidInputs(t *testing.T) {
	c := New(seededStore(t))

	assert.ErrorIs(t, c.Calibrate("", 100, 100), ErrEmptyFoodName)
	assert.ErrorIs(t, c.Calibrate("apple", 0, 100), ErrInvalidWeight)
	assert.ErrorIs(t, c.Calibrate("apple", -5, 100), ErrInvalidWeight)
	assert.ErrorIs(t, c.Calibrate("apple", 100, -1), ErrInvalidVolume)
}
