package density

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/platesense/internal/shape"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "density.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_SeededOnCreate(t *testing.T) {
	s := newTestSQLiteStore(t)

	apple, found := s.Lookup("Apple")
	assert.True(t, found)
	assert.InDelta(t, 0.85, apple.Density, 1e-9)
	assert.Equal(t, shape.Spherical, apple.ShapePrior)
}

func TestSQLiteStore_UnknownFoodReturnsDefault(t *testing.T) {
	s := newTestSQLiteStore(t)

	entry, found := s.Lookup("unobtainium stew")
	assert.False(t, found)
	assert.Equal(t, DefaultEntry(), entry)
}

func TestSQLiteStore_UpsertReplaces(t *testing.T) {
	s := newTestSQLiteStore(t)

	entry := Entry{Density: 0.5, DensityVariance: 0.02, ShapePrior: shape.Cylindrical, Compressibility: 0.4}
	require.NoError(t, s.Upsert("Leek", entry))

	got, found := s.Lookup("leek")
	require.True(t, found)
	assert.Equal(t, entry, got)

	entry.Density = 0.55
	require.NoError(t, s.Upsert("leek", entry))
	got, _ = s.Lookup("leek")
	assert.InDelta(t, 0.55, got.Density, 1e-9)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "density.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	entry := Entry{Density: 0.77, DensityVariance: 0.03, ShapePrior: shape.Irregular, Compressibility: 0.6}
	require.NoError(t, s.Upsert("hummus", entry))
	require.NoError(t, s.Close())

	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = s2.Close() }()

	got, found := s2.Lookup("hummus")
	require.True(t, found)
	assert.Equal(t, entry, got)
}
