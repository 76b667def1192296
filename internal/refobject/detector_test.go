package refobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/platesense/internal/models"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, models.GetRefObjectModelPath("", false), config.ModelPath)
	assert.InDelta(t, 0.5, config.ConfidenceThreshold, 1e-9)
	assert.Equal(t, 640, config.MaxImageSize)
	assert.False(t, config.UseServerModel)
	assert.Equal(t, 0, config.NumThreads)
}

func TestConfig_UpdateModelPath(t *testing.T) {
	config := DefaultConfig()
	config.UseServerModel = true
	config.UpdateModelPath(t.TempDir())
	assert.Contains(t, config.ModelPath, models.RefObjectServer)
}

func TestNewDetector_EmptyModelPath(t *testing.T) {
	detector, err := NewDetector(Config{})
	require.Error(t, err)
	assert.Nil(t, detector)
	assert.Contains(t, err.Error(), "model path cannot be empty")
}

func TestNewDetector_InvalidModelPath(t *testing.T) {
	config := DefaultConfig()
	config.ModelPath = "nonexistent/model.onnx"
	detector, err := NewDetector(config)
	require.Error(t, err)
	assert.Nil(t, detector)
	assert.Contains(t, err.Error(), "model file not found")
}

func TestNewDetector_InvalidThreshold(t *testing.T) {
	config := DefaultConfig()
	config.ConfidenceThreshold = 1.5
	detector, err := NewDetector(config)
	require.Error(t, err)
	assert.Nil(t, detector)
	assert.Contains(t, err.Error(), "confidence threshold")
}
