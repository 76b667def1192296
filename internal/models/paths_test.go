package models

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetModelsDir_Explicit(t *testing.T) {
	dir := GetModelsDir("/custom/models")
	assert.Equal(t, "/custom/models", dir)
}

func TestGetModelsDir_Environment(t *testing.T) {
	t.Setenv(EnvModelsDir, "/env/models")
	dir := GetModelsDir("")
	assert.Equal(t, "/env/models", dir)
}

func TestGetModelsDir_ExplicitBeatsEnvironment(t *testing.T) {
	t.Setenv(EnvModelsDir, "/env/models")
	dir := GetModelsDir("/explicit")
	assert.Equal(t, "/explicit", dir)
}

func TestResolveModelPath_FlatFallback(t *testing.T) {
	// Nothing exists under the temp dir, so resolution falls back to flat layout.
	tmp := t.TempDir()
	path := ResolveModelPath(tmp, TypeDetection, VariantMobile, RefObjectMobile)
	assert.Equal(t, filepath.Join(tmp, RefObjectMobile), path)
}

func TestGetRefObjectModelPath_Variants(t *testing.T) {
	tmp := t.TempDir()
	mobile := GetRefObjectModelPath(tmp, false)
	server := GetRefObjectModelPath(tmp, true)
	assert.Contains(t, mobile, RefObjectMobile)
	assert.Contains(t, server, RefObjectServer)
	assert.NotEqual(t, mobile, server)
}

func TestGetDepthModelPath(t *testing.T) {
	tmp := t.TempDir()
	path := GetDepthModelPath(tmp)
	assert.Contains(t, path, DepthMiDaSSmall)
}

func TestValidateModelExists(t *testing.T) {
	require.Error(t, ValidateModelExists("/nonexistent/model.onnx"))
}

func TestListAvailableModels(t *testing.T) {
	infos := ListAvailableModels()
	require.Len(t, infos, 3)
	names := make(map[string]bool)
	for _, info := range infos {
		names[info.Name] = true
		assert.NotEmpty(t, info.Filename)
	}
	assert.True(t, names["midas-small-depth"])
}
