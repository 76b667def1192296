package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Model filename constants to avoid typos and ensure consistency.
const (
	// Reference-object detection models.
	RefObjectMobile = "refobj_det_mobile.onnx"
	RefObjectServer = "refobj_det_server.onnx"

	// Monocular depth estimation model.
	DepthMiDaSSmall = "midas_small_depth.onnx"
)

// Model type categories for the organized directory structure.
const (
	TypeDetection = "detection"
	TypeDepth     = "depth"
)

// Model variant categories.
const (
	VariantMobile = "mobile"
	VariantServer = "server"
)

// DefaultModelsDir is the models directory relative to the project root.
const DefaultModelsDir = "models"

// EnvModelsDir is the environment variable overriding the models directory.
const EnvModelsDir = "PLATESENSE_MODELS_DIR"

// findProjectRoot finds the project root by looking for go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.New("could not find project root (go.mod not found)")
}

// ModelInfo contains metadata about a model.
type ModelInfo struct {
	Name        string
	Type        string
	Variant     string
	Description string
	Filename    string
}

// GetModelsDir returns the models directory path.
// Priority: 1. explicit modelsDir parameter, 2. environment variable,
// 3. project root + default.
func GetModelsDir(modelsDir string) string {
	if modelsDir != "" {
		return modelsDir
	}

	if envDir := os.Getenv(EnvModelsDir); envDir != "" {
		return envDir
	}

	if projectRoot, err := findProjectRoot(); err == nil {
		return filepath.Join(projectRoot, DefaultModelsDir)
	}

	// Fallback to relative path if project root can't be found
	return DefaultModelsDir
}

// ResolveModelPath resolves a model filename to its full path.
// Supports both the organized structure and a legacy flat layout.
func ResolveModelPath(modelsDir, modelType, variant, filename string) string {
	baseDir := GetModelsDir(modelsDir)

	if modelType != "" {
		var organizedPath string
		if variant != "" && modelType == TypeDetection {
			organizedPath = filepath.Join(baseDir, modelType, variant, filename)
		} else {
			organizedPath = filepath.Join(baseDir, modelType, filename)
		}

		if _, err := os.Stat(organizedPath); err == nil {
			return organizedPath
		}
	}

	return filepath.Join(baseDir, filename)
}

// GetRefObjectModelPath returns the path for a reference-object detection model.
func GetRefObjectModelPath(modelsDir string, useServer bool) string {
	filename := RefObjectMobile
	variant := VariantMobile
	if useServer {
		filename = RefObjectServer
		variant = VariantServer
	}
	return ResolveModelPath(modelsDir, TypeDetection, variant, filename)
}

// GetDepthModelPath returns the path for the depth estimation model.
func GetDepthModelPath(modelsDir string) string {
	return ResolveModelPath(modelsDir, TypeDepth, "", DepthMiDaSSmall)
}

// ValidateModelExists checks if a model file exists at the given path.
func ValidateModelExists(modelPath string) error {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", modelPath)
	}
	return nil
}

// ListAvailableModels returns information about the models this engine uses.
func ListAvailableModels() []ModelInfo {
	return []ModelInfo{
		{
			Name:        "mobile-refobject-detection",
			Type:        TypeDetection,
			Variant:     VariantMobile,
			Description: "Mobile reference-object detection model",
			Filename:    RefObjectMobile,
		},
		{
			Name:        "server-refobject-detection",
			Type:        TypeDetection,
			Variant:     VariantServer,
			Description: "Server reference-object detection model",
			Filename:    RefObjectServer,
		},
		{
			Name:        "midas-small-depth",
			Type:        TypeDepth,
			Description: "MiDaS small monocular depth estimation model",
			Filename:    DepthMiDaSSmall,
		},
	}
}
