package refobject

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"github.com/yalue/onnxruntime_go"

	"github.com/MeKo-Tech/platesense/internal/mempool"
	"github.com/MeKo-Tech/platesense/internal/onnx"
	"github.com/MeKo-Tech/platesense/internal/utils"
)

// ONNXDetector performs reference-object detection using ONNX Runtime.
type ONNXDetector struct {
	config           Config
	session          *onnxruntime_go.DynamicAdvancedSession
	inputInfo        onnxruntime_go.InputOutputInfo
	outputInfo       onnxruntime_go.InputOutputInfo
	imageConstraints utils.ImageConstraints
	mu               sync.RWMutex
}

// NewDetector creates a new reference-object detector with the given
// configuration.
func NewDetector(config Config) (*ONNXDetector, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	if err := validateModelFile(config.ModelPath); err != nil {
		return nil, err
	}

	slog.Debug("Initializing reference-object detector",
		"model_path", config.ModelPath,
		"gpu_enabled", config.GPU.UseGPU,
		"max_image_size", config.MaxImageSize,
		"confidence_threshold", config.ConfidenceThreshold)

	if err := onnx.InitializeEnvironment(config.GPU.UseGPU); err != nil {
		return nil, err
	}

	inputInfo, outputInfo, err := validateModelInfo(config.ModelPath)
	if err != nil {
		return nil, err
	}

	session, err := createSession(config.ModelPath, inputInfo, outputInfo, config)
	if err != nil {
		return nil, err
	}

	detector := &ONNXDetector{
		config:     config,
		session:    session,
		inputInfo:  inputInfo,
		outputInfo: outputInfo,
		imageConstraints: utils.ImageConstraints{
			MaxWidth:  config.MaxImageSize,
			MaxHeight: config.MaxImageSize,
			MinWidth:  32,
			MinHeight: 32,
		},
	}

	slog.Debug("Reference-object detector initialized successfully")
	return detector, nil
}

// Close releases resources used by the detector.
func (d *ONNXDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session != nil {
		if err := d.session.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to destroy detector session: %v\n", err)
		}
		d.session = nil
	}
	// The shared ONNX environment is torn down with the process, not here.
	return nil
}

// GetConfig returns a copy of the detector's configuration.
func (d *ONNXDetector) GetConfig() Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// preprocess prepares an image for detection inference.
func (d *ONNXDetector) preprocess(img image.Image) (onnx.Tensor, int, int, error) {
	resized, err := utils.ResizeImage(img, d.imageConstraints)
	if err != nil {
		return onnx.Tensor{}, 0, 0, fmt.Errorf("failed to resize image: %w", err)
	}

	tensorData, width, height, err := utils.NormalizeImage(resized)
	if err != nil {
		return onnx.Tensor{}, 0, 0, fmt.Errorf("failed to normalize image: %w", err)
	}

	tensor, err := onnx.NewImageTensor(tensorData, 3, height, width)
	if err != nil {
		return onnx.Tensor{}, 0, 0, fmt.Errorf("failed to create tensor: %w", err)
	}
	return tensor, width, height, nil
}

// runInference executes the model and returns the flat output data.
func (d *ONNXDetector) runInference(tensor onnx.Tensor) ([]float32, error) {
	if err := onnx.VerifyImageTensor(tensor); err != nil {
		return nil, fmt.Errorf("invalid tensor: %w", err)
	}

	d.mu.RLock()
	session := d.session
	d.mu.RUnlock()
	if session == nil {
		return nil, errors.New("detector session is nil")
	}

	inputTensor, err := onnxruntime_go.NewTensor(onnxruntime_go.NewShape(tensor.Shape...), tensor.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer func() {
		if err := inputTensor.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Error destroying input tensor: %v\n", err)
		}
	}()

	outputs := []onnxruntime_go.Value{nil}
	if err := session.Run([]onnxruntime_go.Value{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	outputTensor := outputs[0]
	defer func() {
		if err := outputTensor.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Error destroying output tensor: %v\n", err)
		}
	}()

	floatTensor, ok := outputTensor.(*onnxruntime_go.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("expected float32 tensor, got %T", outputTensor)
	}

	// The output tensor is destroyed on return; copy into a pooled buffer
	// that Detect releases after decoding.
	data := floatTensor.GetData()
	out := mempool.GetFloat32(len(data))
	copy(out, data)
	return out, nil
}

// Detect scans the frame for known calibration objects and returns candidates
// ordered by descending confidence. An empty result is not an error.
func (d *ONNXDetector) Detect(img image.Image) ([]ReferenceObject, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}

	bounds := img.Bounds()
	originalWidth := bounds.Dx()
	originalHeight := bounds.Dy()

	tensor, resizedWidth, resizedHeight, err := d.preprocess(img)
	if err != nil {
		return nil, fmt.Errorf("preprocessing failed: %w", err)
	}

	raw, err := d.runInference(tensor)
	if err != nil {
		return nil, err
	}

	// Detections come back in resized-image coordinates; rescale pixel sizes
	// to the original frame before deriving scale factors.
	scaleX := float64(originalWidth) / float64(resizedWidth)
	scaleY := float64(originalHeight) / float64(resizedHeight)

	objects := DecodeDetections(raw, d.config.ConfidenceThreshold, scaleX, scaleY)
	mempool.PutFloat32(raw)
	slog.Debug("Reference-object detection complete",
		"candidates", len(objects),
		"image_size", fmt.Sprintf("%dx%d", originalWidth, originalHeight))
	return objects, nil
}

// GetModelInfo returns information about the loaded detection model.
func (d *ONNXDetector) GetModelInfo() map[string]interface{} {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return map[string]interface{}{
		"model_path":           d.config.ModelPath,
		"input_name":           d.inputInfo.Name,
		"output_name":          d.outputInfo.Name,
		"input_shape":          d.inputInfo.Dimensions,
		"output_shape":         d.outputInfo.Dimensions,
		"confidence_threshold": d.config.ConfidenceThreshold,
		"max_image_size":       d.config.MaxImageSize,
		"use_server_model":     d.config.UseServerModel,
		"num_threads":          d.config.NumThreads,
		"catalog_size":         CatalogSize(),
		"gpu": map[string]interface{}{
			"enabled":            d.config.GPU.UseGPU,
			"device_id":          d.config.GPU.DeviceID,
			"memory_limit_bytes": d.config.GPU.GPUMemLimit,
		},
	}
}

// validateModelFile checks if the model file exists.
func validateModelFile(modelPath string) error {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", modelPath)
	}
	return nil
}

// validateModelInfo gets and validates model input/output information.
func validateModelInfo(modelPath string) (onnxruntime_go.InputOutputInfo, onnxruntime_go.InputOutputInfo, error) {
	inputs, outputs, err := onnxruntime_go.GetInputOutputInfo(modelPath)
	if err != nil {
		return onnxruntime_go.InputOutputInfo{}, onnxruntime_go.InputOutputInfo{},
			fmt.Errorf("failed to get model input/output info: %w", err)
	}
	if len(inputs) != 1 {
		return onnxruntime_go.InputOutputInfo{}, onnxruntime_go.InputOutputInfo{},
			fmt.Errorf("expected 1 input, got %d", len(inputs))
	}
	if len(outputs) != 1 {
		return onnxruntime_go.InputOutputInfo{}, onnxruntime_go.InputOutputInfo{},
			fmt.Errorf("expected 1 output, got %d", len(outputs))
	}
	if len(inputs[0].Dimensions) != 4 {
		return onnxruntime_go.InputOutputInfo{}, onnxruntime_go.InputOutputInfo{},
			fmt.Errorf("expected 4D input tensor, got %dD", len(inputs[0].Dimensions))
	}
	return inputs[0], outputs[0], nil
}

// createSession creates the ONNX session with the given configuration.
func createSession(modelPath string, inputInfo, outputInfo onnxruntime_go.InputOutputInfo,
	config Config,
) (*onnxruntime_go.DynamicAdvancedSession, error) {
	sessionOptions, err := onnxruntime_go.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer func() {
		if err := sessionOptions.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to destroy session options: %v\n", err)
		}
	}()

	if err := onnx.ConfigureSessionForGPU(sessionOptions, config.GPU); err != nil {
		return nil, fmt.Errorf("failed to configure GPU: %w", err)
	}
	if config.NumThreads > 0 {
		if err := sessionOptions.SetIntraOpNumThreads(config.NumThreads); err != nil {
			return nil, fmt.Errorf("failed to set thread count: %w", err)
		}
	}

	session, err := onnxruntime_go.NewDynamicAdvancedSession(modelPath,
		[]string{inputInfo.Name}, []string{outputInfo.Name}, sessionOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return session, nil
}
