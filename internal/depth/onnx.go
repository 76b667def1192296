package depth

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

// ONNXEstimator runs a monocular depth model over image regions. Model
// loading is expensive, so it happens lazily on first use and is memoized for
// the process lifetime; concurrent first-use calls share a single
// initialization. If initialization fails, the estimator keeps answering
// "no depth data" for the rest of the process rather than erroring every call.
type ONNXEstimator struct {
	config Config

	initOnce sync.Once
	initErr  error
	session  *onnxruntime_go.DynamicAdvancedSession
	mu       sync.RWMutex
}

// NewEstimator creates a depth estimator. The model is not loaded until the
// first Estimate call.
func NewEstimator(config Config) *ONNXEstimator {
	return &ONNXEstimator{config: config}
}

// ensureSession performs the one-time model load.
func (e *ONNXEstimator) ensureSession() error {
	e.initOnce.Do(func() {
		e.initErr = e.initialize()
		if e.initErr != nil {
			slog.Warn("Depth model unavailable; depth evidence disabled for this process",
				"model_path", e.config.ModelPath, "error", e.initErr)
		}
	})
	return e.initErr
}

func (e *ONNXEstimator) initialize() error {
	if e.config.ModelPath == "" {
		return errors.New("depth model path cannot be empty")
	}
	if _, err := os.Stat(e.config.ModelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", e.config.ModelPath)
	}

	slog.Debug("Initializing depth estimator",
		"model_path", e.config.ModelPath,
		"gpu_enabled", e.config.GPU.UseGPU,
		"max_image_size", e.config.MaxImageSize)

	if err := onnx.InitializeEnvironment(e.config.GPU.UseGPU); err != nil {
		return err
	}

	inputs, outputs, err := onnxruntime_go.GetInputOutputInfo(e.config.ModelPath)
	if err != nil {
		return fmt.Errorf("failed to get model input/output info: %w", err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return fmt.Errorf("expected 1 input and 1 output, got %d/%d", len(inputs), len(outputs))
	}

	sessionOptions, err := onnxruntime_go.NewSessionOptions()
	if err != nil {
		return fmt.Errorf("failed to create session options: %w", err)
	}
	defer func() {
		if err := sessionOptions.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to destroy session options: %v\n", err)
		}
	}()

	if err := onnx.ConfigureSessionForGPU(sessionOptions, e.config.GPU); err != nil {
		return fmt.Errorf("failed to configure GPU: %w", err)
	}
	if e.config.NumThreads > 0 {
		if err := sessionOptions.SetIntraOpNumThreads(e.config.NumThreads); err != nil {
			return fmt.Errorf("failed to set thread count: %w", err)
		}
	}

	session, err := onnxruntime_go.NewDynamicAdvancedSession(e.config.ModelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, sessionOptions)
	if err != nil {
		return fmt.Errorf("failed to create ONNX session: %w", err)
	}

	e.mu.Lock()
	e.session = session
	e.mu.Unlock()

	slog.Debug("Depth estimator initialized successfully")
	return nil
}

// Estimate produces depth evidence for the bounded region. A missing or
// failed model yields a no-data estimate, not an error; only malformed input
// errors are returned.
func (e *ONNXEstimator) Estimate(img image.Image, box utils.BoundingBox) (Estimate, error) {
	if img == nil {
		return NoData(), errors.New("input image is nil")
	}
	if err := box.Validate(); err != nil {
		return NoData(), err
	}

	if err := e.ensureSession(); err != nil {
		return NoData(), nil
	}

	region, err := utils.CropRegion(img, box)
	if err != nil {
		return NoData(), err
	}

	depthMap, err := e.inferDepthMap(region)
	if err != nil {
		slog.Debug("Depth inference produced no usable signal", "error", err)
		return NoData(), nil
	}

	mean, variance := RegionStats(depthMap)
	mempool.PutFloat32(depthMap)
	if mean <= 0 {
		return NoData(), nil
	}

	return Estimate{
		HasDepthData:  true,
		AverageDepth:  mean * e.config.DepthScale,
		DepthVariance: variance * e.config.DepthScale * e.config.DepthScale,
	}, nil
}

// inferDepthMap runs the model on the region and returns the raw depth map.
func (e *ONNXEstimator) inferDepthMap(region image.Image) ([]float32, error) {
	constraints := utils.ImageConstraints{
		MaxWidth:  e.config.MaxImageSize,
		MaxHeight: e.config.MaxImageSize,
		MinWidth:  32,
		MinHeight: 32,
	}
	resized, err := utils.ResizeImage(region, constraints)
	if err != nil {
		return nil, fmt.Errorf("failed to resize region: %w", err)
	}
	tensorData, width, height, err := utils.NormalizeImage(resized)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize region: %w", err)
	}
	tensor, err := onnx.NewImageTensor(tensorData, 3, height, width)
	if err != nil {
		return nil, fmt.Errorf("failed to create tensor: %w", err)
	}

	e.mu.RLock()
	session := e.session
	e.mu.RUnlock()
	if session == nil {
		return nil, errors.New("depth session is nil")
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

	// Copy out of the tensor before it is destroyed; the caller returns the
	// buffer to the pool once statistics are computed.
	data := floatTensor.GetData()
	out := mempool.GetFloat32(len(data))
	copy(out, data)
	return out, nil
}

// Close releases the underlying session if one was initialized.
func (e *ONNXEstimator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		if err := e.session.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to destroy depth session: %v\n", err)
		}
		e.session = nil
	}
	return nil
}
