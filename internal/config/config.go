package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/platesense/internal/depth"
	"github.com/MeKo-Tech/platesense/internal/estimator"
	"github.com/MeKo-Tech/platesense/internal/models"
	"github.com/MeKo-Tech/platesense/internal/onnx"
	"github.com/MeKo-Tech/platesense/internal/refobject"
)

// Config represents the complete configuration for the platesense
// application. It covers all commands (estimate, calibrate, serve) and is
// loaded from configuration files, environment variables, and flags.
type Config struct {
	// Global settings
	ModelsDir string `mapstructure:"models_dir" yaml:"models_dir" json:"models_dir"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Estimation pipeline configuration
	Estimator EstimatorConfig `mapstructure:"estimator" yaml:"estimator" json:"estimator"`

	// Density table configuration
	Density DensityConfig `mapstructure:"density" yaml:"density" json:"density"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// GPU configuration
	GPU GPUConfig `mapstructure:"gpu" yaml:"gpu" json:"gpu"`
}

// EstimatorConfig contains estimation pipeline settings.
type EstimatorConfig struct {
	Detector  DetectorConfig `mapstructure:"detector" yaml:"detector" json:"detector"`
	Depth     DepthConfig    `mapstructure:"depth" yaml:"depth" json:"depth"`
	PixelToCm float64        `mapstructure:"pixel_to_cm" yaml:"pixel_to_cm" json:"pixel_to_cm"`
}

// DetectorConfig contains reference-object detection settings.
type DetectorConfig struct {
	ModelPath           string  `mapstructure:"model_path" yaml:"model_path" json:"model_path"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold" yaml:"confidence_threshold" json:"confidence_threshold"`
	MaxImageSize        int     `mapstructure:"max_image_size" yaml:"max_image_size" json:"max_image_size"`
	NumThreads          int     `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
	UseServerModel      bool    `mapstructure:"use_server_model" yaml:"use_server_model" json:"use_server_model"`
}

// DepthConfig contains monocular depth estimation settings.
type DepthConfig struct {
	ModelPath    string  `mapstructure:"model_path" yaml:"model_path" json:"model_path"`
	MaxImageSize int     `mapstructure:"max_image_size" yaml:"max_image_size" json:"max_image_size"`
	NumThreads   int     `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
	DepthScale   float64 `mapstructure:"depth_scale" yaml:"depth_scale" json:"depth_scale"`
}

// DensityConfig contains density table storage settings.
type DensityConfig struct {
	// SQLitePath points at a persistent density database. Empty selects an
	// in-memory table seeded from the embedded defaults; calibration updates
	// are then lost on exit.
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path" json:"sqlite_path"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format    string `mapstructure:"format" yaml:"format" json:"format"`
	File      string `mapstructure:"file" yaml:"file" json:"file"`
	Precision int    `mapstructure:"precision" yaml:"precision" json:"precision"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// GPUConfig contains GPU acceleration settings.
type GPUConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Device      int    `mapstructure:"device" yaml:"device" json:"device"`
	MemoryLimit string `mapstructure:"memory_limit" yaml:"memory_limit" json:"memory_limit"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ModelsDir: models.DefaultModelsDir,
		LogLevel:  "info",
		Verbose:   false,
		Estimator: EstimatorConfig{
			Detector:  defaultDetectorConfig(),
			Depth:     defaultDepthConfig(),
			PixelToCm: estimator.DefaultConfig().PixelToCm,
		},
		Output: OutputConfig{
			Format:    "text",
			Precision: 2,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
		},
		GPU: GPUConfig{
			Enabled:     false,
			Device:      0,
			MemoryLimit: "auto",
		},
	}
}

// defaultDetectorConfig returns default reference-object detector settings.
func defaultDetectorConfig() DetectorConfig {
	cfg := refobject.DefaultConfig()
	return DetectorConfig{
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		MaxImageSize:        cfg.MaxImageSize,
		NumThreads:          cfg.NumThreads,
		UseServerModel:      cfg.UseServerModel,
	}
}

// defaultDepthConfig returns default depth estimator settings.
func defaultDepthConfig() DepthConfig {
	cfg := depth.DefaultConfig()
	return DepthConfig{
		MaxImageSize: cfg.MaxImageSize,
		NumThreads:   cfg.NumThreads,
		DepthScale:   cfg.DepthScale,
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json"}
	if c.Output.Format != "" && !contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	if err := validateThreshold(c.Estimator.Detector.ConfidenceThreshold, "estimator.detector.confidence_threshold"); err != nil {
		return err
	}

	if c.Estimator.PixelToCm <= 0 {
		return fmt.Errorf("invalid pixel-to-cm scale: %f (must be positive)", c.Estimator.PixelToCm)
	}
	if c.Estimator.Depth.DepthScale <= 0 {
		return fmt.Errorf("invalid depth scale: %f (must be positive)", c.Estimator.Depth.DepthScale)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}

	if c.GPU.MemoryLimit != "auto" && c.GPU.MemoryLimit != "" {
		if _, err := parseMemoryLimit(c.GPU.MemoryLimit); err != nil {
			return fmt.Errorf("invalid GPU memory limit: %w", err)
		}
	}

	return nil
}

// ToEstimatorConfig converts the config to the internal estimator
// configuration format.
func (c *Config) ToEstimatorConfig() estimator.Config {
	cfg := estimator.DefaultConfig()
	cfg.Detector = c.toDetectorConfig()
	cfg.Depth = c.toDepthConfig()
	if c.Estimator.PixelToCm > 0 {
		cfg.PixelToCm = c.Estimator.PixelToCm
	}
	return cfg
}

// toDetectorConfig converts to refobject.Config.
func (c *Config) toDetectorConfig() refobject.Config {
	cfg := refobject.DefaultConfig()
	cfg.ConfidenceThreshold = c.Estimator.Detector.ConfidenceThreshold
	cfg.MaxImageSize = c.Estimator.Detector.MaxImageSize
	cfg.NumThreads = c.Estimator.Detector.NumThreads
	cfg.UseServerModel = c.Estimator.Detector.UseServerModel
	cfg.GPU = c.toGPUConfig()
	cfg.UpdateModelPath(c.ModelsDir)
	if c.Estimator.Detector.ModelPath != "" {
		cfg.ModelPath = c.Estimator.Detector.ModelPath
	}
	return cfg
}

// toDepthConfig converts to depth.Config.
func (c *Config) toDepthConfig() depth.Config {
	cfg := depth.DefaultConfig()
	cfg.MaxImageSize = c.Estimator.Depth.MaxImageSize
	cfg.NumThreads = c.Estimator.Depth.NumThreads
	if c.Estimator.Depth.DepthScale > 0 {
		cfg.DepthScale = c.Estimator.Depth.DepthScale
	}
	cfg.GPU = c.toGPUConfig()
	cfg.UpdateModelPath(c.ModelsDir)
	if c.Estimator.Depth.ModelPath != "" {
		cfg.ModelPath = c.Estimator.Depth.ModelPath
	}
	return cfg
}

// toGPUConfig converts to onnx.GPUConfig.
func (c *Config) toGPUConfig() onnx.GPUConfig {
	limit, err := parseMemoryLimit(c.GPU.MemoryLimit)
	if err != nil {
		limit = 0
	}
	return onnx.GPUConfig{
		UseGPU:      c.GPU.Enabled,
		DeviceID:    c.GPU.Device,
		GPUMemLimit: limit,
	}
}

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// validateThreshold validates that a value is between 0.0 and 1.0.
func validateThreshold(value float64, name string) error {
	if value < 0.0 || value > 1.0 {
		return fmt.Errorf("invalid %s: %.2f (must be between 0.0 and 1.0)", name, value)
	}
	return nil
}

// parseMemoryLimit parses a memory limit string (e.g. "1GB", "512MB") into
// bytes. "auto" and the empty string mean unlimited.
func parseMemoryLimit(limit string) (uint64, error) {
	if limit == "" || limit == "auto" {
		return 0, nil
	}

	upper := strings.ToUpper(limit)
	units := []struct {
		suffix string
		factor float64
	}{
		{"GB", 1 << 30},
		{"MB", 1 << 20},
		{"KB", 1 << 10},
		{"B", 1},
	}

	for _, unit := range units {
		if !strings.HasSuffix(upper, unit.suffix) {
			continue
		}
		numStr := strings.TrimSuffix(upper, unit.suffix)
		value, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number in memory limit: %s", limit)
		}
		if value < 0 {
			return 0, fmt.Errorf("memory limit cannot be negative: %s", limit)
		}
		return uint64(value * unit.factor), nil
	}

	return 0, fmt.Errorf("memory limit must end with one of: B, KB, MB, GB")
}
