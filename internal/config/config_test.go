package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Positive(t, cfg.Estimator.PixelToCm)
	assert.Positive(t, cfg.Estimator.Depth.DepthScale)
	assert.False(t, cfg.GPU.Enabled)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.LogLevel = "trace" },
			wantErr: "invalid log level",
		},
		{
			name:    "invalid output format",
			mutate:  func(c *Config) { c.Output.Format = "xml" },
			wantErr: "invalid output format",
		},
		{
			name:    "confidence threshold above one",
			mutate:  func(c *Config) { c.Estimator.Detector.ConfidenceThreshold = 1.5 },
			wantErr: "confidence_threshold",
		},
		{
			name:    "non-positive pixel scale",
			mutate:  func(c *Config) { c.Estimator.PixelToCm = 0 },
			wantErr: "pixel-to-cm",
		},
		{
			name:    "non-positive depth scale",
			mutate:  func(c *Config) { c.Estimator.Depth.DepthScale = -0.1 },
			wantErr: "depth scale",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "invalid server port",
		},
		{
			name:    "zero upload limit",
			mutate:  func(c *Config) { c.Server.MaxUploadMB = 0 },
			wantErr: "max upload",
		},
		{
			name:    "bad memory limit unit",
			mutate:  func(c *Config) { c.GPU.MemoryLimit = "12XB" },
			wantErr: "memory limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseMemoryLimit(t *testing.T) {
	tests := []struct {
		input   string
		want    uint64
		wantErr bool
	}{
		{input: "", want: 0},
		{input: "auto", want: 0},
		{input: "512MB", want: 512 << 20},
		{input: "1GB", want: 1 << 30},
		{input: "2kb", want: 2 << 10},
		{input: "100B", want: 100},
		{input: "abcMB", wantErr: true},
		{input: "12TB", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseMemoryLimit(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToEstimatorConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelsDir = "/opt/models"
	cfg.Estimator.Detector.ConfidenceThreshold = 0.7
	cfg.Estimator.Depth.DepthScale = 0.08
	cfg.Estimator.PixelToCm = 0.03
	cfg.GPU.Enabled = true
	cfg.GPU.Device = 1
	cfg.GPU.MemoryLimit = "1GB"

	est := cfg.ToEstimatorConfig()

	assert.InDelta(t, 0.7, est.Detector.ConfidenceThreshold, 1e-9)
	assert.InDelta(t, 0.08, est.Depth.DepthScale, 1e-9)
	assert.InDelta(t, 0.03, est.PixelToCm, 1e-9)
	assert.Contains(t, est.Detector.ModelPath, "/opt/models")
	assert.Contains(t, est.Depth.ModelPath, "/opt/models")
	assert.True(t, est.Detector.GPU.UseGPU)
	assert.Equal(t, 1, est.Detector.GPU.DeviceID)
	assert.Equal(t, uint64(1<<30), est.Detector.GPU.GPUMemLimit)
	assert.True(t, est.Depth.GPU.UseGPU)
}

func TestToEstimatorConfigExplicitModelPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Estimator.Detector.ModelPath = "/custom/refobj.onnx"
	cfg.Estimator.Depth.ModelPath = "/custom/depth.onnx"

	est := cfg.ToEstimatorConfig()

	assert.Equal(t, "/custom/refobj.onnx", est.Detector.ModelPath)
	assert.Equal(t, "/custom/depth.onnx", est.Depth.ModelPath)
}
