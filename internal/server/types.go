package server

import (
	"image"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/platesense/internal/density"
	"github.com/MeKo-Tech/platesense/internal/estimator"
	"github.com/MeKo-Tech/platesense/internal/utils"
)

// estimatorInterface defines the methods the server needs from an estimator.
type estimatorInterface interface {
	Estimate(img image.Image, foodName, category string, box utils.BoundingBox) (*estimator.Result, error)
	Calibrate(foodName string, priorResult *estimator.Result, actualWeight, actualVolume float64) error
	Info() map[string]any
	Close() error
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	estimator   estimatorInterface
	corsOrigin  string
	maxUploadMB int64
	timeoutSec  int
	rateLimiter *RateLimiter
}

// Config holds server configuration.
type Config struct {
	Host            string
	Port            int
	CORSOrigin      string
	MaxUploadMB     int64
	TimeoutSec      int
	EstimatorConfig estimator.Config

	// DensityPath selects a persistent SQLite density table. Empty uses the
	// embedded in-memory seed table.
	DensityPath string

	// RateLimit enables per-client request limiting when non-nil.
	RateLimit *RateLimitConfig

	// WarmupIterations primes the inference backends before serving when > 0.
	WarmupIterations int
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	RequestsPerMinute int
	MaxUploadPerDay   int64
}

// HealthResponse reports server liveness and component status.
type HealthResponse struct {
	Status     string         `json:"status"`
	Version    string         `json:"version,omitempty"`
	Time       string         `json:"time"`
	Components map[string]any `json:"components,omitempty"`
}

// ModelInfo describes one ONNX model known to the server.
type ModelInfo struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ModelsResponse lists available models.
type ModelsResponse struct {
	Models []ModelInfo `json:"models"`
	Count  int         `json:"count"`
}

// EstimateResponse wraps an estimation result for the HTTP API.
type EstimateResponse struct {
	Success bool              `json:"success"`
	Result  *estimator.Result `json:"result,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// CalibrateRequest carries a ground-truth measurement for a food.
type CalibrateRequest struct {
	FoodName     string  `json:"food_name"`
	ActualWeight float64 `json:"actual_weight"`
	ActualVolume float64 `json:"actual_volume,omitempty"`
}

// CalibrateResponse acknowledges a calibration update.
type CalibrateResponse struct {
	Success  bool   `json:"success"`
	FoodName string `json:"food_name,omitempty"`
	Error    string `json:"error,omitempty"`
}

// NewServer creates a new estimation server instance.
func NewServer(config Config) (*Server, error) {
	builder := estimator.NewBuilder().WithConfig(config.EstimatorConfig)

	if config.DensityPath != "" {
		store, err := density.NewSQLiteStore(config.DensityPath)
		if err != nil {
			return nil, err
		}
		builder = builder.WithDensityStore(store)
	}

	est, err := builder.Build()
	if err != nil {
		return nil, err
	}

	if config.WarmupIterations > 0 {
		est.Warmup(config.WarmupIterations)
	}

	var limiter *RateLimiter
	if config.RateLimit != nil {
		limiter = NewRateLimiter(config.RateLimit.RequestsPerMinute, config.RateLimit.MaxUploadPerDay)
	}

	return &Server{
		estimator:   est,
		corsOrigin:  config.CORSOrigin,
		maxUploadMB: config.MaxUploadMB,
		timeoutSec:  config.TimeoutSec,
		rateLimiter: limiter,
	}, nil
}

// Close releases server resources.
func (s *Server) Close() error {
	if s.estimator != nil {
		return s.estimator.Close()
	}
	return nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/models", s.corsMiddleware(s.modelsHandler))
	mux.HandleFunc("/estimate", s.corsMiddleware(s.rateLimitMiddleware(s.estimateHandler)))
	mux.HandleFunc("/calibrate", s.corsMiddleware(s.rateLimitMiddleware(s.calibrateHandler)))
	mux.HandleFunc("/estimate/ws", s.estimateWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}
