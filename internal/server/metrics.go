package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platesense_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "platesense_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Estimation metrics
	estimateRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platesense_estimate_requests_total",
			Help: "Total number of estimation requests",
		},
		[]string{"transport", "status"}, // transport: http, websocket
	)

	estimateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "platesense_estimate_duration_seconds",
			Help:    "Estimation processing duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"transport"},
	)

	estimateConfidence = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "platesense_estimate_confidence",
			Help:    "Confidence of produced estimates",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
		[]string{"method"}, // method: reference_object, 3d_analysis, ml_estimation
	)

	estimateMethodTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platesense_estimate_method_total",
			Help: "Estimates produced per evidence method",
		},
		[]string{"method"},
	)

	// Calibration metrics
	calibrationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "platesense_calibrations_total",
			Help: "Total number of accepted calibration updates",
		},
	)

	// Rate limiting metrics
	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platesense_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"type"}, // type: requests_per_minute, upload_per_day
	)

	// File upload metrics
	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "platesense_upload_size_bytes",
			Help:    "Size of uploaded images in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024, 50 * 1024 * 1024},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "platesense_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platesense_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)
