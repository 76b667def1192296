package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/platesense/internal/utils"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin in development
		// In production, you should check against allowed origins
		return true
	},
}

// WebSocketEstimateRequest represents an estimation request via WebSocket.
// The image is transmitted base64-encoded inside the JSON payload.
type WebSocketEstimateRequest struct {
	Type        string            `json:"type"` // "estimate" or "calibrate"
	Image       []byte            `json:"image,omitempty"`
	FoodName    string            `json:"food_name,omitempty"`
	Category    string            `json:"category,omitempty"`
	BoundingBox utils.BoundingBox `json:"bounding_box"`

	// Calibration fields
	ActualWeight float64 `json:"actual_weight,omitempty"`
	ActualVolume float64 `json:"actual_volume,omitempty"`
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// WebSocketEstimateResponse represents an estimation response via WebSocket.
type WebSocketEstimateResponse struct {
	Type      string      `json:"type"`
	Status    string      `json:"status"` // "processing", "completed", "error"
	Progress  float64     `json:"progress,omitempty"`
	Result    interface{} `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorType string      `json:"error_type,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// estimateWebSocketHandler handles WebSocket connections for interactive
// estimation sessions, where a client streams frames and ground-truth
// corrections over one connection.
func (s *Server) estimateWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)

	s.handleWebSocketConnection(conn)
}

// handleWebSocketConnection processes messages from a WebSocket connection.
func (s *Server) handleWebSocketConnection(conn *websocket.Conn) {
	// Set read deadline to prevent hanging connections
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Send ping messages to keep connection alive
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			break
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(conn, data)
		}
	}
}

// handleWebSocketMessage processes a WebSocket message.
func (s *Server) handleWebSocketMessage(conn *websocket.Conn, data []byte) {
	var req WebSocketEstimateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}

	// Generate a request ID for tracking
	requestID := strconv.FormatInt(time.Now().UnixNano(), 10)

	switch req.Type {
	case "estimate":
		s.processWebSocketEstimate(conn, req, requestID)
	case "calibrate":
		s.processWebSocketCalibrate(conn, req, requestID)
	default:
		s.sendWebSocketError(conn, "invalid_request", "Unsupported request type: "+req.Type)
	}
}

// processWebSocketEstimate runs one estimation for a streamed frame.
func (s *Server) processWebSocketEstimate(conn *websocket.Conn, req WebSocketEstimateRequest, requestID string) {
	if len(req.Image) == 0 {
		s.sendWebSocketError(conn, "invalid_request", "No image data provided")
		return
	}

	img, _, err := image.Decode(bytes.NewReader(req.Image))
	if err != nil {
		s.sendWebSocketError(conn, "processing_error", fmt.Sprintf("Failed to decode image: %v", err))
		return
	}

	s.sendWebSocketResponse(conn, WebSocketEstimateResponse{
		Type:      "estimate_response",
		Status:    "processing",
		Progress:  0.5,
		RequestID: requestID,
	})

	start := time.Now()
	result, err := s.estimator.Estimate(img, req.FoodName, req.Category, req.BoundingBox)
	duration := time.Since(start)

	if err != nil {
		estimateRequestsTotal.WithLabelValues("websocket", "error").Inc()
		s.sendWebSocketError(conn, "processing_error", fmt.Sprintf("Estimation failed: %v", err))
		return
	}

	estimateRequestsTotal.WithLabelValues("websocket", "success").Inc()
	estimateDuration.WithLabelValues("websocket").Observe(duration.Seconds())
	estimateConfidence.WithLabelValues(string(result.Method)).Observe(result.Confidence)
	estimateMethodTotal.WithLabelValues(string(result.Method)).Inc()

	s.sendWebSocketResponse(conn, WebSocketEstimateResponse{
		Type:      "estimate_response",
		Status:    "completed",
		Progress:  1.0,
		Result:    result,
		RequestID: requestID,
	})
}

// processWebSocketCalibrate applies a ground-truth correction.
func (s *Server) processWebSocketCalibrate(conn *websocket.Conn, req WebSocketEstimateRequest, requestID string) {
	if err := s.estimator.Calibrate(req.FoodName, nil, req.ActualWeight, req.ActualVolume); err != nil {
		s.sendWebSocketError(conn, "invalid_request", fmt.Sprintf("Calibration failed: %v", err))
		return
	}

	calibrationsTotal.Inc()

	s.sendWebSocketResponse(conn, WebSocketEstimateResponse{
		Type:      "calibrate_response",
		Status:    "completed",
		Progress:  1.0,
		RequestID: requestID,
	})
}

// sendWebSocketResponse sends a response message over WebSocket.
func (s *Server) sendWebSocketResponse(conn WebSocketConnWriter, response WebSocketEstimateResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendWebSocketError sends an error message over WebSocket.
func (s *Server) sendWebSocketError(conn WebSocketConnWriter, errorType, message string) {
	response := WebSocketEstimateResponse{
		Type:      "error",
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
	}

	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket error response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket error message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}
