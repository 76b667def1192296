package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"

	"github.com/MeKo-Tech/platesense/internal/estimator"
	"github.com/MeKo-Tech/platesense/internal/models"
	"github.com/MeKo-Tech/platesense/internal/utils"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	}
	if s.estimator != nil {
		response.Components = s.estimator.Info()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logEncodeError("health", err)
	}
}

// modelsHandler returns information about available models.
func (s *Server) modelsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	modelInfos := models.ListAvailableModels()
	modelList := make([]ModelInfo, len(modelInfos))
	for i, info := range modelInfos {
		modelList[i] = ModelInfo{
			Name:        info.Name,
			Path:        models.ResolveModelPath("", info.Type, info.Variant, info.Filename),
			Type:        info.Type,
			Description: info.Description,
		}
	}

	response := ModelsResponse{
		Models: modelList,
		Count:  len(modelList),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logEncodeError("models", err)
	}
}

// estimateHandler processes portion estimation requests. The request is a
// multipart form with an "image" file, a "food_name" field, an optional
// "category" field and the bounding box as x, y, width, height fields.
func (s *Server) estimateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)

	if err := r.ParseMultipartForm(s.maxUploadMB * 1024 * 1024); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "too large") {
			s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		} else {
			s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		}
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeErrorResponse(w, "No image file provided", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > s.maxUploadMB*1024*1024 {
		s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}

	imageData, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read image data", http.StatusInternalServerError)
		return
	}
	uploadSizeBytes.Observe(float64(len(imageData)))

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		s.writeErrorResponse(w, "Invalid image format", http.StatusBadRequest)
		return
	}

	foodName := r.FormValue("food_name")
	if foodName == "" {
		s.writeErrorResponse(w, "No food name provided", http.StatusBadRequest)
		return
	}
	category := r.FormValue("category")

	box, err := parseBoundingBox(r)
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Invalid bounding box: %v", err), http.StatusBadRequest)
		return
	}

	if s.estimator == nil {
		s.writeErrorResponse(w, "Estimator not initialized", http.StatusServiceUnavailable)
		return
	}

	start := time.Now()
	result, err := s.estimator.Estimate(img, foodName, category, box)
	duration := time.Since(start)

	if err != nil {
		estimateRequestsTotal.WithLabelValues("http", "error").Inc()

		status := http.StatusInternalServerError
		if errors.Is(err, utils.ErrInvalidBoundingBox) || errors.Is(err, estimator.ErrEmptyFoodName) {
			status = http.StatusBadRequest
		}
		s.writeErrorResponse(w, fmt.Sprintf("Estimation failed: %v", err), status)
		return
	}

	estimateRequestsTotal.WithLabelValues("http", "success").Inc()
	estimateDuration.WithLabelValues("http").Observe(duration.Seconds())
	estimateConfidence.WithLabelValues(string(result.Method)).Observe(result.Confidence)
	estimateMethodTotal.WithLabelValues(string(result.Method)).Inc()

	w.Header().Set("Content-Type", "application/json")
	response := EstimateResponse{Success: true, Result: result}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logEncodeError("estimate", err)
	}
}

// calibrateHandler applies a ground-truth measurement to the density table.
func (s *Server) calibrateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CalibrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeCalibrateError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if s.estimator == nil {
		s.writeCalibrateError(w, "Estimator not initialized", http.StatusServiceUnavailable)
		return
	}

	// HTTP clients do not resend the prior estimate; the density table holds
	// the prior state the update rule needs.
	if err := s.estimator.Calibrate(req.FoodName, nil, req.ActualWeight, req.ActualVolume); err != nil {
		s.writeCalibrateError(w, fmt.Sprintf("Calibration failed: %v", err), http.StatusBadRequest)
		return
	}

	calibrationsTotal.Inc()

	w.Header().Set("Content-Type", "application/json")
	response := CalibrateResponse{Success: true, FoodName: req.FoodName}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logEncodeError("calibrate", err)
	}
}

// parseBoundingBox reads the bounding box from form fields.
func parseBoundingBox(r *http.Request) (utils.BoundingBox, error) {
	var box utils.BoundingBox

	fields := []struct {
		name string
		dst  *int
	}{
		{"x", &box.X},
		{"y", &box.Y},
		{"width", &box.Width},
		{"height", &box.Height},
	}

	for _, field := range fields {
		raw := r.FormValue(field.name)
		if raw == "" {
			return box, fmt.Errorf("missing field %q", field.name)
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return box, fmt.Errorf("field %q is not an integer: %s", field.name, raw)
		}
		*field.dst = value
	}

	return box, nil
}

// writeErrorResponse writes a JSON error response for estimation endpoints.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := EstimateResponse{
		Success: false,
		Error:   message,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logEncodeError("error", err)
	}
}

// writeCalibrateError writes a JSON error response for the calibrate endpoint.
func (s *Server) writeCalibrateError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := CalibrateResponse{
		Success: false,
		Error:   message,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logEncodeError("calibrate error", err)
	}
}
