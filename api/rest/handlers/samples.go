package handlers

import (
	"encoding/json"
	"net/http"

	"lab-orchestrator/core/custody"
	"lab-orchestrator/core/models"
	"lab-orchestrator/core/monitoring"

	"github.com/gorilla/mux"
)

// SampleHandler handles sample and chain-of-custody HTTP requests
type SampleHandler struct {
	tracker *custody.Tracker
	metrics *monitoring.Metrics
}

// NewSampleHandler creates a new sample handler
func NewSampleHandler(tracker *custody.Tracker, metrics *monitoring.Metrics) *SampleHandler {
	return &SampleHandler{tracker: tracker, metrics: metrics}
}

// RegisterSample handles POST /api/samples
func (h *SampleHandler) RegisterSample(w http.ResponseWriter, r *http.Request) {
	var req custody.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "sample_name is required", http.StatusBadRequest)
		return
	}

	sample := h.tracker.RegisterSample(req)
	h.metrics.SamplesRegistered.Inc()
	h.metrics.CustodyRecords.Inc()

	respondJSON(w, http.StatusCreated, sample)
}

// ListSamples handles GET /api/samples with optional status, location and
// q filters
func (h *SampleHandler) ListSamples(w http.ResponseWriter, r *http.Request) {
	var samples []models.Sample

	switch {
	case r.URL.Query().Get("status") != "":
		status := models.SampleStatus(r.URL.Query().Get("status"))
		if !models.ValidSampleStatus(status) {
			http.Error(w, "Unknown sample status", http.StatusBadRequest)
			return
		}
		samples = h.tracker.GetSamplesByStatus(status)
	case r.URL.Query().Get("location") != "":
		samples = h.tracker.GetSamplesByLocation(r.URL.Query().Get("location"))
	case r.URL.Query().Get("q") != "":
		samples = h.tracker.SearchSamples(r.URL.Query().Get("q"))
	default:
		samples = h.tracker.GetAllSamples()
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"samples": samples,
		"count":   len(samples),
	})
}

// GetSample handles GET /api/samples/{id}
func (h *SampleHandler) GetSample(w http.ResponseWriter, r *http.Request) {
	sample := h.tracker.GetSample(mux.Vars(r)["id"])
	if sample == nil {
		http.Error(w, "Sample not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, sample)
}

// MoveSampleRequest represents a custody transfer request
type MoveSampleRequest struct {
	ToLocation  string   `json:"to_location"`
	HandledBy   string   `json:"handled_by"`
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	Photos      []string `json:"photos,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// MoveSample handles POST /api/samples/{id}/move
func (h *SampleHandler) MoveSample(w http.ResponseWriter, r *http.Request) {
	var req MoveSampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ToLocation == "" {
		http.Error(w, "to_location is required", http.StatusBadRequest)
		return
	}

	sampleID := mux.Vars(r)["id"]
	if !h.tracker.MoveSample(sampleID, req.ToLocation, req.HandledBy, req.Temperature, req.Humidity, req.Photos, req.Notes) {
		http.Error(w, "Sample not found", http.StatusNotFound)
		return
	}
	h.metrics.CustodyRecords.Inc()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sample_id": sampleID,
		"location":  req.ToLocation,
	})
}

// UpdateStatusRequest represents a sample status transition request
type UpdateStatusRequest struct {
	Status    string `json:"status"`
	HandledBy string `json:"handled_by"`
	Notes     string `json:"notes,omitempty"`
}

// UpdateSampleStatus handles POST /api/samples/{id}/status
func (h *SampleHandler) UpdateSampleStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	status := models.SampleStatus(req.Status)
	if !models.ValidSampleStatus(status) {
		http.Error(w, "Unknown sample status", http.StatusBadRequest)
		return
	}

	sampleID := mux.Vars(r)["id"]
	if !h.tracker.UpdateSampleStatus(sampleID, status, req.HandledBy, req.Notes) {
		http.Error(w, "Sample not found", http.StatusNotFound)
		return
	}
	h.metrics.CustodyRecords.Inc()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sample_id": sampleID,
		"status":    status,
	})
}

// AddPhotosRequest represents a photo documentation request
type AddPhotosRequest struct {
	Photos    []string `json:"photos"`
	HandledBy string   `json:"handled_by"`
	Notes     string   `json:"notes,omitempty"`
}

// AddPhotos handles POST /api/samples/{id}/photos
func (h *SampleHandler) AddPhotos(w http.ResponseWriter, r *http.Request) {
	var req AddPhotosRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Photos) == 0 {
		http.Error(w, "photos is required", http.StatusBadRequest)
		return
	}

	sampleID := mux.Vars(r)["id"]
	if !h.tracker.AddPhotoDocumentation(sampleID, req.Photos, req.HandledBy, req.Notes) {
		http.Error(w, "Sample not found", http.StatusNotFound)
		return
	}
	h.metrics.CustodyRecords.Inc()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sample_id":    sampleID,
		"photos_added": len(req.Photos),
	})
}

// GetChainOfCustody handles GET /api/samples/{id}/chain-of-custody
func (h *SampleHandler) GetChainOfCustody(w http.ResponseWriter, r *http.Request) {
	sampleID := mux.Vars(r)["id"]
	if h.tracker.GetSample(sampleID) == nil {
		http.Error(w, "Sample not found", http.StatusNotFound)
		return
	}

	records := h.tracker.GetChainOfCustody(sampleID)
	verification := h.tracker.VerifyChainIntegrity(sampleID)

	outcome := "valid"
	if !verification.Valid {
		outcome = "invalid"
	}
	h.metrics.ChainVerifications.WithLabelValues(outcome).Inc()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sample_id":    sampleID,
		"records":      records,
		"verification": verification,
	})
}

// GetSampleHistory handles GET /api/samples/{id}/history
func (h *SampleHandler) GetSampleHistory(w http.ResponseWriter, r *http.Request) {
	history, ok := h.tracker.GetSampleHistory(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, "Sample not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, history)
}
