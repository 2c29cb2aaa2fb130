package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"lab-orchestrator/core/equipment"
	"lab-orchestrator/core/models"

	"github.com/gorilla/mux"
)

// EquipmentHandler handles equipment registry HTTP requests
type EquipmentHandler struct {
	registry             *equipment.Registry
	calibrationAlertDays int
}

// NewEquipmentHandler creates a new equipment handler
func NewEquipmentHandler(registry *equipment.Registry, calibrationAlertDays int) *EquipmentHandler {
	return &EquipmentHandler{registry: registry, calibrationAlertDays: calibrationAlertDays}
}

// ListEquipment handles GET /api/equipment with optional status and type
// filters
func (h *EquipmentHandler) ListEquipment(w http.ResponseWriter, r *http.Request) {
	var items []models.Equipment

	switch {
	case r.URL.Query().Get("status") != "":
		status := models.EquipmentStatus(r.URL.Query().Get("status"))
		if !models.ValidEquipmentStatus(status) {
			http.Error(w, "Unknown equipment status", http.StatusBadRequest)
			return
		}
		items = h.registry.GetEquipmentByStatus(status)
	case r.URL.Query().Get("type") != "":
		items = h.registry.GetEquipmentByType(r.URL.Query().Get("type"))
	default:
		items = h.registry.GetAllEquipment()
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"equipment": items,
		"count":     len(items),
	})
}

// GetEquipment handles GET /api/equipment/{id}
func (h *EquipmentHandler) GetEquipment(w http.ResponseWriter, r *http.Request) {
	eq, ok := h.registry.GetEquipment(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, "Equipment not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, eq)
}

// EquipmentStatusRequest represents an equipment status change
type EquipmentStatusRequest struct {
	Status string `json:"status"`
}

// UpdateEquipmentStatus handles POST /api/equipment/{id}/status
func (h *EquipmentHandler) UpdateEquipmentStatus(w http.ResponseWriter, r *http.Request) {
	var req EquipmentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	status := models.EquipmentStatus(req.Status)
	if !models.ValidEquipmentStatus(status) {
		http.Error(w, "Unknown equipment status", http.StatusBadRequest)
		return
	}

	equipmentID := mux.Vars(r)["id"]
	if !h.registry.UpdateStatus(equipmentID, status) {
		http.Error(w, "Equipment not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"equipment_id": equipmentID,
		"status":       status,
	})
}

// LogUsageRequest represents one equipment usage session
type LogUsageRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	UsedBy    string    `json:"used_by"`
	Purpose   string    `json:"purpose,omitempty"`
	Notes     string    `json:"notes,omitempty"`
}

// LogUsage handles POST /api/equipment/{id}/usage
func (h *EquipmentHandler) LogUsage(w http.ResponseWriter, r *http.Request) {
	var req LogUsageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !req.EndTime.After(req.StartTime) {
		http.Error(w, "end_time must be after start_time", http.StatusBadRequest)
		return
	}

	equipmentID := mux.Vars(r)["id"]
	if !h.registry.LogUsage(equipmentID, req.StartTime, req.EndTime, req.UsedBy, req.Purpose, req.Notes) {
		http.Error(w, "Equipment not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"equipment_id": equipmentID,
		"logged":       true,
	})
}

// GetCalibrationAlerts handles GET /api/equipment/calibration-alerts
func (h *EquipmentHandler) GetCalibrationAlerts(w http.ResponseWriter, r *http.Request) {
	days := h.calibrationAlertDays
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid days parameter", http.StatusBadRequest)
			return
		}
		days = parsed
	}

	alerts := h.registry.GetCalibrationAlerts(days)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	})
}
