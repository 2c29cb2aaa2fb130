package handlers

import (
	"encoding/json"
	"net/http"

	"lab-orchestrator/core/analytics"
	"lab-orchestrator/core/equipment"
	"lab-orchestrator/core/ingest"
	"lab-orchestrator/core/models"
	"lab-orchestrator/core/monitoring"
	"lab-orchestrator/core/scheduler"
)

// AnalyticsHandler handles prediction and curve-analysis HTTP requests
type AnalyticsHandler struct {
	engine    *analytics.Engine
	scheduler *scheduler.Scheduler
	registry  *equipment.Registry
	metrics   *monitoring.Metrics
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(engine *analytics.Engine, sched *scheduler.Scheduler,
	registry *equipment.Registry, metrics *monitoring.Metrics) *AnalyticsHandler {
	return &AnalyticsHandler{engine: engine, scheduler: sched, registry: registry, metrics: metrics}
}

// PredictTATRequest represents a TAT prediction request. Queue length and
// equipment availability default to the live scheduler and registry state
// when omitted.
type PredictTATRequest struct {
	DurationMinutes       int                          `json:"duration_minutes"`
	Priority              string                       `json:"priority"`
	QueueLength           *int                         `json:"queue_length,omitempty"`
	EquipmentAvailability *float64                     `json:"equipment_availability,omitempty"`
	History               []analytics.HistoricalRecord `json:"history,omitempty"`
}

// PredictTAT handles POST /api/ai/predict-tat
func (h *AnalyticsHandler) PredictTAT(w http.ResponseWriter, r *http.Request) {
	var req PredictTATRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.DurationMinutes <= 0 {
		http.Error(w, "duration_minutes must be positive", http.StatusBadRequest)
		return
	}

	priority := models.Priority(req.Priority)
	if req.Priority == "" {
		priority = models.PriorityMedium
	}
	if !models.ValidPriority(priority) {
		http.Error(w, "Unknown priority", http.StatusBadRequest)
		return
	}

	queueLength := h.scheduler.GetQueueStatus().TotalScheduled
	if req.QueueLength != nil {
		queueLength = *req.QueueLength
	}
	availability := h.registry.AvailabilityRatio()
	if req.EquipmentAvailability != nil {
		availability = *req.EquipmentAvailability
	}

	prediction := h.engine.PredictTAT(req.DurationMinutes, priority, queueLength, availability, req.History)
	h.metrics.PredictionsServed.Inc()

	respondJSON(w, http.StatusOK, prediction)
}

// DetectAnomaliesRequest represents an anomaly detection request
type DetectAnomaliesRequest struct {
	Values          []float64 `json:"values"`
	MeasurementType string    `json:"measurement_type"`
}

// DetectAnomalies handles POST /api/ai/detect-anomalies
func (h *AnalyticsHandler) DetectAnomalies(w http.ResponseWriter, r *http.Request) {
	var req DetectAnomaliesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	anomalies := h.engine.DetectMeasurementAnomalies(req.Values, req.MeasurementType)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"anomalies": anomalies,
		"count":     len(anomalies),
	})
}

// AnalyzeIVCurveRequest represents an IV curve analysis request
type AnalyzeIVCurveRequest struct {
	Points []analytics.IVPoint `json:"iv_curve"`
}

// AnalyzeIVCurve handles POST /api/ai/analyze-iv-curve
func (h *AnalyticsHandler) AnalyzeIVCurve(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeIVCurveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	analysis, err := h.engine.AnalyzeIVCurve(req.Points)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.metrics.CurvesAnalyzed.Inc()

	respondJSON(w, http.StatusOK, analysis)
}

// ImportCurveRequest carries the raw content of a tracer export file
type ImportCurveRequest struct {
	Content string `json:"content"`
}

// ImportCurve handles POST /api/ai/import-curve. The file is parsed,
// parameters are derived, and a quality analysis is attached when the
// curve carries enough points.
func (h *AnalyticsHandler) ImportCurve(w http.ResponseWriter, r *http.Request) {
	var req ImportCurveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		http.Error(w, "content is required", http.StatusBadRequest)
		return
	}

	file := ingest.ParseIVCFile(req.Content)

	response := map[string]interface{}{
		"metadata":   file.Metadata,
		"iv_curve":   file.Points,
		"parameters": file.Parameters,
	}
	if analysis, err := h.engine.AnalyzeIVCurve(file.Points); err == nil {
		response["analysis"] = analysis
		h.metrics.CurvesAnalyzed.Inc()
	}

	respondJSON(w, http.StatusOK, response)
}
