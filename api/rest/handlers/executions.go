package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"lab-orchestrator/core/catalog"
	"lab-orchestrator/core/execution"
	"lab-orchestrator/core/monitoring"
	"lab-orchestrator/core/scheduler"

	"github.com/gorilla/mux"
)

// ExecutionHandler handles test execution HTTP requests
type ExecutionHandler struct {
	executor  *execution.Executor
	scheduler *scheduler.Scheduler
	library   *catalog.Library
	metrics   *monitoring.Metrics
}

// NewExecutionHandler creates a new execution handler
func NewExecutionHandler(executor *execution.Executor, sched *scheduler.Scheduler,
	library *catalog.Library, metrics *monitoring.Metrics) *ExecutionHandler {
	return &ExecutionHandler{executor: executor, scheduler: sched, library: library, metrics: metrics}
}

// StartExecutionRequest represents a request to start a test execution
type StartExecutionRequest struct {
	PerformedBy string `json:"performed_by"`
}

// StartExecution handles POST /api/execution/start/{schedule_id}.
// Starting an execution also moves the schedule to In Progress.
func (h *ExecutionHandler) StartExecution(w http.ResponseWriter, r *http.Request) {
	var req StartExecutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	scheduleID := mux.Vars(r)["schedule_id"]
	schedule, ok := h.scheduler.GetSchedule(scheduleID)
	if !ok {
		http.Error(w, "Schedule not found", http.StatusNotFound)
		return
	}
	protocol, ok := h.library.GetProtocol(schedule.ProtocolID)
	if !ok {
		http.Error(w, "Protocol not found", http.StatusNotFound)
		return
	}

	if !h.scheduler.StartTest(scheduleID) {
		http.Error(w, "Schedule is not in Scheduled status", http.StatusConflict)
		return
	}

	resultID := h.executor.StartExecution(schedule, protocol, req.PerformedBy)

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"result_id":   resultID,
		"schedule_id": scheduleID,
		"total_steps": len(protocol.Steps),
	})
}

// RecordMeasurementRequest represents one measurement reading
type RecordMeasurementRequest struct {
	Name      string     `json:"name"`
	Value     float64    `json:"value"`
	Unit      string     `json:"unit,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Notes     string     `json:"notes,omitempty"`
}

// RecordMeasurement handles POST /api/execution/{result_id}/measurement.
// The reading is validated against the protocol's acceptance criteria and
// the validation outcome is returned inline.
func (h *ExecutionHandler) RecordMeasurement(w http.ResponseWriter, r *http.Request) {
	var req RecordMeasurementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	resultID := mux.Vars(r)["result_id"]
	active, ok := h.executor.GetActiveTest(resultID)
	if !ok {
		http.Error(w, "Active test not found", http.StatusNotFound)
		return
	}

	if !h.executor.RecordMeasurement(resultID, req.Name, req.Value, req.Unit, req.Timestamp, req.Notes) {
		http.Error(w, "Active test not found", http.StatusNotFound)
		return
	}

	response := map[string]interface{}{
		"result_id": resultID,
		"recorded":  true,
	}
	if protocol, ok := h.library.GetProtocol(active.ProtocolID); ok {
		response["validation"] = execution.ValidateMeasurement(req.Name, req.Value, protocol)
	}

	respondJSON(w, http.StatusOK, response)
}

// UpdateStepRequest represents a step advance request
type UpdateStepRequest struct {
	Step int `json:"step"`
}

// UpdateStep handles POST /api/execution/{result_id}/step
func (h *ExecutionHandler) UpdateStep(w http.ResponseWriter, r *http.Request) {
	var req UpdateStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resultID := mux.Vars(r)["result_id"]
	if !h.executor.UpdateStep(resultID, req.Step) {
		http.Error(w, "Active test not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"result_id":    resultID,
		"current_step": req.Step,
	})
}

// AttachmentRequest represents an image or video attachment
type AttachmentRequest struct {
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
}

// AddImage handles POST /api/execution/{result_id}/image
func (h *ExecutionHandler) AddImage(w http.ResponseWriter, r *http.Request) {
	h.addAttachment(w, r, h.executor.AddImage)
}

// AddVideo handles POST /api/execution/{result_id}/video
func (h *ExecutionHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	h.addAttachment(w, r, h.executor.AddVideo)
}

func (h *ExecutionHandler) addAttachment(w http.ResponseWriter, r *http.Request, attach func(string, string, string) bool) {
	var req AttachmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}

	resultID := mux.Vars(r)["result_id"]
	if !attach(resultID, req.Path, req.Description) {
		http.Error(w, "Active test not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"result_id": resultID,
		"attached":  req.Path,
	})
}

// SavePartialDataRequest represents resumable scratch data
type SavePartialDataRequest struct {
	Data map[string]interface{} `json:"data"`
}

// SavePartialData handles POST /api/execution/{result_id}/partial-data
func (h *ExecutionHandler) SavePartialData(w http.ResponseWriter, r *http.Request) {
	var req SavePartialDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resultID := mux.Vars(r)["result_id"]
	if !h.executor.SavePartialData(resultID, req.Data) {
		http.Error(w, "Active test not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"result_id": resultID,
		"saved":     true,
	})
}

// CompleteExecutionRequest represents the final notes of an execution
type CompleteExecutionRequest struct {
	Notes string `json:"notes,omitempty"`
}

// CompleteExecution handles POST /api/execution/{result_id}/complete.
// The schedule transitions to Completed alongside the frozen result.
func (h *ExecutionHandler) CompleteExecution(w http.ResponseWriter, r *http.Request) {
	var req CompleteExecutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resultID := mux.Vars(r)["result_id"]
	active, ok := h.executor.GetActiveTest(resultID)
	if !ok {
		http.Error(w, "Active test not found", http.StatusNotFound)
		return
	}
	protocol, ok := h.library.GetProtocol(active.ProtocolID)
	if !ok {
		http.Error(w, "Protocol not found", http.StatusNotFound)
		return
	}

	result, err := h.executor.CompleteExecution(resultID, protocol, req.Notes)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	h.scheduler.CompleteTest(result.ScheduleID)
	h.metrics.TestsCompleted.WithLabelValues(result.PassFail).Inc()

	respondJSON(w, http.StatusOK, result)
}

// GetExecution handles GET /api/execution/{result_id}. It serves the
// active test sheet while the test runs and the frozen result afterwards.
func (h *ExecutionHandler) GetExecution(w http.ResponseWriter, r *http.Request) {
	resultID := mux.Vars(r)["result_id"]

	if active, ok := h.executor.GetActiveTest(resultID); ok {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"state":  "active",
			"detail": active,
		})
		return
	}
	if result, ok := h.executor.GetResult(resultID); ok {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"state":  "completed",
			"detail": result,
		})
		return
	}
	http.Error(w, "Execution not found", http.StatusNotFound)
}

// ListResults handles GET /api/execution with optional sample_id and
// protocol_id filters
func (h *ExecutionHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	var results interface{}
	switch {
	case r.URL.Query().Get("sample_id") != "":
		results = h.executor.GetResultsBySample(r.URL.Query().Get("sample_id"))
	case r.URL.Query().Get("protocol_id") != "":
		results = h.executor.GetResultsByProtocol(r.URL.Query().Get("protocol_id"))
	default:
		results = h.executor.GetAllResults()
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}

// ReviewRequest represents a result review decision
type ReviewRequest struct {
	ReviewedBy     string `json:"reviewed_by"`
	ApprovalStatus string `json:"approval_status"`
	Comments       string `json:"comments,omitempty"`
}

// ReviewResult handles POST /api/execution/{result_id}/review
func (h *ExecutionHandler) ReviewResult(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ReviewedBy == "" {
		http.Error(w, "reviewed_by is required", http.StatusBadRequest)
		return
	}

	resultID := mux.Vars(r)["result_id"]
	if !h.executor.ReviewResult(resultID, req.ReviewedBy, req.ApprovalStatus, req.Comments) {
		http.Error(w, "Result not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"result_id": resultID,
		"reviewed":  true,
	})
}
