package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"lab-orchestrator/core/catalog"
	"lab-orchestrator/core/custody"
	"lab-orchestrator/core/models"
	"lab-orchestrator/core/monitoring"
	"lab-orchestrator/core/scheduler"

	"github.com/gorilla/mux"
)

// ScheduleHandler handles test scheduling HTTP requests
type ScheduleHandler struct {
	scheduler *scheduler.Scheduler
	tracker   *custody.Tracker
	library   *catalog.Library
	metrics   *monitoring.Metrics
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(sched *scheduler.Scheduler, tracker *custody.Tracker,
	library *catalog.Library, metrics *monitoring.Metrics) *ScheduleHandler {
	return &ScheduleHandler{scheduler: sched, tracker: tracker, library: library, metrics: metrics}
}

// ScheduleTestRequest represents a request to schedule a test
type ScheduleTestRequest struct {
	SampleID       string     `json:"sample_id"`
	ProtocolID     string     `json:"protocol_id"`
	Priority       string     `json:"priority"`
	RequestedStart *time.Time `json:"requested_start,omitempty"`
	CreatedBy      string     `json:"created_by,omitempty"`
}

// ScheduleTest handles POST /api/schedule
func (h *ScheduleHandler) ScheduleTest(w http.ResponseWriter, r *http.Request) {
	var req ScheduleTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sample := h.tracker.GetSample(req.SampleID)
	if sample == nil {
		http.Error(w, "Sample not found", http.StatusNotFound)
		return
	}
	protocol, ok := h.library.GetProtocol(req.ProtocolID)
	if !ok {
		http.Error(w, "Protocol not found", http.StatusNotFound)
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

	schedule, conflicts := h.scheduler.ScheduleTest(*sample, protocol, priority, req.RequestedStart, req.CreatedBy)
	h.metrics.SchedulesCreated.Inc()
	for _, c := range conflicts {
		h.metrics.ConflictsDetected.WithLabelValues(c.ConflictType).Inc()
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"schedule":  schedule,
		"conflicts": conflicts,
	})
}

// ListSchedules handles GET /api/schedule with optional status, priority
// and from/to filters
func (h *ScheduleHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	var schedules []models.TestSchedule

	switch {
	case r.URL.Query().Get("status") != "":
		schedules = h.scheduler.GetSchedulesByStatus(models.TestStatus(r.URL.Query().Get("status")))
	case r.URL.Query().Get("priority") != "":
		schedules = h.scheduler.GetSchedulesByPriority(models.Priority(r.URL.Query().Get("priority")))
	case r.URL.Query().Get("from") != "" && r.URL.Query().Get("to") != "":
		from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
		if err != nil {
			http.Error(w, "Invalid from timestamp", http.StatusBadRequest)
			return
		}
		to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
		if err != nil {
			http.Error(w, "Invalid to timestamp", http.StatusBadRequest)
			return
		}
		schedules = h.scheduler.GetSchedulesByDateRange(from, to)
	default:
		schedules = h.scheduler.GetAllSchedules()
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"schedules": schedules,
		"count":     len(schedules),
	})
}

// GetSchedule handles GET /api/schedule/{id}
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, ok := h.scheduler.GetSchedule(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, "Schedule not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, schedule)
}

// RescheduleRequest represents a reschedule request
type RescheduleRequest struct {
	NewStart time.Time `json:"new_start"`
	Reason   string    `json:"reason,omitempty"`
}

// Reschedule handles POST /api/schedule/{id}/reschedule
func (h *ScheduleHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	var req RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	scheduleID := mux.Vars(r)["id"]
	moved, conflicts := h.scheduler.Reschedule(scheduleID, req.NewStart, req.Reason)
	if !moved && conflicts == nil {
		http.Error(w, "Schedule not found or not in Scheduled status", http.StatusNotFound)
		return
	}

	status := http.StatusOK
	if !moved {
		status = http.StatusConflict
		for _, c := range conflicts {
			h.metrics.ConflictsDetected.WithLabelValues(c.ConflictType).Inc()
		}
	}
	respondJSON(w, status, map[string]interface{}{
		"schedule_id": scheduleID,
		"moved":       moved,
		"conflicts":   conflicts,
	})
}

// CancelRequest represents a cancellation request
type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

// CancelSchedule handles POST /api/schedule/{id}/cancel
func (h *ScheduleHandler) CancelSchedule(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	scheduleID := mux.Vars(r)["id"]
	if !h.scheduler.CancelSchedule(scheduleID, req.Reason) {
		http.Error(w, "Schedule not found or not in Scheduled status", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"schedule_id": scheduleID,
		"status":      models.TestCancelled,
	})
}

// StartTest handles POST /api/schedule/{id}/start
func (h *ScheduleHandler) StartTest(w http.ResponseWriter, r *http.Request) {
	scheduleID := mux.Vars(r)["id"]
	if !h.scheduler.StartTest(scheduleID) {
		http.Error(w, "Schedule not found or not in Scheduled status", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"schedule_id": scheduleID,
		"status":      models.TestInProgress,
	})
}

// CompleteTest handles POST /api/schedule/{id}/complete
func (h *ScheduleHandler) CompleteTest(w http.ResponseWriter, r *http.Request) {
	scheduleID := mux.Vars(r)["id"]
	if !h.scheduler.CompleteTest(scheduleID) {
		http.Error(w, "Schedule not found or not in In Progress status", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"schedule_id": scheduleID,
		"status":      models.TestCompleted,
	})
}

// AutoResolve handles POST /api/schedule/{id}/auto-resolve
func (h *ScheduleHandler) AutoResolve(w http.ResponseWriter, r *http.Request) {
	scheduleID := mux.Vars(r)["id"]
	resolved, reason := h.scheduler.AutoResolveConflicts(scheduleID)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"schedule_id": scheduleID,
		"resolved":    resolved,
		"reason":      reason,
	})
}

// GetQueueStatus handles GET /api/schedule/queue/status
func (h *ScheduleHandler) GetQueueStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.scheduler.GetQueueStatus())
}

// GetOverdueTests handles GET /api/schedule/overdue
func (h *ScheduleHandler) GetOverdueTests(w http.ResponseWriter, r *http.Request) {
	overdue := h.scheduler.GetOverdueTests()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"overdue": overdue,
		"count":   len(overdue),
	})
}
