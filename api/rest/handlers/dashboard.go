package handlers

import (
	"net/http"

	"lab-orchestrator/core/analytics"
	"lab-orchestrator/core/custody"
	"lab-orchestrator/core/equipment"
	"lab-orchestrator/core/execution"
	"lab-orchestrator/core/scheduler"
)

// DashboardHandler aggregates statistics across all components
type DashboardHandler struct {
	tracker   *custody.Tracker
	scheduler *scheduler.Scheduler
	executor  *execution.Executor
	engine    *analytics.Engine
	registry  *equipment.Registry
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(tracker *custody.Tracker, sched *scheduler.Scheduler,
	executor *execution.Executor, engine *analytics.Engine, registry *equipment.Registry) *DashboardHandler {
	return &DashboardHandler{
		tracker:   tracker,
		scheduler: sched,
		executor:  executor,
		engine:    engine,
		registry:  registry,
	}
}

// GetStatistics handles GET /api/dashboard/statistics
func (h *DashboardHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"samples":    h.tracker.GetStatistics(),
		"scheduling": h.scheduler.GetStatistics(),
		"execution":  h.executor.GetStatistics(),
		"analytics":  h.engine.GetStatistics(),
		"equipment":  h.registry.GetStatistics(),
		"queue":      h.scheduler.GetQueueStatus(),
	})
}
