package routes

import (
	"net/http"

	"lab-orchestrator/api/rest/handlers"
	"lab-orchestrator/core/analytics"
	"lab-orchestrator/core/catalog"
	"lab-orchestrator/core/custody"
	"lab-orchestrator/core/equipment"
	"lab-orchestrator/core/execution"
	"lab-orchestrator/core/monitoring"
	"lab-orchestrator/core/scheduler"

	"github.com/gorilla/mux"
)

// Components bundles the service singletons the routes depend on
type Components struct {
	Tracker              *custody.Tracker
	Library              *catalog.Library
	Scheduler            *scheduler.Scheduler
	Executor             *execution.Executor
	Engine               *analytics.Engine
	Registry             *equipment.Registry
	Metrics              *monitoring.Metrics
	CalibrationAlertDays int
}

// SetupRoutes configures all API routes
func SetupRoutes(r *mux.Router, c Components) {
	sampleHandler := handlers.NewSampleHandler(c.Tracker, c.Metrics)
	protocolHandler := handlers.NewProtocolHandler(c.Library)
	scheduleHandler := handlers.NewScheduleHandler(c.Scheduler, c.Tracker, c.Library, c.Metrics)
	executionHandler := handlers.NewExecutionHandler(c.Executor, c.Scheduler, c.Library, c.Metrics)
	analyticsHandler := handlers.NewAnalyticsHandler(c.Engine, c.Scheduler, c.Registry, c.Metrics)
	equipmentHandler := handlers.NewEquipmentHandler(c.Registry, c.CalibrationAlertDays)
	dashboardHandler := handlers.NewDashboardHandler(c.Tracker, c.Scheduler, c.Executor, c.Engine, c.Registry)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(requestCounter(c.Metrics))

	// Sample endpoints
	api.HandleFunc("/samples", sampleHandler.RegisterSample).Methods("POST")
	api.HandleFunc("/samples", sampleHandler.ListSamples).Methods("GET")
	api.HandleFunc("/samples/{id}", sampleHandler.GetSample).Methods("GET")
	api.HandleFunc("/samples/{id}/move", sampleHandler.MoveSample).Methods("POST")
	api.HandleFunc("/samples/{id}/status", sampleHandler.UpdateSampleStatus).Methods("POST")
	api.HandleFunc("/samples/{id}/photos", sampleHandler.AddPhotos).Methods("POST")
	api.HandleFunc("/samples/{id}/chain-of-custody", sampleHandler.GetChainOfCustody).Methods("GET")
	api.HandleFunc("/samples/{id}/history", sampleHandler.GetSampleHistory).Methods("GET")

	// Protocol endpoints
	api.HandleFunc("/protocols", protocolHandler.ListProtocols).Methods("GET")
	api.HandleFunc("/protocols/standard/{standard}", protocolHandler.GetProtocolsByStandard).Methods("GET")
	api.HandleFunc("/protocols/{id}", protocolHandler.GetProtocol).Methods("GET")

	// Scheduling endpoints
	api.HandleFunc("/schedule", scheduleHandler.ScheduleTest).Methods("POST")
	api.HandleFunc("/schedule", scheduleHandler.ListSchedules).Methods("GET")
	api.HandleFunc("/schedule/queue/status", scheduleHandler.GetQueueStatus).Methods("GET")
	api.HandleFunc("/schedule/overdue", scheduleHandler.GetOverdueTests).Methods("GET")
	api.HandleFunc("/schedule/{id}", scheduleHandler.GetSchedule).Methods("GET")
	api.HandleFunc("/schedule/{id}/start", scheduleHandler.StartTest).Methods("POST")
	api.HandleFunc("/schedule/{id}/complete", scheduleHandler.CompleteTest).Methods("POST")
	api.HandleFunc("/schedule/{id}/cancel", scheduleHandler.CancelSchedule).Methods("POST")
	api.HandleFunc("/schedule/{id}/reschedule", scheduleHandler.Reschedule).Methods("POST")
	api.HandleFunc("/schedule/{id}/auto-resolve", scheduleHandler.AutoResolve).Methods("POST")

	// Execution endpoints
	api.HandleFunc("/execution", executionHandler.ListResults).Methods("GET")
	api.HandleFunc("/execution/start/{schedule_id}", executionHandler.StartExecution).Methods("POST")
	api.HandleFunc("/execution/{result_id}", executionHandler.GetExecution).Methods("GET")
	api.HandleFunc("/execution/{result_id}/measurement", executionHandler.RecordMeasurement).Methods("POST")
	api.HandleFunc("/execution/{result_id}/step", executionHandler.UpdateStep).Methods("POST")
	api.HandleFunc("/execution/{result_id}/image", executionHandler.AddImage).Methods("POST")
	api.HandleFunc("/execution/{result_id}/video", executionHandler.AddVideo).Methods("POST")
	api.HandleFunc("/execution/{result_id}/partial-data", executionHandler.SavePartialData).Methods("POST")
	api.HandleFunc("/execution/{result_id}/complete", executionHandler.CompleteExecution).Methods("POST")
	api.HandleFunc("/execution/{result_id}/review", executionHandler.ReviewResult).Methods("POST")

	// Analytics endpoints
	api.HandleFunc("/ai/predict-tat", analyticsHandler.PredictTAT).Methods("POST")
	api.HandleFunc("/ai/detect-anomalies", analyticsHandler.DetectAnomalies).Methods("POST")
	api.HandleFunc("/ai/analyze-iv-curve", analyticsHandler.AnalyzeIVCurve).Methods("POST")
	api.HandleFunc("/ai/import-curve", analyticsHandler.ImportCurve).Methods("POST")

	// Equipment endpoints
	api.HandleFunc("/equipment", equipmentHandler.ListEquipment).Methods("GET")
	api.HandleFunc("/equipment/calibration-alerts", equipmentHandler.GetCalibrationAlerts).Methods("GET")
	api.HandleFunc("/equipment/{id}", equipmentHandler.GetEquipment).Methods("GET")
	api.HandleFunc("/equipment/{id}/status", equipmentHandler.UpdateEquipmentStatus).Methods("POST")
	api.HandleFunc("/equipment/{id}/usage", equipmentHandler.LogUsage).Methods("POST")

	// Dashboard endpoints
	api.HandleFunc("/dashboard/statistics", dashboardHandler.GetStatistics).Methods("GET")
}

// requestCounter counts requests per method and route template
func requestCounter(m *monitoring.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if tmpl, err := route.GetPathTemplate(); err == nil {
					path = tmpl
				}
			}
			m.HTTPRequests.WithLabelValues(r.Method, path).Inc()
			next.ServeHTTP(w, r)
		})
	}
}
