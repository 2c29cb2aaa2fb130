package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"lab-orchestrator/api/rest/routes"
	"lab-orchestrator/config"
	"lab-orchestrator/core/analytics"
	"lab-orchestrator/core/catalog"
	"lab-orchestrator/core/custody"
	"lab-orchestrator/core/equipment"
	"lab-orchestrator/core/execution"
	"lab-orchestrator/core/monitoring"
	"lab-orchestrator/core/scheduler"
	"lab-orchestrator/core/spec"

	"github.com/gorilla/mux"
)

func main() {
	cfg := config.Load()

	// Initialize core components
	tracker := custody.NewTracker(nil)
	library := catalog.NewLibrary()
	sched := scheduler.NewScheduler()
	executor := execution.NewExecutor()
	engine := analytics.NewEngine()
	registry := equipment.NewRegistry()
	metrics := monitoring.NewMetrics()

	// Load extra protocol definitions if configured
	if cfg.ProtocolFile != "" {
		content, err := os.ReadFile(cfg.ProtocolFile)
		if err != nil {
			log.Fatalf("Failed to read protocol file: %v", err)
		}
		protocols, err := spec.ParseProtocolFile(content)
		if err != nil {
			log.Fatalf("Failed to parse protocol file: %v", err)
		}
		for _, p := range protocols {
			if !library.AddProtocol(p) {
				log.Printf("Skipping duplicate protocol %s", p.ID)
			}
		}
		log.Printf("Loaded %d protocol definitions from %s", len(protocols), cfg.ProtocolFile)
	}

	calibrationDays, err := strconv.Atoi(cfg.CalibrationAlertDays)
	if err != nil || calibrationDays < 0 {
		log.Fatalf("Invalid CALIBRATION_ALERT_DAYS: %s", cfg.CalibrationAlertDays)
	}

	// Setup routes
	r := mux.NewRouter()
	routes.SetupRoutes(r, routes.Components{
		Tracker:              tracker,
		Library:              library,
		Scheduler:            sched,
		Executor:             executor,
		Engine:               engine,
		Registry:             registry,
		Metrics:              metrics,
		CalibrationAlertDays: calibrationDays,
	})

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Metrics endpoint
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	// Start server
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Starting server on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := server.Shutdown(context.Background()); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
