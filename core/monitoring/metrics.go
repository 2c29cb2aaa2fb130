package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus instruments. One instance is
// created at startup and threaded through the HTTP handlers.
type Metrics struct {
	registry *prometheus.Registry

	SamplesRegistered  prometheus.Counter
	CustodyRecords     prometheus.Counter
	ChainVerifications *prometheus.CounterVec
	SchedulesCreated   prometheus.Counter
	ConflictsDetected  *prometheus.CounterVec
	TestsCompleted     *prometheus.CounterVec
	PredictionsServed  prometheus.Counter
	CurvesAnalyzed     prometheus.Counter
	HTTPRequests       *prometheus.CounterVec
}

// NewMetrics creates and registers the service metrics on a fresh registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		SamplesRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "lab_samples_registered_total",
			Help: "Number of samples registered",
		}),
		CustodyRecords: factory.NewCounter(prometheus.CounterOpts{
			Name: "lab_custody_records_total",
			Help: "Number of chain-of-custody records appended",
		}),
		ChainVerifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lab_chain_verifications_total",
			Help: "Chain integrity verifications by outcome",
		}, []string{"outcome"}),
		SchedulesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "lab_schedules_created_total",
			Help: "Number of test schedules created",
		}),
		ConflictsDetected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lab_resource_conflicts_total",
			Help: "Resource conflicts detected by type",
		}, []string{"type"}),
		TestsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lab_tests_completed_total",
			Help: "Completed test executions by verdict",
		}, []string{"verdict"}),
		PredictionsServed: factory.NewCounter(prometheus.CounterOpts{
			Name: "lab_tat_predictions_total",
			Help: "TAT predictions served",
		}),
		CurvesAnalyzed: factory.NewCounter(prometheus.CounterOpts{
			Name: "lab_iv_curves_analyzed_total",
			Help: "IV curves analyzed",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lab_http_requests_total",
			Help: "HTTP requests by method and path",
		}, []string{"method", "path"}),
	}
}

// Handler returns the /metrics endpoint handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
