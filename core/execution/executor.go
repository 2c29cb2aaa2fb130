package execution

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"lab-orchestrator/core/models"

	"github.com/google/uuid"
)

// Attachment is an image or video captured during execution
type Attachment struct {
	Path        string    `json:"path"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// ActiveTest is the mutable digital test sheet for a test in progress.
// It accumulates measurements and attachments until the execution is
// completed and frozen into a TestResult.
type ActiveTest struct {
	ResultID     string                 `json:"result_id"`
	ScheduleID   string                 `json:"schedule_id"`
	SampleID     string                 `json:"sample_id"`
	ProtocolID   string                 `json:"protocol_id"`
	PerformedBy  string                 `json:"performed_by"`
	StartedAt    time.Time              `json:"started_at"`
	CurrentStep  int                    `json:"current_step"`
	TotalSteps   int                    `json:"total_steps"`
	Measurements []models.Measurement   `json:"measurements"`
	Images       []Attachment           `json:"images"`
	Videos       []Attachment           `json:"videos"`
	Notes        string                 `json:"notes"`
	PartialData  map[string]interface{} `json:"partial_data"`
}

// ValidationResult is the outcome of checking one measurement against a
// protocol's acceptance criteria
type ValidationResult struct {
	Valid      bool     `json:"valid"`
	WithinSpec bool     `json:"within_spec"`
	Warnings   []string `json:"warnings"`
	Errors     []string `json:"errors"`
}

// Executor manages digital test sheets: it tracks tests in progress,
// validates measurements in real time, and freezes completed executions
// into immutable results.
type Executor struct {
	mu      sync.RWMutex
	results map[string]*models.TestResult
	active  map[string]*ActiveTest
	nowFunc func() time.Time
}

// NewExecutor creates a new test executor
func NewExecutor() *Executor {
	return &Executor{
		results: make(map[string]*models.TestResult),
		active:  make(map[string]*ActiveTest),
		nowFunc: time.Now,
	}
}

// StartExecution opens a test sheet for the schedule and returns its
// result id
func (e *Executor) StartExecution(schedule models.TestSchedule, protocol models.TestProtocol, performedBy string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	resultID := "RESULT_" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])

	e.active[resultID] = &ActiveTest{
		ResultID:     resultID,
		ScheduleID:   schedule.ID,
		SampleID:     schedule.SampleID,
		ProtocolID:   protocol.ID,
		PerformedBy:  performedBy,
		StartedAt:    e.nowFunc(),
		TotalSteps:   len(protocol.Steps),
		Measurements: []models.Measurement{},
		Images:       []Attachment{},
		Videos:       []Attachment{},
		PartialData:  make(map[string]interface{}),
	}

	return resultID
}

// RecordMeasurement appends a reading to the active test sheet
func (e *Executor) RecordMeasurement(resultID, name string, value float64, unit string, timestamp *time.Time, notes string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	test, ok := e.active[resultID]
	if !ok {
		return false
	}

	ts := e.nowFunc()
	if timestamp != nil {
		ts = *timestamp
	}
	test.Measurements = append(test.Measurements, models.Measurement{
		Name:      name,
		Value:     value,
		Unit:      unit,
		Timestamp: ts,
		Notes:     notes,
	})
	return true
}

// AddImage attaches an image to the active test sheet
func (e *Executor) AddImage(resultID, path, description string) bool {
	return e.attach(resultID, path, description, false)
}

// AddVideo attaches a video to the active test sheet
func (e *Executor) AddVideo(resultID, path, description string) bool {
	return e.attach(resultID, path, description, true)
}

func (e *Executor) attach(resultID, path, description string, video bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	test, ok := e.active[resultID]
	if !ok {
		return false
	}
	att := Attachment{Path: path, Description: description, Timestamp: e.nowFunc()}
	if video {
		test.Videos = append(test.Videos, att)
	} else {
		test.Images = append(test.Images, att)
	}
	return true
}

// UpdateStep advances the active test sheet to the given step number
func (e *Executor) UpdateStep(resultID string, step int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	test, ok := e.active[resultID]
	if !ok {
		return false
	}
	test.CurrentStep = step
	return true
}

// SavePartialData merges resumable scratch data into the active test sheet
func (e *Executor) SavePartialData(resultID string, data map[string]interface{}) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	test, ok := e.active[resultID]
	if !ok {
		return false
	}
	for k, v := range data {
		test.PartialData[k] = v
	}
	return true
}

// ValidateMeasurement checks a value against the protocol's acceptance
// criteria for that measurement name. Range and threshold violations are
// errors; tolerance deviations and missing criteria only warn.
func ValidateMeasurement(name string, value float64, protocol models.TestProtocol) ValidationResult {
	result := ValidationResult{
		Valid:      true,
		WithinSpec: true,
		Warnings:   []string{},
		Errors:     []string{},
	}

	criteria, ok := protocol.AcceptanceCriteria[name]
	if !ok {
		result.Warnings = append(result.Warnings, "No acceptance criteria defined for "+name)
		return result
	}

	if criteria.Min != nil && value < *criteria.Min {
		result.Valid = false
		result.WithinSpec = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("%s = %g is below minimum %g", name, value, *criteria.Min))
	}
	if criteria.Max != nil && value > *criteria.Max {
		result.Valid = false
		result.WithinSpec = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("%s = %g exceeds maximum %g", name, value, *criteria.Max))
	}

	if criteria.IsTolerance() && *criteria.Nominal != 0 {
		deviation := math.Abs(value-*criteria.Nominal) / *criteria.Nominal * 100
		if deviation > *criteria.TolerancePct {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s deviates %.1f%% from nominal (tolerance: %g%%)",
					name, deviation, *criteria.TolerancePct))
		}
	}

	if criteria.IsThreshold() && value < *criteria.Threshold {
		result.Valid = false
		result.WithinSpec = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("%s = %g is below threshold %g", name, value, *criteria.Threshold))
	}

	return result
}

// detectAnomalies flags readings further than three standard deviations
// from the per-name mean. Groups with fewer than two readings are skipped.
func detectAnomalies(measurements []models.Measurement) []string {
	names := make([]string, 0)
	groups := make(map[string][]float64)
	for _, m := range measurements {
		if _, seen := groups[m.Name]; !seen {
			names = append(names, m.Name)
		}
		groups[m.Name] = append(groups[m.Name], m.Value)
	}

	var anomalies []string
	for _, name := range names {
		values := groups[name]
		if len(values) < 2 {
			continue
		}

		sum := 0.0
		for _, v := range values {
			sum += v
		}
		avg := sum / float64(len(values))
		variance := 0.0
		for _, v := range values {
			variance += (v - avg) * (v - avg)
		}
		stdDev := math.Sqrt(variance / float64(len(values)))

		for i, v := range values {
			if math.Abs(v-avg) > 3*stdDev {
				anomalies = append(anomalies, fmt.Sprintf(
					"Anomaly detected in %s measurement #%d: value %g deviates significantly from average %.2f",
					name, i+1, v, avg))
			}
		}
	}

	return anomalies
}

// CompleteExecution validates all recorded measurements, runs anomaly
// detection, assigns the verdict, and freezes the test sheet into a result
func (e *Executor) CompleteExecution(resultID string, protocol models.TestProtocol, notes string) (models.TestResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	test, ok := e.active[resultID]
	if !ok {
		return models.TestResult{}, fmt.Errorf("test result %s not found in active tests", resultID)
	}

	validationErrors := []string{}
	for _, m := range test.Measurements {
		validation := ValidateMeasurement(m.Name, m.Value, protocol)
		if !validation.Valid {
			validationErrors = append(validationErrors, validation.Errors...)
		}
	}

	anomalies := detectAnomalies(test.Measurements)
	if anomalies == nil {
		anomalies = []string{}
	}

	passFail := models.VerdictPass
	switch {
	case len(validationErrors) > 0:
		passFail = models.VerdictFail
	case len(anomalies) > 0:
		passFail = models.VerdictPassWithAnomalies
	}

	images := make([]string, 0, len(test.Images))
	for _, img := range test.Images {
		images = append(images, img.Path)
	}
	videos := make([]string, 0, len(test.Videos))
	for _, vid := range test.Videos {
		videos = append(videos, vid.Path)
	}

	result := &models.TestResult{
		ID:                resultID,
		ScheduleID:        test.ScheduleID,
		SampleID:          test.SampleID,
		ProtocolID:        test.ProtocolID,
		TestData:          test.PartialData,
		Measurements:      test.Measurements,
		Images:            images,
		Videos:            videos,
		PassFail:          passFail,
		AnomaliesDetected: anomalies,
		ValidationErrors:  validationErrors,
		PerformedBy:       test.PerformedBy,
		PerformedDate:     test.StartedAt,
		Notes:             notes,
	}

	e.results[resultID] = result
	delete(e.active, resultID)

	return *result, nil
}

// GetActiveTest returns a copy of an in-progress test sheet
func (e *Executor) GetActiveTest(resultID string) (ActiveTest, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	test, ok := e.active[resultID]
	if !ok {
		return ActiveTest{}, false
	}
	return *test, true
}

// GetResult returns a completed test result
func (e *Executor) GetResult(resultID string) (models.TestResult, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result, ok := e.results[resultID]
	if !ok {
		return models.TestResult{}, false
	}
	return *result, true
}

// GetAllResults returns all completed results sorted by performed date
func (e *Executor) GetAllResults() []models.TestResult {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]models.TestResult, 0, len(e.results))
	for _, r := range e.results {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PerformedDate.Before(out[j].PerformedDate) })
	return out
}

// GetResultsBySample returns all results for a sample
func (e *Executor) GetResultsBySample(sampleID string) []models.TestResult {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []models.TestResult
	for _, r := range e.results {
		if r.SampleID == sampleID {
			out = append(out, *r)
		}
	}
	return out
}

// GetResultsByProtocol returns all results for a protocol
func (e *Executor) GetResultsByProtocol(protocolID string) []models.TestResult {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []models.TestResult
	for _, r := range e.results {
		if r.ProtocolID == protocolID {
			out = append(out, *r)
		}
	}
	return out
}

// PassFailStatistics aggregates verdicts across all completed results
type PassFailStatistics struct {
	Total             int     `json:"total"`
	Passed            int     `json:"passed"`
	Failed            int     `json:"failed"`
	PassWithAnomalies int     `json:"pass_with_anomalies"`
	PassRate          float64 `json:"pass_rate"`
}

// GetPassFailStatistics returns the verdict breakdown. Pass rate counts
// PASS_WITH_ANOMALIES as passing.
func (e *Executor) GetPassFailStatistics() PassFailStatistics {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.passFailStats()
}

func (e *Executor) passFailStats() PassFailStatistics {
	stats := PassFailStatistics{Total: len(e.results)}
	if stats.Total == 0 {
		return stats
	}
	for _, r := range e.results {
		switch r.PassFail {
		case models.VerdictPass:
			stats.Passed++
		case models.VerdictFail:
			stats.Failed++
		case models.VerdictPassWithAnomalies:
			stats.PassWithAnomalies++
		}
	}
	stats.PassRate = float64(stats.Passed+stats.PassWithAnomalies) / float64(stats.Total) * 100
	return stats
}

// ReviewResult records a reviewer's decision on a completed result
func (e *Executor) ReviewResult(resultID, reviewedBy, approvalStatus, comments string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, ok := e.results[resultID]
	if !ok {
		return false
	}
	now := e.nowFunc()
	result.ReviewedBy = reviewedBy
	result.ReviewedDate = &now
	result.Notes += fmt.Sprintf("\n\nReview by %s (%s): %s", reviewedBy, approvalStatus, comments)
	return true
}

// Statistics summarizes executor state
type Statistics struct {
	TotalResults      int                `json:"total_results"`
	ActiveTests       int                `json:"active_tests"`
	PassFail          PassFailStatistics `json:"pass_fail"`
	TotalMeasurements int                `json:"total_measurements"`
	TotalAnomalies    int                `json:"total_anomalies"`
}

// GetStatistics returns execution statistics
func (e *Executor) GetStatistics() Statistics {
	e.mu.RLock()
	defer e.mu.RUnlock()

	stats := Statistics{
		TotalResults: len(e.results),
		ActiveTests:  len(e.active),
		PassFail:     e.passFailStats(),
	}
	for _, r := range e.results {
		stats.TotalMeasurements += len(r.Measurements)
		stats.TotalAnomalies += len(r.AnomaliesDetected)
	}
	return stats
}
