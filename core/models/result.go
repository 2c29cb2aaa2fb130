package models

import "time"

// Verdict values for a completed test
const (
	VerdictPass              = "PASS"
	VerdictFail              = "FAIL"
	VerdictPassWithAnomalies = "PASS_WITH_ANOMALIES"
)

// Measurement is a single named reading recorded during test execution
type Measurement struct {
	Name      string    `json:"name"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes,omitempty"`
}

// TestResult is the immutable outcome of one test execution
type TestResult struct {
	ID                string                 `json:"result_id"`
	ScheduleID        string                 `json:"schedule_id"`
	SampleID          string                 `json:"sample_id"`
	ProtocolID        string                 `json:"protocol_id"`
	TestData          map[string]interface{} `json:"test_data,omitempty"`
	Measurements      []Measurement          `json:"measurements"`
	Images            []string               `json:"images,omitempty"`
	Videos            []string               `json:"videos,omitempty"`
	PassFail          string                 `json:"pass_fail"`
	AnomaliesDetected []string               `json:"anomalies_detected"`
	ValidationErrors  []string               `json:"validation_errors"`
	PerformedBy       string                 `json:"performed_by"`
	PerformedDate     time.Time              `json:"performed_date"`
	ReviewedBy        string                 `json:"reviewed_by,omitempty"`
	ReviewedDate      *time.Time             `json:"reviewed_date,omitempty"`
	Notes             string                 `json:"notes,omitempty"`
}
