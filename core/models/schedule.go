package models

import "time"

// TestSchedule is a time-boxed, resource-assigned booking of one test
type TestSchedule struct {
	ID                string     `json:"schedule_id"`
	SampleID          string     `json:"sample_id"`
	ProtocolID        string     `json:"protocol_id"`
	ScheduledStart    time.Time  `json:"scheduled_start"`
	ScheduledEnd      time.Time  `json:"scheduled_end"`
	AssignedEquipment []string   `json:"assigned_equipment"`
	AssignedStaff     []string   `json:"assigned_staff"`
	Priority          Priority   `json:"priority"`
	Status            TestStatus `json:"status"`
	ActualStart       *time.Time `json:"actual_start,omitempty"`
	ActualEnd         *time.Time `json:"actual_end,omitempty"`
	EstimatedTAT      int        `json:"estimated_tat"` // hours
	PredictedTAT      *float64   `json:"predicted_tat,omitempty"`
	CreatedDate       time.Time  `json:"created_date"`
	CreatedBy         string     `json:"created_by"`
	Notes             string     `json:"notes"`
}

// TestStatus represents the execution status of a scheduled test
type TestStatus string

const (
	TestScheduled  TestStatus = "Scheduled"
	TestInProgress TestStatus = "In Progress"
	TestPaused     TestStatus = "Paused"
	TestCompleted  TestStatus = "Completed"
	TestFailed     TestStatus = "Failed"
	TestCancelled  TestStatus = "Cancelled"
)

// Priority represents test priority levels
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// ValidPriority reports whether p is a known priority value
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}
