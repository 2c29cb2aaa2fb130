package models

import "time"

// Sample represents a physical test sample registered with the lab
type Sample struct {
	ID                string                 `json:"sample_id"`
	Name              string                 `json:"sample_name"`
	SampleType        string                 `json:"sample_type"` // Module, Cell, String, etc.
	Manufacturer      string                 `json:"manufacturer"`
	Model             string                 `json:"model"`
	BatchNumber       string                 `json:"batch_number"`
	SerialNumber      string                 `json:"serial_number"`
	Quantity          int                    `json:"quantity"`
	Status            SampleStatus           `json:"status"`
	QRCode            string                 `json:"qr_code,omitempty"`
	Barcode           string                 `json:"barcode,omitempty"`
	RegisteredDate    time.Time              `json:"registered_date"`
	RegisteredBy      string                 `json:"registered_by"`
	CurrentLocation   string                 `json:"current_location"`
	Customer          string                 `json:"customer"`
	ProjectID         string                 `json:"project_id"`
	ExpiryDate        *time.Time             `json:"expiry_date,omitempty"`
	StorageConditions map[string]interface{} `json:"storage_conditions,omitempty"`
	Photos            []string               `json:"photos,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
}

// SampleStatus represents where a sample sits in the lab workflow
type SampleStatus string

const (
	SampleRegistered SampleStatus = "Registered"
	SampleInQueue    SampleStatus = "In Queue"
	SampleInTesting  SampleStatus = "In Testing"
	SampleOnHold     SampleStatus = "On Hold"
	SampleCompleted  SampleStatus = "Completed"
	SampleFailed     SampleStatus = "Failed"
	SampleArchived   SampleStatus = "Archived"
)

// ValidSampleStatus reports whether s is a known sample status value
func ValidSampleStatus(s SampleStatus) bool {
	switch s {
	case SampleRegistered, SampleInQueue, SampleInTesting, SampleOnHold,
		SampleCompleted, SampleFailed, SampleArchived:
		return true
	}
	return false
}
