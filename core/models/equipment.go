package models

import "time"

// Equipment represents a lab instrument or test rig
type Equipment struct {
	ID                    string                 `json:"equipment_id"`
	Name                  string                 `json:"name"`
	Model                 string                 `json:"model"`
	Manufacturer          string                 `json:"manufacturer"`
	SerialNumber          string                 `json:"serial_number"`
	EquipmentType         string                 `json:"equipment_type"` // Solar Simulator, IV Tracer, etc.
	Status                EquipmentStatus        `json:"status"`
	Location              string                 `json:"location"`
	CalibrationDueDate    time.Time              `json:"calibration_due_date"`
	LastCalibrationDate   time.Time              `json:"last_calibration_date"`
	CalibrationFrequency  int                    `json:"calibration_frequency_days"`
	UsageHours            float64                `json:"usage_hours"`
	PerformanceMetrics    map[string]interface{} `json:"performance_metrics,omitempty"`
	Metadata              map[string]interface{} `json:"metadata,omitempty"`
}

// EquipmentStatus represents equipment availability
type EquipmentStatus string

const (
	EquipmentAvailable      EquipmentStatus = "Available"
	EquipmentInUse          EquipmentStatus = "In Use"
	EquipmentMaintenance    EquipmentStatus = "Maintenance"
	EquipmentCalibrationDue EquipmentStatus = "Calibration Due"
	EquipmentOutOfService   EquipmentStatus = "Out of Service"
)

// ValidEquipmentStatus reports whether s is a known equipment status value
func ValidEquipmentStatus(s EquipmentStatus) bool {
	switch s {
	case EquipmentAvailable, EquipmentInUse, EquipmentMaintenance,
		EquipmentCalibrationDue, EquipmentOutOfService:
		return true
	}
	return false
}
