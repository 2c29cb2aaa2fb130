package equipment

import (
	"sort"
	"strings"
	"sync"
	"time"

	"lab-orchestrator/core/models"

	"github.com/google/uuid"
)

// UsageLog records one session of equipment use
type UsageLog struct {
	LogID         string    `json:"log_id"`
	EquipmentID   string    `json:"equipment_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	DurationHours float64   `json:"duration_hours"`
	UsedBy        string    `json:"used_by"`
	Purpose       string    `json:"purpose,omitempty"`
	Notes         string    `json:"notes,omitempty"`
}

// MaintenanceRecord tracks one scheduled or completed maintenance event
type MaintenanceRecord struct {
	MaintenanceID  string     `json:"maintenance_id"`
	EquipmentID    string     `json:"equipment_id"`
	Type           string     `json:"type"` // Preventive, Corrective, Calibration
	ScheduledDate  time.Time  `json:"scheduled_date"`
	Description    string     `json:"description,omitempty"`
	EstimatedHours float64    `json:"estimated_duration_hours"`
	Status         string     `json:"status"`
	PerformedBy    string     `json:"performed_by,omitempty"`
	ActualEnd      *time.Time `json:"actual_end,omitempty"`
	Findings       string     `json:"findings,omitempty"`
	ActionsTaken   string     `json:"actions_taken,omitempty"`
}

// CalibrationAlert flags equipment whose calibration is due or overdue
type CalibrationAlert struct {
	EquipmentID        string    `json:"equipment_id"`
	EquipmentName      string    `json:"equipment_name"`
	CalibrationDueDate time.Time `json:"calibration_due_date"`
	DaysUntilDue       int       `json:"days_until_due"`
	Status             string    `json:"status"` // OVERDUE or DUE_SOON
	LastCalibration    time.Time `json:"last_calibration"`
}

// Registry tracks the lab's instruments, their calibration state, and
// their usage and maintenance history
type Registry struct {
	mu          sync.RWMutex
	equipment   map[string]*models.Equipment
	usageLogs   map[string][]UsageLog
	maintenance map[string][]MaintenanceRecord
	nowFunc     func() time.Time
}

// NewRegistry creates a registry seeded with the standard PV test rigs
func NewRegistry() *Registry {
	r := &Registry{
		equipment:   make(map[string]*models.Equipment),
		usageLogs:   make(map[string][]UsageLog),
		maintenance: make(map[string][]MaintenanceRecord),
		nowFunc:     time.Now,
	}
	r.seedStandardEquipment()
	return r
}

// AddEquipment registers a new instrument and returns its id
func (r *Registry) AddEquipment(eq models.Equipment) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.add(eq)
}

func (r *Registry) add(eq models.Equipment) string {
	stored := eq
	r.equipment[eq.ID] = &stored
	r.usageLogs[eq.ID] = []UsageLog{}
	r.maintenance[eq.ID] = []MaintenanceRecord{}
	return eq.ID
}

// GetEquipment returns one instrument by id
func (r *Registry) GetEquipment(id string) (models.Equipment, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	eq, ok := r.equipment[id]
	if !ok {
		return models.Equipment{}, false
	}
	return *eq, true
}

// GetAllEquipment returns all instruments sorted by id
func (r *Registry) GetAllEquipment() []models.Equipment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Equipment, 0, len(r.equipment))
	for _, eq := range r.equipment {
		out = append(out, *eq)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetEquipmentByStatus returns instruments in the given status
func (r *Registry) GetEquipmentByStatus(status models.EquipmentStatus) []models.Equipment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Equipment
	for _, eq := range r.equipment {
		if eq.Status == status {
			out = append(out, *eq)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetEquipmentByType returns instruments of the given type
func (r *Registry) GetEquipmentByType(equipmentType string) []models.Equipment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Equipment
	for _, eq := range r.equipment {
		if eq.EquipmentType == equipmentType {
			out = append(out, *eq)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UpdateStatus changes the status of one instrument
func (r *Registry) UpdateStatus(id string, status models.EquipmentStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	eq, ok := r.equipment[id]
	if !ok {
		return false
	}
	eq.Status = status
	return true
}

// AvailabilityRatio returns the fraction of instruments currently in the
// Available status. Feeds the TAT prediction's availability input.
func (r *Registry) AvailabilityRatio() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.equipment) == 0 {
		return 1.0
	}
	available := 0
	for _, eq := range r.equipment {
		if eq.Status == models.EquipmentAvailable {
			available++
		}
	}
	return float64(available) / float64(len(r.equipment))
}

// LogUsage records a usage session and accumulates the instrument's hours
func (r *Registry) LogUsage(id string, start, end time.Time, usedBy, purpose, notes string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	eq, ok := r.equipment[id]
	if !ok {
		return false
	}

	durationHours := end.Sub(start).Hours()
	r.usageLogs[id] = append(r.usageLogs[id], UsageLog{
		LogID:         "USAGE_" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8]),
		EquipmentID:   id,
		StartTime:     start,
		EndTime:       end,
		DurationHours: durationHours,
		UsedBy:        usedBy,
		Purpose:       purpose,
		Notes:         notes,
	})
	eq.UsageHours += durationHours
	return true
}

// GetUsageLogs returns the usage history of one instrument
func (r *Registry) GetUsageLogs(id string) ([]UsageLog, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	logs, ok := r.usageLogs[id]
	if !ok {
		return nil, false
	}
	out := make([]UsageLog, len(logs))
	copy(out, logs)
	return out, true
}

// ScheduleMaintenance books a maintenance event and returns its id
func (r *Registry) ScheduleMaintenance(id, maintenanceType string, scheduledDate time.Time,
	description string, estimatedHours float64) (string, bool) {

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.equipment[id]; !ok {
		return "", false
	}

	maintenanceID := "MAINT_" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	r.maintenance[id] = append(r.maintenance[id], MaintenanceRecord{
		MaintenanceID:  maintenanceID,
		EquipmentID:    id,
		Type:           maintenanceType,
		ScheduledDate:  scheduledDate,
		Description:    description,
		EstimatedHours: estimatedHours,
		Status:         "Scheduled",
	})
	return maintenanceID, true
}

// CompleteMaintenance closes a maintenance event. Completing a Calibration
// event advances the instrument's calibration dates.
func (r *Registry) CompleteMaintenance(id, maintenanceID, performedBy, findings, actionsTaken string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, ok := r.maintenance[id]
	if !ok {
		return false
	}

	for i := range records {
		if records[i].MaintenanceID != maintenanceID {
			continue
		}
		now := r.nowFunc()
		records[i].Status = "Completed"
		records[i].PerformedBy = performedBy
		records[i].ActualEnd = &now
		records[i].Findings = findings
		records[i].ActionsTaken = actionsTaken

		if records[i].Type == "Calibration" {
			eq := r.equipment[id]
			eq.LastCalibrationDate = now
			eq.CalibrationDueDate = now.AddDate(0, 0, eq.CalibrationFrequency)
		}
		return true
	}
	return false
}

// GetCalibrationAlerts returns instruments whose calibration falls due
// within the threshold, soonest first
func (r *Registry) GetCalibrationAlerts(daysThreshold int) []CalibrationAlert {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.nowFunc()
	thresholdDate := now.AddDate(0, 0, daysThreshold)

	alerts := []CalibrationAlert{}
	for _, eq := range r.equipment {
		if eq.CalibrationDueDate.After(thresholdDate) {
			continue
		}
		daysUntilDue := int(eq.CalibrationDueDate.Sub(now).Hours() / 24)
		status := "DUE_SOON"
		if daysUntilDue < 0 {
			status = "OVERDUE"
		}
		alerts = append(alerts, CalibrationAlert{
			EquipmentID:        eq.ID,
			EquipmentName:      eq.Name,
			CalibrationDueDate: eq.CalibrationDueDate,
			DaysUntilDue:       daysUntilDue,
			Status:             status,
			LastCalibration:    eq.LastCalibrationDate,
		})
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].DaysUntilDue < alerts[j].DaysUntilDue })
	return alerts
}

// Statistics summarizes registry state
type Statistics struct {
	TotalEquipment  int            `json:"total_equipment"`
	ByStatus        map[string]int `json:"by_status"`
	ByType          map[string]int `json:"by_type"`
	TotalUsageHours float64        `json:"total_usage_hours"`
	CalibrationDue  int            `json:"calibration_due"`
}

// GetStatistics returns registry statistics
func (r *Registry) GetStatistics() Statistics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Statistics{
		ByStatus: make(map[string]int),
		ByType:   make(map[string]int),
	}
	now := r.nowFunc()
	for _, eq := range r.equipment {
		stats.TotalEquipment++
		stats.ByStatus[string(eq.Status)]++
		stats.ByType[eq.EquipmentType]++
		stats.TotalUsageHours += eq.UsageHours
		if !eq.CalibrationDueDate.After(now) {
			stats.CalibrationDue++
		}
	}
	return stats
}

// seedStandardEquipment loads the lab's standard PV test instruments
func (r *Registry) seedStandardEquipment() {
	now := r.nowFunc()

	seed := []models.Equipment{
		{
			ID:                   "EQ_SOLAR_SIMULATOR_001",
			Name:                 "Class AAA Solar Simulator",
			Model:                "SunSim 3000",
			Manufacturer:         "PhotonTech",
			SerialNumber:         "SS3000-2023-001",
			EquipmentType:        "Solar Simulator",
			Status:               models.EquipmentAvailable,
			Location:             "Test Lab 1",
			CalibrationDueDate:   now.AddDate(0, 0, 45),
			LastCalibrationDate:  now.AddDate(0, 0, -45),
			CalibrationFrequency: 90,
			UsageHours:           1250.5,
			PerformanceMetrics: map[string]interface{}{
				"spectral_match":     "Class A",
				"spatial_uniformity": "Class A",
				"temporal_stability": "Class A",
				"irradiance_range":   "200-1200 W/m²",
			},
			Metadata: map[string]interface{}{"max_module_size": "2.0m x 1.2m"},
		},
		{
			ID:                   "EQ_IV_TRACER_001",
			Name:                 "High-Precision IV Tracer",
			Model:                "IVMaster Pro",
			Manufacturer:         "TestEquip Inc",
			SerialNumber:         "IVM-2023-042",
			EquipmentType:        "IV Tracer",
			Status:               models.EquipmentAvailable,
			Location:             "Test Lab 1",
			CalibrationDueDate:   now.AddDate(0, 0, 60),
			LastCalibrationDate:  now.AddDate(0, 0, -30),
			CalibrationFrequency: 90,
			UsageHours:           850.3,
			PerformanceMetrics: map[string]interface{}{
				"voltage_accuracy": "±0.1%",
				"current_accuracy": "±0.1%",
				"max_voltage":      "1500V",
				"max_current":      "30A",
			},
		},
		{
			ID:                   "EQ_EL_IMAGING_001",
			Name:                 "Electroluminescence Imaging System",
			Model:                "EL-Vision 5000",
			Manufacturer:         "ImageSolar",
			SerialNumber:         "ELV-2023-015",
			EquipmentType:        "EL Imaging System",
			Status:               models.EquipmentAvailable,
			Location:             "Test Lab 2",
			CalibrationDueDate:   now.AddDate(0, 0, 75),
			LastCalibrationDate:  now.AddDate(0, 0, -15),
			CalibrationFrequency: 90,
			UsageHours:           420.0,
			PerformanceMetrics: map[string]interface{}{
				"camera_resolution":     "16MP",
				"detection_sensitivity": "High",
				"image_processing":      "AI-enhanced",
			},
		},
		{
			ID:                   "EQ_THERMAL_CHAMBER_001",
			Name:                 "Environmental Test Chamber",
			Model:                "ThermoCycle 2000",
			Manufacturer:         "ClimateTech",
			SerialNumber:         "TC2000-2022-008",
			EquipmentType:        "Thermal Chamber",
			Status:               models.EquipmentAvailable,
			Location:             "Environmental Lab",
			CalibrationDueDate:   now.AddDate(0, 0, 30),
			LastCalibrationDate:  now.AddDate(0, 0, -60),
			CalibrationFrequency: 90,
			UsageHours:           2100.0,
			PerformanceMetrics: map[string]interface{}{
				"temp_range":     "-40°C to +150°C",
				"humidity_range": "10% to 95% RH",
				"chamber_volume": "2000L",
				"uniformity":     "±2°C",
			},
		},
		{
			ID:                   "EQ_HIPOT_TESTER_001",
			Name:                 "High Potential Tester",
			Model:                "SafeTest 5000",
			Manufacturer:         "ElectroSafe",
			SerialNumber:         "ST5000-2023-003",
			EquipmentType:        "HiPot Tester",
			Status:               models.EquipmentAvailable,
			Location:             "Safety Lab",
			CalibrationDueDate:   now.AddDate(0, 0, 20),
			LastCalibrationDate:  now.AddDate(0, 0, -70),
			CalibrationFrequency: 90,
			UsageHours:           310.0,
			PerformanceMetrics: map[string]interface{}{
				"max_voltage": "6000V",
				"accuracy":    "±1%",
			},
		},
	}

	for _, eq := range seed {
		r.add(eq)
	}
}
