package equipment

import (
	"testing"
	"time"

	"lab-orchestrator/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(now time.Time) *Registry {
	r := &Registry{
		equipment:   make(map[string]*models.Equipment),
		usageLogs:   make(map[string][]UsageLog),
		maintenance: make(map[string][]MaintenanceRecord),
		nowFunc:     func() time.Time { return now },
	}
	r.seedStandardEquipment()
	return r
}

var registryNow = time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)

func TestNewRegistrySeedsStandardEquipment(t *testing.T) {
	r := newTestRegistry(registryNow)

	all := r.GetAllEquipment()
	assert.Len(t, all, 5)

	sim, ok := r.GetEquipment("EQ_SOLAR_SIMULATOR_001")
	require.True(t, ok)
	assert.Equal(t, "Solar Simulator", sim.EquipmentType)
	assert.Equal(t, models.EquipmentAvailable, sim.Status)
	assert.Equal(t, 90, sim.CalibrationFrequency)
}

func TestUpdateStatusAndAvailability(t *testing.T) {
	r := newTestRegistry(registryNow)
	assert.Equal(t, 1.0, r.AvailabilityRatio())

	require.True(t, r.UpdateStatus("EQ_IV_TRACER_001", models.EquipmentMaintenance))
	assert.False(t, r.UpdateStatus("EQ_NOPE", models.EquipmentAvailable))

	assert.InDelta(t, 0.8, r.AvailabilityRatio(), 1e-9)
	assert.Len(t, r.GetEquipmentByStatus(models.EquipmentMaintenance), 1)
}

func TestLogUsageAccumulatesHours(t *testing.T) {
	r := newTestRegistry(registryNow)
	before, _ := r.GetEquipment("EQ_IV_TRACER_001")

	start := registryNow.Add(-3 * time.Hour)
	require.True(t, r.LogUsage("EQ_IV_TRACER_001", start, registryNow, "tech-01", "STC test", ""))
	assert.False(t, r.LogUsage("EQ_NOPE", start, registryNow, "tech-01", "", ""))

	after, _ := r.GetEquipment("EQ_IV_TRACER_001")
	assert.InDelta(t, before.UsageHours+3, after.UsageHours, 1e-9)

	logs, ok := r.GetUsageLogs("EQ_IV_TRACER_001")
	require.True(t, ok)
	require.Len(t, logs, 1)
	assert.Equal(t, 3.0, logs[0].DurationHours)
	assert.Equal(t, "tech-01", logs[0].UsedBy)
}

func TestCalibrationAlerts(t *testing.T) {
	r := newTestRegistry(registryNow)

	// Seeded due dates: 20, 30, 45, 60, 75 days out
	alerts := r.GetCalibrationAlerts(30)
	require.Len(t, alerts, 2)
	assert.Equal(t, "EQ_HIPOT_TESTER_001", alerts[0].EquipmentID)
	assert.Equal(t, "EQ_THERMAL_CHAMBER_001", alerts[1].EquipmentID)
	for _, a := range alerts {
		assert.Equal(t, "DUE_SOON", a.Status)
	}

	assert.Len(t, r.GetCalibrationAlerts(90), 5)
	assert.Empty(t, r.GetCalibrationAlerts(10))
}

func TestCompleteCalibrationAdvancesDates(t *testing.T) {
	r := newTestRegistry(registryNow)

	id, ok := r.ScheduleMaintenance("EQ_HIPOT_TESTER_001", "Calibration", registryNow, "annual cal", 4)
	require.True(t, ok)
	require.True(t, r.CompleteMaintenance("EQ_HIPOT_TESTER_001", id, "cal-lab", "within tolerance", "adjusted"))

	eq, _ := r.GetEquipment("EQ_HIPOT_TESTER_001")
	assert.Equal(t, registryNow, eq.LastCalibrationDate)
	assert.Equal(t, registryNow.AddDate(0, 0, 90), eq.CalibrationDueDate)

	// No longer in the 30-day alert window
	for _, a := range r.GetCalibrationAlerts(30) {
		assert.NotEqual(t, "EQ_HIPOT_TESTER_001", a.EquipmentID)
	}
}

func TestCompleteMaintenanceUnknown(t *testing.T) {
	r := newTestRegistry(registryNow)
	assert.False(t, r.CompleteMaintenance("EQ_NOPE", "MAINT_X", "tech", "", ""))
	assert.False(t, r.CompleteMaintenance("EQ_HIPOT_TESTER_001", "MAINT_X", "tech", "", ""))

	_, ok := r.ScheduleMaintenance("EQ_NOPE", "Preventive", registryNow, "", 1)
	assert.False(t, ok)
}

func TestRegistryStatistics(t *testing.T) {
	r := newTestRegistry(registryNow)
	r.UpdateStatus("EQ_IV_TRACER_001", models.EquipmentInUse)

	stats := r.GetStatistics()
	assert.Equal(t, 5, stats.TotalEquipment)
	assert.Equal(t, 4, stats.ByStatus[string(models.EquipmentAvailable)])
	assert.Equal(t, 1, stats.ByStatus[string(models.EquipmentInUse)])
	assert.Equal(t, 1, stats.ByType["Solar Simulator"])
	assert.Greater(t, stats.TotalUsageHours, 0.0)
	assert.Equal(t, 0, stats.CalibrationDue)
}
