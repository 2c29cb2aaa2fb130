package scheduler

import (
	"testing"
	"time"

	"lab-orchestrator/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 3, 10, 30, 0, 0, time.UTC)

func newTestScheduler(now time.Time) *Scheduler {
	s := NewScheduler()
	s.nowFunc = func() time.Time { return now }
	return s
}

func testSample() models.Sample {
	return models.Sample{ID: "SAMPLE_TEST0001", Name: "Mono PERC 400W"}
}

func testProtocol() models.TestProtocol {
	return models.TestProtocol{
		ID:                  "PROTO_IEC61215_002",
		Name:                "Performance at STC",
		EstimatedDuration:   60,
		RequiredEquipment:   []string{"Solar Simulator", "IV Tracer"},
		RequiredStaffSkills: []string{"IV Measurement"},
	}
}

func TestScheduleTestAssignsResources(t *testing.T) {
	s := newTestScheduler(testNow)

	schedule, conflicts := s.ScheduleTest(testSample(), testProtocol(), models.PriorityCritical, nil, "planner")

	assert.Empty(t, conflicts)
	assert.Equal(t, []string{"EQ_SOLAR_SIMULATOR_001", "EQ_IV_TRACER_001"}, schedule.AssignedEquipment)
	assert.Equal(t, []string{"STAFF_IV_MEASUREMENT_001"}, schedule.AssignedStaff)
	assert.Equal(t, models.TestScheduled, schedule.Status)
	assert.Equal(t, "planner", schedule.CreatedBy)
	assert.Equal(t, schedule.ScheduledStart.Add(time.Hour), schedule.ScheduledEnd)
}

func TestScheduleTestSlotByPriority(t *testing.T) {
	nextHour := time.Date(2025, 6, 3, 11, 0, 0, 0, time.UTC)

	cases := []struct {
		priority models.Priority
		want     time.Time
	}{
		{models.PriorityCritical, nextHour},
		{models.PriorityHigh, nextHour},
		{models.PriorityMedium, nextHour.Add(24 * time.Hour)},
		{models.PriorityLow, nextHour.Add(72 * time.Hour)},
	}
	for _, tc := range cases {
		s := newTestScheduler(testNow)
		schedule, _ := s.ScheduleTest(testSample(), testProtocol(), tc.priority, nil, "")
		assert.Equal(t, tc.want, schedule.ScheduledStart, "priority %s", tc.priority)
	}
}

func TestScheduleTestSlotOutsideWorkingHours(t *testing.T) {
	early := newTestScheduler(time.Date(2025, 6, 3, 6, 15, 0, 0, time.UTC))
	schedule, _ := early.ScheduleTest(testSample(), testProtocol(), models.PriorityCritical, nil, "")
	assert.Equal(t, time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC), schedule.ScheduledStart)

	late := newTestScheduler(time.Date(2025, 6, 3, 19, 45, 0, 0, time.UTC))
	schedule, _ = late.ScheduleTest(testSample(), testProtocol(), models.PriorityCritical, nil, "")
	assert.Equal(t, time.Date(2025, 6, 4, 8, 0, 0, 0, time.UTC), schedule.ScheduledStart)
}

func TestScheduleTestDetectsConflicts(t *testing.T) {
	s := newTestScheduler(testNow)
	start := time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC)

	first, conflicts := s.ScheduleTest(testSample(), testProtocol(), models.PriorityHigh, &start, "")
	require.Empty(t, conflicts)

	overlapping := start.Add(30 * time.Minute)
	second, conflicts := s.ScheduleTest(testSample(), testProtocol(), models.PriorityHigh, &overlapping, "")

	require.Len(t, conflicts, 2)
	byType := map[string]ResourceConflict{}
	for _, c := range conflicts {
		byType[c.ConflictType] = c
	}
	require.Contains(t, byType, "Equipment")
	require.Contains(t, byType, "Staff")
	assert.Equal(t, "High", byType["Equipment"].Severity)
	assert.Equal(t, "Medium", byType["Staff"].Severity)
	assert.Equal(t, []string{first.ID}, byType["Equipment"].ConflictingSchedules)

	// The conflicted schedule is still stored
	_, ok := s.GetSchedule(second.ID)
	assert.True(t, ok)
}

func TestScheduleTestNoConflictWhenDisjoint(t *testing.T) {
	s := newTestScheduler(testNow)
	start := time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC)

	_, conflicts := s.ScheduleTest(testSample(), testProtocol(), models.PriorityHigh, &start, "")
	require.Empty(t, conflicts)

	// Back-to-back booking: [9:00,10:00) then [10:00,11:00)
	adjacent := start.Add(time.Hour)
	_, conflicts = s.ScheduleTest(testSample(), testProtocol(), models.PriorityHigh, &adjacent, "")
	assert.Empty(t, conflicts)
}

func TestCancelledSchedulesReleaseResources(t *testing.T) {
	s := newTestScheduler(testNow)
	start := time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC)

	first, _ := s.ScheduleTest(testSample(), testProtocol(), models.PriorityHigh, &start, "")
	require.True(t, s.CancelSchedule(first.ID, "customer pulled out"))

	_, conflicts := s.ScheduleTest(testSample(), testProtocol(), models.PriorityHigh, &start, "")
	assert.Empty(t, conflicts)
}

func TestReschedule(t *testing.T) {
	s := newTestScheduler(testNow)
	start := time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC)

	s.ScheduleTest(testSample(), testProtocol(), models.PriorityHigh, &start, "")

	conflictedStart := start.Add(30 * time.Minute)
	victim, conflicts := s.ScheduleTest(testSample(), testProtocol(), models.PriorityHigh, &conflictedStart, "")
	require.NotEmpty(t, conflicts)

	// Moving onto the blocker again fails and leaves the schedule untouched
	moved, conflicts := s.Reschedule(victim.ID, start, "try same slot")
	assert.False(t, moved)
	assert.NotEmpty(t, conflicts)
	unchanged, _ := s.GetSchedule(victim.ID)
	assert.Equal(t, conflictedStart, unchanged.ScheduledStart)

	// Moving to a free slot commits
	freeStart := start.Add(3 * time.Hour)
	moved, conflicts = s.Reschedule(victim.ID, freeStart, "found a free slot")
	assert.True(t, moved)
	assert.Empty(t, conflicts)

	updated, _ := s.GetSchedule(victim.ID)
	assert.Equal(t, freeStart, updated.ScheduledStart)
	assert.Equal(t, freeStart.Add(time.Hour), updated.ScheduledEnd)
	assert.Contains(t, updated.Notes, "found a free slot")
}

func TestRescheduleUnknownSchedule(t *testing.T) {
	s := newTestScheduler(testNow)
	moved, conflicts := s.Reschedule("SCHED_NOPE", testNow, "")
	assert.False(t, moved)
	assert.Nil(t, conflicts)
}

func TestStatusTransitions(t *testing.T) {
	s := newTestScheduler(testNow)
	schedule, _ := s.ScheduleTest(testSample(), testProtocol(), models.PriorityHigh, nil, "")

	// Completing before starting is rejected
	assert.False(t, s.CompleteTest(schedule.ID))

	require.True(t, s.StartTest(schedule.ID))
	started, _ := s.GetSchedule(schedule.ID)
	assert.Equal(t, models.TestInProgress, started.Status)
	require.NotNil(t, started.ActualStart)

	// A started test can no longer be cancelled or rescheduled
	assert.False(t, s.CancelSchedule(schedule.ID, "too late"))
	moved, _ := s.Reschedule(schedule.ID, testNow.Add(48*time.Hour), "")
	assert.False(t, moved)

	// Starting twice is rejected
	assert.False(t, s.StartTest(schedule.ID))

	require.True(t, s.CompleteTest(schedule.ID))
	completed, _ := s.GetSchedule(schedule.ID)
	assert.Equal(t, models.TestCompleted, completed.Status)
	require.NotNil(t, completed.ActualEnd)
}

func TestAutoResolveConflicts(t *testing.T) {
	s := newTestScheduler(testNow)
	start := time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC)

	s.ScheduleTest(testSample(), testProtocol(), models.PriorityHigh, &start, "")
	conflictedStart := start.Add(30 * time.Minute)
	victim, conflicts := s.ScheduleTest(testSample(), testProtocol(), models.PriorityHigh, &conflictedStart, "")
	require.NotEmpty(t, conflicts)

	resolved, reason := s.AutoResolveConflicts(victim.ID)
	assert.True(t, resolved)
	assert.Contains(t, reason, "Rescheduled to")

	moved, _ := s.GetSchedule(victim.ID)
	assert.Equal(t, time.Date(2025, 6, 3, 11, 0, 0, 0, time.UTC), moved.ScheduledStart)
}

func TestAutoResolveWithoutConflicts(t *testing.T) {
	s := newTestScheduler(testNow)
	schedule, _ := s.ScheduleTest(testSample(), testProtocol(), models.PriorityHigh, nil, "")

	resolved, reason := s.AutoResolveConflicts(schedule.ID)
	assert.True(t, resolved)
	assert.Equal(t, "No conflicts to resolve", reason)

	resolved, reason = s.AutoResolveConflicts("SCHED_NOPE")
	assert.False(t, resolved)
	assert.Equal(t, "Schedule not found", reason)
}

func TestGetQueueStatus(t *testing.T) {
	s := newTestScheduler(testNow)
	lowStart := time.Date(2025, 6, 9, 9, 0, 0, 0, time.UTC)
	low, _ := s.ScheduleTest(testSample(), testProtocol(), models.PriorityLow, &lowStart, "")

	criticalStart := time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC)
	critical, _ := s.ScheduleTest(testSample(), testProtocol(), models.PriorityCritical, &criticalStart, "")

	status := s.GetQueueStatus()
	assert.Equal(t, 2, status.TotalScheduled)
	assert.Equal(t, 0, status.InProgress)
	assert.Equal(t, 1, status.ByPriority[string(models.PriorityCritical)])
	assert.Equal(t, 1, status.ByPriority[string(models.PriorityLow)])
	assert.Equal(t, critical.ID, status.NextUp)
	require.NotNil(t, status.OldestScheduled)
	assert.Equal(t, criticalStart, *status.OldestScheduled)

	// Starting the critical test promotes the low one
	require.True(t, s.StartTest(critical.ID))
	status = s.GetQueueStatus()
	assert.Equal(t, 1, status.TotalScheduled)
	assert.Equal(t, 1, status.InProgress)
	assert.Equal(t, low.ID, status.NextUp)
}

func TestGetOverdueTests(t *testing.T) {
	s := newTestScheduler(testNow)
	pastStart := testNow.Add(-2 * time.Hour)
	overdue, _ := s.ScheduleTest(testSample(), testProtocol(), models.PriorityHigh, &pastStart, "")

	futureStart := testNow.Add(2 * time.Hour)
	s.ScheduleTest(testSample(), testProtocol(), models.PriorityHigh, &futureStart, "")

	list := s.GetOverdueTests()
	require.Len(t, list, 1)
	assert.Equal(t, overdue.ID, list[0].ID)
}

func TestGetSchedulesByDateRange(t *testing.T) {
	s := newTestScheduler(testNow)
	inside := time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC)
	outside := time.Date(2025, 6, 20, 9, 0, 0, 0, time.UTC)
	want, _ := s.ScheduleTest(testSample(), testProtocol(), models.PriorityHigh, &inside, "")
	s.ScheduleTest(testSample(), testProtocol(), models.PriorityHigh, &outside, "")

	from := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)
	got := s.GetSchedulesByDateRange(from, to)
	require.Len(t, got, 1)
	assert.Equal(t, want.ID, got[0].ID)
}

func TestGetEquipmentBookings(t *testing.T) {
	s := newTestScheduler(testNow)
	start := time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC)
	schedule, _ := s.ScheduleTest(testSample(), testProtocol(), models.PriorityHigh, &start, "")

	bookings := s.GetEquipmentBookings("EQ_SOLAR_SIMULATOR_001", start.Add(-time.Hour), start.Add(time.Hour))
	require.Len(t, bookings, 1)
	assert.Equal(t, schedule.ID, bookings[0].ScheduleID)

	assert.Empty(t, s.GetEquipmentBookings("EQ_SOLAR_SIMULATOR_001", start.Add(4*time.Hour), start.Add(5*time.Hour)))
	assert.Empty(t, s.GetEquipmentBookings("EQ_UNKNOWN_001", start, start.Add(time.Hour)))
}

func TestGetStatistics(t *testing.T) {
	s := newTestScheduler(testNow)
	start := time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC)
	schedule, _ := s.ScheduleTest(testSample(), testProtocol(), models.PriorityHigh, &start, "")
	require.True(t, s.StartTest(schedule.ID))
	require.True(t, s.CompleteTest(schedule.ID))

	pastStart := testNow.Add(-time.Hour)
	s.ScheduleTest(testSample(), testProtocol(), models.PriorityMedium, &pastStart, "")

	stats := s.GetStatistics()
	assert.Equal(t, 2, stats.TotalSchedules)
	assert.Equal(t, 1, stats.ByStatus[string(models.TestCompleted)])
	assert.Equal(t, 1, stats.ByStatus[string(models.TestScheduled)])
	assert.Equal(t, 1, stats.OverdueCount)
	require.NotNil(t, stats.AvgCompletionTimeHours)
	assert.Equal(t, 0.0, *stats.AvgCompletionTimeHours)
	assert.Equal(t, 4, stats.TotalEquipmentBookings)
	assert.Equal(t, 2, stats.TotalStaffBookings)
}
