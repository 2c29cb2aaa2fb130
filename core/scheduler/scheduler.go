package scheduler

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"lab-orchestrator/core/models"

	"github.com/google/uuid"
)

// ResourceConflict reports a double-booking of one resource between
// schedules. Conflicts are derived on demand and returned to the caller;
// they are never stored as ground truth.
type ResourceConflict struct {
	ConflictType         string   `json:"conflict_type"` // Equipment or Staff
	ResourceID           string   `json:"resource_id"`
	ConflictingSchedules []string `json:"conflicting_schedules"`
	Severity             string   `json:"severity"` // High, Medium, Low
}

// Booking is one calendar entry for a piece of equipment or a staff member
type Booking struct {
	ScheduleID string    `json:"schedule_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	SampleID   string    `json:"sample_id"`
	ProtocolID string    `json:"protocol_id"`
}

// Scheduler turns test requests into time-boxed, resource-assigned
// schedules and reports resource collisions between them. It owns the
// schedule map and the per-resource calendars.
type Scheduler struct {
	mu                sync.RWMutex
	schedules         map[string]*models.TestSchedule
	equipmentCalendar map[string][]Booking
	staffCalendar     map[string][]Booking
	pending           *pendingQueue
	nowFunc           func() time.Time
}

// NewScheduler creates a new scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{
		schedules:         make(map[string]*models.TestSchedule),
		equipmentCalendar: make(map[string][]Booking),
		staffCalendar:     make(map[string][]Booking),
		pending:           newPendingQueue(),
		nowFunc:           time.Now,
	}
}

// ScheduleTest books a test for the sample under the given protocol.
// The schedule is stored even when conflicts are detected; acting on the
// returned conflicts is the caller's responsibility.
func (s *Scheduler) ScheduleTest(sample models.Sample, protocol models.TestProtocol,
	priority models.Priority, requestedStart *time.Time, createdBy string) (models.TestSchedule, []ResourceConflict) {

	s.mu.Lock()
	defer s.mu.Unlock()

	scheduleID := "SCHED_" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])

	var start time.Time
	if requestedStart != nil {
		start = *requestedStart
	} else {
		start = s.findOptimalSlot(priority)
	}
	end := start.Add(time.Duration(protocol.EstimatedDuration) * time.Minute)

	if createdBy == "" {
		createdBy = "system"
	}

	schedule := &models.TestSchedule{
		ID:                scheduleID,
		SampleID:          sample.ID,
		ProtocolID:        protocol.ID,
		ScheduledStart:    start,
		ScheduledEnd:      end,
		AssignedEquipment: assignEquipment(protocol),
		AssignedStaff:     assignStaff(protocol),
		Priority:          priority,
		Status:            models.TestScheduled,
		EstimatedTAT:      protocol.EstimatedDuration / 60,
		CreatedDate:       s.nowFunc(),
		CreatedBy:         createdBy,
	}

	conflicts := s.detectConflicts(schedule, "")

	s.schedules[scheduleID] = schedule
	s.addToCalendars(schedule)
	s.pending.push(scheduleID, priority, start)

	return *schedule, conflicts
}

// findOptimalSlot returns the priority-appropriate start slot.
// The earliest working slot is the next full hour inside the 08:00-18:00
// window, rolling to the next day's 08:00 outside it. Caller holds the lock.
func (s *Scheduler) findOptimalSlot(priority models.Priority) time.Time {
	now := s.nowFunc()

	var slot time.Time
	switch {
	case now.Hour() < 8:
		slot = time.Date(now.Year(), now.Month(), now.Day(), 8, 0, 0, 0, now.Location())
	case now.Hour() >= 18:
		next := now.AddDate(0, 0, 1)
		slot = time.Date(next.Year(), next.Month(), next.Day(), 8, 0, 0, 0, next.Location())
	default:
		slot = now.Truncate(time.Hour).Add(time.Hour)
	}

	switch priority {
	case models.PriorityCritical, models.PriorityHigh:
		return slot
	case models.PriorityMedium:
		return slot.Add(24 * time.Hour)
	default:
		return slot.Add(72 * time.Hour)
	}
}

// assignEquipment synthesizes one equipment id per protocol requirement tag.
// This is a deterministic placeholder allocation, not an availability
// search: two protocols sharing a requirement tag map to the same id, which
// is exactly what conflict detection keys on.
func assignEquipment(protocol models.TestProtocol) []string {
	assigned := make([]string, 0, len(protocol.RequiredEquipment))
	for _, tag := range protocol.RequiredEquipment {
		assigned = append(assigned, "EQ_"+strings.ToUpper(strings.ReplaceAll(tag, " ", "_"))+"_001")
	}
	return assigned
}

// assignStaff synthesizes one staff id per required skill tag
func assignStaff(protocol models.TestProtocol) []string {
	assigned := make([]string, 0, len(protocol.RequiredStaffSkills))
	for _, tag := range protocol.RequiredStaffSkills {
		assigned = append(assigned, "STAFF_"+strings.ToUpper(strings.ReplaceAll(tag, " ", "_"))+"_001")
	}
	return assigned
}

// detectConflicts intersects the candidate's resources against every stored
// schedule whose half-open interval overlaps it. Cancelled and completed
// schedules hold no resources. excludeID skips the candidate's own stored
// entry when re-checking an existing schedule. Caller holds the lock.
func (s *Scheduler) detectConflicts(candidate *models.TestSchedule, excludeID string) []ResourceConflict {
	var conflicts []ResourceConflict

	for existingID, existing := range s.schedules {
		if existingID == excludeID {
			continue
		}
		if existing.Status == models.TestCancelled || existing.Status == models.TestCompleted {
			continue
		}
		if !overlaps(candidate.ScheduledStart, candidate.ScheduledEnd, existing.ScheduledStart, existing.ScheduledEnd) {
			continue
		}

		if shared := intersect(candidate.AssignedEquipment, existing.AssignedEquipment); len(shared) > 0 {
			conflicts = append(conflicts, ResourceConflict{
				ConflictType:         "Equipment",
				ResourceID:           shared[0],
				ConflictingSchedules: []string{existingID},
				Severity:             "High",
			})
		}
		if shared := intersect(candidate.AssignedStaff, existing.AssignedStaff); len(shared) > 0 {
			conflicts = append(conflicts, ResourceConflict{
				ConflictType:         "Staff",
				ResourceID:           shared[0],
				ConflictingSchedules: []string{existingID},
				Severity:             "Medium",
			})
		}
	}

	return conflicts
}

// overlaps reports whether the half-open intervals [aStart,aEnd) and
// [bStart,bEnd) intersect
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !(!aEnd.After(bStart) || !aStart.Before(bEnd))
}

func intersect(a, b []string) []string {
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	var shared []string
	for _, v := range b {
		if set[v] {
			shared = append(shared, v)
		}
	}
	sort.Strings(shared)
	return shared
}

// Reschedule moves a schedule to a new start time. The move only commits
// when the new slot is conflict-free; otherwise the original schedule is
// left untouched and the conflicts are returned.
func (s *Scheduler) Reschedule(scheduleID string, newStart time.Time, reason string) (bool, []ResourceConflict) {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule, ok := s.schedules[scheduleID]
	if !ok {
		return false, nil
	}
	if schedule.Status != models.TestScheduled {
		return false, nil
	}

	duration := schedule.ScheduledEnd.Sub(schedule.ScheduledStart)
	probe := *schedule
	probe.ScheduledStart = newStart
	probe.ScheduledEnd = newStart.Add(duration)

	conflicts := s.detectConflicts(&probe, scheduleID)
	if len(conflicts) > 0 {
		return false, conflicts
	}

	oldStart := schedule.ScheduledStart
	s.removeFromCalendars(scheduleID, schedule.AssignedEquipment, schedule.AssignedStaff)

	schedule.ScheduledStart = probe.ScheduledStart
	schedule.ScheduledEnd = probe.ScheduledEnd
	schedule.Notes += fmt.Sprintf("\nRescheduled from %s to %s. Reason: %s",
		oldStart.Format(time.RFC3339), newStart.Format(time.RFC3339), reason)

	s.addToCalendars(schedule)
	s.pending.update(scheduleID, schedule.Priority, schedule.ScheduledStart)

	return true, nil
}

// CancelSchedule cancels a test that has not started yet
func (s *Scheduler) CancelSchedule(scheduleID, reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule, ok := s.schedules[scheduleID]
	if !ok || schedule.Status != models.TestScheduled {
		return false
	}

	schedule.Status = models.TestCancelled
	schedule.Notes += "\nCancelled: " + reason

	s.removeFromCalendars(scheduleID, schedule.AssignedEquipment, schedule.AssignedStaff)
	s.pending.remove(scheduleID)

	return true
}

// StartTest marks a scheduled test as started and stamps the actual start
func (s *Scheduler) StartTest(scheduleID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule, ok := s.schedules[scheduleID]
	if !ok || schedule.Status != models.TestScheduled {
		return false
	}

	now := s.nowFunc()
	schedule.Status = models.TestInProgress
	schedule.ActualStart = &now
	s.pending.remove(scheduleID)

	return true
}

// CompleteTest marks an in-progress test as completed and stamps the end
func (s *Scheduler) CompleteTest(scheduleID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule, ok := s.schedules[scheduleID]
	if !ok || schedule.Status != models.TestInProgress {
		return false
	}

	now := s.nowFunc()
	schedule.Status = models.TestCompleted
	schedule.ActualEnd = &now

	return true
}

// AutoResolveConflicts tries to move a conflicted schedule to the next
// priority-appropriate slot. Returns whether it succeeded and a
// human-readable reason.
func (s *Scheduler) AutoResolveConflicts(scheduleID string) (bool, string) {
	s.mu.Lock()
	schedule, ok := s.schedules[scheduleID]
	if !ok {
		s.mu.Unlock()
		return false, "Schedule not found"
	}

	conflicts := s.detectConflicts(schedule, scheduleID)
	if len(conflicts) == 0 {
		s.mu.Unlock()
		return true, "No conflicts to resolve"
	}

	newStart := s.findOptimalSlot(schedule.Priority)
	s.mu.Unlock()

	moved, remaining := s.Reschedule(scheduleID, newStart, "Auto-resolved conflicts")
	if moved {
		return true, "Rescheduled to " + newStart.Format(time.RFC3339)
	}
	return false, fmt.Sprintf("Could not resolve conflicts. New conflicts: %d", len(remaining))
}

// GetSchedule returns a copy of the schedule
func (s *Scheduler) GetSchedule(scheduleID string) (models.TestSchedule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schedule, ok := s.schedules[scheduleID]
	if !ok {
		return models.TestSchedule{}, false
	}
	return *schedule, true
}

// GetAllSchedules returns all schedules sorted by scheduled start
func (s *Scheduler) GetAllSchedules() []models.TestSchedule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.TestSchedule, 0, len(s.schedules))
	for _, sc := range s.schedules {
		out = append(out, *sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledStart.Before(out[j].ScheduledStart) })
	return out
}

// GetSchedulesByStatus returns schedules in the given status
func (s *Scheduler) GetSchedulesByStatus(status models.TestStatus) []models.TestSchedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schedulesByStatus(status)
}

func (s *Scheduler) schedulesByStatus(status models.TestStatus) []models.TestSchedule {
	var out []models.TestSchedule
	for _, sc := range s.schedules {
		if sc.Status == status {
			out = append(out, *sc)
		}
	}
	return out
}

// GetSchedulesByPriority returns schedules with the given priority
func (s *Scheduler) GetSchedulesByPriority(priority models.Priority) []models.TestSchedule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.TestSchedule
	for _, sc := range s.schedules {
		if sc.Priority == priority {
			out = append(out, *sc)
		}
	}
	return out
}

// GetSchedulesByDateRange returns schedules starting inside [from, to]
func (s *Scheduler) GetSchedulesByDateRange(from, to time.Time) []models.TestSchedule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.TestSchedule
	for _, sc := range s.schedules {
		if !sc.ScheduledStart.Before(from) && !sc.ScheduledStart.After(to) {
			out = append(out, *sc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledStart.Before(out[j].ScheduledStart) })
	return out
}

// GetOverdueTests returns scheduled tests whose start time has passed
func (s *Scheduler) GetOverdueTests() []models.TestSchedule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.nowFunc()
	var out []models.TestSchedule
	for _, sc := range s.schedules {
		if sc.Status == models.TestScheduled && sc.ScheduledStart.Before(now) {
			out = append(out, *sc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledStart.Before(out[j].ScheduledStart) })
	return out
}

func (s *Scheduler) addToCalendars(schedule *models.TestSchedule) {
	booking := Booking{
		ScheduleID: schedule.ID,
		Start:      schedule.ScheduledStart,
		End:        schedule.ScheduledEnd,
		SampleID:   schedule.SampleID,
		ProtocolID: schedule.ProtocolID,
	}
	for _, eqID := range schedule.AssignedEquipment {
		s.equipmentCalendar[eqID] = append(s.equipmentCalendar[eqID], booking)
	}
	for _, staffID := range schedule.AssignedStaff {
		s.staffCalendar[staffID] = append(s.staffCalendar[staffID], booking)
	}
}

func (s *Scheduler) removeFromCalendars(scheduleID string, equipmentIDs, staffIDs []string) {
	for _, eqID := range equipmentIDs {
		s.equipmentCalendar[eqID] = dropBooking(s.equipmentCalendar[eqID], scheduleID)
	}
	for _, staffID := range staffIDs {
		s.staffCalendar[staffID] = dropBooking(s.staffCalendar[staffID], scheduleID)
	}
}

func dropBooking(bookings []Booking, scheduleID string) []Booking {
	out := bookings[:0]
	for _, b := range bookings {
		if b.ScheduleID != scheduleID {
			out = append(out, b)
		}
	}
	return out
}

// GetEquipmentBookings returns the bookings for one equipment id that
// overlap the given range
func (s *Scheduler) GetEquipmentBookings(equipmentID string, from, to time.Time) []Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Booking
	for _, b := range s.equipmentCalendar[equipmentID] {
		if overlaps(b.Start, b.End, from, to) {
			out = append(out, b)
		}
	}
	return out
}

// GetStaffBookings returns the bookings for one staff id that overlap the
// given range
func (s *Scheduler) GetStaffBookings(staffID string, from, to time.Time) []Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Booking
	for _, b := range s.staffCalendar[staffID] {
		if overlaps(b.Start, b.End, from, to) {
			out = append(out, b)
		}
	}
	return out
}

// QueueStatus summarizes the current test queue
type QueueStatus struct {
	TotalScheduled    int            `json:"total_scheduled"`
	InProgress        int            `json:"in_progress"`
	ByPriority        map[string]int `json:"by_priority"`
	OldestScheduled   *time.Time     `json:"oldest_scheduled,omitempty"`
	NextUp            string         `json:"next_up,omitempty"`
	NextAvailableSlot time.Time      `json:"next_available_slot"`
}

// GetQueueStatus returns a read-only aggregation over stored schedules
func (s *Scheduler) GetQueueStatus() QueueStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byPriority := map[string]int{
		string(models.PriorityCritical): 0,
		string(models.PriorityHigh):     0,
		string(models.PriorityMedium):   0,
		string(models.PriorityLow):      0,
	}

	var oldest *time.Time
	scheduled := 0
	inProgress := 0
	for _, sc := range s.schedules {
		switch sc.Status {
		case models.TestScheduled:
			scheduled++
			byPriority[string(sc.Priority)]++
			if oldest == nil || sc.ScheduledStart.Before(*oldest) {
				start := sc.ScheduledStart
				oldest = &start
			}
		case models.TestInProgress:
			inProgress++
		}
	}

	return QueueStatus{
		TotalScheduled:    scheduled,
		InProgress:        inProgress,
		ByPriority:        byPriority,
		OldestScheduled:   oldest,
		NextUp:            s.pending.peek(),
		NextAvailableSlot: s.findOptimalSlot(models.PriorityMedium),
	}
}

// Statistics summarizes scheduler state
type Statistics struct {
	TotalSchedules         int            `json:"total_schedules"`
	ByStatus               map[string]int `json:"by_status"`
	AvgCompletionTimeHours *float64       `json:"avg_completion_time_hours,omitempty"`
	TotalEquipmentBookings int            `json:"total_equipment_bookings"`
	TotalStaffBookings     int            `json:"total_staff_bookings"`
	OverdueCount           int            `json:"overdue_count"`
}

// GetStatistics returns scheduling statistics
func (s *Scheduler) GetStatistics() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byStatus := make(map[string]int)
	var completionHours []float64
	now := s.nowFunc()
	overdue := 0

	for _, sc := range s.schedules {
		byStatus[string(sc.Status)]++
		if sc.Status == models.TestCompleted && sc.ActualStart != nil && sc.ActualEnd != nil {
			completionHours = append(completionHours, sc.ActualEnd.Sub(*sc.ActualStart).Hours())
		}
		if sc.Status == models.TestScheduled && sc.ScheduledStart.Before(now) {
			overdue++
		}
	}

	stats := Statistics{
		TotalSchedules: len(s.schedules),
		ByStatus:       byStatus,
		OverdueCount:   overdue,
	}
	for _, bookings := range s.equipmentCalendar {
		stats.TotalEquipmentBookings += len(bookings)
	}
	for _, bookings := range s.staffCalendar {
		stats.TotalStaffBookings += len(bookings)
	}
	if len(completionHours) > 0 {
		sum := 0.0
		for _, h := range completionHours {
			sum += h
		}
		avg := sum / float64(len(completionHours))
		stats.AvgCompletionTimeHours = &avg
	}
	return stats
}
