package scheduler

import (
	"container/heap"
	"time"

	"lab-orchestrator/core/models"
)

// pendingQueue orders not-yet-started schedules by priority, then by
// scheduled start. It backs the "next up" field of the queue status and is
// kept in sync by the scheduler, which holds the lock around every call.
type pendingQueue struct {
	items   pendingHeap
	indexOf map[string]int
}

type pendingItem struct {
	scheduleID string
	rank       int
	start      time.Time
	index      int
}

func priorityRank(p models.Priority) int {
	switch p {
	case models.PriorityCritical:
		return 0
	case models.PriorityHigh:
		return 1
	case models.PriorityMedium:
		return 2
	default:
		return 3
	}
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{indexOf: make(map[string]int)}
}

func (q *pendingQueue) push(scheduleID string, priority models.Priority, start time.Time) {
	if _, exists := q.indexOf[scheduleID]; exists {
		q.update(scheduleID, priority, start)
		return
	}
	heap.Push(&queueState{q}, &pendingItem{
		scheduleID: scheduleID,
		rank:       priorityRank(priority),
		start:      start,
	})
}

func (q *pendingQueue) remove(scheduleID string) {
	idx, ok := q.indexOf[scheduleID]
	if !ok {
		return
	}
	heap.Remove(&queueState{q}, idx)
}

func (q *pendingQueue) update(scheduleID string, priority models.Priority, start time.Time) {
	idx, ok := q.indexOf[scheduleID]
	if !ok {
		q.push(scheduleID, priority, start)
		return
	}
	item := q.items[idx]
	item.rank = priorityRank(priority)
	item.start = start
	heap.Fix(&queueState{q}, idx)
}

// peek returns the schedule id next in line, or "" when the queue is empty
func (q *pendingQueue) peek() string {
	if len(q.items) == 0 {
		return ""
	}
	return q.items[0].scheduleID
}

func (q *pendingQueue) len() int { return len(q.items) }

type pendingHeap []*pendingItem

// queueState adapts pendingQueue to heap.Interface while keeping the
// id-to-index map consistent through swaps
type queueState struct {
	q *pendingQueue
}

func (s *queueState) Len() int { return len(s.q.items) }

func (s *queueState) Less(i, j int) bool {
	a, b := s.q.items[i], s.q.items[j]
	if a.rank != b.rank {
		return a.rank < b.rank
	}
	return a.start.Before(b.start)
}

func (s *queueState) Swap(i, j int) {
	items := s.q.items
	items[i], items[j] = items[j], items[i]
	items[i].index = i
	items[j].index = j
	s.q.indexOf[items[i].scheduleID] = i
	s.q.indexOf[items[j].scheduleID] = j
}

func (s *queueState) Push(x interface{}) {
	item := x.(*pendingItem)
	item.index = len(s.q.items)
	s.q.indexOf[item.scheduleID] = item.index
	s.q.items = append(s.q.items, item)
}

func (s *queueState) Pop() interface{} {
	old := s.q.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	s.q.items = old[:n-1]
	delete(s.q.indexOf, item.scheduleID)
	return item
}
