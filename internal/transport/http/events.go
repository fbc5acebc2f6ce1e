package httptransport

import (
	"sync"

	"facebank/internal/auth/models"
)

const defaultEventCapacity = 64

// EventQueue buffers controller events until the UI polls for them. When full the
// oldest event is dropped.
type EventQueue struct {
	mu       sync.Mutex
	events   []models.Event
	capacity int
	dropped  int
}

func NewEventQueue(capacity int) *EventQueue {
	if capacity <= 0 {
		capacity = defaultEventCapacity
	}
	return &EventQueue{capacity: capacity}
}

func (q *EventQueue) Push(e models.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == q.capacity {
		q.events = q.events[1:]
		q.dropped++
	}
	q.events = append(q.events, e)
}

// Drain returns the queued events in order and empties the queue, along with how many
// were dropped since the last drain.
func (q *EventQueue) Drain() ([]models.Event, int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	events, dropped := q.events, q.dropped
	q.events, q.dropped = nil, 0
	if events == nil {
		events = []models.Event{}
	}
	return events, dropped
}
