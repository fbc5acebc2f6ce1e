package face

import "sync"

// Slot holds the most recent Face Sample. Writes are last-write-wins.
//
// A sample spent on a sensitive operation (login, transfer, PIN change) is no longer
// Pending, so the next such operation needs a fresh capture, but it stays the Latest
// sample for continuous verification until superseded or cleared.
type Slot struct {
	mu     sync.Mutex
	sample Sample
	spent  bool
}

// NewSlot returns an empty slot.
func NewSlot() *Slot {
	return &Slot{}
}

// Put supersedes whatever the slot held.
func (s *Slot) Put(sample Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sample = sample
	s.spent = false
}

// Latest returns the most recent sample regardless of whether it was spent.
func (s *Slot) Latest() (Sample, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sample.IsZero() {
		return Sample{}, false
	}
	return s.sample, true
}

// Pending returns the most recent sample only if no sensitive operation has used it yet.
func (s *Slot) Pending() (Sample, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sample.IsZero() || s.spent {
		return Sample{}, false
	}
	return s.sample, true
}

// Take returns the pending sample and marks it spent in one step, so concurrent
// sensitive operations never submit the same sample.
func (s *Slot) Take() (Sample, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sample.IsZero() || s.spent {
		return Sample{}, false
	}
	s.spent = true
	return s.sample, true
}

// Restore makes a taken sample pending again after the operation that took it failed.
// It does nothing if a newer capture superseded the sample.
func (s *Slot) Restore(sample Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !sample.IsZero() && s.sample.ID == sample.ID {
		s.spent = false
	}
}

// Spend marks sample as used. A newer capture that superseded it is left untouched.
func (s *Slot) Spend(sample Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sample.ID == sample.ID {
		s.spent = true
	}
}

// Clear empties the slot.
func (s *Slot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sample = Sample{}
	s.spent = false
}
