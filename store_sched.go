package packeteer

import (
	"container/heap"
	"time"
)

// schedEntry is one scheduled callback registration - spec §3's
// "Scheduled entry": (deadline, interval, remaining count, callback).
// count=0 is one-shot; count<0 is infinite; count>0 is an exact number
// of fires.
type schedEntry struct {
	Deadline time.Time
	Interval time.Duration
	Count    int
	Callback Callback
	seq      uint64 // insertion order, for equal-deadline FIFO (spec §5)
}

// schedHeap is a min-heap ordered by deadline, then insertion order,
// implementing container/heap.Interface - the same shape as the
// teacher's timerHeap in loop.go, generalized from a bare (when, fn)
// pair to the full scheduled-entry record.
type schedHeap []*schedEntry

func (h schedHeap) Len() int { return len(h) }
func (h schedHeap) Less(i, j int) bool {
	if !h[i].Deadline.Equal(h[j].Deadline) {
		return h[i].Deadline.Before(h[j].Deadline)
	}
	return h[i].seq < h[j].seq
}
func (h schedHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *schedHeap) Push(x any)   { *h = append(*h, x.(*schedEntry)) }
func (h *schedHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// schedStore is the scheduled-entry store of spec §4.7: ordered by
// deadline, with expiry/reschedule rules applied by the dispatch loop.
// Accessed only from the dispatch thread.
type schedStore struct {
	heap   schedHeap
	nextID uint64
}

func newSchedStore() *schedStore {
	return &schedStore{}
}

// Len reports the number of scheduled entries currently pending.
func (s *schedStore) Len() int {
	return len(s.heap)
}

// Add inserts a new scheduled entry.
func (s *schedStore) Add(deadline time.Time, interval time.Duration, count int, cb Callback) {
	s.nextID++
	heap.Push(&s.heap, &schedEntry{
		Deadline: deadline, Interval: interval, Count: count, Callback: cb, seq: s.nextID,
	})
}

// Remove deletes every entry matching cb.
func (s *schedStore) Remove(cb Callback) {
	var kept schedHeap
	for _, e := range s.heap {
		if !e.Callback.Equal(cb) {
			kept = append(kept, e)
		}
	}
	s.heap = kept
	heap.Init(&s.heap)
}

// PeekDeadline returns the earliest deadline in the store, and whether
// the store is non-empty.
func (s *schedStore) PeekDeadline() (time.Time, bool) {
	if len(s.heap) == 0 {
		return time.Time{}, false
	}
	return s.heap[0].Deadline, true
}

// GetTimedOut pops every entry with Deadline <= now, applies the
// counting rules of spec §4.8 (interval==0: fire once, erase; count<0:
// fire, reinsert with deadline+=interval; count>0: decrement, fire,
// erase if now 0 else reinsert), and returns the callbacks that fired in
// the order they were due.
func (s *schedStore) GetTimedOut(now time.Time) []Callback {
	var fired []Callback
	for len(s.heap) > 0 && !s.heap[0].Deadline.After(now) {
		e := heap.Pop(&s.heap).(*schedEntry)
		fired = append(fired, e.Callback)
		switch {
		case e.Interval == 0:
			// erase, no reinsertion
		case e.Count < 0:
			e.Deadline = e.Deadline.Add(e.Interval)
			heap.Push(&s.heap, e)
		case e.Count > 0:
			e.Count--
			if e.Count > 0 {
				e.Deadline = e.Deadline.Add(e.Interval)
				heap.Push(&s.heap, e)
			}
		}
	}
	return fired
}
