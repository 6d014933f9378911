package packeteer

import (
	"testing"
	"time"
)

func TestSchedStore_OneShotFiresOnceAndErases(t *testing.T) {
	s := newSchedStore()
	cb := NewCallback(dummyCallbackFunc)
	base := time.Now()
	s.Add(base, 0, 0, cb)

	fired := s.GetTimedOut(base.Add(time.Millisecond))
	if len(fired) != 1 {
		t.Fatalf("expected one fire, got %d", len(fired))
	}
	if s.Len() != 0 {
		t.Fatalf("expected the one-shot entry to be erased, Len()=%d", s.Len())
	}
}

func TestSchedStore_NegativeCountReschedulesForever(t *testing.T) {
	s := newSchedStore()
	cb := NewCallback(dummyCallbackFunc)
	base := time.Now()
	s.Add(base, time.Millisecond, -1, cb)

	for i := 0; i < 5; i++ {
		fired := s.GetTimedOut(base.Add(time.Duration(i+1) * time.Millisecond))
		if len(fired) == 0 {
			t.Fatalf("iteration %d: expected a fire", i)
		}
	}
	if s.Len() != 1 {
		t.Fatalf("expected the infinite entry to remain scheduled, Len()=%d", s.Len())
	}
}

func TestSchedStore_PositiveCountStopsAtZero(t *testing.T) {
	s := newSchedStore()
	cb := NewCallback(dummyCallbackFunc)
	base := time.Now()
	s.Add(base, time.Millisecond, 2, cb)

	total := 0
	now := base
	for i := 0; i < 10 && s.Len() > 0; i++ {
		now = now.Add(time.Millisecond)
		total += len(s.GetTimedOut(now))
	}
	if total != 2 {
		t.Fatalf("expected exactly 2 fires, got %d", total)
	}
	if s.Len() != 0 {
		t.Fatalf("expected the entry to be erased once its count reaches zero, Len()=%d", s.Len())
	}
}

func TestSchedStore_RemoveDropsMatchingCallback(t *testing.T) {
	s := newSchedStore()
	a := NewCallback(dummyCallbackFunc)
	b := NewClosureCallback(dummyCallbackFunc)
	base := time.Now()
	s.Add(base, time.Millisecond, -1, a)
	s.Add(base, time.Millisecond, -1, b)

	s.Remove(a)
	if s.Len() != 1 {
		t.Fatalf("expected one entry left after Remove, got %d", s.Len())
	}

	fired := s.GetTimedOut(base.Add(time.Millisecond))
	if len(fired) != 1 || !fired[0].Equal(b) {
		t.Fatal("expected the remaining entry to be b's")
	}
}

func TestSchedStore_FIFOOnEqualDeadlines(t *testing.T) {
	s := newSchedStore()
	base := time.Now()

	var order []int
	makeCB := func(n int) Callback {
		return NewClosureCallback(func(now time.Time, events EventMask, cause error, conn *Connector) error {
			order = append(order, n)
			return nil
		})
	}
	cbs := []Callback{makeCB(1), makeCB(2), makeCB(3)}
	for _, cb := range cbs {
		s.Add(base, 0, 0, cb)
	}

	fired := s.GetTimedOut(base)
	if len(fired) != 3 {
		t.Fatalf("expected 3 fires, got %d", len(fired))
	}
	for i, cb := range fired {
		if !cb.Equal(cbs[i]) {
			t.Fatalf("expected FIFO order at index %d", i)
		}
	}
}

func TestSchedStore_PeekDeadline(t *testing.T) {
	s := newSchedStore()
	if _, ok := s.PeekDeadline(); ok {
		t.Fatal("expected no deadline for an empty store")
	}
	base := time.Now()
	s.Add(base.Add(time.Second), 0, 0, NewCallback(dummyCallbackFunc))
	d, ok := s.PeekDeadline()
	if !ok || !d.Equal(base.Add(time.Second)) {
		t.Fatal("expected PeekDeadline to return the single entry's deadline")
	}
}
