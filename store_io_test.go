package packeteer

import "testing"

func TestIOStore_AddMergesSameCallback(t *testing.T) {
	s := newIOStore()
	h := MakeDummyHandle(1)
	cb := NewCallback(dummyCallbackFunc)

	s.Add(h, IORead, cb, FlagNone, nil)
	s.Add(h, IOWrite, cb, FlagNone, nil)

	if got := s.AggregateMask(h); got != IORead|IOWrite {
		t.Fatalf("expected merged mask IORead|IOWrite, got %v", got)
	}
	if got := len(s.byHandle[h]); got != 1 {
		t.Fatalf("expected a single merged entry, got %d", got)
	}
}

func TestIOStore_AddDistinctCallbacksDoNotMerge(t *testing.T) {
	s := newIOStore()
	h := MakeDummyHandle(1)
	a := NewCallback(dummyCallbackFunc)
	b := NewClosureCallback(dummyCallbackFunc)

	s.Add(h, IORead, a, FlagNone, nil)
	s.Add(h, IORead, b, FlagNone, nil)

	if got := len(s.byHandle[h]); got != 2 {
		t.Fatalf("expected two distinct entries, got %d", got)
	}
}

func TestIOStore_RemoveClearsEmptyMask(t *testing.T) {
	s := newIOStore()
	h := MakeDummyHandle(1)
	cb := NewCallback(dummyCallbackFunc)

	s.Add(h, IORead|IOWrite, cb, FlagNone, nil)
	s.Remove(h, IORead, cb)
	if got := s.AggregateMask(h); got != IOWrite {
		t.Fatalf("expected IOWrite to remain, got %v", got)
	}

	s.Remove(h, IOWrite, cb)
	if _, ok := s.byHandle[h]; ok {
		t.Fatal("expected the handle to be fully removed once its mask empties")
	}
}

func TestIOStore_RemoveAll(t *testing.T) {
	s := newIOStore()
	h := MakeDummyHandle(1)
	a := NewCallback(dummyCallbackFunc)
	b := NewClosureCallback(dummyCallbackFunc)

	s.Add(h, IORead, a, FlagNone, nil)
	s.Add(h, IOWrite, b, FlagNone, nil)

	agg := s.RemoveAll(h)
	if agg != IORead|IOWrite {
		t.Fatalf("expected RemoveAll to report the aggregate mask, got %v", agg)
	}
	if _, ok := s.byHandle[h]; ok {
		t.Fatal("expected the handle to be gone after RemoveAll")
	}
}

func TestIOStore_CopyMatchingNarrowsMask(t *testing.T) {
	s := newIOStore()
	h := MakeDummyHandle(1)
	cb := NewCallback(dummyCallbackFunc)
	s.Add(h, IORead|IOWrite, cb, FlagNone, nil)

	matches := s.CopyMatching(h, IORead)
	if len(matches) != 1 {
		t.Fatalf("expected one matching entry, got %d", len(matches))
	}
	if matches[0].Mask != IORead {
		t.Fatalf("expected the copy's mask to be narrowed to IORead, got %v", matches[0].Mask)
	}
	// the original entry's mask is untouched.
	if got := s.AggregateMask(h); got != IORead|IOWrite {
		t.Fatalf("expected the stored mask to remain IORead|IOWrite, got %v", got)
	}
}
