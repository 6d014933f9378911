package packeteer

import "testing"

func TestUserStore_AddMergesSameCallback(t *testing.T) {
	s := newUserStore()
	cb := NewCallback(dummyCallbackFunc)
	s.Add(User, cb)
	s.Add(User<<1, cb)

	if len(s.entries) != 1 {
		t.Fatalf("expected a single merged entry, got %d", len(s.entries))
	}
	if s.entries[0].Mask != User|User<<1 {
		t.Fatalf("expected merged mask, got %v", s.entries[0].Mask)
	}
}

func TestUserStore_RemoveDeletesOnceMaskEmpties(t *testing.T) {
	s := newUserStore()
	cb := NewCallback(dummyCallbackFunc)
	s.Add(User|User<<1, cb)

	s.Remove(User, cb)
	if len(s.entries) != 1 {
		t.Fatal("expected the entry to survive a partial mask removal")
	}

	s.Remove(User<<1, cb)
	if len(s.entries) != 0 {
		t.Fatalf("expected the entry gone once its mask empties, got %d", len(s.entries))
	}
}

func TestUserStore_CopyMatching(t *testing.T) {
	s := newUserStore()
	a := NewCallback(dummyCallbackFunc)
	b := NewClosureCallback(dummyCallbackFunc)
	s.Add(User, a)
	s.Add(User<<1, b)

	matches := s.CopyMatching(User)
	if len(matches) != 1 || !matches[0].Callback.Equal(a) {
		t.Fatalf("expected only a's entry to match User, got %d matches", len(matches))
	}

	matches = s.CopyMatching(User | User<<1)
	if len(matches) != 2 {
		t.Fatalf("expected both entries to match the combined mask, got %d", len(matches))
	}
}

func TestUserStore_CopyMatchingNoDuplicatesAcrossBits(t *testing.T) {
	s := newUserStore()
	cb := NewCallback(dummyCallbackFunc)
	s.Add(User|User<<1, cb)

	matches := s.CopyMatching(User | User<<1)
	if len(matches) != 1 {
		t.Fatalf("expected a single entry even though it matches two bits, got %d", len(matches))
	}
	if matches[0].Mask != User|User<<1 {
		t.Fatalf("expected the full combined mask, got %v", matches[0].Mask)
	}
}
