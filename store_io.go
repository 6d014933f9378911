package packeteer

// ioEntry is one I/O callback registration - spec §3's "I/O entry":
// (handle, event mask, callback, flags).
type ioEntry struct {
	Handle   Handle
	Mask     EventMask
	Callback Callback
	Flags    ioFlags
	Conn     *Connector // optional; threaded through from Scheduler.AddIO
}

// ioStore is the multimap handle -> {callback, mask, flags} of spec
// §4.7. It is accessed only from the dispatch thread, so it needs no
// internal synchronization.
type ioStore struct {
	byHandle map[Handle][]*ioEntry
}

func newIOStore() *ioStore {
	return &ioStore{byHandle: make(map[Handle][]*ioEntry)}
}

// Add merges mask into any existing entry for (handle, callback), or
// appends a new one.
func (s *ioStore) Add(handle Handle, mask EventMask, cb Callback, flags ioFlags, conn *Connector) {
	for _, e := range s.byHandle[handle] {
		if e.Callback.Equal(cb) {
			e.Mask |= mask
			e.Flags = flags
			if conn != nil {
				e.Conn = conn
			}
			return
		}
	}
	s.byHandle[handle] = append(s.byHandle[handle], &ioEntry{
		Handle: handle, Mask: mask, Callback: cb, Flags: flags, Conn: conn,
	})
}

// Remove subtracts mask's bits from the (handle, callback) entry,
// deleting the tuple once its mask becomes empty.
func (s *ioStore) Remove(handle Handle, mask EventMask, cb Callback) {
	entries := s.byHandle[handle]
	for i, e := range entries {
		if !e.Callback.Equal(cb) {
			continue
		}
		e.Mask &^= mask
		if e.Mask == 0 {
			entries = append(entries[:i], entries[i+1:]...)
		}
		if len(entries) == 0 {
			delete(s.byHandle, handle)
		} else {
			s.byHandle[handle] = entries
		}
		return
	}
}

// RemoveAll removes every entry registered for handle, returning the
// aggregate mask that was registered (used to decide whether to
// unregister from the I/O subsystem entirely).
func (s *ioStore) RemoveAll(handle Handle) EventMask {
	var agg EventMask
	for _, e := range s.byHandle[handle] {
		agg |= e.Mask
	}
	delete(s.byHandle, handle)
	return agg
}

// AggregateMask returns the union of every entry's mask for handle - the
// mask the I/O subsystem should have registered for it.
func (s *ioStore) AggregateMask(handle Handle) EventMask {
	var agg EventMask
	for _, e := range s.byHandle[handle] {
		agg |= e.Mask
	}
	return agg
}

// CopyMatching returns a clone of every entry for handle whose mask
// intersects firedMask, each narrowed to that intersection - spec §4.7.
func (s *ioStore) CopyMatching(handle Handle, firedMask EventMask) []ioEntry {
	var out []ioEntry
	for _, e := range s.byHandle[handle] {
		if e.Mask&firedMask != 0 {
			out = append(out, ioEntry{
				Handle:   e.Handle,
				Mask:     e.Mask & firedMask,
				Callback: e.Callback,
				Flags:    e.Flags,
				Conn:     e.Conn,
			})
		}
	}
	return out
}

// Note: ONESHOT/REPEAT removal-before-invoke semantics live in
// Scheduler.preRemoveFlagged/invokeErr (scheduler.go), not here - the
// decision of whether to re-register a REPEAT entry depends on the
// callback's return value, which is only known after invocation
// (possibly on a worker goroutine), so re-registration flows back
// through the ordinary command queue rather than through a store method.
