// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package packeteer

// Handle wraps a platform I/O handle (a POSIX file descriptor, or a Windows
// HANDLE) in a value that is hashable, orderable and comparable, without
// exposing any I/O operations of its own.
//
// Handle never performs I/O. It is a token: the [Connector] that owns the
// underlying resource passes it to an [IOSubsystem] for readiness
// registration, and to nothing else. Exactly one value, [InvalidHandle], is
// reserved as "invalid" - see [Handle.Valid]. The zero value Handle{} is not
// that sentinel: it wraps raw platform value 0.
type Handle struct {
	raw rawHandle
}

// InvalidHandle is the reserved sentinel for "no handle". Valid() is false
// for this value and only this value.
var InvalidHandle = Handle{raw: invalidRawHandle}

// handleFromRaw wraps a platform-native handle value. Used only by
// connector implementations and I/O subsystem code within this module.
func handleFromRaw(raw rawHandle) Handle {
	return Handle{raw: raw}
}

// MakeDummyHandle returns a handle that compares equal to another dummy
// handle constructed from the same n, and to no other handle, but can never
// be used for actual I/O. It exists for tests and for interrupt bookkeeping
// where a placeholder handle identity is required. n is reduced into the
// platform's reserved dummy range first (modulo 2^31-1 on POSIX, 2^63-1 on
// Windows), so values of n that differ by a multiple of that modulus yield
// the same handle.
func MakeDummyHandle(n uint64) Handle {
	return Handle{raw: dummyRawHandle(n)}
}

// Valid reports whether h is anything other than [InvalidHandle].
func (h Handle) Valid() bool {
	return h.raw != invalidRawHandle
}

// Hash returns a hash consistent with Equal: equal handles always hash
// equal. The hash is derived solely from the raw platform value.
func (h Handle) Hash() uint64 {
	if h.raw == invalidRawHandle {
		return 0
	}
	return hashRawHandle(h.raw)
}

// Equal reports whether h and other wrap the same raw platform value.
func (h Handle) Equal(other Handle) bool {
	return h.raw == other.raw
}

// Less imposes a total order over handles, derived from the raw platform
// value. It exists so Handle can be used as a map/tree key where ordering
// matters, and has no meaning beyond that.
func (h Handle) Less(other Handle) bool {
	return lessRawHandle(h.raw, other.raw)
}

// String renders the handle for logs and error messages.
func (h Handle) String() string {
	if !h.Valid() {
		return "handle(invalid)"
	}
	return "handle(" + rawHandleString(h.raw) + ")"
}
