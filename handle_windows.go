//go:build windows

package packeteer

import "strconv"

// rawHandle on Windows wraps a HANDLE (sockets and files alike; the I/O
// subsystem disambiguates via the connector that registered it).
type rawHandle uintptr

const invalidRawHandle rawHandle = ^rawHandle(0)

func dummyRawHandle(n uint64) rawHandle {
	// Real HANDLE values are kernel object table indices and never occupy
	// the top half of the address space in practice; reserve it for dummies.
	return rawHandle(0x8000000000000000 | (n % 0x7fffffffffffffff))
}

func hashRawHandle(h rawHandle) uint64 {
	x := uint64(h)
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}

func lessRawHandle(a, b rawHandle) bool {
	return a < b
}

func rawHandleString(h rawHandle) string {
	return strconv.FormatUint(uint64(h), 10)
}
