//go:build linux

//lint:file-ignore U1000 Platform-specific stub functions (required for Windows/Darwin compatibility)

package packeteer

import (
	"golang.org/x/sys/unix"
)

const (
	EFD_CLOEXEC  = unix.EFD_CLOEXEC
	EFD_NONBLOCK = unix.EFD_NONBLOCK
)

// createWakeFd creates an eventfd for wake-up notifications (Linux).
// Returns the single eventfd as both read and write ends.
func createWakeFd(initval uint, flags int) (int, int, error) {
	fd, err := unix.Eventfd(initval, flags)
	return fd, fd, err
}

// closeWakeFd closes the wake eventfd on Linux.
func closeWakeFd(wakeFd, wakeWriteFd int) error {
	if wakeFd >= 0 {
		_ = unix.Close(wakeFd)
	}
	return nil
}

// isWakeFdSupported returns true on Linux (eventfd mechanism).
func isWakeFdSupported() bool {
	return true
}

// drainWakeUpPipe drains the fd returned by getWakeReadFd; since that is
// always -1, it reads nothing.
func drainWakeUpPipe() error {
	if wakeFd := getWakeReadFd(); wakeFd >= 0 {
		// Read all available wake-ups
		var buf [8]byte
		for {
			_, err := unix.Read(wakeFd, buf[:])
			if err != nil {
				break
			}
		}
	}
	return nil
}

// getWakeReadFd always returns -1: there is no package-level wake fd
// (signalConnector keeps its own).
func getWakeReadFd() int {
	return -1
}

// submitGenericWakeup is a no-op stub for Darwin/Linux.
// This function name exists on Windows for PostQueuedCompletionStatus.
//
// Note: Nothing calls it on Darwin/Linux; signal_unix.go wakes the
// dispatch thread through its own wake fd.
func submitGenericWakeup(_ uintptr) error {
	// This stub exists for function name compatibility with Windows
	return nil
}
