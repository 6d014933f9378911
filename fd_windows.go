//go:build windows

package packeteer

import (
	"errors"
)

// closeFD is a no-op on Windows since wake FDs don't exist; the IOCP
// wake-up needs no fds (see wakeup_windows.go).
func closeFD(fd int) error {
	// No wake fd exists on Windows, so a non-negative fd is rejected
	if fd >= 0 {
		return errors.New("closeFD not supported on Windows for wake mechanism")
	}
	return nil
}

// readFD is a no-op on Windows since wake FDs don't exist.
// The Windows IOCP implementation uses PostQueuedCompletionStatus for wake-up.
func readFD(fd int, buf []byte) (int, error) {
	return 0, nil
}

// writeFD is a no-op on Windows since wake FDs don't exist.
// The Windows IOCP implementation uses PostQueuedCompletionStatus for wake-up.
func writeFD(fd int, buf []byte) (int, error) {
	return 0, nil
}
