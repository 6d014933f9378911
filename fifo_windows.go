//go:build windows

package packeteer

// Windows has no FIFO primitive; the "fifo" scheme is registered and its
// factory succeeds, but Listen and Connect fail with *unsupported-action*
// via these two functions, matching unsupportedOnIOSubsystem's TypeFIFO
// rejection for this platform.
func createFIFONode(path string) error {
	return NewError(UnsupportedAction, "FIFOs are not supported on Windows")
}

func openFIFO(path string, readSide bool) (sockFD, error) {
	return invalidSockFD, NewError(UnsupportedAction, "FIFOs are not supported on Windows")
}
