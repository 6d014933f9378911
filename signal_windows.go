//go:build windows

package packeteer

import "golang.org/x/sys/windows"

// signalConnector on Windows has no backing handle: IOCP wake-up goes
// through PostQueuedCompletionStatus directly (see submitGenericWakeup in
// wakeup_windows.go), which GetQueuedCompletionStatus reports as an
// overlapped==nil completion - the iocpSubsystem.Wait implementation
// maps that straight to (InvalidHandle, IORead) without any handle
// registration round-trip. Commit needs the IOCP handle, wired in by the
// scheduler after the I/O subsystem is constructed.
type signalConnector struct {
	iocp windows.Handle
}

func newSignalConnector() (*signalConnector, error) {
	return &signalConnector{}, nil
}

// bindIOCP is called once the scheduler's I/O subsystem has created its
// completion port, so Commit can post to it.
func (s *signalConnector) bindIOCP(h windows.Handle) {
	s.iocp = h
}

func (s *signalConnector) Handle() Handle {
	return InvalidHandle
}

func (s *signalConnector) Commit() error {
	if s.iocp == 0 {
		return nil
	}
	return submitGenericWakeup(uintptr(s.iocp))
}

func (s *signalConnector) Clear() error {
	return nil
}

func (s *signalConnector) Close() error {
	return nil
}

// bindSignalToIOSubsystem wires the completion port handle from io (must
// be *iocpSubsystem) into sig, so Commit can post a wake-up to it.
func bindSignalToIOSubsystem(sig *signalConnector, io IOSubsystem) {
	if iocp, ok := io.(*iocpSubsystem); ok {
		sig.bindIOCP(iocp.iocp)
	}
}
