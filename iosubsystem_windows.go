//go:build windows

package packeteer

import (
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// completionKey is an opaque value IOCP threads back to us in a
// completion packet; we use it to distinguish a real I/O completion
// (completionKey == handle value, see SPEC_FULL.md's Win32 notes) from a
// synthetic wake-up (key 0, no overlapped). socketReadyKey is reserved as
// a third key for socket readiness notifications, but nothing in this
// package posts a packet with it.
const socketReadyKey = ^uintptr(0)

// overlappedSocketEvent extends windows.Overlapped with a (fd, mask) pair
// so a pointer to one can travel through PostQueuedCompletionStatus/
// GetQueuedCompletionStatus. No socket readiness loop exists in this
// package: no goroutine is started that polls sockets or posts these
// events, so sockets report only what their IOCP completions report.
type overlappedSocketEvent struct {
	windows.Overlapped
	fd   windows.Handle
	mask EventMask
}

// iocpSubsystem is the Windows [IOSubsystem], adapted from the teacher's
// FastPoller (poller_windows.go in the pack): same
// CreateIoCompletionPort/GetQueuedCompletionStatus/
// PostQueuedCompletionStatus calls, generalized to the full [EventMask].
// All events come from completion packets; the sockets map, auxStop and
// auxGroup are never populated by a readiness loop (none is started), and
// Close only closes auxStop and waits on the empty auxGroup.
type iocpSubsystem struct {
	iocp windows.Handle

	mu       sync.Mutex
	fds      map[windows.Handle]EventMask
	sockets  map[windows.Handle]bool // allocated but never filled
	gone     bool
	auxStop  chan struct{}
	auxGroup sync.WaitGroup
}

func newPlatformIOSubsystem() (IOSubsystem, error) {
	iocp, err := windows.CreateIoCompletionPort(windows.InvalidHandle, 0, 0, 0)
	if err != nil {
		return nil, WrapError(Unexpected, "CreateIoCompletionPort", err)
	}
	s := &iocpSubsystem{
		iocp:    iocp,
		fds:     make(map[windows.Handle]EventMask),
		sockets: make(map[windows.Handle]bool),
		auxStop: make(chan struct{}),
	}
	return s, nil
}

func windowsHandle(h Handle) (windows.Handle, error) {
	if !h.Valid() {
		return 0, NewError(InvalidValue, "invalid handle")
	}
	return windows.Handle(h.raw), nil
}

func (s *iocpSubsystem) Register(handle Handle, mask EventMask) error {
	h, err := windowsHandle(handle)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gone {
		return NewError(Initialization, "io subsystem closed")
	}
	existing, had := s.fds[h]
	if !had {
		if _, err := windows.CreateIoCompletionPort(h, s.iocp, uintptr(h), 0); err != nil {
			return WrapError(Unexpected, "CreateIoCompletionPort (associate)", err)
		}
	}
	s.fds[h] = existing | mask
	if mask.Any(IORead) {
		s.postZeroByteRead(h)
	}
	return nil
}

func (s *iocpSubsystem) Unregister(handle Handle, mask EventMask) error {
	h, err := windowsHandle(handle)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, had := s.fds[h]
	if !had {
		return nil
	}
	remaining := existing &^ mask
	if remaining == 0 {
		delete(s.fds, h)
		delete(s.sockets, h)
	} else {
		s.fds[h] = remaining
	}
	return nil
}

// postZeroByteRead posts a zero-length overlapped read on h so the
// completion port can surface read readiness, per the design note above.
// Errors here are not fatal to Register: the next Wait's dispatch loop
// will simply not observe readiness for h until retried.
func (s *iocpSubsystem) postZeroByteRead(h windows.Handle) {
	ov := &overlappedSocketEvent{fd: h, mask: IORead}
	var done uint32
	_ = windows.ReadFile(h, nil, &done, &ov.Overlapped)
}

func (s *iocpSubsystem) Wait(timeout time.Duration) ([]ReadyEvent, error) {
	var ms *uint32
	if timeout >= 0 {
		t := uint32(timeout.Milliseconds())
		ms = &t
	}
	var bytes uint32
	var key uintptr
	var overlapped *windows.Overlapped
	err := windows.GetQueuedCompletionStatus(s.iocp, &bytes, &key, &overlapped, derefOrInfinite(ms))
	if err != nil {
		if err == windows.WAIT_TIMEOUT {
			return nil, nil
		}
		return nil, WrapError(Unexpected, "GetQueuedCompletionStatus", err)
	}
	if overlapped == nil {
		// Generic wake-up via PostQueuedCompletionStatus(iocp, 0, 0, nil):
		// report it as readiness on the reserved invalid handle so the
		// scheduler's dispatch loop treats it exactly like the POSIX
		// signalling connector's self-interrupt handle.
		return []ReadyEvent{{Handle: InvalidHandle, Mask: IORead}}, nil
	}
	soe := (*overlappedSocketEvent)(unsafe.Pointer(overlapped))
	return []ReadyEvent{{Handle: handleFromRaw(rawHandle(soe.fd)), Mask: soe.mask}}, nil
}

func derefOrInfinite(ms *uint32) uint32 {
	if ms == nil {
		return windows.INFINITE
	}
	return *ms
}

func (s *iocpSubsystem) Close() error {
	s.mu.Lock()
	s.gone = true
	s.mu.Unlock()
	close(s.auxStop)
	s.auxGroup.Wait()
	return windows.CloseHandle(s.iocp)
}
