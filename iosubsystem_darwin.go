//go:build darwin

package packeteer

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// kqueueSubsystem is the Darwin/BSD [IOSubsystem], adapted from the
// teacher's FastPoller (poller_darwin.go in the pack): same kqueue/kevent
// calls, generalized from a dynamically-grown fdInfo slice and 4-bit
// IOEvents to a map keyed by handle and the full [EventMask].
type kqueueSubsystem struct {
	kq int

	mu   sync.Mutex
	fds  map[int]EventMask
	gone bool

	eventBuf [256]unix.Kevent_t
}

func newPlatformIOSubsystem() (IOSubsystem, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, WrapError(Unexpected, "kqueue", err)
	}
	unix.CloseOnExec(kq)
	return &kqueueSubsystem{kq: kq, fds: make(map[int]EventMask)}, nil
}

func (p *kqueueSubsystem) Register(handle Handle, mask EventMask) error {
	fd, err := unixFD(handle)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gone {
		return NewError(Initialization, "io subsystem closed")
	}
	existing := p.fds[fd]
	add := mask &^ existing
	if kevs := maskToKevents(fd, add, unix.EV_ADD|unix.EV_ENABLE); len(kevs) > 0 {
		if _, err := unix.Kevent(p.kq, kevs, nil, nil); err != nil {
			return WrapError(Unexpected, "kevent add", err)
		}
	}
	p.fds[fd] = existing | mask
	return nil
}

func (p *kqueueSubsystem) Unregister(handle Handle, mask EventMask) error {
	fd, err := unixFD(handle)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	existing, had := p.fds[fd]
	if !had {
		return nil
	}
	remove := existing & mask
	if kevs := maskToKevents(fd, remove, unix.EV_DELETE); len(kevs) > 0 {
		_, _ = unix.Kevent(p.kq, kevs, nil, nil)
	}
	remaining := existing &^ mask
	if remaining == 0 {
		delete(p.fds, fd)
	} else {
		p.fds[fd] = remaining
	}
	return nil
}

func (p *kqueueSubsystem) Wait(timeout time.Duration) ([]ReadyEvent, error) {
	var ts *unix.Timespec
	if timeout >= 0 {
		ts = &unix.Timespec{
			Sec:  int64(timeout / time.Second),
			Nsec: int64(timeout % time.Second),
		}
	}
	n, err := unix.Kevent(p.kq, nil, p.eventBuf[:], ts)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, WrapError(Unexpected, "kevent wait", err)
	}
	merged := map[int]EventMask{}
	order := make([]int, 0, n)
	for i := 0; i < n; i++ {
		fd := int(p.eventBuf[i].Ident)
		if _, ok := merged[fd]; !ok {
			order = append(order, fd)
		}
		merged[fd] |= keventToMask(&p.eventBuf[i])
	}
	out := make([]ReadyEvent, 0, len(order))
	for _, fd := range order {
		out = append(out, ReadyEvent{Handle: handleFromRaw(rawHandle(fd)), Mask: merged[fd]})
	}
	return out, nil
}

func (p *kqueueSubsystem) Close() error {
	p.mu.Lock()
	p.gone = true
	p.mu.Unlock()
	return unix.Close(p.kq)
}

func maskToKevents(fd int, m EventMask, flags uint16) []unix.Kevent_t {
	var out []unix.Kevent_t
	if m.Any(IORead) {
		out = append(out, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: flags})
	}
	if m.Any(IOWrite) {
		out = append(out, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: flags})
	}
	return out
}

func keventToMask(kev *unix.Kevent_t) EventMask {
	var m EventMask
	switch kev.Filter {
	case unix.EVFILT_READ:
		m |= IORead
	case unix.EVFILT_WRITE:
		m |= IOWrite
	}
	if kev.Flags&unix.EV_ERROR != 0 {
		m |= IOError
	}
	if kev.Flags&unix.EV_EOF != 0 {
		m |= IORead | IOClose
	}
	return m
}

func unixFD(h Handle) (int, error) {
	if !h.Valid() {
		return 0, NewError(InvalidValue, "invalid handle")
	}
	fd := int(h.raw)
	if fd < 0 {
		return 0, NewError(InvalidValue, "invalid handle")
	}
	return fd, nil
}
