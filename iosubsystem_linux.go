//go:build linux

package packeteer

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// epollSubsystem is the Linux [IOSubsystem], adapted from the teacher's
// FastPoller (poller_linux.go in the pack): same epoll_create1/epoll_ctl/
// epoll_wait calls, generalized from a 65536-entry fixed array and a
// 4-bit IOEvents type to a map keyed by handle and the full [EventMask].
// A map trades the teacher's O(1) array lookup for O(1) amortized lookup;
// Register still enforces a ceiling of maxFDs registered handles and
// reports *num-files* beyond it rather than silently truncating.
type epollSubsystem struct {
	epfd int

	mu   sync.Mutex
	fds  map[int]EventMask
	gone bool

	eventBuf [256]unix.EpollEvent
}

func newPlatformIOSubsystem() (IOSubsystem, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, WrapError(Unexpected, "epoll_create1", err)
	}
	return &epollSubsystem{epfd: epfd, fds: make(map[int]EventMask)}, nil
}

func (p *epollSubsystem) Register(handle Handle, mask EventMask) error {
	fd, err := unixFD(handle)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gone {
		return NewError(Initialization, "io subsystem closed")
	}
	if len(p.fds) >= maxFDs {
		if _, exists := p.fds[fd]; !exists {
			return NewError(NumFiles, "epoll capacity exceeded")
		}
	}
	existing, had := p.fds[fd]
	merged := existing | mask
	op := unix.EPOLL_CTL_MOD
	if !had {
		op = unix.EPOLL_CTL_ADD
	}
	ev := unix.EpollEvent{Events: maskToEpoll(merged), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, op, fd, &ev); err != nil {
		return WrapError(Unexpected, "epoll_ctl", err)
	}
	p.fds[fd] = merged
	return nil
}

func (p *epollSubsystem) Unregister(handle Handle, mask EventMask) error {
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
	remaining := existing &^ mask
	if remaining == 0 {
		delete(p.fds, fd)
		_ = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
		return nil
	}
	ev := unix.EpollEvent{Events: maskToEpoll(remaining), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return WrapError(Unexpected, "epoll_ctl", err)
	}
	p.fds[fd] = remaining
	return nil
}

func (p *epollSubsystem) Wait(timeout time.Duration) ([]ReadyEvent, error) {
	ms := durationToEpollMS(timeout)
	n, err := unix.EpollWait(p.epfd, p.eventBuf[:], ms)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, WrapError(Unexpected, "epoll_wait", err)
	}
	out := make([]ReadyEvent, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, ReadyEvent{
			Handle: handleFromRaw(rawHandle(p.eventBuf[i].Fd)),
			Mask:   epollToMask(p.eventBuf[i].Events),
		})
	}
	return out, nil
}

func (p *epollSubsystem) Close() error {
	p.mu.Lock()
	p.gone = true
	p.mu.Unlock()
	return unix.Close(p.epfd)
}

func durationToEpollMS(timeout time.Duration) int {
	if timeout < 0 {
		return -1
	}
	ms := timeout.Milliseconds()
	if ms > int64(^uint32(0)>>1) {
		ms = int64(^uint32(0) >> 1)
	}
	return int(ms)
}

func maskToEpoll(m EventMask) uint32 {
	var e uint32
	if m.Any(IORead) {
		e |= unix.EPOLLIN
	}
	if m.Any(IOWrite) {
		e |= unix.EPOLLOUT
	}
	return e
}

func epollToMask(e uint32) EventMask {
	var m EventMask
	if e&unix.EPOLLIN != 0 {
		m |= IORead
	}
	if e&unix.EPOLLOUT != 0 {
		m |= IOWrite
	}
	if e&unix.EPOLLERR != 0 {
		m |= IOError
	}
	if e&unix.EPOLLHUP != 0 || e&unix.EPOLLRDHUP != 0 {
		m |= IORead | IOClose
	}
	return m
}

// maxFDs bounds map growth so *num-files* is a reachable error rather
// than unbounded memory growth; chosen to match the teacher's own
// fixed-array ceiling (poller_linux.go's maxFDs=65536) even though this
// implementation no longer needs a fixed array to enforce it.
const maxFDs = 65536

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
