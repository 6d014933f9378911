//go:build !windows

package packeteer

import "golang.org/x/sys/unix"

// signalConnector is the scheduler's self-interrupt handle: an
// anonymous-pipe-like connector (eventfd on Linux, a self-pipe on
// Darwin/BSD - see wakeup_linux.go/wakeup_darwin.go) registered for
// IO_READ with the I/O subsystem so posting a command can wake a blocked
// dispatch thread. Grounded on lib/interrupt.cpp/h in the original
// source (SPEC_FULL.md's "interrupt helper" addition) and built directly
// on the teacher's own wake-pipe plumbing rather than a full anon://
// connector instance, to avoid a registry dependency cycle during
// scheduler construction.
type signalConnector struct {
	readFd  int
	writeFd int
}

func newSignalConnector() (*signalConnector, error) {
	r, w, err := createWakeFd(0, EFD_CLOEXEC|EFD_NONBLOCK)
	if err != nil {
		return nil, WrapError(Initialization, "create signal connector", err)
	}
	return &signalConnector{readFd: r, writeFd: w}, nil
}

// Handle returns the handle to register for IO_READ with the I/O
// subsystem.
func (s *signalConnector) Handle() Handle {
	return handleFromRaw(rawHandle(s.readFd))
}

// Commit writes one byte to the signal, waking a dispatch thread blocked
// in io.wait. May be called with an empty command queue - spec §4.3.
func (s *signalConnector) Commit() error {
	buf := [1]byte{1}
	for {
		_, err := unix.Write(s.writeFd, buf[:])
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			// The eventfd/pipe is already signalled; nothing more to do.
			return nil
		}
		return err
	}
}

// Clear drains any pending signal bytes.
func (s *signalConnector) Clear() error {
	var buf [64]byte
	for {
		n, err := unix.Read(s.readFd, buf[:])
		if n <= 0 || err != nil {
			return nil
		}
	}
}

func (s *signalConnector) Close() error {
	return closeWakeFd(s.readFd, s.writeFd)
}

// bindSignalToIOSubsystem is a no-op on POSIX: the signal connector's
// handle is a real fd, registered with the I/O subsystem the ordinary
// way by the scheduler. Windows needs the extra bind step because its
// signal connector has no handle of its own - see signal_windows.go.
func bindSignalToIOSubsystem(*signalConnector, IOSubsystem) {}
