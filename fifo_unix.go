//go:build linux || darwin

package packeteer

import "golang.org/x/sys/unix"

func createFIFONode(path string) error {
	err := unix.Mkfifo(path, 0o666)
	if err != nil && err != unix.EEXIST {
		return translateErrno(err)
	}
	return nil
}

// openFIFO opens path non-blocking; readSide selects O_RDONLY vs
// O_WRONLY. Opening a FIFO blocks until the other end is also opened
// unless O_NONBLOCK is set, which is why every FIFO open here is
// non-blocking regardless of the connector's own blocking mode. Listen and
// Connect do not change that afterwards: the descriptor stays non-blocking
// until SetBlocking is called.
func openFIFO(path string, readSide bool) (sockFD, error) {
	flags := unix.O_NONBLOCK | unix.O_CLOEXEC
	if readSide {
		flags |= unix.O_RDONLY
	} else {
		flags |= unix.O_WRONLY
	}
	fd, err := unix.Open(path, flags, 0)
	if err != nil {
		return invalidSockFD, translateErrno(err)
	}
	return fd, nil
}
