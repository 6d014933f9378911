//go:build linux || darwin

package packeteer

import "golang.org/x/sys/unix"

// newPipePair opens one OS pipe with both ends non-blocking and
// close-on-exec, backing anonConnector. fifoConnector and pipeConnector
// use openFIFO instead.
func newPipePair() (sockFD, sockFD, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return invalidSockFD, invalidSockFD, translateErrno(err)
	}
	return fds[0], fds[1], nil
}
