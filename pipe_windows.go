//go:build windows

package packeteer

import "golang.org/x/sys/windows"

// newPipePair opens an anonymous pipe via CreatePipe. Windows anonymous
// pipes have no non-blocking mode; callers needing IOCP-driven readiness
// should prefer the "pipe" scheme's named-pipe implementation, which
// supports overlapped I/O.
func newPipePair() (sockFD, sockFD, error) {
	var r, w windows.Handle
	if err := windows.CreatePipe(&r, &w, nil, 0); err != nil {
		return invalidSockFD, invalidSockFD, translateWinError(err)
	}
	return r, w, nil
}
