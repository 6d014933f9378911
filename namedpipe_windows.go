//go:build windows

package packeteer

import (
	"syscall"

	"golang.org/x/sys/windows"
)

const namedPipePrefix = `\\.\pipe\`

// createNamedPipeServer creates a Win32 native named pipe configured for
// overlapped (IOCP-driven) duplex I/O - spec §6's `pipe:///name` on
// Windows.
func createNamedPipeServer(name string) (sockFD, error) {
	path, err := syscall.UTF16PtrFromString(namedPipePrefix + name)
	if err != nil {
		return invalidSockFD, WrapError(Format, "invalid pipe name", err)
	}
	h, err := windows.CreateNamedPipe(
		path,
		windows.PIPE_ACCESS_DUPLEX|windows.FILE_FLAG_OVERLAPPED,
		windows.PIPE_TYPE_BYTE|windows.PIPE_READMODE_BYTE,
		windows.PIPE_UNLIMITED_INSTANCES,
		4096, 4096, 0, nil,
	)
	if err != nil {
		return invalidSockFD, translateWinError(err)
	}
	return h, nil
}

func openNamedPipeClient(name string) (sockFD, error) {
	path, err := syscall.UTF16PtrFromString(namedPipePrefix + name)
	if err != nil {
		return invalidSockFD, WrapError(Format, "invalid pipe name", err)
	}
	h, err := windows.CreateFile(
		path,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		0, nil, windows.OPEN_EXISTING, windows.FILE_FLAG_OVERLAPPED, 0,
	)
	if err != nil {
		return invalidSockFD, translateWinError(err)
	}
	return h, nil
}
