//go:build windows

package packeteer

import (
	"golang.org/x/sys/windows"
)

// sockFD is the native socket descriptor type on this platform.
type sockFD = windows.Handle

const invalidSockFD sockFD = windows.InvalidHandle

const (
	sockStream = windows.SOCK_STREAM
	sockDgram  = windows.SOCK_DGRAM
)

func socketHandle(fd sockFD) Handle { return handleFromRaw(rawHandle(fd)) }
func socketFD(h Handle) sockFD      { return windows.Handle(h.raw) }

func closeSocket(fd sockFD) error {
	return windows.Closesocket(fd)
}

func domainFromType(typ ConnectorType) int32 {
	switch typ {
	case TypeTCP6, TypeUDP6:
		return windows.AF_INET6
	case TypeLocal, TypePipe, TypeFIFO:
		return windows.AF_UNIX
	default:
		return windows.AF_INET
	}
}

func sockaddrFromSocketAddress(a SocketAddress) (windows.Sockaddr, error) {
	switch a.Family {
	case AddrUnspecified:
		return &windows.SockaddrInet4{}, nil
	case AddrIPv4:
		var sa windows.SockaddrInet4
		sa.Port = int(a.Port)
		copy(sa.Addr[:], a.IP.To4())
		return &sa, nil
	case AddrIPv6:
		var sa windows.SockaddrInet6
		sa.Port = int(a.Port)
		copy(sa.Addr[:], a.IP.To16())
		return &sa, nil
	case AddrLocal:
		return &windows.SockaddrUnix{Name: a.Path}, nil
	default:
		return nil, NewError(InvalidValue, "unrecognized address family")
	}
}

func socketAddressFromSockaddr(sa windows.Sockaddr) SocketAddress {
	switch v := sa.(type) {
	case *windows.SockaddrInet4:
		return SocketAddress{Family: AddrIPv4, IP: append([]byte(nil), v.Addr[:]...), Port: uint16(v.Port)}
	case *windows.SockaddrInet6:
		return SocketAddress{Family: AddrIPv6, IP: append([]byte(nil), v.Addr[:]...), Port: uint16(v.Port)}
	case *windows.SockaddrUnix:
		return SocketAddress{Family: AddrLocal, Path: v.Name}
	default:
		return SocketAddress{}
	}
}

// createSocket opens a socket set to non-blocking mode immediately, mirroring
// socket_unix.go's SOCK_NONBLOCK.
func createSocket(typ ConnectorType, sockType int) (windows.Handle, error) {
	fd, err := windows.Socket(domainFromType(typ), int32(sockType), 0)
	if err != nil {
		return windows.InvalidHandle, translateWinError(err)
	}
	var mode uint32 = 1
	if err := windows.Ioctlsocket(fd, windows.FIONBIO, &mode); err != nil {
		_ = windows.Closesocket(fd)
		return windows.InvalidHandle, translateWinError(err)
	}
	return fd, nil
}

func bindSocket(fd windows.Handle, addr SocketAddress) error {
	sa, err := sockaddrFromSocketAddress(addr)
	if err != nil {
		return err
	}
	if err := windows.Bind(fd, sa); err != nil {
		return translateWinError(err)
	}
	return nil
}

func listenSocket(fd windows.Handle, backlog int) error {
	if err := windows.Listen(fd, backlog); err != nil {
		return translateWinError(err)
	}
	return nil
}

func connectSocket(fd windows.Handle, addr SocketAddress) error {
	sa, err := sockaddrFromSocketAddress(addr)
	if err != nil {
		return err
	}
	err = windows.Connect(fd, sa)
	if err == nil {
		return nil
	}
	if err == windows.WSAEWOULDBLOCK {
		return NewError(Async, "connect in progress")
	}
	return translateWinError(err)
}

func acceptSocket(fd windows.Handle) (windows.Handle, SocketAddress, error) {
	nfd, sa, err := windows.Accept(fd)
	if err != nil {
		if err == windows.WSAEWOULDBLOCK {
			return windows.InvalidHandle, SocketAddress{}, NewError(RepeatAction, "no pending connection")
		}
		return windows.InvalidHandle, SocketAddress{}, translateWinError(err)
	}
	var mode uint32 = 1
	_ = windows.Ioctlsocket(nfd, windows.FIONBIO, &mode)
	return nfd, socketAddressFromSockaddr(sa), nil
}

func getSockName(fd windows.Handle) SocketAddress {
	sa, err := windows.Getsockname(fd)
	if err != nil {
		return SocketAddress{}
	}
	return socketAddressFromSockaddr(sa)
}

func getPeerName(fd windows.Handle) SocketAddress {
	sa, err := windows.Getpeername(fd)
	if err != nil {
		return SocketAddress{}
	}
	return socketAddressFromSockaddr(sa)
}

func setNonblocking(fd windows.Handle, nonblocking bool) error {
	var mode uint32
	if nonblocking {
		mode = 1
	}
	if err := windows.Ioctlsocket(fd, windows.FIONBIO, &mode); err != nil {
		return translateWinError(err)
	}
	return nil
}

func readSocket(fd windows.Handle, buf []byte) (int, error) {
	n, err := windows.Read(fd, buf)
	if err != nil {
		if err == windows.WSAEWOULDBLOCK {
			return 0, NewError(RepeatAction, "read would block")
		}
		return 0, translateWinError(err)
	}
	return n, nil
}

func writeSocket(fd windows.Handle, buf []byte) (int, error) {
	n, err := windows.Write(fd, buf)
	if err != nil {
		if err == windows.WSAEWOULDBLOCK {
			return 0, NewError(RepeatAction, "write would block")
		}
		return 0, translateWinError(err)
	}
	return n, nil
}

func recvfromSocket(fd windows.Handle, buf []byte) (int, SocketAddress, error) {
	n, from, err := windows.Recvfrom(fd, buf, 0)
	if err != nil {
		if err == windows.WSAEWOULDBLOCK {
			return 0, SocketAddress{}, NewError(RepeatAction, "receive would block")
		}
		return 0, SocketAddress{}, translateWinError(err)
	}
	return n, socketAddressFromSockaddr(from), nil
}

func sendtoSocket(fd windows.Handle, buf []byte, recipient SocketAddress) (int, error) {
	sa, err := sockaddrFromSocketAddress(recipient)
	if err != nil {
		return 0, err
	}
	if err := windows.Sendto(fd, buf, 0, sa); err != nil {
		if err == windows.WSAEWOULDBLOCK {
			return 0, NewError(RepeatAction, "send would block")
		}
		return 0, translateWinError(err)
	}
	return len(buf), nil
}

// peekSocket mirrors socket_unix.go's MSG_PEEK behaviour; best-effort per
// spec §4.4's peek() row.
func peekSocket(fd windows.Handle, buf []byte) (int, error) {
	n, _, err := windows.Recvfrom(fd, buf, windows.MSG_PEEK)
	if err != nil {
		if err == windows.WSAEWOULDBLOCK {
			return 0, nil
		}
		return 0, translateWinError(err)
	}
	return n, nil
}

// peekFD reports bytes available on a non-socket handle (pipe, named
// pipe) via PeekNamedPipe - the Windows analogue of socket_unix.go's
// FIONREAD-based peekFD.
func peekFD(fd sockFD, _ []byte) (int, error) {
	var avail uint32
	if err := windows.PeekNamedPipe(fd, nil, 0, nil, &avail, nil); err != nil {
		return 0, translateWinError(err)
	}
	return int(avail), nil
}

func translateWinError(err error) error {
	switch err {
	case windows.WSAECONNREFUSED:
		return NewError(ConnectionRefused, "connection refused")
	case windows.WSAECONNABORTED, windows.WSAECONNRESET:
		return NewError(ConnectionAborted, "connection aborted")
	case windows.WSAENETUNREACH, windows.WSAEHOSTUNREACH:
		return NewError(NetworkUnreachable, "network unreachable")
	case windows.WSAEADDRINUSE:
		return NewError(AddressInUse, "address in use")
	case windows.WSAEADDRNOTAVAIL:
		return NewError(AddressNotAvailable, "address not available")
	case windows.WSAETIMEDOUT:
		return NewError(TimeoutError, "operation timed out")
	case windows.WSAEMFILE:
		return NewError(NumFiles, "too many open files")
	case windows.WSAEACCES:
		return NewError(AccessViolation, "access denied")
	case windows.WSAENOTCONN:
		return NewError(NoConnection, "not connected")
	default:
		return WrapError(FSError, "socket operation failed", err)
	}
}
