//go:build linux || darwin

package packeteer

import (
	"golang.org/x/sys/unix"
)

// sockFD is the native socket descriptor type on this platform.
type sockFD = int

const invalidSockFD sockFD = -1

const (
	sockStream = unix.SOCK_STREAM
	sockDgram  = unix.SOCK_DGRAM
)

// socketHandle wraps a raw fd as a [Handle]; socketFD is its inverse.
func socketHandle(fd sockFD) Handle { return handleFromRaw(rawHandle(fd)) }
func socketFD(h Handle) sockFD      { return int(h.raw) }

func closeSocket(fd sockFD) error {
	return unix.Close(fd)
}

// sockaddrFromSocketAddress converts a [SocketAddress] into the
// unix.Sockaddr shape needed by bind/connect/sendto.
func sockaddrFromSocketAddress(a SocketAddress) (unix.Sockaddr, error) {
	switch a.Family {
	case AddrUnspecified:
		return &unix.SockaddrInet4{}, nil
	case AddrIPv4:
		var sa unix.SockaddrInet4
		sa.Port = int(a.Port)
		copy(sa.Addr[:], a.IP.To4())
		return &sa, nil
	case AddrIPv6:
		var sa unix.SockaddrInet6
		sa.Port = int(a.Port)
		copy(sa.Addr[:], a.IP.To16())
		return &sa, nil
	case AddrLocal:
		return &unix.SockaddrUnix{Name: a.Path}, nil
	default:
		return nil, NewError(InvalidValue, "unrecognized address family")
	}
}

// socketAddressFromSockaddr is the inverse of sockaddrFromSocketAddress,
// used to populate SocketAddr()/PeerAddr() and Receive()'s sender.
func socketAddressFromSockaddr(sa unix.Sockaddr) SocketAddress {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return SocketAddress{Family: AddrIPv4, IP: append([]byte(nil), v.Addr[:]...), Port: uint16(v.Port)}
	case *unix.SockaddrInet6:
		return SocketAddress{Family: AddrIPv6, IP: append([]byte(nil), v.Addr[:]...), Port: uint16(v.Port)}
	case *unix.SockaddrUnix:
		return SocketAddress{Family: AddrLocal, Path: v.Name}
	default:
		return SocketAddress{}
	}
}

// domainFromType picks the socket address family for a connector type.
func domainFromType(typ ConnectorType) int {
	switch typ {
	case TypeTCP6, TypeUDP6:
		return unix.AF_INET6
	case TypeLocal, TypePipe, TypeFIFO:
		return unix.AF_UNIX
	default:
		return unix.AF_INET
	}
}

// createSocket opens a non-blocking, close-on-exec socket for typ.
func createSocket(typ ConnectorType, sockType int) (int, error) {
	fd, err := unix.Socket(domainFromType(typ), sockType|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, translateErrno(err)
	}
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	return fd, nil
}

func bindSocket(fd int, addr SocketAddress) error {
	sa, err := sockaddrFromSocketAddress(addr)
	if err != nil {
		return err
	}
	if err := unix.Bind(fd, sa); err != nil {
		return translateErrno(err)
	}
	return nil
}

func listenSocket(fd int, backlog int) error {
	if err := unix.Listen(fd, backlog); err != nil {
		return translateErrno(err)
	}
	return nil
}

// connectSocket attempts a connect(); a non-blocking socket mid-handshake
// reports EINPROGRESS, translated to *async* per spec §4.4's tie-break.
func connectSocket(fd int, addr SocketAddress) error {
	sa, err := sockaddrFromSocketAddress(addr)
	if err != nil {
		return err
	}
	err = unix.Connect(fd, sa)
	if err == nil {
		return nil
	}
	if err == unix.EINPROGRESS {
		return NewError(Async, "connect in progress")
	}
	return translateErrno(err)
}

// acceptSocket accepts one pending connection; EAGAIN/EWOULDBLOCK maps to
// *repeat-action* per spec §4.4.
func acceptSocket(fd int) (int, SocketAddress, error) {
	nfd, sa, err := unix.Accept4(fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		if err == unix.EAGAIN {
			return -1, SocketAddress{}, NewError(RepeatAction, "no pending connection")
		}
		return -1, SocketAddress{}, translateErrno(err)
	}
	return nfd, socketAddressFromSockaddr(sa), nil
}

func getSockName(fd int) SocketAddress {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return SocketAddress{}
	}
	return socketAddressFromSockaddr(sa)
}

func getPeerName(fd int) SocketAddress {
	sa, err := unix.Getpeername(fd)
	if err != nil {
		return SocketAddress{}
	}
	return socketAddressFromSockaddr(sa)
}

func setNonblocking(fd int, nonblocking bool) error {
	if err := unix.SetNonblock(fd, nonblocking); err != nil {
		return translateErrno(err)
	}
	return nil
}

// readSocket wraps unix.Read, translating EAGAIN/EWOULDBLOCK to
// *repeat-action*.
func readSocket(fd int, buf []byte) (int, error) {
	n, err := unix.Read(fd, buf)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, NewError(RepeatAction, "read would block")
		}
		return 0, translateErrno(err)
	}
	return n, nil
}

// writeSocket wraps unix.Write; a full send buffer (EAGAIN) maps to
// *repeat-action*, never *async* - spec §4.4 tie-break.
func writeSocket(fd int, buf []byte) (int, error) {
	n, err := unix.Write(fd, buf)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, NewError(RepeatAction, "write would block")
		}
		return 0, translateErrno(err)
	}
	return n, nil
}

func recvfromSocket(fd int, buf []byte) (int, SocketAddress, error) {
	n, sa, err := unix.Recvfrom(fd, buf, 0)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, SocketAddress{}, NewError(RepeatAction, "receive would block")
		}
		return 0, SocketAddress{}, translateErrno(err)
	}
	return n, socketAddressFromSockaddr(sa), nil
}

func sendtoSocket(fd int, buf []byte, recipient SocketAddress) (int, error) {
	sa, err := sockaddrFromSocketAddress(recipient)
	if err != nil {
		return 0, err
	}
	if err := unix.Sendto(fd, buf, 0, sa); err != nil {
		if err == unix.EAGAIN {
			return 0, NewError(RepeatAction, "send would block")
		}
		return 0, translateErrno(err)
	}
	return len(buf), nil
}

// peekSocket reports the number of bytes currently queued for fd without
// consuming them, via MSG_PEEK - spec §4.4's peek() operation.
func peekSocket(fd int, buf []byte) (int, error) {
	n, _, err := unix.Recvfrom(fd, buf, unix.MSG_PEEK)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, nil
		}
		return 0, translateErrno(err)
	}
	return n, nil
}

// peekFD reports the number of bytes currently readable from fd via the
// FIONREAD ioctl, for descriptors that aren't sockets (pipes, FIFOs) and
// so can't use MSG_PEEK - spec §4.4's peek() row.
func peekFD(fd sockFD, _ []byte) (int, error) {
	n, err := unix.IoctlGetInt(fd, unix.FIONREAD)
	if err != nil {
		return 0, translateErrno(err)
	}
	return n, nil
}

// translateErrno maps a raw unix.Errno into the closed error taxonomy -
// spec §4.6's "callers see no platform codes".
func translateErrno(err error) error {
	errno, ok := err.(unix.Errno)
	if !ok {
		return WrapError(Unexpected, "socket operation failed", err)
	}
	switch errno {
	case unix.ECONNREFUSED:
		return NewError(ConnectionRefused, "connection refused")
	case unix.ECONNABORTED, unix.ECONNRESET, unix.EPIPE:
		return NewError(ConnectionAborted, "connection aborted")
	case unix.ENETUNREACH, unix.EHOSTUNREACH:
		return NewError(NetworkUnreachable, "network unreachable")
	case unix.EADDRINUSE:
		return NewError(AddressInUse, "address in use")
	case unix.EADDRNOTAVAIL:
		return NewError(AddressNotAvailable, "address not available")
	case unix.ETIMEDOUT:
		return NewError(TimeoutError, "operation timed out")
	case unix.EMFILE, unix.ENFILE:
		return NewError(NumFiles, "too many open files")
	case unix.ENOMEM:
		return NewError(OutOfMemory, "out of memory")
	case unix.EACCES, unix.EPERM:
		return NewError(AccessViolation, "access denied")
	case unix.ENOTCONN:
		return NewError(NoConnection, "not connected")
	default:
		return WrapError(FSError, "socket operation failed", err)
	}
}
