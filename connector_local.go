package packeteer

import "sync"

// localConnector implements connectorImpl for the "local" scheme:
// local-domain (AF_UNIX / Windows AF_UNIX) stream sockets addressed by
// filesystem path - spec §6's `local:///path` form.
type localConnector struct {
	typ     ConnectorType
	opts    ConnectorOptions
	url     URL
	address SocketAddress

	mu       sync.Mutex
	fd       sockFD
	blocking bool
	closed   bool
}

func newLocalConnector(url URL, typ ConnectorType, opts ConnectorOptions) (connectorImpl, error) {
	if url.Path == "" {
		return nil, NewError(Format, "local scheme requires a path: "+url.String())
	}
	return &localConnector{typ: typ, opts: opts, url: url, address: SocketAddress{Family: AddrLocal, Path: url.Path}, fd: invalidSockFD}, nil
}

func (c *localConnector) Type() ConnectorType       { return c.typ }
func (c *localConnector) Options() ConnectorOptions { return c.opts }
func (c *localConnector) URL() URL                  { return c.url }

func (c *localConnector) ensureSocket() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fd != invalidSockFD {
		return nil
	}
	fd, err := createSocket(c.typ, sockStream)
	if err != nil {
		return err
	}
	c.fd = fd
	c.blocking = c.opts&OptBlocking != 0
	return nil
}

func (c *localConnector) Listen() error {
	if err := c.ensureSocket(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := bindSocket(c.fd, c.address); err != nil {
		return err
	}
	return listenSocket(c.fd, 128)
}

func (c *localConnector) Connect() error {
	if err := c.ensureSocket(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return connectSocket(c.fd, c.address)
}

func (c *localConnector) Accept() (connectorImpl, error) {
	c.mu.Lock()
	fd := c.fd
	c.mu.Unlock()
	nfd, peer, err := acceptSocket(fd)
	if err != nil {
		return nil, err
	}
	return &localConnector{typ: c.typ, opts: c.opts, url: c.url, address: peer, fd: nfd}, nil
}

func (c *localConnector) ReadHandle() Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fd == invalidSockFD {
		return InvalidHandle
	}
	return socketHandle(c.fd)
}

func (c *localConnector) WriteHandle() Handle { return c.ReadHandle() }

func (c *localConnector) Read(buf []byte) (int, error) {
	c.mu.Lock()
	fd := c.fd
	c.mu.Unlock()
	if fd == invalidSockFD {
		return 0, NewError(NoConnection, "not connected")
	}
	return readSocket(fd, buf)
}

func (c *localConnector) Write(buf []byte) (int, error) {
	c.mu.Lock()
	fd := c.fd
	c.mu.Unlock()
	if fd == invalidSockFD {
		return 0, NewError(NoConnection, "not connected")
	}
	return writeSocket(fd, buf)
}

func (c *localConnector) Receive(buf []byte) (int, SocketAddress, error) {
	return 0, SocketAddress{}, NewError(UnsupportedAction, "receive() not applicable to a stream connector")
}

func (c *localConnector) Send(buf []byte, recipient SocketAddress) (int, error) {
	return 0, NewError(UnsupportedAction, "send() not applicable to a stream connector")
}

func (c *localConnector) Peek() (int, error) {
	c.mu.Lock()
	fd := c.fd
	c.mu.Unlock()
	if fd == invalidSockFD {
		return 0, NewError(NoConnection, "not connected")
	}
	var scratch [4096]byte
	return peekSocket(fd, scratch[:])
}

func (c *localConnector) IsBlocking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocking
}

func (c *localConnector) SetBlocking(blocking bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fd == invalidSockFD {
		return NewError(NoConnection, "not connected")
	}
	if err := setNonblocking(c.fd, !blocking); err != nil {
		return err
	}
	c.blocking = blocking
	return nil
}

func (c *localConnector) SocketAddr() SocketAddress {
	c.mu.Lock()
	fd := c.fd
	c.mu.Unlock()
	if fd == invalidSockFD {
		return SocketAddress{}
	}
	return getSockName(fd)
}

func (c *localConnector) PeerAddr() SocketAddress {
	c.mu.Lock()
	fd := c.fd
	c.mu.Unlock()
	if fd == invalidSockFD {
		return SocketAddress{}
	}
	return getPeerName(fd)
}

func (c *localConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return NewError(Initialization, "already closed")
	}
	c.closed = true
	if c.fd == invalidSockFD {
		return nil
	}
	fd := c.fd
	c.fd = invalidSockFD
	return closeSocket(fd)
}
