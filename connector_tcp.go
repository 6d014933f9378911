package packeteer

import "sync"

// tcpConnector implements connectorImpl for the tcp/tcp4/tcp6 schemes -
// spec §6. One instance models either end of a stream: the listening
// socket, a pending outbound connection, or an accepted peer.
type tcpConnector struct {
	typ     ConnectorType
	opts    ConnectorOptions
	url     URL
	address SocketAddress

	mu        sync.Mutex
	fd        sockFD
	blocking  bool
	closed    bool
	peekBytes []byte
}

func newTCPConnector(url URL, typ ConnectorType, opts ConnectorOptions) (connectorImpl, error) {
	addr, err := ParseSocketAddress(url.Authority)
	if err != nil {
		return nil, err
	}
	return &tcpConnector{typ: typ, opts: opts, url: url, address: addr, fd: invalidSockFD}, nil
}

func (c *tcpConnector) Type() ConnectorType     { return c.typ }
func (c *tcpConnector) Options() ConnectorOptions { return c.opts }
func (c *tcpConnector) URL() URL                { return c.url }

func (c *tcpConnector) ensureSocket() error {
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

func (c *tcpConnector) Listen() error {
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

func (c *tcpConnector) Connect() error {
	if err := c.ensureSocket(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return connectSocket(c.fd, c.address)
}

func (c *tcpConnector) Accept() (connectorImpl, error) {
	c.mu.Lock()
	fd := c.fd
	c.mu.Unlock()
	nfd, peer, err := acceptSocket(fd)
	if err != nil {
		return nil, err
	}
	out := &tcpConnector{typ: c.typ, opts: c.opts, url: c.url, address: peer, fd: nfd, blocking: false}
	return out, nil
}

func (c *tcpConnector) ReadHandle() Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fd == invalidSockFD {
		return InvalidHandle
	}
	return socketHandle(c.fd)
}

func (c *tcpConnector) WriteHandle() Handle { return c.ReadHandle() }

func (c *tcpConnector) Read(buf []byte) (int, error) {
	c.mu.Lock()
	fd := c.fd
	c.mu.Unlock()
	if fd == invalidSockFD {
		return 0, NewError(NoConnection, "not connected")
	}
	return readSocket(fd, buf)
}

func (c *tcpConnector) Write(buf []byte) (int, error) {
	c.mu.Lock()
	fd := c.fd
	c.mu.Unlock()
	if fd == invalidSockFD {
		return 0, NewError(NoConnection, "not connected")
	}
	return writeSocket(fd, buf)
}

func (c *tcpConnector) Receive(buf []byte) (int, SocketAddress, error) {
	return 0, SocketAddress{}, NewError(UnsupportedAction, "receive() not applicable to a stream connector")
}

func (c *tcpConnector) Send(buf []byte, recipient SocketAddress) (int, error) {
	return 0, NewError(UnsupportedAction, "send() not applicable to a stream connector")
}

func (c *tcpConnector) Peek() (int, error) {
	c.mu.Lock()
	fd := c.fd
	c.mu.Unlock()
	if fd == invalidSockFD {
		return 0, NewError(NoConnection, "not connected")
	}
	var scratch [4096]byte
	return peekSocket(fd, scratch[:])
}

func (c *tcpConnector) IsBlocking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocking
}

func (c *tcpConnector) SetBlocking(blocking bool) error {
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

func (c *tcpConnector) SocketAddr() SocketAddress {
	c.mu.Lock()
	fd := c.fd
	c.mu.Unlock()
	if fd == invalidSockFD {
		return SocketAddress{}
	}
	return getSockName(fd)
}

func (c *tcpConnector) PeerAddr() SocketAddress {
	c.mu.Lock()
	fd := c.fd
	c.mu.Unlock()
	if fd == invalidSockFD {
		return SocketAddress{}
	}
	return getPeerName(fd)
}

func (c *tcpConnector) Close() error {
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
