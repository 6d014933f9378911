package packeteer

import "sync"

// udpConnector implements connectorImpl for the udp/udp4/udp6 schemes.
// A single instance serves both "listening" (bound, receiving from any
// peer) and "connected" (bound to a default recipient) roles - spec
// §4.4's datagram column: listen() only binds, accept() returns self.
type udpConnector struct {
	typ     ConnectorType
	opts    ConnectorOptions
	url     URL
	address SocketAddress

	mu       sync.Mutex
	fd       sockFD
	blocking bool
	closed   bool
}

func newUDPConnector(url URL, typ ConnectorType, opts ConnectorOptions) (connectorImpl, error) {
	addr, err := ParseSocketAddress(url.Authority)
	if err != nil {
		return nil, err
	}
	return &udpConnector{typ: typ, opts: opts, url: url, address: addr, fd: invalidSockFD}, nil
}

func (c *udpConnector) Type() ConnectorType       { return c.typ }
func (c *udpConnector) Options() ConnectorOptions { return c.opts }
func (c *udpConnector) URL() URL                  { return c.url }

func (c *udpConnector) ensureSocket() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fd != invalidSockFD {
		return nil
	}
	fd, err := createSocket(c.typ, sockDgram)
	if err != nil {
		return err
	}
	c.fd = fd
	c.blocking = c.opts&OptBlocking != 0
	return nil
}

func (c *udpConnector) Listen() error {
	if err := c.ensureSocket(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return bindSocket(c.fd, c.address)
}

// Connect for datagrams just creates the socket and remembers the default
// recipient; no handshake occurs - spec §4.4's "create-and-remember".
func (c *udpConnector) Connect() error {
	return c.ensureSocket()
}

// Accept is never invoked directly by users for datagram connectors;
// [Connector.Accept] special-cases OptDatagram to Dup() before reaching
// here. Kept for interface completeness.
func (c *udpConnector) Accept() (connectorImpl, error) {
	return c, nil
}

func (c *udpConnector) ReadHandle() Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fd == invalidSockFD {
		return InvalidHandle
	}
	return socketHandle(c.fd)
}

func (c *udpConnector) WriteHandle() Handle { return c.ReadHandle() }

func (c *udpConnector) Read(buf []byte) (int, error) {
	n, _, err := c.Receive(buf)
	return n, err
}

func (c *udpConnector) Write(buf []byte) (int, error) {
	return c.Send(buf, c.address)
}

func (c *udpConnector) Receive(buf []byte) (int, SocketAddress, error) {
	c.mu.Lock()
	fd := c.fd
	c.mu.Unlock()
	if fd == invalidSockFD {
		return 0, SocketAddress{}, NewError(NoConnection, "not bound")
	}
	return recvfromSocket(fd, buf)
}

func (c *udpConnector) Send(buf []byte, recipient SocketAddress) (int, error) {
	c.mu.Lock()
	fd := c.fd
	c.mu.Unlock()
	if fd == invalidSockFD {
		return 0, NewError(NoConnection, "not bound")
	}
	return sendtoSocket(fd, buf, recipient)
}

// Peek is best-effort for datagrams - spec §4.4's peek() row.
func (c *udpConnector) Peek() (int, error) {
	c.mu.Lock()
	fd := c.fd
	c.mu.Unlock()
	if fd == invalidSockFD {
		return 0, NewError(NoConnection, "not bound")
	}
	var scratch [65536]byte
	return peekSocket(fd, scratch[:])
}

func (c *udpConnector) IsBlocking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocking
}

func (c *udpConnector) SetBlocking(blocking bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fd == invalidSockFD {
		return NewError(NoConnection, "not bound")
	}
	if err := setNonblocking(c.fd, !blocking); err != nil {
		return err
	}
	c.blocking = blocking
	return nil
}

func (c *udpConnector) SocketAddr() SocketAddress {
	c.mu.Lock()
	fd := c.fd
	c.mu.Unlock()
	if fd == invalidSockFD {
		return SocketAddress{}
	}
	return getSockName(fd)
}

// PeerAddr returns the remembered default recipient, if any.
func (c *udpConnector) PeerAddr() SocketAddress {
	return c.address
}

func (c *udpConnector) Close() error {
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
