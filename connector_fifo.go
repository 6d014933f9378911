package packeteer

import "sync"

// fifoConnector implements connectorImpl for the "fifo" scheme: a POSIX
// named FIFO addressed by filesystem path - spec §6's `fifo:///path`
// form. listen() creates the FIFO node (mkfifo) if absent; connect()
// opens it. Unsupported on Windows, which has no FIFO primitive - see
// unsupportedOnIOSubsystem and DESIGN.md's open-question decision.
type fifoConnector struct {
	opts ConnectorOptions
	url  URL
	path string

	mu       sync.Mutex
	fd       sockFD
	blocking bool
	closed   bool
}

func newFIFOConnector(url URL, typ ConnectorType, opts ConnectorOptions) (connectorImpl, error) {
	if url.Path == "" {
		return nil, NewError(Format, "fifo scheme requires a path: "+url.String())
	}
	return &fifoConnector{opts: opts, url: url, path: url.Path, fd: invalidSockFD}, nil
}

func (c *fifoConnector) Type() ConnectorType       { return TypeFIFO }
func (c *fifoConnector) Options() ConnectorOptions { return c.opts }
func (c *fifoConnector) URL() URL                  { return c.url }

func (c *fifoConnector) Listen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fd != invalidSockFD {
		return NewError(Initialization, "already active")
	}
	if err := createFIFONode(c.path); err != nil {
		return err
	}
	fd, err := openFIFO(c.path, false)
	if err != nil {
		return err
	}
	c.fd = fd
	c.blocking = c.opts&OptBlocking != 0
	return nil
}

func (c *fifoConnector) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fd != invalidSockFD {
		return NewError(Initialization, "already active")
	}
	fd, err := openFIFO(c.path, true)
	if err != nil {
		return err
	}
	c.fd = fd
	c.blocking = c.opts&OptBlocking != 0
	return nil
}

func (c *fifoConnector) Accept() (connectorImpl, error) {
	return nil, NewError(UnsupportedAction, "accept() not applicable to a FIFO")
}

func (c *fifoConnector) ReadHandle() Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fd == invalidSockFD {
		return InvalidHandle
	}
	return socketHandle(c.fd)
}

func (c *fifoConnector) WriteHandle() Handle { return c.ReadHandle() }

func (c *fifoConnector) Read(buf []byte) (int, error) {
	c.mu.Lock()
	fd := c.fd
	c.mu.Unlock()
	if fd == invalidSockFD {
		return 0, NewError(NoConnection, "not open")
	}
	return readSocket(fd, buf)
}

func (c *fifoConnector) Write(buf []byte) (int, error) {
	c.mu.Lock()
	fd := c.fd
	c.mu.Unlock()
	if fd == invalidSockFD {
		return 0, NewError(NoConnection, "not open")
	}
	return writeSocket(fd, buf)
}

func (c *fifoConnector) Receive(buf []byte) (int, SocketAddress, error) {
	return 0, SocketAddress{}, NewError(UnsupportedAction, "receive() not applicable to a FIFO")
}

func (c *fifoConnector) Send(buf []byte, recipient SocketAddress) (int, error) {
	return 0, NewError(UnsupportedAction, "send() not applicable to a FIFO")
}

func (c *fifoConnector) Peek() (int, error) {
	c.mu.Lock()
	fd := c.fd
	c.mu.Unlock()
	if fd == invalidSockFD {
		return 0, NewError(NoConnection, "not open")
	}
	var scratch [4096]byte
	return peekFD(fd, scratch[:])
}

func (c *fifoConnector) IsBlocking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocking
}

func (c *fifoConnector) SetBlocking(blocking bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fd == invalidSockFD {
		return NewError(NoConnection, "not open")
	}
	if err := setNonblocking(c.fd, !blocking); err != nil {
		return err
	}
	c.blocking = blocking
	return nil
}

func (c *fifoConnector) SocketAddr() SocketAddress { return SocketAddress{Family: AddrLocal, Path: c.path} }
func (c *fifoConnector) PeerAddr() SocketAddress   { return SocketAddress{} }

func (c *fifoConnector) Close() error {
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
