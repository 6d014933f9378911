package packeteer

import "sync"

// pipeConnector implements connectorImpl for the "pipe" scheme: a named
// pipe, native on Windows and backed by a FIFO node on POSIX - spec §6's
// `pipe:///name` form. listen() creates the pipe server side; connect()
// opens the client side.
type pipeConnector struct {
	opts ConnectorOptions
	url  URL
	name string

	mu       sync.Mutex
	fd       sockFD
	server   bool
	blocking bool
	closed   bool
}

func newPipeConnector(url URL, typ ConnectorType, opts ConnectorOptions) (connectorImpl, error) {
	if url.Path == "" {
		return nil, NewError(Format, "pipe scheme requires a name: "+url.String())
	}
	return &pipeConnector{opts: opts, url: url, name: url.Path, fd: invalidSockFD}, nil
}

func (c *pipeConnector) Type() ConnectorType       { return TypePipe }
func (c *pipeConnector) Options() ConnectorOptions { return c.opts }
func (c *pipeConnector) URL() URL                  { return c.url }

func (c *pipeConnector) Listen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fd != invalidSockFD {
		return NewError(Initialization, "already active")
	}
	fd, err := createNamedPipeServer(c.name)
	if err != nil {
		return err
	}
	c.fd = fd
	c.server = true
	c.blocking = c.opts&OptBlocking != 0
	return nil
}

func (c *pipeConnector) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fd != invalidSockFD {
		return NewError(Initialization, "already active")
	}
	fd, err := openNamedPipeClient(c.name)
	if err != nil {
		return err
	}
	c.fd = fd
	c.blocking = c.opts&OptBlocking != 0
	return nil
}

// Accept returns self whenever Listen has run; it does not check whether a
// client has opened the other end - named pipes have no distinct
// accepted-connection object on POSIX the way sockets do.
func (c *pipeConnector) Accept() (connectorImpl, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.server {
		return nil, NewError(UnsupportedAction, "accept() requires listen() first")
	}
	return c, nil
}

func (c *pipeConnector) ReadHandle() Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fd == invalidSockFD {
		return InvalidHandle
	}
	return socketHandle(c.fd)
}

func (c *pipeConnector) WriteHandle() Handle { return c.ReadHandle() }

func (c *pipeConnector) Read(buf []byte) (int, error) {
	c.mu.Lock()
	fd := c.fd
	c.mu.Unlock()
	if fd == invalidSockFD {
		return 0, NewError(NoConnection, "not open")
	}
	return readSocket(fd, buf)
}

func (c *pipeConnector) Write(buf []byte) (int, error) {
	c.mu.Lock()
	fd := c.fd
	c.mu.Unlock()
	if fd == invalidSockFD {
		return 0, NewError(NoConnection, "not open")
	}
	return writeSocket(fd, buf)
}

func (c *pipeConnector) Receive(buf []byte) (int, SocketAddress, error) {
	return 0, SocketAddress{}, NewError(UnsupportedAction, "receive() not applicable to a pipe")
}

func (c *pipeConnector) Send(buf []byte, recipient SocketAddress) (int, error) {
	return 0, NewError(UnsupportedAction, "send() not applicable to a pipe")
}

func (c *pipeConnector) Peek() (int, error) {
	c.mu.Lock()
	fd := c.fd
	c.mu.Unlock()
	if fd == invalidSockFD {
		return 0, NewError(NoConnection, "not open")
	}
	var scratch [4096]byte
	return peekFD(fd, scratch[:])
}

func (c *pipeConnector) IsBlocking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocking
}

func (c *pipeConnector) SetBlocking(blocking bool) error {
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

func (c *pipeConnector) SocketAddr() SocketAddress { return SocketAddress{Family: AddrLocal, Path: c.name} }
func (c *pipeConnector) PeerAddr() SocketAddress   { return SocketAddress{} }

func (c *pipeConnector) Close() error {
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
