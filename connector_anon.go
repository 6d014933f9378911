package packeteer

import "sync"

// anonConnector implements connectorImpl for the "anon://" scheme: one
// OS pipe exposed as a connector with distinct read/write handles - the
// same building block the scheduler's own signalling connector
// specializes (see signal_unix.go/signal_windows.go). listen()/connect()
// are both no-ops; the pipe exists and is usable the moment the
// connector is constructed.
type anonConnector struct {
	opts ConnectorOptions
	url  URL

	mu       sync.Mutex
	readFD   sockFD
	writeFD  sockFD
	blocking bool
	closed   bool
}

func newAnonConnector(url URL, typ ConnectorType, opts ConnectorOptions) (connectorImpl, error) {
	r, w, err := newPipePair()
	if err != nil {
		return nil, err
	}
	return &anonConnector{opts: opts, url: url, readFD: r, writeFD: w}, nil
}

func (c *anonConnector) Type() ConnectorType       { return TypeAnon }
func (c *anonConnector) Options() ConnectorOptions { return c.opts }
func (c *anonConnector) URL() URL                  { return c.url }

func (c *anonConnector) Listen() error  { return nil }
func (c *anonConnector) Connect() error { return nil }

func (c *anonConnector) Accept() (connectorImpl, error) {
	return nil, NewError(UnsupportedAction, "accept() not applicable to an anonymous pipe")
}

func (c *anonConnector) ReadHandle() Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readFD == invalidSockFD {
		return InvalidHandle
	}
	return socketHandle(c.readFD)
}

func (c *anonConnector) WriteHandle() Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeFD == invalidSockFD {
		return InvalidHandle
	}
	return socketHandle(c.writeFD)
}

func (c *anonConnector) Read(buf []byte) (int, error) {
	c.mu.Lock()
	fd := c.readFD
	c.mu.Unlock()
	if fd == invalidSockFD {
		return 0, NewError(NoConnection, "pipe closed")
	}
	return readSocket(fd, buf)
}

func (c *anonConnector) Write(buf []byte) (int, error) {
	c.mu.Lock()
	fd := c.writeFD
	c.mu.Unlock()
	if fd == invalidSockFD {
		return 0, NewError(NoConnection, "pipe closed")
	}
	return writeSocket(fd, buf)
}

func (c *anonConnector) Receive(buf []byte) (int, SocketAddress, error) {
	return 0, SocketAddress{}, NewError(UnsupportedAction, "receive() not applicable to a pipe")
}

func (c *anonConnector) Send(buf []byte, recipient SocketAddress) (int, error) {
	return 0, NewError(UnsupportedAction, "send() not applicable to a pipe")
}

func (c *anonConnector) Peek() (int, error) {
	c.mu.Lock()
	fd := c.readFD
	c.mu.Unlock()
	if fd == invalidSockFD {
		return 0, NewError(NoConnection, "pipe closed")
	}
	var scratch [4096]byte
	return peekFD(fd, scratch[:])
}

func (c *anonConnector) IsBlocking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocking
}

func (c *anonConnector) SetBlocking(blocking bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readFD == invalidSockFD {
		return NewError(NoConnection, "pipe closed")
	}
	if err := setNonblocking(c.readFD, !blocking); err != nil {
		return err
	}
	if err := setNonblocking(c.writeFD, !blocking); err != nil {
		return err
	}
	c.blocking = blocking
	return nil
}

func (c *anonConnector) SocketAddr() SocketAddress { return SocketAddress{} }
func (c *anonConnector) PeerAddr() SocketAddress   { return SocketAddress{} }

func (c *anonConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return NewError(Initialization, "already closed")
	}
	c.closed = true
	var err error
	if c.readFD != invalidSockFD {
		if e := closeSocket(c.readFD); e != nil {
			err = e
		}
		c.readFD = invalidSockFD
	}
	if c.writeFD != invalidSockFD {
		if e := closeSocket(c.writeFD); e != nil {
			err = e
		}
		c.writeFD = invalidSockFD
	}
	return err
}
