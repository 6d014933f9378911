package packeteer

import (
	"time"

	"github.com/joeycumines/go-catrate"
)

// RateLimiter gates repeated events (accepted connections, datagram
// origins) by category using sliding-window limits. Grounded directly
// on catrate.NewLimiter/(*catrate.Limiter).Allow: category is whatever
// key the caller chooses (here, a peer's host via
// [SocketAddress.HostString], without the port),
// and Allow reports whether one more event for that category is
// permitted right now.
type RateLimiter struct {
	limiter *catrate.Limiter
}

// NewRateLimiter builds a RateLimiter from a map of window duration to
// maximum event count within that window - see catrate.NewLimiter for
// the monotonicity requirements on rates (shorter windows must have
// counts >= longer windows). Panics under the same conditions
// catrate.NewLimiter does.
func NewRateLimiter(rates map[time.Duration]int) *RateLimiter {
	return &RateLimiter{limiter: catrate.NewLimiter(rates)}
}

// Allow reports whether an event for category is permitted right now. A
// nil RateLimiter always allows, so call sites never need a separate nil
// check.
func (r *RateLimiter) Allow(category any) (time.Time, bool) {
	if r == nil || r.limiter == nil {
		return time.Time{}, true
	}
	return r.limiter.Allow(category)
}

// rateLimitedConnector decorates a connectorImpl, gating Accept() (new
// inbound connections) and Receive() (per-datagram origin) behind a
// RateLimiter, categorized by the peer's address. Every other method is
// promoted unchanged from the embedded connectorImpl.
type rateLimitedConnector struct {
	connectorImpl
	limiter *RateLimiter
}

func (c *rateLimitedConnector) Accept() (connectorImpl, error) {
	peer, err := c.connectorImpl.Accept()
	if err != nil {
		return nil, err
	}
	// Categorize by host, not socket: every accepted connection has a
	// distinct ephemeral client port, so limiting by the full address
	// would never actually engage the limiter.
	category := peer.PeerAddr().HostString()
	if _, ok := c.limiter.Allow(category); !ok {
		_ = peer.Close()
		return nil, NewError(ConnectionRefused, "rate limit exceeded for "+category)
	}
	return peer, nil
}

func (c *rateLimitedConnector) Receive(buf []byte) (int, SocketAddress, error) {
	n, sender, err := c.connectorImpl.Receive(buf)
	if err != nil {
		return n, sender, err
	}
	category := sender.HostString()
	if _, ok := c.limiter.Allow(category); !ok {
		return 0, sender, NewError(ConnectionRefused, "rate limit exceeded for "+category)
	}
	return n, sender, nil
}

// RateLimitedFactory wraps inner so every connector it produces gates
// Accept/Receive through limiter - the composition point spec §4.5's
// registry Factory field is designed for (a factory is just a function,
// free to delegate to another).
func RateLimitedFactory(inner SchemeFactory, limiter *RateLimiter) SchemeFactory {
	return func(u URL, typ ConnectorType, opts ConnectorOptions) (connectorImpl, error) {
		impl, err := inner(u, typ, opts)
		if err != nil {
			return nil, err
		}
		return &rateLimitedConnector{connectorImpl: impl, limiter: limiter}, nil
	}
}

// AddRateLimitedScheme registers a new scheme name that behaves exactly
// like an existing registered scheme, except every accepted connection
// or received datagram is gated by limiter. Typical use is opting a
// public-facing listener into admission control without touching the
// underlying tcp/udp connector implementation, e.g.
// AddRateLimitedScheme(r, "tcp+limited", "tcp", limiter).
func AddRateLimitedScheme(r *Registry, name, baseScheme string, limiter *RateLimiter) error {
	info, ok := r.Lookup(baseScheme)
	if !ok {
		return NewError(InvalidOption, "unknown base scheme: "+baseScheme)
	}
	info.Factory = RateLimitedFactory(info.Factory, limiter)
	return r.AddScheme(name, info)
}
