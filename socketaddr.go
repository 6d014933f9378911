package packeteer

import (
	"net"
	"strconv"
	"strings"
)

// AddressFamily tags which variant a [SocketAddress] holds.
type AddressFamily uint8

const (
	AddrUnspecified AddressFamily = iota
	AddrIPv4
	AddrIPv6
	AddrLocal
)

// SocketAddress is a tagged union over {unspecified, IPv4, IPv6, local
// path}, with an optional port for the IP variants. It supports parsing
// from CIDR-style strings ("host[/prefix]" or "host[:port]"), a no-overflow
// increment, and a total order - spec §3.
type SocketAddress struct {
	Family AddressFamily
	IP     net.IP
	Port   uint16
	Path   string

	// prefixBits/hasPrefix record an optional CIDR-style "/N" suffix,
	// used internally for local bind-address matching - see
	// SPEC_FULL.md's "CIDR-flavoured socket-address parsing" addition,
	// grounded on lib/net/detail/cidr.h in the original source.
	prefixBits int
	hasPrefix  bool
}

// ParseSocketAddress parses s, which may be:
//   - "" or "*" -> AddrUnspecified
//   - ":port" -> AddrUnspecified with that port
//   - "a.b.c.d", "a.b.c.d/prefix" or "a.b.c.d:port" -> AddrIPv4 (a prefix
//     and a port cannot be combined)
//   - "[::1]" or "[::1]:port" (anything else after the closing bracket is
//     ignored), or an unbracketed literal such as "::1" or "::1/64", which
//     never carries a port -> AddrIPv6
//   - a path starting with '/' or '.' -> AddrLocal (kept as-is; this
//     package never rewrites backslashes since the OS-native separator is
//     whatever the platform's connector implementation already expects)
//
// Host names are not resolved: anything else fails with *format*.
func ParseSocketAddress(s string) (SocketAddress, error) {
	if s == "" || s == "*" {
		return SocketAddress{Family: AddrUnspecified}, nil
	}

	// Local path: starts with '/' or '.'.
	if strings.HasPrefix(s, "/") || strings.HasPrefix(s, ".") {
		return SocketAddress{Family: AddrLocal, Path: s}, nil
	}

	host, port, prefixBits, hasPrefix, hadPort, err := splitHostPortPrefix(s)
	if err != nil {
		return SocketAddress{}, err
	}

	if host == "" {
		if !hadPort {
			return SocketAddress{Family: AddrLocal, Path: s}, nil
		}
		return SocketAddress{Family: AddrUnspecified, Port: port}, nil
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return SocketAddress{}, NewError(Format, "invalid IP address "+quote(host))
	}
	fam := AddrIPv4
	if ip.To4() == nil {
		fam = AddrIPv6
	}
	return SocketAddress{
		Family:     fam,
		IP:         ip,
		Port:       port,
		prefixBits: prefixBits,
		hasPrefix:  hasPrefix,
	}, nil
}

func splitHostPortPrefix(s string) (host string, port uint16, prefixBits int, hasPrefix bool, hadPort bool, err error) {
	rest := s
	if i := strings.IndexByte(rest, '/'); i >= 0 && !strings.HasPrefix(rest, "[") {
		bits, perr := strconv.Atoi(rest[i+1:])
		if perr != nil {
			return "", 0, 0, false, false, NewError(Format, "invalid prefix length in "+quote(s))
		}
		prefixBits, hasPrefix = bits, true
		rest = rest[:i]
	}

	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return "", 0, 0, false, false, NewError(Format, "unterminated [ in "+quote(s))
		}
		host = rest[1:end]
		tail := rest[end+1:]
		if strings.HasPrefix(tail, ":") {
			p, perr := strconv.Atoi(tail[1:])
			if perr != nil {
				return "", 0, 0, false, false, NewError(Format, "invalid port in "+quote(s))
			}
			port, hadPort = uint16(p), true
		}
		return host, port, prefixBits, hasPrefix, hadPort, nil
	}

	if idx := strings.LastIndexByte(rest, ':'); idx >= 0 && strings.Count(rest, ":") == 1 {
		p, perr := strconv.Atoi(rest[idx+1:])
		if perr != nil {
			return "", 0, 0, false, false, NewError(Format, "invalid port in "+quote(s))
		}
		host, port, hadPort = rest[:idx], uint16(p), true
		return host, port, prefixBits, hasPrefix, hadPort, nil
	}

	return rest, 0, prefixBits, hasPrefix, false, nil
}

// Prefix returns the optional CIDR-style prefix length parsed from the
// address, and whether one was present.
func (a SocketAddress) Prefix() (bits int, ok bool) {
	return a.prefixBits, a.hasPrefix
}

// Increment returns a new address with the IP incremented by one, with no
// overflow handling (incrementing 255.255.255.255 wraps to 0.0.0.0) -
// spec §3. Non-IP families are returned unchanged.
func (a SocketAddress) Increment() SocketAddress {
	if a.Family != AddrIPv4 && a.Family != AddrIPv6 {
		return a
	}
	ip := a.IP
	if a.Family == AddrIPv4 {
		if v4 := ip.To4(); v4 != nil {
			ip = v4
		}
	}
	out := make(net.IP, len(ip))
	copy(out, ip)
	for i := len(out) - 1; i >= 0; i-- {
		out[i]++
		if out[i] != 0 {
			break
		}
	}
	a.IP = out
	return a
}

// Less imposes a total order: by family, then IP bytes, then port, then
// path.
func (a SocketAddress) Less(b SocketAddress) bool {
	if a.Family != b.Family {
		return a.Family < b.Family
	}
	switch a.Family {
	case AddrIPv4, AddrIPv6:
		if c := compareBytes(a.IP, b.IP); c != 0 {
			return c < 0
		}
		return a.Port < b.Port
	case AddrLocal:
		return a.Path < b.Path
	default:
		return false
	}
}

// Equal reports whether a and b denote the same address (family, IP/path
// and port all equal; the optional prefix is not part of identity).
func (a SocketAddress) Equal(b SocketAddress) bool {
	if a.Family != b.Family {
		return false
	}
	switch a.Family {
	case AddrIPv4, AddrIPv6:
		return a.IP.Equal(b.IP) && a.Port == b.Port
	case AddrLocal:
		return a.Path == b.Path
	default:
		return true
	}
}

// Hash is consistent with Equal.
func (a SocketAddress) Hash() uint64 {
	h := fnv1aString("sockaddr")
	h = fnv1aMix(h, uint64(a.Family))
	switch a.Family {
	case AddrIPv4, AddrIPv6:
		ip := a.IP
		if v4 := ip.To4(); v4 != nil {
			ip = v4
		}
		h = fnv1aString2(h, string(ip))
		h = fnv1aMix(h, uint64(a.Port))
	case AddrLocal:
		h = fnv1aString2(h, a.Path)
	}
	return h
}

// HostString is like String but omits the port, so callers that want to
// key by origin host rather than origin socket (e.g. rate limiting by
// peer, where every accepted connection has a distinct ephemeral client
// port) get a stable category.
func (a SocketAddress) HostString() string {
	switch a.Family {
	case AddrIPv4, AddrIPv6:
		return a.IP.String()
	case AddrLocal:
		return a.Path
	default:
		return "*"
	}
}

func (a SocketAddress) String() string {
	switch a.Family {
	case AddrIPv4, AddrIPv6:
		if a.Port != 0 {
			return net.JoinHostPort(a.IP.String(), strconv.Itoa(int(a.Port)))
		}
		return a.IP.String()
	case AddrLocal:
		return a.Path
	default:
		return "*"
	}
}

func compareBytes(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
