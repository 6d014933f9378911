package packeteer

// PeerAddress uniquely identifies a peer across transports: a socket
// address alone cannot distinguish a UDP peer from a TCP peer at the same
// IP:port, so PeerAddress carries the connector type and scheme alongside
// the address - spec §3.
//
// PeerAddress{scheme, socket_address) is equal iff both scheme and
// socket_address are equal; its hash is consistent - spec §8 invariant 5.
type PeerAddress struct {
	Scheme  string
	Type    ConnectorType
	Address SocketAddress
}

// NewPeerAddress constructs a PeerAddress.
func NewPeerAddress(scheme string, typ ConnectorType, addr SocketAddress) PeerAddress {
	return PeerAddress{Scheme: scheme, Type: typ, Address: addr}
}

// Equal reports whether p and other denote the same peer.
func (p PeerAddress) Equal(other PeerAddress) bool {
	return p.Scheme == other.Scheme && p.Address.Equal(other.Address)
}

// Hash is consistent with Equal.
func (p PeerAddress) Hash() uint64 {
	h := fnv1aString("peeraddr")
	h = fnv1aString2(h, p.Scheme)
	h = fnv1aMix(h, p.Address.Hash())
	return h
}

func (p PeerAddress) String() string {
	return p.Scheme + "://" + p.Address.String()
}
