package packeteer

// ConnectorOptions is a bitset controlling how a connector is constructed
// and used. BLOCKING and NON_BLOCKING are mutually exclusive; option
// resolution (spec §4.4) guarantees exactly one is set afterwards.
type ConnectorOptions uint32

const (
	OptDefault ConnectorOptions = 0
	OptStream  ConnectorOptions = 1 << 0
	OptDatagram ConnectorOptions = 1 << 1
	OptBlocking ConnectorOptions = 1 << 2
	OptNonBlocking ConnectorOptions = 1 << 3
	// OptUser and above are reserved for user-defined connector types to
	// layer their own option bits on top of these.
	OptUser ConnectorOptions = 1 << 8
)

// ConnectorType is a small integer identifying a connector implementation.
// Built-in values are reserved below [TypeUser]; user-registered schemes
// must use TypeUser or above.
type ConnectorType int32

const (
	TypeUnspec ConnectorType = -1

	TypeTCP ConnectorType = iota
	TypeTCP4
	TypeTCP6
	TypeUDP
	TypeUDP4
	TypeUDP6
	TypeLocal
	TypePipe
	TypeFIFO
	TypeAnon
)

// TypeUser is the first connector type value available for
// registry.add_scheme-registered user types; it matches the spec's
// USER=256 reservation for connector options, kept distinct here since
// types and options are separate bitspaces.
const TypeUser ConnectorType = 256

// ConnectorState enumerates the connector lifecycle from spec §4.4's state
// diagram: created -> (listening | connecting) -> communicating -> closed.
type ConnectorState int32

const (
	StateCreated ConnectorState = iota
	StateListening
	StateConnecting
	StateConnected
	StateCommunicating
	StateClosed
)

func (s ConnectorState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateListening:
		return "listening"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateCommunicating:
		return "communicating"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
