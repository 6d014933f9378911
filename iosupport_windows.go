//go:build windows

package packeteer

// unsupportedOnIOSubsystem reports whether typ cannot be registered with
// this platform's I/O subsystem. The completion-port (IOCP) backend has
// no readiness concept for FIFO/USER connectors - marked "not supported"
// in the original source; per DESIGN.md's open-question decision, this
// is a valid *invalid-value* error rather than a TODO.
func unsupportedOnIOSubsystem(typ ConnectorType) bool {
	return typ == TypeFIFO || typ >= TypeUser
}
