//go:build linux || darwin

package packeteer

// createNamedPipeServer and openNamedPipeClient back the "pipe" scheme
// on POSIX with a plain FIFO node - the closest analogue without a
// native named-pipe facility.
func createNamedPipeServer(name string) (sockFD, error) {
	if err := createFIFONode(name); err != nil {
		return invalidSockFD, err
	}
	return openFIFO(name, true)
}

func openNamedPipeClient(name string) (sockFD, error) {
	return openFIFO(name, false)
}
