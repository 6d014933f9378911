package packeteer

// registerBuiltinSchemes wires the built-in URL schemes of spec §6 into
// r: tcp/tcp4/tcp6, udp/udp4/udp6, local, pipe, fifo, anon.
func registerBuiltinSchemes(r *Registry) {
	streamAllowed := OptStream | OptBlocking | OptNonBlocking

	_ = r.AddScheme("tcp", SchemeInfo{Type: TypeTCP, DefaultOptions: OptStream, AllowedOptions: streamAllowed, Factory: newTCPConnector})
	_ = r.AddScheme("tcp4", SchemeInfo{Type: TypeTCP4, DefaultOptions: OptStream, AllowedOptions: streamAllowed, Factory: newTCPConnector})
	_ = r.AddScheme("tcp6", SchemeInfo{Type: TypeTCP6, DefaultOptions: OptStream, AllowedOptions: streamAllowed, Factory: newTCPConnector})

	datagramAllowed := OptDatagram | OptBlocking | OptNonBlocking

	_ = r.AddScheme("udp", SchemeInfo{Type: TypeUDP, DefaultOptions: OptDatagram, AllowedOptions: datagramAllowed, Factory: newUDPConnector})
	_ = r.AddScheme("udp4", SchemeInfo{Type: TypeUDP4, DefaultOptions: OptDatagram, AllowedOptions: datagramAllowed, Factory: newUDPConnector})
	_ = r.AddScheme("udp6", SchemeInfo{Type: TypeUDP6, DefaultOptions: OptDatagram, AllowedOptions: datagramAllowed, Factory: newUDPConnector})

	_ = r.AddScheme("local", SchemeInfo{Type: TypeLocal, DefaultOptions: OptStream, AllowedOptions: streamAllowed, Factory: newLocalConnector})
	_ = r.AddScheme("pipe", SchemeInfo{Type: TypePipe, DefaultOptions: OptStream, AllowedOptions: streamAllowed, Factory: newPipeConnector})
	_ = r.AddScheme("fifo", SchemeInfo{Type: TypeFIFO, DefaultOptions: OptStream, AllowedOptions: streamAllowed, Factory: newFIFOConnector})
	_ = r.AddScheme("anon", SchemeInfo{Type: TypeAnon, DefaultOptions: OptStream, AllowedOptions: streamAllowed, Factory: newAnonConnector})
}
