package packeteer

import "unsafe"

// uintptrOf returns the address of a pointer as a uintptr, used only for
// deriving a stable identity hash (e.g. [Connector.Hash]); never used to
// dereference or retain the pointer outside the GC's view of it.
func uintptrOf(p any) uintptr {
	type iface struct {
		typ, data unsafe.Pointer
	}
	return uintptr((*iface)(unsafe.Pointer(&p)).data)
}
