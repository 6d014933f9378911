package packeteer

import (
	"reflect"
	"sync/atomic"
	"time"
)

// CallbackFunc is the signature every [Callback] ultimately invokes:
// the current time, the fired event mask, an optional error (non-nil only
// for IOError/ErrorEvent deliveries) and an optional connector (non-nil
// only for I/O entries). A non-nil return other than a *repeat-action*
// [Error] is treated as a failed dispatch; see spec §4.9/§7.
type CallbackFunc func(now time.Time, events EventMask, cause error, conn *Connector) error

// Callback is a comparable, hashable, first-class callable: it can be
// constructed from a free function, a bound method, or an arbitrary
// closure. Two callbacks built from the same free function (or the same
// receiver address + method) compare equal; two callbacks built from
// independently-captured closures need not, even if the closures are
// behaviourally identical - see spec §4.2 and §8 invariant 7.
//
// The zero Callback is "empty"; invoking it returns an *empty-callback*
// [Error] rather than panicking.
type Callback struct {
	fn  CallbackFunc
	key callbackKey
}

// callbackKey is the comparable identity used for Equal/Hash. kind
// distinguishes the three constructor families so that, e.g., a free
// function and a closure that happen to share a code pointer (impossible
// in practice, but not something the language forbids) never collide.
type callbackKey struct {
	kind     callbackKind
	fnPtr    uintptr
	recvType reflect.Type
	recvPtr  uintptr
	closure  uint64
}

type callbackKind uint8

const (
	callbackKindEmpty callbackKind = iota
	callbackKindFunc
	callbackKindMethod
	callbackKindClosure
)

var closureIDs atomic.Uint64

// NewCallback constructs a Callback from a free function. Two Callbacks
// built from the same function value compare equal.
func NewCallback(fn CallbackFunc) Callback {
	if fn == nil {
		return Callback{}
	}
	return Callback{
		fn: fn,
		key: callbackKey{
			kind:  callbackKindFunc,
			fnPtr: reflect.ValueOf(fn).Pointer(),
		},
	}
}

// NewMethodCallback constructs a Callback bound to recv's method, named
// implicitly by method's own identity (pass a method value expression,
// e.g. recv.HandleReady). Two Callbacks built from the same (receiver
// address, method) pair compare equal; the same method bound to a
// different receiver does not - spec §8 invariant 7.
//
// recv must be the same pointer passed to produce method, or equality
// will not behave as documented; this mirrors the original's
// object-address + member-pointer identity (callback_helper_member).
func NewMethodCallback(recv any, method CallbackFunc) Callback {
	if method == nil {
		return Callback{}
	}
	rv := reflect.ValueOf(recv)
	var recvPtr uintptr
	if rv.Kind() == reflect.Ptr {
		recvPtr = rv.Pointer()
	}
	return Callback{
		fn: method,
		key: callbackKey{
			kind:     callbackKindMethod,
			fnPtr:    reflect.ValueOf(method).Pointer(),
			recvType: reflect.TypeOf(recv),
			recvPtr:  recvPtr,
		},
	}
}

// NewClosureCallback constructs a Callback from an arbitrary closure.
// Each call mints a fresh identity: two Callbacks built from copies of
// the same captured closure need not compare equal, per spec §4.2.
func NewClosureCallback(fn CallbackFunc) Callback {
	if fn == nil {
		return Callback{}
	}
	return Callback{
		fn: fn,
		key: callbackKey{
			kind:    callbackKindClosure,
			closure: closureIDs.Add(1),
		},
	}
}

// Empty reports whether c holds no function.
func (c Callback) Empty() bool {
	return c.fn == nil
}

// Equal reports whether c and other share the same identity - see the
// constructor docs for what "same identity" means per variant.
func (c Callback) Equal(other Callback) bool {
	return c.key == other.key
}

// Hash is consistent with Equal.
func (c Callback) Hash() uint64 {
	h := fnv1aString(c.key.kind.String())
	h = fnv1aMix(h, uint64(c.key.fnPtr))
	if c.key.recvType != nil {
		h = fnv1aString2(h, c.key.recvType.String())
	}
	h = fnv1aMix(h, uint64(c.key.recvPtr))
	h = fnv1aMix(h, c.key.closure)
	return h
}

func (k callbackKind) String() string {
	switch k {
	case callbackKindFunc:
		return "func"
	case callbackKindMethod:
		return "method"
	case callbackKindClosure:
		return "closure"
	default:
		return "empty"
	}
}

// Invoke calls the underlying function, returning an *empty-callback*
// [Error] if c is empty.
func (c Callback) Invoke(now time.Time, events EventMask, cause error, conn *Connector) error {
	if c.fn == nil {
		return NewError(EmptyCallback, "callback is empty")
	}
	return c.fn(now, events, cause, conn)
}

const fnvOffset64 = 14695981039346656037
const fnvPrime64 = 1099511628211

func fnv1aString(s string) uint64 {
	h := uint64(fnvOffset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime64
	}
	return h
}

func fnv1aString2(h uint64, s string) uint64 {
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime64
	}
	return h
}

func fnv1aMix(h, v uint64) uint64 {
	for i := 0; i < 8; i++ {
		h ^= v & 0xff
		h *= fnvPrime64
		v >>= 8
	}
	return h
}
