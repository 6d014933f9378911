package packeteer

import (
	"testing"
	"time"
)

func dummyCallbackFunc(now time.Time, events EventMask, cause error, conn *Connector) error {
	return nil
}

type callbackReceiver struct{ n int }

func (r *callbackReceiver) handle(now time.Time, events EventMask, cause error, conn *Connector) error {
	r.n++
	return nil
}

func TestCallback_Empty(t *testing.T) {
	var zero Callback
	if !zero.Empty() {
		t.Fatal("zero Callback should be empty")
	}
	if err := zero.Invoke(time.Now(), IORead, nil, nil); err == nil {
		t.Fatal("expected an error invoking an empty callback")
	} else if ae, ok := err.(*Error); !ok || ae.Kind != EmptyCallback {
		t.Fatalf("expected *empty-callback, got %v", err)
	}
}

func TestCallback_FuncIdentity(t *testing.T) {
	a := NewCallback(dummyCallbackFunc)
	b := NewCallback(dummyCallbackFunc)
	if !a.Equal(b) {
		t.Fatal("two callbacks built from the same free function should be equal")
	}
	if a.Hash() != b.Hash() {
		t.Fatal("equal callbacks should hash equal")
	}
}

func TestCallback_MethodIdentity(t *testing.T) {
	recv := &callbackReceiver{}
	a := NewMethodCallback(recv, recv.handle)
	b := NewMethodCallback(recv, recv.handle)
	if !a.Equal(b) {
		t.Fatal("two callbacks bound to the same receiver+method should be equal")
	}

	other := &callbackReceiver{}
	c := NewMethodCallback(other, other.handle)
	if a.Equal(c) {
		t.Fatal("the same method bound to a different receiver should not be equal")
	}
}

func TestCallback_ClosureIdentityIsUnique(t *testing.T) {
	makeClosure := func() Callback {
		var n int
		return NewClosureCallback(func(now time.Time, events EventMask, cause error, conn *Connector) error {
			n++
			return nil
		})
	}
	a := makeClosure()
	b := makeClosure()
	if a.Equal(b) {
		t.Fatal("independently-minted closures should not compare equal, even if behaviourally identical")
	}
}

func TestCallback_Invoke(t *testing.T) {
	recv := &callbackReceiver{}
	cb := NewMethodCallback(recv, recv.handle)
	if err := cb.Invoke(time.Now(), IORead, nil, nil); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if recv.n != 1 {
		t.Fatalf("expected the bound method to run once, got n=%d", recv.n)
	}
}
