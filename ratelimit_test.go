package packeteer

import (
	"fmt"
	"testing"
	"time"
)

func TestRateLimiter_NilAlwaysAllows(t *testing.T) {
	var rl *RateLimiter
	if _, ok := rl.Allow("anything"); !ok {
		t.Fatal("expected a nil RateLimiter to always allow")
	}
}

func TestRateLimiter_AllowsUpToLimit(t *testing.T) {
	rl := NewRateLimiter(map[time.Duration]int{time.Minute: 2})

	if _, ok := rl.Allow("peer-a"); !ok {
		t.Fatal("expected the first event to be allowed")
	}
	if _, ok := rl.Allow("peer-a"); !ok {
		t.Fatal("expected the second event to be allowed")
	}
	if _, ok := rl.Allow("peer-a"); ok {
		t.Fatal("expected the third event within the window to be refused")
	}
}

func TestRateLimiter_CategoriesAreIndependent(t *testing.T) {
	rl := NewRateLimiter(map[time.Duration]int{time.Minute: 1})

	if _, ok := rl.Allow("peer-a"); !ok {
		t.Fatal("expected peer-a's first event to be allowed")
	}
	if _, ok := rl.Allow("peer-b"); !ok {
		t.Fatal("expected peer-b's first event to be allowed independently of peer-a")
	}
}

func TestRateLimitedFactory_RefusesOverLimitAccept(t *testing.T) {
	limiter := NewRateLimiter(map[time.Duration]int{time.Minute: 1})
	if err := AddRateLimitedScheme(DefaultRegistry(), "tcp+ratelimit-test", "tcp", limiter); err != nil {
		t.Fatalf("add_rate_limited_scheme: %v", err)
	}

	listener, err := DefaultRegistry().NewConnector("tcp+ratelimit-test://127.0.0.1:0")
	if err != nil {
		t.Fatalf("new tcp listener: %v", err)
	}
	defer listener.Close()
	if err := listener.Listen(); err != nil {
		t.Fatalf("listen: %v", err)
	}
	bound := listener.SocketAddr()

	dial := func() Connector {
		client, err := DefaultRegistry().NewConnector(fmt.Sprintf("tcp://127.0.0.1:%d", bound.Port))
		if err != nil {
			t.Fatalf("new tcp client: %v", err)
		}
		if err := client.Connect(); err != nil {
			t.Fatalf("connect: %v", err)
		}
		return client
	}

	clientA := dial()
	defer clientA.Close()
	clientB := dial()
	defer clientB.Close()

	time.Sleep(10 * time.Millisecond)
	if _, err := listener.Accept(); err != nil {
		t.Fatalf("first accept should be allowed: %v", err)
	}
	if _, err := listener.Accept(); err == nil {
		t.Fatal("expected the second accept to be refused by the rate limiter")
	}
}

func TestAddRateLimitedScheme_UnknownBaseScheme(t *testing.T) {
	r := NewRegistry()
	err := AddRateLimitedScheme(r, "x+limited", "nonexistent", NewRateLimiter(nil))
	if err == nil {
		t.Fatal("expected an error wrapping an unknown base scheme")
	}
	if ae, ok := err.(*Error); !ok || ae.Kind != InvalidOption {
		t.Fatalf("expected *invalid-option, got %v", err)
	}
}
