package packeteer

import (
	"fmt"
	"testing"
	"time"
)

// TestScheduler_InlineAnonEcho registers a read callback on one end of an
// anonymous pipe and drives it through ProcessEvents in inline mode,
// confirming data written to the other end is observed as IORead
// readiness and read back correctly.
func TestScheduler_InlineAnonEcho(t *testing.T) {
	conn, err := DefaultRegistry().NewConnector("anon://")
	if err != nil {
		t.Fatalf("new anon connector: %v", err)
	}
	defer conn.Close()

	sched, err := NewScheduler(0)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	defer sched.Close()

	var got []byte
	var fired int
	cb := NewClosureCallback(func(now time.Time, events EventMask, cause error, c *Connector) error {
		fired++
		buf := make([]byte, 64)
		n, err := conn.Read(buf)
		if err != nil {
			return nil
		}
		got = append(got, buf[:n]...)
		return nil
	})

	if err := sched.AddIO(conn.ReadHandle(), IORead, cb, FlagRepeat, conn); err != nil {
		t.Fatalf("add_io: %v", err)
	}

	if _, err := conn.Write([]byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(got) == 0 && time.Now().Before(deadline) {
		if err := sched.ProcessEvents(50*time.Millisecond, 50*time.Millisecond, false); err != nil {
			t.Fatalf("process_events: %v", err)
		}
	}

	if string(got) != "hello" {
		t.Fatalf("expected %q, got %q (fired=%d)", "hello", got, fired)
	}
}

// TestScheduler_AddScheduledCount drives a scheduled entry with a fixed
// repetition count and checks it fires exactly that many times, no more.
func TestScheduler_AddScheduledCount(t *testing.T) {
	sched, err := NewScheduler(0)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	defer sched.Close()

	var n int
	cb := NewClosureCallback(func(now time.Time, events EventMask, cause error, c *Connector) error {
		n++
		return nil
	})

	if err := sched.AddScheduled(time.Now(), 5*time.Millisecond, 3, cb); err != nil {
		t.Fatalf("add_scheduled: %v", err)
	}

	deadline := time.Now().Add(1 * time.Second)
	for n < 3 && time.Now().Before(deadline) {
		if err := sched.ProcessEvents(20*time.Millisecond, 20*time.Millisecond, false); err != nil {
			t.Fatalf("process_events: %v", err)
		}
	}

	// One more iteration should observe no further fires.
	_ = sched.ProcessEvents(20*time.Millisecond, 20*time.Millisecond, false)

	if n != 3 {
		t.Fatalf("expected exactly 3 fires, got %d", n)
	}
}

// TestScheduler_FireEventsRejectsLowMask checks that FireEvents rejects
// masks using bits below [User].
func TestScheduler_FireEventsRejectsLowMask(t *testing.T) {
	sched, err := NewScheduler(0)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	defer sched.Close()

	err = sched.FireEvents(IORead)
	if err == nil {
		t.Fatal("expected an error for a sub-User mask")
	}
	ae, ok := err.(*Error)
	if !ok || ae.Kind != InvalidValue {
		t.Fatalf("expected *invalid-value, got %v", err)
	}
}

// TestScheduler_UserEvents checks that a triggered user event fires its
// registered callback on the next dispatch iteration.
func TestScheduler_UserEvents(t *testing.T) {
	sched, err := NewScheduler(0)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	defer sched.Close()

	const myEvent = User << 1
	var fired bool
	cb := NewClosureCallback(func(now time.Time, events EventMask, cause error, c *Connector) error {
		fired = true
		return nil
	})

	if err := sched.AddUser(myEvent, cb); err != nil {
		t.Fatalf("add_user: %v", err)
	}
	if err := sched.FireEvents(myEvent); err != nil {
		t.Fatalf("fire_events: %v", err)
	}
	if err := sched.ProcessEvents(50*time.Millisecond, 50*time.Millisecond, false); err != nil {
		t.Fatalf("process_events: %v", err)
	}

	if !fired {
		t.Fatal("expected the user callback to have fired")
	}
}

// TestScheduler_ProcessEventsUnsupportedWithWorkers checks that
// ProcessEvents is rejected once the scheduler owns worker threads.
func TestScheduler_ProcessEventsUnsupportedWithWorkers(t *testing.T) {
	sched, err := NewScheduler(1)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	defer sched.Close()

	err = sched.ProcessEvents(time.Millisecond, time.Millisecond, false)
	ae, ok := err.(*Error)
	if !ok || ae.Kind != UnsupportedAction {
		t.Fatalf("expected *unsupported-action, got %v", err)
	}
}

// TestScheduler_WorkerModeAccept drives a TCP accept+echo round trip with
// a real dedicated worker pool, confirming cross-goroutine dispatch works
// end to end.
func TestScheduler_WorkerModeAccept(t *testing.T) {
	listener, err := DefaultRegistry().NewConnector("tcp://127.0.0.1:0")
	if err != nil {
		t.Fatalf("new tcp listener: %v", err)
	}
	defer listener.Close()
	if err := listener.Listen(); err != nil {
		t.Fatalf("listen: %v", err)
	}
	bound := listener.SocketAddr()

	sched, err := NewScheduler(2)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	defer sched.Close()

	done := make(chan struct{})
	acceptCB := NewClosureCallback(func(now time.Time, events EventMask, cause error, c *Connector) error {
		peer, err := listener.Accept()
		if err != nil {
			return NewError(RepeatAction, "retry accept")
		}
		buf := make([]byte, 16)
		n, _ := peer.Read(buf)
		_, _ = peer.Write(buf[:n])
		_ = peer.Close()
		close(done)
		return nil
	})

	if err := sched.AddIO(listener.ReadHandle(), IORead, acceptCB, FlagRepeat, listener); err != nil {
		t.Fatalf("add_io: %v", err)
	}

	client, err := DefaultRegistry().NewConnector(fmt.Sprintf("tcp://127.0.0.1:%d", bound.Port))
	if err != nil {
		t.Fatalf("new tcp client: %v", err)
	}
	defer client.Close()
	if err := client.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := client.Write([]byte("ping")); err != nil {
		t.Fatalf("client write: %v", err)
	}

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for worker-mode accept dispatch")
	}
}
