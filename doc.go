// Package packeteer provides a cross-platform connector/scheduler pair
// for asynchronous I/O.
//
// # Architecture
//
// A [Registry] maps URL schemes to connector implementations - TCP/UDP
// (v4 and v6), local sockets, named pipes, POSIX FIFOs, anonymous pipes,
// and user-registered scheme types. [Registry.NewConnector] parses a URL,
// resolves its scheme and query-string options against the registry, and
// returns a [Connector] value: a reference-counted proxy around whichever
// implementation backs that scheme.
//
// A [Scheduler] multiplexes I/O readiness, timed events ([Scheduler.AddScheduled])
// and user-defined events ([Scheduler.FireEvents]) onto either a
// dedicated worker pool or a caller-driven inline loop
// ([Scheduler.ProcessEvents]). Readiness itself comes from an
// [IOSubsystem], one per scheduler, backed by epoll (Linux), kqueue
// (Darwin/BSD) or IOCP (Windows) - selected automatically by
// [NewIOSubsystem], never exposed to callers as a platform-specific code.
//
// # Callbacks
//
// [Callback] is a comparable, hashable, first-class callable built from a
// free function ([NewCallback]), a bound method ([NewMethodCallback]), or
// an arbitrary closure ([NewClosureCallback]). Equality and hashing let
// the same logical callback be registered, removed, and re-registered by
// value, without the caller keeping a separate registration handle.
//
// # Thread Safety
//
// Only the scheduler's dispatch thread - the caller of [Scheduler.ProcessEvents]
// in inline mode, or the internal goroutine spawned by [NewScheduler]
// otherwise - ever mutates the callback stores or the [IOSubsystem]'s
// registrations. Every other [Scheduler] method (AddIO, RemoveIO,
// AddScheduled, RemoveScheduled, AddUser, RemoveUser, FireEvents) posts a
// command into an internal queue and wakes the dispatch thread; it is
// safe to call from any goroutine. [Scheduler.CommitCallbacks] blocks
// until every command posted before it returns has been applied.
//
// # Usage
//
//	sched, err := packeteer.NewScheduler(-1) // one worker per CPU
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sched.Close()
//
//	conn, err := packeteer.DefaultRegistry().NewConnector("tcp://127.0.0.1:9000?listen")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := conn.Listen(); err != nil {
//	    log.Fatal(err)
//	}
//
//	accept := packeteer.NewCallback(func(now time.Time, events packeteer.EventMask, cause error, c *packeteer.Connector) error {
//	    peer, err := conn.Accept()
//	    if err != nil {
//	        return err
//	    }
//	    _ = peer
//	    return nil
//	})
//	if err := sched.AddIO(conn.ReadHandle(), packeteer.IORead, accept, packeteer.FlagRepeat, packeteer.Connector{}); err != nil {
//	    log.Fatal(err)
//	}
//
// # Error Types
//
// Every error this module returns is a typed [*Error], carrying a closed
// [ErrorKind] (accessible via [Error.Code]) so callers never have to
// switch on a platform errno. [Error] implements [error], [errors.Unwrap]
// and Is(), so errors.Is(err, packeteer.NewError(packeteer.RepeatAction, ""))
// works as expected.
package packeteer
