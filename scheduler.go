// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package packeteer

import (
	"runtime"
	"sync"
	"time"
)

// Scheduler multiplexes I/O readiness, timed events and user-defined
// events onto either a worker pool or a caller-driven inline loop - spec
// §4.8. It owns exactly one [IOSubsystem], one signal connector for
// cross-thread wake-ups, the three callback stores, and (if constructed
// with workers != 0) a dedicated dispatch goroutine.
//
// Only the dispatch thread - the caller of [Scheduler.ProcessEvents] in
// inline mode, or the internal goroutine spawned by [NewScheduler]
// otherwise - ever reads or writes the stores or the I/O subsystem's
// registrations. Every other method posts a command into a queue drained
// exclusively by that thread, per spec §5's concurrency model.
type Scheduler struct {
	opts *schedulerOptions

	io     IOSubsystem
	signal *signalConnector
	queue  commandQueue

	ioStore    *ioStore
	schedStore *schedStore
	userStore  *userStore
	triggered  EventMask

	inline bool
	pool   *workerPool
	output chan readyWork

	state    *FastState
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler constructs a Scheduler. workers<0 selects
// runtime.NumCPU() dedicated worker tasklets; workers==0 selects inline
// mode, where the caller's own goroutine drives dispatch via
// [Scheduler.ProcessEvents]; workers>0 spawns exactly that many tasklets
// plus one internal dispatch goroutine.
func NewScheduler(workers int, opts ...SchedulerOption) (*Scheduler, error) {
	cfg, err := resolveSchedulerOptions(opts)
	if err != nil {
		return nil, err
	}

	io, err := NewIOSubsystem()
	if err != nil {
		return nil, WrapError(Initialization, "create I/O subsystem", err)
	}
	sig, err := newSignalConnector()
	if err != nil {
		_ = io.Close()
		return nil, WrapError(Initialization, "create signal connector", err)
	}
	bindSignalToIOSubsystem(sig, io)
	if sig.Handle().Valid() {
		if err := io.Register(sig.Handle(), IORead); err != nil {
			_ = sig.Close()
			_ = io.Close()
			return nil, WrapError(Initialization, "register signal handle", err)
		}
	}

	s := &Scheduler{
		opts:       cfg,
		io:         io,
		signal:     sig,
		ioStore:    newIOStore(),
		schedStore: newSchedStore(),
		userStore:  newUserStore(),
		state:      NewFastState(),
		stopCh:     make(chan struct{}),
	}

	if workers == 0 {
		s.inline = true
		return s, nil
	}

	n := workers
	if n < 0 {
		n = runtime.NumCPU()
		if n < 1 {
			n = 1
		}
	}
	s.output = make(chan readyWork, n*4)
	s.pool = newWorkerPool(s.output, s.invoke)
	s.pool.SetNumWorkers(n)

	s.state.TryTransition(StateAwake, StateRunning)
	s.wg.Add(1)
	go s.dispatchLoop()

	if cfg.logger != nil {
		logInfoLifecycle(cfg.logger, "scheduler started")
	}
	return s, nil
}

// Close stops the dispatch goroutine and worker pool (if any), then
// releases the I/O subsystem and signal connector. Safe to call once;
// in inline mode it only releases resources, since there is no internal
// goroutine.
func (s *Scheduler) Close() error {
	if !s.inline {
		s.state.TransitionAny([]SchedulerState{StateRunning, StateSleeping, StateAwake}, StateTerminating)
	}
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	if !s.inline {
		s.wg.Wait()
		s.pool.Close()
		s.state.Store(StateTerminated)
		if s.opts.logger != nil {
			logInfoLifecycle(s.opts.logger, "scheduler stopped")
		}
	}
	err1 := s.signal.Close()
	err2 := s.io.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// State reports the scheduler's lifecycle state. Always [StateAwake] in
// inline mode, which has no internal dispatch goroutine to transition
// it.
func (s *Scheduler) State() SchedulerState {
	return s.state.Load()
}

// SetNumWorkers resizes the worker pool; it is a no-op (and returns
// *unsupported-action*) in inline mode, where there is no pool.
func (s *Scheduler) SetNumWorkers(n int) error {
	if s.inline {
		return NewError(UnsupportedAction, "set_num_workers is unavailable in inline mode")
	}
	if n < 0 {
		return NewError(InvalidValue, "worker count must be >= 0")
	}
	s.pool.SetNumWorkers(n)
	if s.opts.logger != nil {
		logInfoLifecycle(s.opts.logger, "worker pool resized")
	}
	return nil
}

// post enqueues cmd and wakes the dispatch thread. It validates nothing:
// each posting API checks its own *invalid-value* / *empty-callback*
// preconditions before calling post. post itself fails only with
// *unexpected*, when committing the signal connector fails.
func (s *Scheduler) post(cmd schedulerCommand) error {
	s.queue.Push(cmd)
	if err := s.signal.Commit(); err != nil {
		return WrapError(Unexpected, "signal commit", err)
	}
	return nil
}

// AddIO registers cb for mask on handle, optionally tagging the
// registration with conn (delivered back to cb as its connector
// argument; pass [Connector]{} for none). flags controls ONESHOT/REPEAT
// removal behaviour - spec §3/§4.8.
func (s *Scheduler) AddIO(handle Handle, mask EventMask, cb Callback, flags ioFlags, conn Connector) error {
	if !handle.Valid() {
		return NewError(InvalidValue, "add_io: invalid handle")
	}
	if mask == 0 || mask >= User {
		return NewError(InvalidValue, "add_io: mask must be non-zero and below User")
	}
	if cb.Empty() {
		return NewError(EmptyCallback, "add_io: empty callback")
	}
	var connPtr *Connector
	if conn.cell != nil {
		if unsupportedOnIOSubsystem(conn.Type()) {
			return NewError(InvalidValue, "add_io: connector type unsupported on this platform's I/O subsystem")
		}
		c := conn
		connPtr = &c
	}
	return s.post(schedulerCommand{op: opAddIO, handle: handle, mask: mask, callback: cb, flags: flags, conn: connPtr})
}

// RemoveIO unregisters cb's interest in mask bits on handle.
func (s *Scheduler) RemoveIO(handle Handle, mask EventMask, cb Callback) error {
	if !handle.Valid() {
		return NewError(InvalidValue, "remove_io: invalid handle")
	}
	if cb.Empty() {
		return NewError(EmptyCallback, "remove_io: empty callback")
	}
	return s.post(schedulerCommand{op: opRemoveIO, handle: handle, mask: mask, callback: cb})
}

// AddScheduled registers cb to fire at deadline, then every interval
// thereafter (interval==0: one-shot; count<0: infinite repetitions;
// count>0: fire exactly that many times) - spec §3/§4.8.
func (s *Scheduler) AddScheduled(deadline time.Time, interval time.Duration, count int, cb Callback) error {
	if cb.Empty() {
		return NewError(EmptyCallback, "add_scheduled: empty callback")
	}
	return s.post(schedulerCommand{op: opAddSched, deadline: deadline, interval: interval, count: count, callback: cb})
}

// RemoveScheduled deregisters every scheduled entry matching cb.
func (s *Scheduler) RemoveScheduled(cb Callback) error {
	if cb.Empty() {
		return NewError(EmptyCallback, "remove_scheduled: empty callback")
	}
	return s.post(schedulerCommand{op: opRemoveSched, callback: cb})
}

// AddUser registers cb for the given user-event mask bits (each must be
// at or above [User]).
func (s *Scheduler) AddUser(mask EventMask, cb Callback) error {
	if mask == 0 || mask < User {
		return NewError(InvalidValue, "add_user: mask must use bits at or above User")
	}
	if cb.Empty() {
		return NewError(EmptyCallback, "add_user: empty callback")
	}
	return s.post(schedulerCommand{op: opAddUser, mask: mask, callback: cb})
}

// RemoveUser deregisters cb's interest in the given user-event mask bits.
func (s *Scheduler) RemoveUser(mask EventMask, cb Callback) error {
	if cb.Empty() {
		return NewError(EmptyCallback, "remove_user: empty callback")
	}
	return s.post(schedulerCommand{op: opRemoveUser, mask: mask, callback: cb})
}

// FireEvents triggers every user entry whose mask intersects mask, on the
// next dispatch iteration. mask must use only bits at or above [User].
func (s *Scheduler) FireEvents(mask EventMask) error {
	if mask == 0 || mask < User {
		return NewError(InvalidValue, "fire_events: mask must use bits at or above User")
	}
	return s.post(schedulerCommand{op: opTriggerUser, mask: mask})
}

// CommitCallbacks blocks until every command posted before this call has
// been applied to the stores - spec §4.8's barrier. In inline mode, it
// instead drains the queue synchronously (the caller already owns the
// only dispatch thread there is).
func (s *Scheduler) CommitCallbacks() error {
	if s.inline {
		s.drainCommands()
		return nil
	}
	done := make(chan struct{})
	s.queue.Push(schedulerCommand{op: opBarrier, done: done})
	if err := s.signal.Commit(); err != nil {
		return WrapError(Unexpected, "signal commit", err)
	}
	<-done
	return nil
}

// ProcessEvents runs exactly one dispatch iteration on the calling
// goroutine: drain commands, wait for I/O for at most the smallest of
// timeout (when >= 0), softTimeout (the poll cap instead, when softTimeout
// is not positive or exceeds it) and the time until the nearest scheduled
// deadline, and invoke whatever is ready.
// It is *unsupported-action* when the scheduler owns worker threads
// (workers != 0): those already run their own dispatch loop.
//
// exitOnFailure stops processing remaining ready entries in this
// iteration as soon as one callback returns a non-nil, non-repeat-action
// error.
func (s *Scheduler) ProcessEvents(timeout, softTimeout time.Duration, exitOnFailure bool) error {
	if !s.inline {
		return NewError(UnsupportedAction, "process_events is unavailable when the scheduler owns worker threads")
	}
	s.drainCommands()
	ready, err := s.pollOnce(timeout, softTimeout)
	if err != nil {
		return err
	}
	s.preRemoveFlagged(ready)
	for _, w := range ready {
		err := s.invokeErr(w)
		if err != nil && exitOnFailure {
			if ae, ok := err.(*Error); !ok || ae.Kind != RepeatAction {
				return err
			}
		}
	}
	return nil
}

// dispatchLoop is the internal goroutine spawned by NewScheduler for
// workers != 0, mirroring ProcessEvents but feeding ready work to the
// worker pool instead of invoking inline.
func (s *Scheduler) dispatchLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}
		s.drainCommands()
		ready, err := s.pollOnce(-1, s.opts.pollCap)
		if err != nil {
			if s.opts.logger != nil {
				logWarnIOError(s.opts.logger, "io subsystem wait failed", err)
			}
			continue
		}
		s.preRemoveFlagged(ready)
		for _, w := range ready {
			select {
			case s.output <- w:
			case <-s.stopCh:
				return
			}
		}
	}
}

// preRemoveFlagged strips ONESHOT/REPEAT I/O entries from the store
// before their callback runs, per spec §5's cancel-before-invoke rule -
// this must happen on the dispatch thread, before work reaches either an
// inline invocation or the worker pool, so a burst of readiness never
// invokes a ONESHOT entry twice.
func (s *Scheduler) preRemoveFlagged(ready []readyWork) {
	for _, w := range ready {
		if w.handle.Valid() && (w.flags == FlagOneshot || w.flags == FlagRepeat) {
			s.ioStore.Remove(w.handle, w.mask, w.cb)
		}
	}
}

// pollOnce drains no commands itself (the caller already did); it
// computes the I/O wait timeout, blocks in the I/O subsystem, and builds
// the ready list from all three stores - spec §4.8's dispatch loop core.
// requestedTimeout<0 means "use softTimeout/pollCap clamping"; >=0 is an
// explicit caller-supplied ceiling (ProcessEvents' inline-mode timeout
// argument), itself still clamped to the nearest scheduled deadline.
func (s *Scheduler) pollOnce(requestedTimeout, softTimeout time.Duration) ([]readyWork, error) {
	wait := softTimeout
	if wait <= 0 || wait > s.opts.pollCap {
		wait = s.opts.pollCap
	}
	if requestedTimeout >= 0 && requestedTimeout < wait {
		wait = requestedTimeout
	}
	if dl, ok := s.schedStore.PeekDeadline(); ok {
		if d := time.Until(dl); d < wait {
			wait = d
		}
	}
	if wait < 0 {
		wait = 0
	}

	if !s.inline {
		s.state.TryTransition(StateRunning, StateSleeping)
	}
	events, err := s.io.Wait(wait)
	if !s.inline {
		s.state.TryTransition(StateSleeping, StateRunning)
	}
	if err != nil {
		return nil, WrapError(Unexpected, "io subsystem wait", err)
	}

	var ready []readyWork
	now := time.Now()
	for _, ev := range events {
		if ev.Handle.Equal(s.signal.Handle()) {
			_ = s.signal.Clear()
			continue
		}
		for _, e := range s.ioStore.CopyMatching(ev.Handle, ev.Mask) {
			mask := e.Mask
			// IO_OPEN open question (DESIGN.md): synthesized here, once,
			// the first time a connecting connector's write-readiness
			// completes its non-blocking connect() handshake.
			if e.Conn != nil && mask.Has(IOWrite) && e.Conn.state() == StateConnecting {
				e.Conn.cell.state.Store(int32(StateConnected))
				mask |= IOOpen
			}
			ready = append(ready, readyWork{now: now, mask: mask, conn: e.Conn, cb: e.Callback, handle: e.Handle, flags: e.Flags})
			if s.opts.logger != nil {
				logDebugDispatch(s.opts.logger, "io entry ready", e.Handle, mask)
			}
		}
	}

	now = time.Now()
	for _, cb := range s.schedStore.GetTimedOut(now) {
		ready = append(ready, readyWork{now: now, mask: Timeout, cb: cb})
	}

	if s.triggered != 0 {
		fired := s.triggered
		s.triggered = 0
		for _, e := range s.userStore.CopyMatching(fired) {
			ready = append(ready, readyWork{now: now, mask: e.Mask, cb: e.Callback})
		}
	}

	return ready, nil
}

// invoke runs w's callback, discarding the error after acting on it -
// the signature workerPool requires.
func (s *Scheduler) invoke(w readyWork) {
	_ = s.invokeErr(w)
}

// invokeErr runs w's callback and, for REPEAT-flagged I/O entries whose
// callback asked to continue (a *repeat-action* [Error]), re-posts the
// registration through the ordinary command-queue path - spec §5's
// resolution for "only the dispatch thread mutates stores, but only the
// invoking thread (possibly a worker) knows the return value".
func (s *Scheduler) invokeErr(w readyWork) error {
	var connPtr *Connector
	if w.conn != nil {
		connPtr = w.conn
	}
	start := time.Now()
	err := w.cb.Invoke(w.now, w.mask, w.cause, connPtr)
	if s.opts.metrics != nil {
		s.opts.metrics.RecordDispatch(time.Since(start))
	}
	if w.handle.Valid() && w.flags == FlagRepeat {
		if ae, ok := err.(*Error); ok && ae.Kind == RepeatAction {
			var conn Connector
			if w.conn != nil {
				conn = *w.conn
			}
			// IO_OPEN (and any future scheduler-synthesized bit) is never
			// itself a registerable interest - strip it before
			// re-expressing interest in the fired bits.
			_ = s.AddIO(w.handle, w.mask&^IOOpen, w.cb, FlagRepeat, conn)
		}
	}
	if err != nil && s.opts.logger != nil {
		if ae, ok := err.(*Error); !ok || ae.Kind != RepeatAction {
			logErrorCallback(s.opts.logger, err)
		}
	}
	return err
}

// drainCommands pops every currently-queued command and applies it to
// the stores/I/O subsystem - the only place those are mutated.
func (s *Scheduler) drainCommands() {
	if s.opts.metrics != nil {
		s.opts.metrics.Queue.UpdateCommandDepth(s.queue.Len())
		s.opts.metrics.Queue.UpdateScheduledDepth(s.schedStore.Len())
		if s.output != nil {
			s.opts.metrics.Queue.UpdateOutputDepth(len(s.output))
		}
	}
	for {
		cmd, ok := s.queue.pop()
		if !ok {
			return
		}
		s.applyCommand(cmd)
	}
}

func (s *Scheduler) applyCommand(cmd schedulerCommand) {
	switch cmd.op {
	case opAddIO:
		s.ioStore.Add(cmd.handle, cmd.mask, cmd.callback, cmd.flags, cmd.conn)
		if err := s.io.Register(cmd.handle, s.ioStore.AggregateMask(cmd.handle)); err != nil && s.opts.logger != nil {
			logWarnIOError(s.opts.logger, "register failed", err)
		}
	case opRemoveIO:
		s.ioStore.Remove(cmd.handle, cmd.mask, cmd.callback)
		remaining := s.ioStore.AggregateMask(cmd.handle)
		if unregister := cmd.mask &^ remaining; unregister != 0 {
			if err := s.io.Unregister(cmd.handle, unregister); err != nil && s.opts.logger != nil {
				logWarnIOError(s.opts.logger, "unregister failed", err)
			}
		}
	case opAddSched:
		s.schedStore.Add(cmd.deadline, cmd.interval, cmd.count, cmd.callback)
	case opRemoveSched:
		s.schedStore.Remove(cmd.callback)
	case opAddUser:
		s.userStore.Add(cmd.mask, cmd.callback)
	case opRemoveUser:
		s.userStore.Remove(cmd.mask, cmd.callback)
	case opTriggerUser:
		s.triggered |= cmd.mask
	case opBarrier:
		if cmd.done != nil {
			close(cmd.done)
		}
	}
}
