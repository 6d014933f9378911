package packeteer

import (
	"sync/atomic"
)

// SchedulerState represents the current lifecycle state of a [Scheduler]
// in worker-pool mode.
//
// State Machine:
//
//	StateAwake (0) → StateRunning (3)       [NewScheduler spawns dispatchLoop]
//	StateRunning (3) → StateSleeping (2)    [dispatchLoop blocked in io.Wait]
//	StateRunning (3) → StateTerminating (4) [Close()]
//	StateSleeping (2) → StateRunning (3)    [io.Wait returns]
//	StateSleeping (2) → StateTerminating (4) [Close()]
//	StateTerminating (4) → StateTerminated (1) [dispatchLoop exits, Close() returns]
//	StateTerminated (1) → (terminal)
//
// State Transition Rules:
//   - Use TryTransition() (CAS) for temporary states (Running, Sleeping)
//   - Use Store() for irreversible states (Terminated)
//   - Using Store(Running) or Store(Sleeping) is a BUG (breaks CAS logic)
type SchedulerState uint64

const (
	// StateAwake is the initial state. In worker-pool mode NewScheduler
	// moves it to StateRunning before spawning the dispatch goroutine; in
	// inline mode this state persists for the scheduler's whole lifetime
	// (ProcessEvents does not transition it).
	StateAwake SchedulerState = 0
	// StateTerminated indicates the scheduler has been closed and its
	// dispatch goroutine (if any) has fully exited.
	StateTerminated SchedulerState = 1
	// StateSleeping indicates the dispatch goroutine is blocked in the
	// I/O subsystem's Wait.
	StateSleeping SchedulerState = 2
	// StateRunning indicates the dispatch goroutine is actively draining
	// commands or dispatching ready work.
	StateRunning SchedulerState = 3
	// StateTerminating indicates Close has been called but the dispatch
	// goroutine has not yet observed it.
	StateTerminating SchedulerState = 4
)

// String returns a human-readable representation of the state.
func (s SchedulerState) String() string {
	switch s {
	case StateAwake:
		return "Awake"
	case StateRunning:
		return "Running"
	case StateSleeping:
		return "Sleeping"
	case StateTerminating:
		return "Terminating"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// FastState is a lock-free state machine with cache-line padding,
// backing [Scheduler]'s lifecycle tracking.
//
// PERFORMANCE: Uses pure atomic CAS operations with no mutex.
// Cache-line padding prevents false sharing between cores.
type FastState struct { // betteralign:ignore
	_ [sizeOfCacheLine]byte                        // Cache line padding (before value) //nolint:unused
	v atomic.Uint64                                 // State value
	_ [sizeOfCacheLine - sizeOfAtomicUint64]byte    // Pad to complete cache line //nolint:unused
}

// NewFastState creates a new state machine in the Awake state.
func NewFastState() *FastState {
	s := &FastState{}
	s.v.Store(uint64(StateAwake))
	return s
}

// Load returns the current state atomically.
// PERFORMANCE: No validation, trusts the stored value.
func (s *FastState) Load() SchedulerState {
	return SchedulerState(s.v.Load())
}

// Store atomically stores a new state.
// PERFORMANCE: No transition validation.
func (s *FastState) Store(state SchedulerState) {
	s.v.Store(uint64(state))
}

// TryTransition attempts to atomically transition from one state to another.
// Returns true if the transition was successful.
// PERFORMANCE: Pure CAS, no validation of transition validity.
func (s *FastState) TryTransition(from, to SchedulerState) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}

// TransitionAny attempts to transition from any valid source state to the target.
// Returns true if the transition was successful.
// PERFORMANCE: Uses CAS loop for any-to-target transitions.
func (s *FastState) TransitionAny(validFrom []SchedulerState, to SchedulerState) bool {
	for _, from := range validFrom {
		if s.v.CompareAndSwap(uint64(from), uint64(to)) {
			return true
		}
	}
	return false
}

// IsTerminal returns true if the current state is terminal (Terminated).
func (s *FastState) IsTerminal() bool {
	return s.Load() == StateTerminated
}

// IsRunning returns true if the loop is currently running or sleeping.
func (s *FastState) IsRunning() bool {
	state := s.Load()
	return state == StateRunning || state == StateSleeping
}

// CanAcceptWork returns true if the loop can accept new work.
func (s *FastState) CanAcceptWork() bool {
	state := s.Load()
	return state == StateAwake || state == StateRunning || state == StateSleeping
}
