// Package-level logging helpers wiring the scheduler, I/O subsystem and
// worker pool to logiface/stumpy. The [Scheduler] accepts a
// *logiface.Logger[*stumpy.Event] via its functional options (see
// options.go's WithLogger) and does all logging through these helpers; no
// other component takes a logger. A nil logger is a genuine no-op (logiface's
// Logger methods are nil-receiver safe), so nothing here pays for logging
// it was never asked to do.
package packeteer

import (
	"io"
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// NewJSONLogger builds a ready-to-use logger writing newline-delimited
// JSON events to w (os.Stderr if nil), using stumpy as the zero-allocation
// event backend - the same pairing demonstrated in the examples pack's
// logiface-stumpy tests.
func NewJSONLogger(w io.Writer) *logiface.Logger[*stumpy.Event] {
	if w == nil {
		w = os.Stderr
	}
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
	)
}

// logDebugDispatch logs a per-event dispatch decision at Debug; called
// from the scheduler's hot path, so it costs nothing when disabled.
func logDebugDispatch(logger *logiface.Logger[*stumpy.Event], msg string, handle Handle, mask EventMask) {
	logger.Debug().
		Int64(`handle`, int64(handle.Hash())).
		Str(`mask`, mask.String()).
		Log(msg)
}

// logInfoLifecycle logs a scheduler/worker-pool lifecycle transition at
// Info.
func logInfoLifecycle(logger *logiface.Logger[*stumpy.Event], msg string) {
	logger.Info().Log(msg)
}

// logWarnIOError logs a recoverable I/O subsystem error at Warn.
func logWarnIOError(logger *logiface.Logger[*stumpy.Event], msg string, err error) {
	logger.Warning().Err(err).Log(msg)
}

// logErrorCallback logs, at Error, a callback that returned a failure
// other than *repeat-action*. Callback panics are not recovered.
func logErrorCallback(logger *logiface.Logger[*stumpy.Event], err error) {
	logger.Err().Err(err).Log(`callback failed`)
}
