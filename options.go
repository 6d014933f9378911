// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package packeteer

import (
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// schedulerOptions holds configuration options for Scheduler creation.
type schedulerOptions struct {
	logger  *logiface.Logger[*stumpy.Event]
	pollCap time.Duration
	metrics *Metrics
}

// SchedulerOption configures a [Scheduler] instance.
type SchedulerOption interface {
	applyScheduler(*schedulerOptions) error
}

// schedulerOptionImpl implements SchedulerOption.
type schedulerOptionImpl struct {
	applySchedulerFunc func(*schedulerOptions) error
}

func (o *schedulerOptionImpl) applyScheduler(opts *schedulerOptions) error {
	return o.applySchedulerFunc(opts)
}

// WithLogger attaches a structured logger to the scheduler; lifecycle
// transitions (start/stop, worker pool resize) log at Info, per-event
// dispatch at Debug, recoverable I/O subsystem errors at Warn. A nil
// logger (the default) disables logging entirely at zero cost.
func WithLogger(logger *logiface.Logger[*stumpy.Event]) SchedulerOption {
	return &schedulerOptionImpl{func(opts *schedulerOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithPollCap overrides the dispatch loop's maximum I/O wait (spec §4.8's
// poll_cap, ~20ms by default) so tests can drive the loop with a shorter
// or longer clamp.
func WithPollCap(d time.Duration) SchedulerOption {
	return &schedulerOptionImpl{func(opts *schedulerOptions) error {
		if d <= 0 {
			return NewError(InvalidValue, "poll cap must be positive")
		}
		opts.pollCap = d
		return nil
	}}
}

// WithMetrics attaches m to the scheduler: every callback invocation
// records its latency and bumps m's dispatch-rate counter, and every
// dispatch iteration refreshes m's queue-depth gauges. A nil m (the
// default) disables metrics collection entirely.
func WithMetrics(m *Metrics) SchedulerOption {
	return &schedulerOptionImpl{func(opts *schedulerOptions) error {
		opts.metrics = m
		return nil
	}}
}

// resolveSchedulerOptions applies SchedulerOption instances to
// schedulerOptions.
func resolveSchedulerOptions(opts []SchedulerOption) (*schedulerOptions, error) {
	cfg := &schedulerOptions{
		pollCap: 20 * time.Millisecond,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyScheduler(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
