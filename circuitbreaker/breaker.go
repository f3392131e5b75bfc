// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package circuitbreaker implements the Closed/Open/HalfOpen admission
// guard in front of the Parallel Executor (design doc component 5). All
// counters are lock-free atomics; the breaker gates admission, it never
// serializes the executor itself.
package circuitbreaker

import (
	"sync/atomic"
	"time"
)

// State is one of the three breaker states.
type State int32

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// nowFunc is overridable in tests so Scenario C's 30s timeout can be
// exercised without a real sleep.
var nowFunc = time.Now

// Breaker is the atomic Closed/Open/HalfOpen state machine from design doc
// §4.5.
type Breaker struct {
	state             atomic.Int32
	failures          atomic.Int64
	lastTransitionNs  atomic.Int64
	failureThreshold  int64
	timeout           time.Duration
	onStateChange     func(State)
}

// Option configures optional breaker behavior.
type Option func(*Breaker)

// WithStateChangeHook registers a callback invoked (outside any lock) on
// every state transition, used to drive the Prometheus gauge in the
// ambient metrics package.
func WithStateChangeHook(f func(State)) Option {
	return func(b *Breaker) { b.onStateChange = f }
}

// New constructs a Breaker. failureThreshold defaults to 5 and timeout to
// 30s when zero values are passed, matching design doc §3 defaults.
func New(failureThreshold int, timeout time.Duration, opts ...Option) *Breaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	b := &Breaker{
		failureThreshold: int64(failureThreshold),
		timeout:          timeout,
	}
	b.lastTransitionNs.Store(nowFunc().UnixNano())
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// IsOpen reports whether callers must fail fast. Per design doc §4.5, a
// call after the timeout has elapsed since the Open transition moves the
// breaker to HalfOpen and returns false, admitting exactly one probe.
func (b *Breaker) IsOpen() bool {
	if State(b.state.Load()) != Open {
		return false
	}

	last := b.lastTransitionNs.Load()
	if nowFunc().UnixNano()-last < b.timeout.Nanoseconds() {
		return true
	}

	if b.state.CompareAndSwap(int32(Open), int32(HalfOpen)) {
		b.notify(HalfOpen)
	}
	return false
}

// RecordSuccess transitions Closed->Closed (resetting failures) or
// HalfOpen->Closed (resetting counters).
func (b *Breaker) RecordSuccess() {
	b.failures.Store(0)
	if b.state.CompareAndSwap(int32(HalfOpen), int32(Closed)) {
		b.notify(Closed)
	}
}

// RecordFailure increments the failure counter and transitions to Open
// when the threshold is reached, or HalfOpen->Open immediately.
func (b *Breaker) RecordFailure() {
	if State(b.state.Load()) == HalfOpen {
		b.transitionToOpen()
		return
	}

	n := b.failures.Add(1)
	if n >= b.failureThreshold {
		b.transitionToOpen()
	}
}

func (b *Breaker) transitionToOpen() {
	b.lastTransitionNs.Store(nowFunc().UnixNano())
	b.state.Store(int32(Open))
	b.notify(Open)
}

// State returns the current state without mutating it (IsOpen is the
// admission-control entry point; State is for observability only).
func (b *Breaker) State() State {
	return State(b.state.Load())
}

// Failures returns the current failure counter, for tests and metrics.
func (b *Breaker) Failures() int64 {
	return b.failures.Load()
}

func (b *Breaker) notify(s State) {
	if b.onStateChange != nil {
		b.onStateChange(s)
	}
}
