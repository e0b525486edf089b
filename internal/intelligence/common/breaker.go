package common

import (
	stdliberrors "errors"
	"sync/atomic"
	"time"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = stdliberrors.New("circuit breaker is open")

const (
	cbStateClosed   int32 = 0
	cbStateOpen     int32 = 1
	cbStateHalfOpen int32 = 2
)

// CircuitBreaker stops calling a failing collaborator after threshold
// consecutive failures, then lets one probe through after resetAfter.
type CircuitBreaker struct {
	state            atomic.Int32
	consecutiveFails atomic.Int32
	threshold        int32
	resetAfter       time.Duration
	lastOpenTime     atomic.Int64
	halfOpenPermits  atomic.Int32
	onChange         func(from, to string)
	now              func() time.Time
}

// NewCircuitBreaker returns a closed breaker.  threshold <= 0 disables it.
// onChange may be nil.
func NewCircuitBreaker(threshold int, resetAfter time.Duration, onChange func(from, to string)) *CircuitBreaker {
	return &CircuitBreaker{
		threshold:  int32(threshold),
		resetAfter: resetAfter,
		onChange:   onChange,
		now:        time.Now,
	}
}

// Allow reports whether a call may proceed.
func (cb *CircuitBreaker) Allow() bool {
	if cb == nil || cb.threshold <= 0 {
		return true
	}
	switch cb.state.Load() {
	case cbStateClosed:
		return true
	case cbStateOpen:
		if cb.now().Sub(time.Unix(0, cb.lastOpenTime.Load())) < cb.resetAfter {
			return false
		}
		if cb.state.CompareAndSwap(cbStateOpen, cbStateHalfOpen) {
			cb.halfOpenPermits.Store(1)
			cb.changed("open", "half_open")
		}
		return cb.halfOpenPermits.Add(-1) >= 0
	case cbStateHalfOpen:
		return cb.halfOpenPermits.Add(-1) >= 0
	}
	return false
}

// Success records a successful call.
func (cb *CircuitBreaker) Success() {
	if cb == nil || cb.threshold <= 0 {
		return
	}
	cb.consecutiveFails.Store(0)
	if cb.state.CompareAndSwap(cbStateHalfOpen, cbStateClosed) {
		cb.changed("half_open", "closed")
	}
}

// Failure records a failed call and may trip the breaker.
func (cb *CircuitBreaker) Failure() {
	if cb == nil || cb.threshold <= 0 {
		return
	}
	fails := cb.consecutiveFails.Add(1)
	switch cb.state.Load() {
	case cbStateClosed:
		if fails >= cb.threshold && cb.state.CompareAndSwap(cbStateClosed, cbStateOpen) {
			cb.lastOpenTime.Store(cb.now().UnixNano())
			cb.changed("closed", "open")
		}
	case cbStateHalfOpen:
		if cb.state.CompareAndSwap(cbStateHalfOpen, cbStateOpen) {
			cb.lastOpenTime.Store(cb.now().UnixNano())
			cb.changed("half_open", "open")
		}
	}
}

// Open reports whether the breaker is currently rejecting calls.
func (cb *CircuitBreaker) Open() bool {
	return cb != nil && cb.state.Load() == cbStateOpen
}

func (cb *CircuitBreaker) changed(from, to string) {
	if cb.onChange != nil {
		cb.onChange(from, to)
	}
}

//Personal.AI order the ending
