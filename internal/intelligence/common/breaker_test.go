package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker_StateMachine(t *testing.T) {
	var transitions []string
	now := time.Unix(1000, 0)
	cb := NewCircuitBreaker(2, time.Minute, func(from, to string) {
		transitions = append(transitions, from+"->"+to)
	})
	cb.now = func() time.Time { return now }

	assert.True(t, cb.Allow())
	cb.Failure()
	assert.True(t, cb.Allow())
	cb.Failure()
	assert.True(t, cb.Open())
	assert.False(t, cb.Allow())

	now = now.Add(2 * time.Minute)
	assert.True(t, cb.Allow(), "one probe after reset window")
	assert.False(t, cb.Allow(), "only one probe")

	cb.Success()
	assert.False(t, cb.Open())
	assert.True(t, cb.Allow())

	assert.Equal(t, []string{"closed->open", "open->half_open", "half_open->closed"}, transitions)
}

func TestCircuitBreaker_ProbeFailureReopens(t *testing.T) {
	now := time.Unix(1000, 0)
	cb := NewCircuitBreaker(1, time.Second, nil)
	cb.now = func() time.Time { return now }

	cb.Failure()
	now = now.Add(2 * time.Second)
	assert.True(t, cb.Allow())
	cb.Failure()
	assert.True(t, cb.Open())
	assert.False(t, cb.Allow())
}

func TestCircuitBreaker_Disabled(t *testing.T) {
	cb := NewCircuitBreaker(0, time.Second, nil)
	for i := 0; i < 10; i++ {
		cb.Failure()
	}
	assert.True(t, cb.Allow())

	var nilCB *CircuitBreaker
	assert.True(t, nilCB.Allow())
	assert.False(t, nilCB.Open())
}
