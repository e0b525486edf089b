// Package common holds the execution helpers shared by the pipeline stages:
// retry with exponential backoff, a small circuit breaker for remote
// collaborators, and the per-unit status vocabulary.
package common

import (
	"context"
	stdliberrors "errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/turtacn/CaseIntel/internal/config"
	"github.com/turtacn/CaseIntel/pkg/errors"
)

// ---------------------------------------------------------------------------
// UnitStatus
// ---------------------------------------------------------------------------

// UnitStatus is the outcome of one unit of work (one case or one entity).
type UnitStatus int

const (
	UnitSucceeded UnitStatus = iota
	UnitFailed
	UnitSkipped
	UnitTimeout
	UnitCancelled
)

func (s UnitStatus) String() string {
	switch s {
	case UnitSucceeded:
		return "succeeded"
	case UnitFailed:
		return "failed"
	case UnitSkipped:
		return "skipped"
	case UnitTimeout:
		return "timeout"
	case UnitCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// MarshalText renders the status by name in reports.
func (s UnitStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ClassifyError maps a unit error to its status.  Data errors are skipped,
// not failed.
func ClassifyError(err error) UnitStatus {
	switch {
	case err == nil:
		return UnitSucceeded
	case stdliberrors.Is(err, context.Canceled):
		return UnitCancelled
	case stdliberrors.Is(err, context.DeadlineExceeded):
		return UnitTimeout
	case errors.IsDataError(err):
		return UnitSkipped
	default:
		return UnitFailed
	}
}

// ---------------------------------------------------------------------------
// RetryPolicy
// ---------------------------------------------------------------------------

// RetryPolicy governs how transient failures are retried.
type RetryPolicy struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64

	// Retryable overrides the default transient-error test.
	Retryable func(error) bool
}

// PolicyFromConfig builds a RetryPolicy from the backfill section.
func PolicyFromConfig(c config.BackfillConfig) RetryPolicy {
	return RetryPolicy{
		MaxRetries:        c.MaxRetries,
		InitialBackoff:    c.InitialBackoff,
		MaxBackoff:        c.MaxBackoff,
		BackoffMultiplier: c.BackoffMultiplier,
	}
}

func (p RetryPolicy) shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return errors.IsTransient(err)
}

// Backoff returns the delay before retry number attempt (0-based): the
// exponential base with ±25% jitter, capped at MaxBackoff.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if p.InitialBackoff <= 0 {
		return 0
	}
	multiplier := p.BackoffMultiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}
	base := float64(p.InitialBackoff) * math.Pow(multiplier, float64(attempt))
	if p.MaxBackoff > 0 && base > float64(p.MaxBackoff) {
		base = float64(p.MaxBackoff)
	}
	jitter := base * 0.25 * (rand.Float64()*2 - 1)
	d := time.Duration(base + jitter)
	if d < 0 {
		d = 0
	}
	return d
}

// RetryHook observes each failed attempt that will be retried.
type RetryHook func(attempt int, err error, delay time.Duration)

// Retry runs fn until it succeeds, fails with a non-retryable error, or the
// retry budget is spent.  It returns the number of attempts made and the last
// error.  Context cancellation stops the loop between attempts.
func Retry(ctx context.Context, p RetryPolicy, hook RetryHook, fn func(context.Context) error) (int, error) {
	attempts := 0
	for {
		attempts++
		err := fn(ctx)
		if err == nil {
			return attempts, nil
		}
		if attempts > p.MaxRetries || !p.shouldRetry(err) {
			return attempts, err
		}
		delay := p.Backoff(attempts - 1)
		if hook != nil {
			hook(attempts, err, delay)
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempts, ctx.Err()
		case <-timer.C:
		}
	}
}

//Personal.AI order the ending
