package errors_test

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/CaseIntel/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Construction
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"entity not found", errors.ErrCodeEntityNotFound, "entity 42 not found"},
		{"invalid param", errors.CodeInvalidParam, "category must not be empty"},
		{"malformed text", errors.ErrCodeMalformedText, "judgement is not valid UTF-8"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
		})
	}
}

func TestError_Format(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("connection reset")
	ae := errors.Wrap(cause, errors.ErrCodeDatabaseError, "upsert statistics").WithDetail("entity_id=e1")

	assert.Equal(t, "[COMMON_012] upsert statistics: entity_id=e1: connection reset", ae.Error())
	assert.Equal(t, "[ENT_001] missing", errors.New(errors.ErrCodeEntityNotFound, "missing").Error())
}

func TestWrap_NilReturnsNil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "nothing"))
}

func TestWrap_EmptyCodePreservesInner(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeUnparseableAmount, "bad amount")
	outer := errors.Wrap(inner, "", "parse case")

	assert.Equal(t, errors.ErrCodeUnparseableAmount, outer.Code)
	assert.True(t, stderrors.Is(outer, inner))

	plain := errors.Wrap(fmt.Errorf("boom"), "", "parse case")
	assert.Equal(t, errors.ErrCodeInternal, plain.Code)
}

func TestWithDetail_DoesNotMutateReceiver(t *testing.T) {
	t.Parallel()

	base := errors.New(errors.ErrCodeCaseNotFound, "case missing")
	withDetail := base.WithDetail("case_id=7")

	assert.Empty(t, base.Detail)
	assert.Equal(t, "case_id=7", withDetail.Detail)

	var nilErr *errors.AppError
	assert.Nil(t, nilErr.WithDetail("x"))
	assert.Nil(t, nilErr.WithCause(fmt.Errorf("x")))
}

func TestInvariant(t *testing.T) {
	t.Parallel()

	ae := errors.Invariant("total %d != resolved %d + unresolved %d", 5, 2, 2)
	assert.Equal(t, errors.ErrCodeInvariantViolation, ae.Code)
	assert.Contains(t, ae.Message, "total 5")
	assert.True(t, errors.IsInvariant(ae))
	assert.True(t, errors.IsInvariant(fmt.Errorf("unit: %w", ae)))
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain inspection
// ─────────────────────────────────────────────────────────────────────────────

func TestIsCode_WalksChain(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeAIUnavailable, "openai down")
	mid := errors.Wrap(inner, errors.ErrCodeUnitFailed, "classify")
	outer := fmt.Errorf("entity e1: %w", mid)

	assert.True(t, errors.IsCode(outer, errors.ErrCodeUnitFailed))
	assert.True(t, errors.IsCode(outer, errors.ErrCodeAIUnavailable))
	assert.False(t, errors.IsCode(outer, errors.ErrCodeDatabaseError))
	assert.False(t, errors.IsCode(nil, errors.ErrCodeUnitFailed))
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.ErrCodeCacheError, errors.GetCode(errors.New(errors.ErrCodeCacheError, "x")))
	assert.Equal(t, errors.ErrCodeTimeout, errors.GetCode(fmt.Errorf("call: %w", context.DeadlineExceeded)))
	assert.Equal(t, errors.ErrCodeInternal, errors.GetCode(fmt.Errorf("plain")))
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		err      error
		expected bool
	}{
		{"generic", errors.NotFound("not found"), true},
		{"entity", errors.New(errors.ErrCodeEntityNotFound, "x"), true},
		{"case", errors.New(errors.ErrCodeCaseNotFound, "x"), true},
		{"statistics", errors.New(errors.ErrCodeStatisticsNotFound, "x"), true},
		{"analytics", errors.New(errors.ErrCodeAnalyticsNotFound, "x"), true},
		{"wrapped", fmt.Errorf("lookup: %w", errors.New(errors.ErrCodeEntityNotFound, "x")), true},
		{"invalid param", errors.InvalidParam("bad"), false},
		{"nil", nil, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, errors.IsNotFound(tc.err))
		})
	}
}

func TestErrorTaxonomy(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		err       error
		transient bool
		data      bool
		invariant bool
	}{
		{"database", errors.New(errors.ErrCodeDatabaseError, "x"), true, false, false},
		{"cache", errors.New(errors.ErrCodeCacheError, "x"), true, false, false},
		{"external", errors.New(errors.ErrCodeExternalService, "x"), true, false, false},
		{"deadline", context.DeadlineExceeded, true, false, false},
		{"canceled", context.Canceled, false, false, false},
		{"malformed text", errors.New(errors.ErrCodeMalformedText, "x"), false, true, false},
		{"bad amount", errors.New(errors.ErrCodeUnparseableAmount, "x"), false, true, false},
		{"invariant", errors.Invariant("x"), false, false, true},
		{"not found", errors.New(errors.ErrCodeEntityNotFound, "x"), false, false, false},
		{"nil", nil, false, false, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.transient, errors.IsTransient(tc.err), "transient")
			assert.Equal(t, tc.data, errors.IsDataError(tc.err), "data")
			assert.Equal(t, tc.invariant, errors.IsInvariant(tc.err), "invariant")
		})
	}
}

//Personal.AI order the ending
