package postgres

import (
	"context"
	"database/sql"
	stdliberrors "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/turtacn/CaseIntel/pkg/errors"
)

// SQLSTATE codes that need individual treatment.
const (
	sqlStateUniqueViolation      = "23505"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateTooManyConnections   = "53300"
	sqlStateAdminShutdown        = "57P01"
	sqlStateQueryCanceled        = "57014"
)

// SQLState returns the SQLSTATE carried by err, from either the pgx or the
// lib/pq driver, or "".
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if stdliberrors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if stdliberrors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// IsUniqueViolation reports whether err is a unique-constraint violation.
func IsUniqueViolation(err error) bool {
	return SQLState(err) == sqlStateUniqueViolation
}

// MapError wraps a driver error with the error code that drives the retry
// policy: connection loss, serialization failures, deadlocks and timeouts are
// transient (ErrCodeDatabaseError, ErrCodeTimeout); constraint and syntax
// errors are not (ErrCodeConflict, ErrCodeInternal).  A nil err stays nil and
// an error that already carries a code passes through.
func MapError(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *errors.AppError
	if stdliberrors.Is(err, context.Canceled) || stdliberrors.As(err, &appErr) {
		return err
	}
	if stdliberrors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(err, errors.ErrCodeTimeout, message)
	}
	if stdliberrors.Is(err, sql.ErrConnDone) {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, message)
	}

	state := SQLState(err)
	switch {
	case state == "":
		// No SQLSTATE: network or driver-level failure.
		return errors.Wrap(err, errors.ErrCodeDatabaseError, message)
	case state == sqlStateUniqueViolation:
		return errors.Wrap(err, errors.ErrCodeConflict, message)
	case state == sqlStateQueryCanceled:
		return errors.Wrap(err, errors.ErrCodeTimeout, message)
	case state == sqlStateSerializationFailure, state == sqlStateDeadlockDetected,
		state == sqlStateTooManyConnections, state == sqlStateAdminShutdown,
		strings.HasPrefix(state, "08"):
		return errors.Wrap(err, errors.ErrCodeDatabaseError, message)
	case strings.HasPrefix(state, "22"):
		return errors.Wrap(err, errors.ErrCodeMalformedText, message)
	default:
		return errors.Wrap(err, errors.ErrCodeInternal, message)
	}
}

//Personal.AI order the ending
