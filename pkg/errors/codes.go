package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeFeatureDisabled    ErrorCode = "COMMON_015"
)

// Aliases kept short for call sites.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeOK           = ErrorCode("OK")
)

// Entity Module Error Codes
const (
	ErrCodeEntityNotFound       ErrorCode = "ENT_001"
	ErrCodeEntityAlreadyExists  ErrorCode = "ENT_002"
	ErrCodeEntityNameInvalid    ErrorCode = "ENT_003"
	ErrCodeCategoryUnsupported  ErrorCode = "ENT_004"
	ErrCodeEntityExtractionFail ErrorCode = "ENT_005"
)

// Case Module Error Codes
const (
	ErrCodeCaseNotFound ErrorCode = "CASE_001"
	ErrCodeCaseScanFail ErrorCode = "CASE_002"
)

// Statistics / Analytics Module Error Codes
const (
	ErrCodeStatisticsNotFound   ErrorCode = "STAT_001"
	ErrCodeAggregationFailed    ErrorCode = "STAT_002"
	ErrCodeAnalyticsNotFound    ErrorCode = "ANL_001"
	ErrCodeScoringFailed        ErrorCode = "ANL_002"
	ErrCodeScoringConfigInvalid ErrorCode = "ANL_003"
)

// AI Classifier Error Codes
const (
	ErrCodeAIUnavailable     ErrorCode = "AI_001"
	ErrCodeAIMalformedOutput ErrorCode = "AI_002"
	ErrCodeAIRateLimited     ErrorCode = "AI_003"
)

// Pipeline Error Codes
const (
	ErrCodeUnitFailed         ErrorCode = "PIPE_001"
	ErrCodeCheckpointFailed   ErrorCode = "PIPE_002"
	ErrCodeInvariantViolation ErrorCode = "PIPE_003"
	ErrCodeLockNotAcquired    ErrorCode = "PIPE_004"
	ErrCodeEventPublishFailed ErrorCode = "PIPE_005"
)

// Data Error Codes. Records carrying these are logged and skipped.
const (
	ErrCodeMalformedText     ErrorCode = "DATA_001"
	ErrCodeUnparseableAmount ErrorCode = "DATA_002"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes for the serving API
// that reads pipeline output.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeFeatureDisabled:    http.StatusForbidden,

	ErrCodeEntityNotFound:       http.StatusNotFound,
	ErrCodeEntityAlreadyExists:  http.StatusConflict,
	ErrCodeEntityNameInvalid:    http.StatusBadRequest,
	ErrCodeCategoryUnsupported:  http.StatusBadRequest,
	ErrCodeEntityExtractionFail: http.StatusInternalServerError,

	ErrCodeCaseNotFound: http.StatusNotFound,
	ErrCodeCaseScanFail: http.StatusInternalServerError,

	ErrCodeStatisticsNotFound:   http.StatusNotFound,
	ErrCodeAggregationFailed:    http.StatusInternalServerError,
	ErrCodeAnalyticsNotFound:    http.StatusNotFound,
	ErrCodeScoringFailed:        http.StatusInternalServerError,
	ErrCodeScoringConfigInvalid: http.StatusInternalServerError,

	ErrCodeAIUnavailable:     http.StatusServiceUnavailable,
	ErrCodeAIMalformedOutput: http.StatusBadGateway,
	ErrCodeAIRateLimited:     http.StatusTooManyRequests,

	ErrCodeUnitFailed:         http.StatusInternalServerError,
	ErrCodeCheckpointFailed:   http.StatusInternalServerError,
	ErrCodeInvariantViolation: http.StatusInternalServerError,
	ErrCodeLockNotAcquired:    http.StatusConflict,
	ErrCodeEventPublishFailed: http.StatusInternalServerError,

	ErrCodeMalformedText:     http.StatusUnprocessableEntity,
	ErrCodeUnparseableAmount: http.StatusUnprocessableEntity,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "operation timed out",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeFeatureDisabled:    "feature disabled",

	ErrCodeEntityNotFound:       "entity not found",
	ErrCodeEntityAlreadyExists:  "entity already exists",
	ErrCodeEntityNameInvalid:    "invalid entity name",
	ErrCodeCategoryUnsupported:  "unsupported entity category",
	ErrCodeEntityExtractionFail: "entity extraction failed",

	ErrCodeCaseNotFound: "case not found",
	ErrCodeCaseScanFail: "case corpus scan failed",

	ErrCodeStatisticsNotFound:   "case statistics not found",
	ErrCodeAggregationFailed:    "case statistics aggregation failed",
	ErrCodeAnalyticsNotFound:    "analytics not found",
	ErrCodeScoringFailed:        "analytics scoring failed",
	ErrCodeScoringConfigInvalid: "invalid scoring configuration",

	ErrCodeAIUnavailable:     "AI classifier unavailable",
	ErrCodeAIMalformedOutput: "AI classifier returned malformed output",
	ErrCodeAIRateLimited:     "AI classifier rate limited",

	ErrCodeUnitFailed:         "unit of work failed",
	ErrCodeCheckpointFailed:   "checkpoint operation failed",
	ErrCodeInvariantViolation: "invariant violation",
	ErrCodeLockNotAcquired:    "entity lock not acquired",
	ErrCodeEventPublishFailed: "event publish failed",

	ErrCodeMalformedText:     "malformed case text",
	ErrCodeUnparseableAmount: "unparseable monetary amount",
}

// transientCodes lists the codes worth retrying: the operation may succeed
// unchanged on a later attempt.
var transientCodes = map[ErrorCode]bool{
	ErrCodeDatabaseError:      true,
	ErrCodeCacheError:         true,
	ErrCodeExternalService:    true,
	ErrCodeTimeout:            true,
	ErrCodeServiceUnavailable: true,
	ErrCodeAIUnavailable:      true,
	ErrCodeAIRateLimited:      true,
	ErrCodeLockNotAcquired:    true,
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsTransientCode reports whether code denotes a retryable I/O failure.
func IsTransientCode(code ErrorCode) bool {
	return transientCodes[code]
}

// IsDataCode reports whether code denotes bad input data.
func IsDataCode(code ErrorCode) bool {
	return ModuleForCode(code) == "DATA"
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
