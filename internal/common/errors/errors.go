// Package errors maps worker failures onto Zeebe job failures and BPMN errors.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode is the internal error code carried on a StandardError.
type ErrorCode string

const (
	ErrCodeParseError               ErrorCode = "PARSE_ERROR"
	ErrCodePayloadValidationFailed  ErrorCode = "PAYLOAD_VALIDATION_FAILED"
	ErrCodeApplicantFetchFailed     ErrorCode = "APPLICANT_FETCH_FAILED"
	ErrCodeObligationsFetchFailed   ErrorCode = "OBLIGATIONS_FETCH_FAILED"
	ErrCodeCBSLookupFailed          ErrorCode = "CBS_LOOKUP_FAILED"
	ErrCodeCBSLookupTimeout         ErrorCode = "CBS_LOOKUP_TIMEOUT"
	ErrCodeCacheUnavailable         ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeEvaluationFailed         ErrorCode = "EVALUATION_FAILED"
	ErrCodeRiskReviewNotifyFailed   ErrorCode = "RISK_REVIEW_NOTIFY_FAILED"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// StandardError is the structured error every worker reports.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error { return e.cause }

// WithMetadata attaches a key to the error's metadata and returns the error.
func (e *StandardError) WithMetadata(key string, v interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = v
	return e
}

func newError(code ErrorCode, message string, cause error, details string) *StandardError {
	if details == "" && cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: GetRetryCount(code) > 0,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewParseError(err error) *StandardError {
	return newError(ErrCodeParseError, "Failed to parse job variables", err, "")
}

func NewPayloadValidationError(details string) *StandardError {
	return newError(ErrCodePayloadValidationFailed, "Job payload failed schema validation", nil, details)
}

func NewApplicantFetchFailedError(applicationID string, err error) *StandardError {
	return newError(ErrCodeApplicantFetchFailed, "Failed to fetch applicant record", err, "").
		WithMetadata("applicationId", applicationID)
}

func NewObligationsFetchFailedError(applicationID string, err error) *StandardError {
	return newError(ErrCodeObligationsFetchFailed, "Failed to fetch applicant obligations", err, "").
		WithMetadata("applicationId", applicationID)
}

func NewCBSLookupFailedError(applicationID string, err error) *StandardError {
	return newError(ErrCodeCBSLookupFailed, "Failed to look up CBS scores", err, "").
		WithMetadata("applicationId", applicationID)
}

func NewCBSLookupTimeoutError(applicationID string) *StandardError {
	return newError(ErrCodeCBSLookupTimeout, "CBS score lookup timed out", nil, "").
		WithMetadata("applicationId", applicationID)
}

func NewCacheUnavailableError(err error) *StandardError {
	return newError(ErrCodeCacheUnavailable, "Applicant cache unavailable", err, "")
}

func NewEvaluationFailedError(applicationID string, err error) *StandardError {
	return newError(ErrCodeEvaluationFailed, "Credit card evaluation failed", err, "").
		WithMetadata("applicationId", applicationID)
}

func NewRiskReviewNotifyFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeRiskReviewNotifyFailed, "Failed to notify risk review unit", err, "").
		WithMetadata("channel", channel)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection failed", err, "")
}

// BPMNError is what gets thrown into (or failed back to) the process engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns the process variables set alongside the error.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// BPMNErrorMapping holds the error codes modelled on boundary events.
// Codes not listed are thrown under their own name.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeParseError:              "INVALID_CREDIT_APPLICATION",
	ErrCodePayloadValidationFailed: "INVALID_CREDIT_APPLICATION",
	ErrCodeApplicantFetchFailed:    "APPLICANT_DATA_UNAVAILABLE",
	ErrCodeObligationsFetchFailed:  "APPLICANT_DATA_UNAVAILABLE",
	ErrCodeCBSLookupFailed:         "CBS_DATA_UNAVAILABLE",
	ErrCodeCBSLookupTimeout:        "CBS_DATA_UNAVAILABLE",
	ErrCodeEvaluationFailed:        "EVALUATION_FAILED",
	ErrCodeRiskReviewNotifyFailed:  "RISK_REVIEW_NOTIFY_FAILED",
}

// GetRetryCount returns how many times the job is retried for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeApplicantFetchFailed,
		ErrCodeObligationsFetchFailed,
		ErrCodeCBSLookupFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeRiskReviewNotifyFailed:
		return 3
	case ErrCodeCBSLookupTimeout,
		ErrCodeCacheUnavailable:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError for the process engine.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	code, ok := BPMNErrorMapping[stdErr.Code]
	if !ok {
		code = string(stdErr.Code)
	}

	retries := 0
	if stdErr.Retryable {
		retries = GetRetryCount(stdErr.Code)
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           code,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// AsStandardError finds a StandardError in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes for logging and dashboards.
func GetErrorCategory(code ErrorCode) string {
	c := string(code)
	switch {
	case strings.Contains(c, "PARSE") || strings.Contains(c, "VALIDATION"):
		return "VALIDATION"
	case strings.HasPrefix(c, "APPLICANT") || strings.HasPrefix(c, "OBLIGATIONS") || strings.Contains(c, "DATABASE"):
		return "APPLICANT_DATA"
	case strings.HasPrefix(c, "CBS"):
		return "BUREAU"
	case strings.Contains(c, "CACHE"):
		return "CACHE"
	case strings.Contains(c, "EVALUATION"):
		return "SCORING"
	case strings.Contains(c, "NOTIFY"):
		return "NOTIFICATION"
	}
	return "OTHER"
}
