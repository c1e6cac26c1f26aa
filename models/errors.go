package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeTimeout      = "FETCH_TIMEOUT"
	ErrCodeNavigation   = "NAVIGATION_FAILED"
	ErrCodeBrowserCrash = "BROWSER_CRASH"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeNotVideo     = "NOT_A_VIDEO"
	ErrCodeNoTranscript = "TRANSCRIPT_UNAVAILABLE"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"

	// Model-provider error codes for /api/v1/generate.
	ErrCodeUnknownModel   = "UNKNOWN_MODEL"
	ErrCodeLLMFailure     = "LLM_FAILURE"
	ErrCodeLLMAuthFailure = "LLM_AUTH_FAILURE"
	ErrCodeLLMRateLimited = "LLM_RATE_LIMITED"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type APIError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAPIError creates a new APIError.
func NewAPIError(code, message string, err error) *APIError {
	return &APIError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *APIError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// CodeOf returns the code of the first *APIError in err's chain, or def.
func CodeOf(err error, def string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return def
}

// ErrorKind classifies a failed extraction step.
type ErrorKind string

const (
	KindDOMAccess ErrorKind = "dom_access"
	KindNoMatch   ErrorKind = "no_match"
	KindParse     ErrorKind = "parse"
	KindPanic     ErrorKind = "panic"
)

// ExtractError is returned internally by extraction steps. Public extraction
// functions never surface it; they log it and fall back to a default value.
type ExtractError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *ExtractError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s (%s)", e.Op, e.Kind)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// NewExtractError creates a new ExtractError.
func NewExtractError(kind ErrorKind, op string, err error) *ExtractError {
	return &ExtractError{Kind: kind, Op: op, Err: err}
}
