// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Selection errors
const (
	ErrCodeInvalidRequest       ErrorCode = "INVALID_REQUEST"
	ErrCodeNoMatchingActuator   ErrorCode = "NO_MATCHING_ACTUATOR"
	ErrCodeDataIntegrityWarning ErrorCode = "DATA_INTEGRITY_WARNING"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// Infrastructure errors
const (
	ErrCodeCatalogQueryFailed       ErrorCode = "CATALOG_QUERY_FAILED"
	ErrCodeCacheUnavailable         ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeSearchQueryFailed        ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeBrokerUnavailable        ErrorCode = "BROKER_UNAVAILABLE"
)

// MetadataSuggestions is the metadata key carrying user-facing suggestions.
const MetadataSuggestions = "suggestions"

// StandardError represents a structured application error.
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
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying collaborator failure, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// Suggestions returns the suggestion list stored in metadata.
func (e *StandardError) Suggestions() []string {
	if e.Metadata == nil {
		return nil
	}
	s, _ := e.Metadata[MetadataSuggestions].([]string)
	return s
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
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

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
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

// ==========================
// 3. Error Constructors
// ==========================

// NewInvalidRequestError creates a non-retryable validation error.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid selection request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoMatchingActuatorError reports that no actuator satisfies the requirement.
// It is a normal outcome and carries suggestions for relaxing the requirement.
func NewNoMatchingActuatorError(details string, suggestions []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoMatchingActuator,
		Message:   "No actuator satisfies the requirement",
		Details:   details,
		Retryable: false,
		Metadata: map[string]interface{}{
			MetadataSuggestions: suggestions,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewDataIntegrityWarning describes a catalog record that could not be evaluated.
func NewDataIntegrityWarning(actuatorID, reason string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDataIntegrityWarning,
		Message:   "Catalog record excluded",
		Details:   reason,
		Retryable: false,
		Metadata:  map[string]interface{}{"actuatorId": actuatorID},
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps a collaborator failure. The job layer decides about retries.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Internal error during selection",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewCatalogQueryFailedError creates a retryable catalog store error.
func NewCatalogQueryFailedError(store string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogQueryFailed,
		Message:   "Catalog query failed",
		Details:   fmt.Sprintf("store: %s, error: %s", store, err.Error()),
		Retryable: true,
		Metadata:  map[string]interface{}{"store": store},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewSearchQueryFailedError creates a retryable Elasticsearch query error.
func NewSearchQueryFailedError(index string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Elasticsearch query error",
		Details:   fmt.Sprintf("index: %s, error: %s", index, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewCacheUnavailableError reports a Redis failure. Callers fall through to the backing store.
func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Candidate cache unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewBrokerUnavailableError reports a Zeebe gateway command that could not be delivered.
func NewBrokerUnavailableError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBrokerUnavailable,
		Message:   fmt.Sprintf("Zeebe operation %q failed", operation),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 4. Inspection helpers
// ==========================

// AsStandard finds a StandardError anywhere in err's chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandard(err)
	return ok && stdErr.Code == code
}

// ==========================
// 5. BPMN mapping
// ==========================

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidRequest:           "INVALID_REQUEST",
	ErrCodeNoMatchingActuator:       "NO_MATCHING_ACTUATOR",
	ErrCodeInternal:                 "INTERNAL_ERROR",
	ErrCodeCatalogQueryFailed:       "CATALOG_QUERY_FAILED",
	ErrCodeCacheUnavailable:         "CACHE_UNAVAILABLE",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeSearchQueryFailed:        "SEARCH_QUERY_FAILED",
	ErrCodeBrokerUnavailable:        "BROKER_UNAVAILABLE",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeInternal,
		ErrCodeCatalogQueryFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeBrokerUnavailable:
		return 3

	case ErrCodeCacheUnavailable:
		return 1

	default:
		return 0 // Business errors: no retry
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	if s := stdErr.Suggestions(); len(s) > 0 {
		vars[MetadataSuggestions] = s
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CATALOG") || strings.Contains(codeStr, "DATABASE"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "BROKER"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "ACTUATOR") || strings.Contains(codeStr, "INTEGRITY"):
		return "SELECTION"
	default:
		return "OTHER"
	}
}
