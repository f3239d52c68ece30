// Package errors provides structured error handling for the assistant core.
// Every recoverable failure category degrades gracefully; only the fatal
// orchestration category may abort a turn.
package errors

import (
	"fmt"
)

// ErrorCode represents a failure category in the assistant pipeline
type ErrorCode string

const (
	// CodeValidationFailed marks a nutrient-hierarchy violation. It is
	// rejected internally and triggers one self-correction attempt; the raw
	// message is never surfaced to the user.
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// CodeResolutionFailed marks an item with no nutrition data after all
	// fallback stages. Surfaced as a clarifying question, item excluded.
	CodeResolutionFailed ErrorCode = "RESOLUTION_FAILED"

	// CodeConversionOutOfRange marks an implausible portion multiplier.
	// The value is discarded in favor of 1 and never cached.
	CodeConversionOutOfRange ErrorCode = "CONVERSION_OUT_OF_RANGE"

	// CodeExternalService marks an LLM or nutrition API failure. Caught per
	// call and converted to an error envelope in the transcript.
	CodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"

	// CodeFatalOrchestration marks an unexpected top-level failure. Caught
	// once by the orchestrator, which returns a generic apology.
	CodeFatalOrchestration ErrorCode = "FATAL_ORCHESTRATION"
)

// AppError represents an application error with structured information
type AppError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Details  string                 `json:"details,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Cause    error                  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithCause adds a cause error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// New creates a new application error
func New(code ErrorCode, message, details string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewValidationError creates a nutrient-hierarchy validation error
func NewValidationError(details string) *AppError {
	return New(CodeValidationFailed, "Nutrient validation failed", details)
}

// NewResolutionError creates a resolution-failure error for a food item
func NewResolutionError(foodName string) *AppError {
	return New(
		CodeResolutionFailed,
		"No nutrition data found",
		fmt.Sprintf("All resolution stages failed for %q", foodName),
	).WithMetadata("food_name", foodName)
}

// NewConversionError creates an out-of-range conversion error
func NewConversionError(multiplier float64) *AppError {
	return New(
		CodeConversionOutOfRange,
		"Implausible portion multiplier",
		fmt.Sprintf("multiplier %.4g outside safe range", multiplier),
	).WithMetadata("multiplier", multiplier)
}

// NewExternalServiceError creates an external service error
func NewExternalServiceError(service string, cause error) *AppError {
	return New(
		CodeExternalService,
		"External service error",
		fmt.Sprintf("Failed to communicate with %s", service),
	).WithCause(cause)
}

// NewFatalError wraps an unexpected top-level failure
func NewFatalError(cause error) *AppError {
	return New(CodeFatalOrchestration, "Unexpected orchestration failure", "").WithCause(cause)
}

// Wrap wraps an error as a fatal error if it's not already an AppError
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return New(CodeFatalOrchestration, message, "").WithCause(err)
}

// Is checks if an error is of a specific error code
func Is(err error, code ErrorCode) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return CodeFatalOrchestration
}

// Envelope is the structured form fed back into a reasoning transcript when
// a tool call fails. The turn continues; the model sees the failure.
type Envelope struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToEnvelope converts any error to a transcript error envelope
func ToEnvelope(err error) Envelope {
	return Envelope{
		Error:   true,
		Code:    string(GetCode(err)),
		Message: err.Error(),
	}
}
