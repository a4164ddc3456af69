package errors

import (
	"errors"
	"fmt"
)

// Application-specific errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("resource conflict")
	ErrRateLimit          = errors.New("rate limit exceeded")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrPayloadTooLarge    = errors.New("payload too large")
)

// Machine-readable codes carried in API error bodies
const (
	CodeInvalidCoordinates = "invalid_coordinates"
	CodeInvalidStatus      = "invalid_status"
	CodeInvalidAssignedTo  = "invalid_assigned_to"
	CodeInvalidText        = "invalid_text"
	CodeTextTooLong        = "text_too_long"
	CodeInvalidBody        = "invalid_body"
	CodeNotFound           = "not_found"
	CodePayloadTooLarge    = "payload_too_large"
	CodeRateLimited        = "rate_limited"
	CodeInternal           = "internal_error"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrInvalidInput) match any validation failure.
func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error `json:"errors"`
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", e.Errors[0].Error(), len(e.Errors)-1)
}

// Add adds an error to the MultiError
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (e *MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// DatabaseError represents a database-related error
type DatabaseError struct {
	Operation string
	Err       error
}

func (e DatabaseError) Error() string {
	return fmt.Sprintf("database error during %s: %v", e.Operation, e.Err)
}

func (e DatabaseError) Unwrap() error {
	return e.Err
}

// PublishError represents a failure to deliver a report event to the change feed
type PublishError struct {
	Topic    string
	ReportID string
	Err      error
}

func (e PublishError) Error() string {
	return fmt.Sprintf("publish to %s for report %s: %v", e.Topic, e.ReportID, e.Err)
}

func (e PublishError) Unwrap() error {
	return e.Err
}
