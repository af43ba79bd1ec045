package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents transport-level errors (timeouts, resets)
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeNotFound represents a placeholder or missing detail page
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypePersistence represents database write errors
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// IngestError represents an ingestion-specific error
type IngestError struct {
	Type    ErrorType
	Source  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *IngestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Source, e.Message)
}

// Unwrap returns the underlying error
func (e *IngestError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *IngestError) IsRetryable() bool {
	return e.Type == ErrorTypeNetwork
}

// IsNotFound returns true for structural-absence errors, which are not
// counted as run errors
func (e *IngestError) IsNotFound() bool {
	return e.Type == ErrorTypeNotFound
}

// New creates a new IngestError
func New(errType ErrorType, source, message string, err error) *IngestError {
	return &IngestError{
		Type:    errType,
		Source:  source,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(source, message string, err error) *IngestError {
	return New(ErrorTypeNetwork, source, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(source, message string, err error) *IngestError {
	return New(ErrorTypeParsing, source, message, err)
}

// NewNotFound creates a new not-found error
func NewNotFound(source, message string) *IngestError {
	return New(ErrorTypeNotFound, source, message, nil)
}

// NewPersistence creates a new persistence error
func NewPersistence(source, message string, err error) *IngestError {
	return New(ErrorTypePersistence, source, message, err)
}

// NewValidation creates a new validation error
func NewValidation(source, message string) *IngestError {
	return New(ErrorTypeValidation, source, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *IngestError {
	return New(ErrorTypeConfiguration, "", message, err)
}
