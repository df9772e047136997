package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents page fetch and rendering errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeExtraction represents a page tree that could not be traversed
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeDegradedIdentity represents a page whose product title was not found
	ErrorTypeDegradedIdentity ErrorType = "degraded_identity"
	// ErrorTypeStorage represents series persistence errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeReport represents report rendering and archiving errors
	ErrorTypeReport ErrorType = "report"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// TrackerError represents an error tied to one product
type TrackerError struct {
	Type    ErrorType
	Product string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *TrackerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Product, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Product, e.Message)
}

// Unwrap returns the underlying error
func (e *TrackerError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *TrackerError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeStorage, ErrorTypePublisher:
		return true
	default:
		return false
	}
}

// IsType reports whether err wraps a TrackerError of type t
func IsType(err error, t ErrorType) bool {
	var te *TrackerError
	if stderrors.As(err, &te) {
		return te.Type == t
	}
	return false
}

// New creates a new TrackerError
func New(errType ErrorType, product, message string, err error) *TrackerError {
	return &TrackerError{
		Type:    errType,
		Product: product,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(product, message string, err error) *TrackerError {
	return New(ErrorTypeNetwork, product, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(product string, duration time.Duration) *TrackerError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, product, message, nil)
}

// NewExtraction creates a new extraction error
func NewExtraction(product, message string, err error) *TrackerError {
	return New(ErrorTypeExtraction, product, message, err)
}

// NewDegradedIdentity creates an error for a product without a usable name
func NewDegradedIdentity(product, message string) *TrackerError {
	return New(ErrorTypeDegradedIdentity, product, message, nil)
}

// NewStorage creates a new storage error
func NewStorage(product, message string, err error) *TrackerError {
	return New(ErrorTypeStorage, product, message, err)
}

// NewCache creates a new cache error
func NewCache(product, message string, err error) *TrackerError {
	return New(ErrorTypeCache, product, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(product, message string, err error) *TrackerError {
	return New(ErrorTypePublisher, product, message, err)
}

// NewReport creates a new report error
func NewReport(message string, err error) *TrackerError {
	return New(ErrorTypeReport, "", message, err)
}

// NewValidation creates a new validation error
func NewValidation(product, message string) *TrackerError {
	return New(ErrorTypeValidation, product, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *TrackerError {
	return New(ErrorTypeConfiguration, "", message, err)
}
