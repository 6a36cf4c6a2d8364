package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthExpired is matched by errors.Is when a destination rejected the
	// caller-supplied credential.
	ErrAuthExpired = errors.New("credential expired or invalid")
	// ErrProvider wraps every failure of the text generation backend.
	ErrProvider = errors.New("text provider failed")
	// ErrContainerNotFound is returned when a conflicting container cannot be resolved.
	ErrContainerNotFound = errors.New("container not found")
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// DeliveryErrorKind classifies destination failures.
type DeliveryErrorKind string

const (
	DeliveryAuthExpired         DeliveryErrorKind = "auth_expired"
	DeliveryMalformedRequest    DeliveryErrorKind = "malformed_request"
	DeliveryTransient           DeliveryErrorKind = "transient"
	DeliveryDestinationSpecific DeliveryErrorKind = "destination_specific"
)

// DeliveryError is a classified failure returned by a destination adapter.
type DeliveryError struct {
	Kind        DeliveryErrorKind
	Destination string
	StatusCode  int
	Code        string // destination error code, when one was reported
	Message     string
	Err         error
}

func (e *DeliveryError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s delivery failed (%s)", e.Destination, e.Kind)
}

// Is lets errors.Is(err, ErrAuthExpired) match auth failures.
func (e *DeliveryError) Is(target error) bool {
	return target == ErrAuthExpired && e.Kind == DeliveryAuthExpired
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// KindForStatus maps an HTTP status code to a delivery error kind.
func KindForStatus(status int) DeliveryErrorKind {
	switch {
	case status == 401:
		return DeliveryAuthExpired
	case status == 400 || status == 404 || status == 409 || status == 413 || status == 422:
		return DeliveryMalformedRequest
	case status == 429 || status >= 500:
		return DeliveryTransient
	default:
		return DeliveryDestinationSpecific
	}
}

// FatalBatchError is a failure in a precondition shared by the whole batch.
type FatalBatchError struct {
	Stage string
	Err   error
}

func (e *FatalBatchError) Error() string {
	return e.Err.Error()
}

func (e *FatalBatchError) Unwrap() error {
	return e.Err
}
