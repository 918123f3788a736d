package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
)

// Pipeline error kinds. Match with errors.Is.
var (
	ErrRecognition        = errors.New("recognition failed")
	ErrExtraction         = errors.New("extraction failed")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// RecognitionError marks a single image whose text could not be obtained.
// It never aborts the rest of the batch.
type RecognitionError struct {
	Index int
	Cause error
}

func (e *RecognitionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("recognition failed for image %d: %v", e.Index, e.Cause)
	}
	return fmt.Sprintf("recognition failed for image %d", e.Index)
}

func (e *RecognitionError) Unwrap() error        { return e.Cause }
func (e *RecognitionError) Is(target error) bool { return target == ErrRecognition }

// ExtractionError means the language model response was unusable.
// Raw holds whatever the model returned, if anything.
type ExtractionError struct {
	Reason string
	Raw    string
	Cause  error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Reason, e.Cause)
	}
	return "extraction failed: " + e.Reason
}

func (e *ExtractionError) Unwrap() error        { return e.Cause }
func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// ServiceUnavailableError is raised when an external service is not
// configured at all. It fails the whole invocation.
type ServiceUnavailableError struct {
	Service string
	Reason  string
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %s", e.Service, e.Reason)
}

func (e *ServiceUnavailableError) Is(target error) bool { return target == ErrServiceUnavailable }

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewRecognitionError(index int, cause error) *RecognitionError {
	return &RecognitionError{Index: index, Cause: cause}
}

func NewExtractionError(reason, raw string, cause error) *ExtractionError {
	return &ExtractionError{Reason: reason, Raw: raw, Cause: cause}
}

func NewServiceUnavailableError(service, reason string) *ServiceUnavailableError {
	return &ServiceUnavailableError{Service: service, Reason: reason}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func UnavailableError(message string) error {
	return status.Error(codes.Unavailable, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

func InternalErrorf(format string, args ...interface{}) error {
	return InternalError(fmt.Sprintf(format, args...))
}

// ToStatus maps pipeline errors onto gRPC codes.
func ToStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrServiceUnavailable):
		return UnavailableError(err.Error())
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation):
		return InvalidArgumentError(err.Error())
	default:
		if _, ok := status.FromError(err); ok {
			return err
		}
		return InternalError(err.Error())
	}
}
