package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a LetVision error code.
type ErrorCode string

const (
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST"  // 400
	ErrNotFound        ErrorCode = "NOT_FOUND"        // 404
	ErrFileNotFound    ErrorCode = "FILE_NOT_FOUND"   // 404
	ErrConflict        ErrorCode = "CONFLICT"         // 409
	ErrUploadTooLarge  ErrorCode = "UPLOAD_TOO_LARGE" // 413
	ErrDetectionFailed ErrorCode = "DETECTION_FAILED" // 422
	ErrCancelled       ErrorCode = "CANCELLED"        // 499
	ErrStorageWrite    ErrorCode = "STORAGE_WRITE"    // 500
	ErrInternal        ErrorCode = "INTERNAL"         // 500
	ErrUpstream        ErrorCode = "UPSTREAM"         // 502
)

// AppError represents a structured error with code, status, and details.
type AppError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *AppError {
	return &AppError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a record cannot be found.
func NewNotFound(id string) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("record not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewFileNotFound creates a 404 error for a missing file (image or import source).
func NewFileNotFound(path string) *AppError {
	return &AppError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewConflict creates a 409 error for id collisions.
func NewConflict(msg string) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewUploadTooLarge creates a 413 error when an uploaded image exceeds the size limit.
func NewUploadTooLarge(maxBytes int64) *AppError {
	return &AppError{
		Code:    ErrUploadTooLarge,
		Status:  413,
		Message: fmt.Sprintf("image exceeds the upload limit of %d bytes", maxBytes),
		Details: map[string]any{"max_bytes": maxBytes},
	}
}

// NewDetectionFailed creates a 422 error when the classifier returns no prediction.
func NewDetectionFailed(kind string) *AppError {
	return &AppError{
		Code:    ErrDetectionFailed,
		Status:  422,
		Message: "detection failed, try again",
		Details: map[string]any{"kind": kind},
	}
}

// NewCancelled creates a 499 error for operations aborted by their context.
func NewCancelled(err error) *AppError {
	msg := "operation cancelled"
	if err != nil {
		msg = err.Error()
	}
	return &AppError{
		Code:    ErrCancelled,
		Status:  499,
		Message: msg,
	}
}

// NewStorageWrite creates a 500 error when the history cannot be persisted.
// The in-memory state is never treated as authoritative after this error.
func NewStorageWrite(err error) *AppError {
	msg := "failed to write history"
	if err != nil {
		msg = fmt.Sprintf("failed to write history: %v", err)
	}
	return &AppError{
		Code:    ErrStorageWrite,
		Status:  500,
		Message: msg,
	}
}

// NewUpstream creates a 502 error for failures of an external service.
func NewUpstream(service string, err error) *AppError {
	msg := fmt.Sprintf("%s unavailable", service)
	if err != nil {
		msg = fmt.Sprintf("%s unavailable: %v", service, err)
	}
	return &AppError{
		Code:    ErrUpstream,
		Status:  502,
		Message: msg,
		Details: map[string]any{"service": service},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The cause is kept in Details for logging and never shown to callers.
func NewInternal(err error) *AppError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &AppError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error (or anything it wraps) is an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// As returns the AppError in err's chain, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
