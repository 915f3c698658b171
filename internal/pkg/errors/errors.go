package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code for each error type
type ErrorCode string

const (
	// General errors
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"
	ErrCodeBadRequest ErrorCode = "BAD_REQUEST"
	ErrCodeConflict   ErrorCode = "CONFLICT"
	ErrCodeDisabled   ErrorCode = "FEATURE_DISABLED"

	// Pipeline errors
	ErrCodeInvalidConfig  ErrorCode = "INVALID_CONFIG"
	ErrCodeDictionaryLoad ErrorCode = "DICTIONARY_LOAD"
	ErrCodeItemFailed     ErrorCode = "ITEM_FAILED"

	// File processing errors
	ErrCodeFileTooLarge      ErrorCode = "FILE_TOO_LARGE"
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	ErrCodeFileParseError    ErrorCode = "FILE_PARSE_ERROR"

	// Infrastructure errors
	ErrCodeDatabaseError  ErrorCode = "DATABASE_ERROR"
	ErrCodeRecordNotFound ErrorCode = "RECORD_NOT_FOUND"
	ErrCodeCacheError     ErrorCode = "CACHE_ERROR"
	ErrCodeQueueError     ErrorCode = "QUEUE_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Err        error                  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails adds additional context to the error
func (e *AppError) WithDetails(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an existing error with AppError context
func Wrap(err error, code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// StatusCode returns the HTTP status for err, 500 when it carries no AppError
func StatusCode(err error) int {
	if appErr, ok := GetAppError(err); ok && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// Common error constructors

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message, http.StatusInternalServerError)
}

func InternalWrap(err error, message string) *AppError {
	return Wrap(err, ErrCodeInternal, message, http.StatusInternalServerError)
}

func NotFound(message string) *AppError {
	return New(ErrCodeNotFound, message, http.StatusNotFound)
}

func BadRequest(message string) *AppError {
	return New(ErrCodeBadRequest, message, http.StatusBadRequest)
}

func Conflict(message string) *AppError {
	return New(ErrCodeConflict, message, http.StatusConflict)
}

// Disabled reports a feature whose backing infrastructure is not configured
func Disabled(feature string) *AppError {
	return New(ErrCodeDisabled, fmt.Sprintf("%s is not enabled on this instance", feature), http.StatusServiceUnavailable)
}

// Pipeline errors

// InvalidConfig reports a rejected pipeline configuration. The cause is kept
// so callers can match sentinel errors with errors.Is.
func InvalidConfig(err error) *AppError {
	return Wrap(err, ErrCodeInvalidConfig, "invalid preprocessing configuration", http.StatusBadRequest)
}

func DictionaryLoad(err error, source string) *AppError {
	return Wrap(err, ErrCodeDictionaryLoad,
		fmt.Sprintf("failed to load substitution dictionary from %s", source),
		http.StatusInternalServerError)
}

func ItemFailed(err error, index int) *AppError {
	return Wrap(err, ErrCodeItemFailed,
		fmt.Sprintf("item %d could not be processed", index),
		http.StatusUnprocessableEntity).WithDetails("index", index)
}

// File processing errors

func FileTooLarge(maxSize int64) *AppError {
	return New(ErrCodeFileTooLarge,
		fmt.Sprintf("file size exceeds maximum allowed size of %d MB", maxSize),
		http.StatusBadRequest)
}

func UnsupportedFormat(format string) *AppError {
	return New(ErrCodeUnsupportedFormat,
		fmt.Sprintf("unsupported file format: %s", format),
		http.StatusBadRequest)
}

func FileParse(err error) *AppError {
	return Wrap(err, ErrCodeFileParseError, "failed to parse file", http.StatusBadRequest)
}

// Infrastructure errors

func DatabaseError(err error) *AppError {
	return Wrap(err, ErrCodeDatabaseError, "database operation failed", http.StatusInternalServerError)
}

func RecordNotFound(resource string) *AppError {
	return New(ErrCodeRecordNotFound,
		fmt.Sprintf("%s not found", resource),
		http.StatusNotFound)
}

func CacheError(err error) *AppError {
	return Wrap(err, ErrCodeCacheError, "cache operation failed", http.StatusInternalServerError)
}

func QueueError(err error) *AppError {
	return Wrap(err, ErrCodeQueueError, "failed to enqueue task", http.StatusInternalServerError)
}

// GetAppError extracts AppError from error chain
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// HasCode reports whether err carries an AppError with the given code
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := GetAppError(err)
	return ok && appErr.Code == code
}
