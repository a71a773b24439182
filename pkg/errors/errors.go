package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrAborted      ErrorCode = "ABORTED"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Manifest errors
	ErrManifestFetch        ErrorCode = "MANIFEST_FETCH"
	ErrManifestParse        ErrorCode = "MANIFEST_PARSE"
	ErrIncompatibleSchema   ErrorCode = "INCOMPATIBLE_SCHEMA"
	ErrIncompatiblePlatform ErrorCode = "INCOMPATIBLE_PLATFORM"

	// Transfer errors
	ErrRemoteFetch ErrorCode = "REMOTE_FETCH"

	// Instance errors
	ErrInstanceNotFound ErrorCode = "INSTANCE_NOT_FOUND"
	ErrInstanceInvalid  ErrorCode = "INSTANCE_INVALID"

	// Transaction errors
	ErrBackupCreate   ErrorCode = "BACKUP_CREATE"
	ErrBackupDiscard  ErrorCode = "BACKUP_DISCARD"
	ErrPruneFailed    ErrorCode = "PRUNE_FAILED"
	ErrRollbackFailed ErrorCode = "ROLLBACK_FAILED"

	// FileSystem errors
	ErrFileAccess ErrorCode = "FILE_ACCESS"
	ErrFileWrite  ErrorCode = "FILE_WRITE"
	ErrDirCreate  ErrorCode = "DIR_CREATE"
	// ErrSourceLeftover means a move completed at the destination but the
	// source could not be removed afterwards
	ErrSourceLeftover ErrorCode = "SOURCE_LEFTOVER"

	// Collaborator errors
	ErrArchiveExtract ErrorCode = "ARCHIVE_EXTRACT"
	ErrLaunch         ErrorCode = "LAUNCH"
)

// Process exit statuses. Anything not listed exits with ExitFailure.
const (
	ExitOK                   = 0
	ExitFailure              = 1
	ExitIncompatibleSchema   = 2
	ExitIncompatiblePlatform = 3
	ExitRollbackFailed       = 4
)

// ModsyncError represents a structured error with code and details
type ModsyncError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *ModsyncError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *ModsyncError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *ModsyncError) Is(target error) bool {
	var targetErr *ModsyncError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new ModsyncError with the given code and message
func New(code ErrorCode, message string) *ModsyncError {
	return &ModsyncError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new ModsyncError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *ModsyncError {
	return &ModsyncError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a ModsyncError
func Wrap(err error, code ErrorCode, message string) *ModsyncError {
	if err == nil {
		return nil
	}
	return &ModsyncError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *ModsyncError {
	if err == nil {
		return nil
	}
	return &ModsyncError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *ModsyncError) WithDetail(key string, value interface{}) *ModsyncError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var modsyncErr *ModsyncError
	if errors.As(err, &modsyncErr) {
		return modsyncErr.Code == code
	}
	return false
}

// HasErrorCode reports whether any error in the chain carries code.
// IsErrorCode only looks at the outermost ModsyncError.
func HasErrorCode(err error, code ErrorCode) bool {
	for err != nil {
		var modsyncErr *ModsyncError
		if !errors.As(err, &modsyncErr) {
			return false
		}
		if modsyncErr.Code == code {
			return true
		}
		err = modsyncErr.Wrapped
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a ModsyncError
func GetErrorCode(err error) ErrorCode {
	var modsyncErr *ModsyncError
	if errors.As(err, &modsyncErr) {
		return modsyncErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a ModsyncError
func GetErrorDetails(err error) map[string]interface{} {
	var modsyncErr *ModsyncError
	if errors.As(err, &modsyncErr) {
		return modsyncErr.Details
	}
	return nil
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch {
	case HasErrorCode(err, ErrRollbackFailed):
		return ExitRollbackFailed
	case HasErrorCode(err, ErrIncompatibleSchema):
		return ExitIncompatibleSchema
	case HasErrorCode(err, ErrIncompatiblePlatform):
		return ExitIncompatiblePlatform
	default:
		return ExitFailure
	}
}
