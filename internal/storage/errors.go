package storage

import "fmt"

// These constants mirror domain error codes to avoid circular imports.
const (
	codeInternal = "internal"
	codeInvalid  = "invalid"
	codeNotFound = "not_found"
)

// StorageError represents a storage-specific error with a code and message.
// It follows the domain.Error pattern so callers can classify failures.
type StorageError struct {
	Code    string
	Message string
}

func (e *StorageError) Error() string {
	return e.Message
}

// ErrorCode returns the error code for classification.
func (e *StorageError) ErrorCode() string {
	return e.Code
}

// ErrSnapshotNotFound is returned by Load when no snapshot has been saved.
var ErrSnapshotNotFound = &StorageError{
	Code:    codeNotFound,
	Message: "no cart snapshot in storage",
}

// ErrUnknownProvider creates an error for unknown storage providers.
func ErrUnknownProvider(provider string) error {
	return &StorageError{
		Code:    codeInvalid,
		Message: fmt.Sprintf("unknown storage provider: %s", provider),
	}
}

// errWrite creates an internal error for a failed snapshot write.
func errWrite(err error) error {
	return &StorageError{
		Code:    codeInternal,
		Message: fmt.Sprintf("failed to write cart snapshot: %v", err),
	}
}

// errRead creates an internal error for a failed snapshot read.
func errRead(err error) error {
	return &StorageError{
		Code:    codeInternal,
		Message: fmt.Sprintf("failed to read cart snapshot: %v", err),
	}
}
