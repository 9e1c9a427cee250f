// Package errors provides custom error types for the journal-sync engine.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents the type of error that occurred
type ErrorCode string

const (
	ErrCodeAdapterFailure    ErrorCode = "ADAPTER_FAILURE"
	ErrCodeStorageFailure    ErrorCode = "STORAGE_FAILURE"
	ErrCodeConflictFailure   ErrorCode = "CONFLICT_FAILURE"
	ErrCodeValidationFailure ErrorCode = "VALIDATION_FAILURE"
)

// Operation represents the type of sync operation
type Operation string

const (
	OpSync            Operation = "sync"
	OpBatchSync       Operation = "batch_sync"
	OpFetch           Operation = "fetch"
	OpPush            Operation = "push"
	OpStore           Operation = "store"
	OpQueue           Operation = "queue"
	OpConflictResolve Operation = "conflict_resolve"
	OpHealthCheck     Operation = "health_check"
	OpClose           Operation = "close"
)

// Sentinel errors surfaced to callers as explicit outcomes.
var (
	// ErrSyncInProgress is returned when a sync is requested for an entity
	// key that already has an in-flight sync attempt.
	ErrSyncInProgress = errors.New("sync already in progress for entity")

	// ErrUnknownStrategy is returned when a conflict resolution strategy
	// name is not registered. It never falls back to a default.
	ErrUnknownStrategy = errors.New("unknown conflict resolution strategy")

	// ErrStrategyNotImplemented is returned for strategies that are named
	// but intentionally unimplemented (e.g. field-level merge).
	ErrStrategyNotImplemented = errors.New("conflict resolution strategy not implemented")

	// ErrManualPayloadRequired is returned when the manual strategy is
	// invoked without an explicit resolution payload.
	ErrManualPayloadRequired = errors.New("manual resolution requires an explicit payload")

	// ErrLocalPayloadRequired is returned when a TO_EXTERNAL or
	// BIDIRECTIONAL sync request carries no local payload.
	ErrLocalPayloadRequired = errors.New("sync request requires a local payload")
)

// SyncError represents an error that occurred during synchronization
type SyncError struct {
	// Operation during which the error occurred
	Op Operation

	// Component that generated the error (e.g., "store", "adapter")
	Component string

	// Underlying error
	Err error

	// Whether the operation can be retried
	Retryable bool

	// Error code for the error type
	Code ErrorCode

	// Metadata for additional context
	Metadata map[string]interface{}
}

func (e *SyncError) Error() string {
	var msg string
	if e.Component != "" {
		msg = fmt.Sprintf("%s operation failed in %s component", e.Op, e.Component)
	} else {
		msg = fmt.Sprintf("%s operation failed", e.Op)
	}

	if e.Code != "" {
		msg += fmt.Sprintf(" [%s]", e.Code)
	}

	return msg + fmt.Sprintf(": %v", e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// NewAdapterError creates a new adapter-related SyncError.
// Adapter failures are retryable in principle, but the engine never retries
// them automatically; the flag is informational for callers.
func NewAdapterError(op Operation, cause error) *SyncError {
	return &SyncError{
		Code:      ErrCodeAdapterFailure,
		Op:        op,
		Component: "adapter",
		Err:       cause,
		Retryable: true,
	}
}

// NewStorageError creates a new storage-related SyncError
func NewStorageError(op Operation, cause error) *SyncError {
	return &SyncError{
		Code:      ErrCodeStorageFailure,
		Op:        op,
		Component: "store",
		Err:       cause,
		Retryable: true,
	}
}

// NewConflictError creates a new conflict-related SyncError
func NewConflictError(op Operation, cause error) *SyncError {
	return &SyncError{
		Code:      ErrCodeConflictFailure,
		Op:        op,
		Component: "conflict",
		Err:       cause,
		Retryable: false,
	}
}

// NewValidationError creates a new validation-related SyncError
func NewValidationError(op Operation, cause error) *SyncError {
	return &SyncError{
		Code:      ErrCodeValidationFailure,
		Op:        op,
		Err:       cause,
		Retryable: false,
	}
}

// New creates a new SyncError
func New(op Operation, err error) *SyncError {
	return &SyncError{
		Op:  op,
		Err: err,
	}
}

// NewWithComponent creates a new SyncError with component information
func NewWithComponent(op Operation, component string, err error) *SyncError {
	return &SyncError{
		Op:        op,
		Component: component,
		Err:       err,
	}
}

// IsRetryable checks if an error is a retryable SyncError
func IsRetryable(err error) bool {
	var syncErr *SyncError
	if errors.As(err, &syncErr) {
		return syncErr.Retryable
	}
	return false
}
