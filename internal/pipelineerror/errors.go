// Package pipelineerror defines the typed errors of the batch transfer
// pipeline. Structural import failures and export failures are Go errors;
// row-level validation failures are data (models.FieldError) and never
// surface through this package.
package pipelineerror

import (
	"fmt"

	"hesed/masav-batch/internal/models"
)

// ImportError represents a structural failure that aborts a whole import
// before any row is evaluated (malformed workbook, unmapped columns).
type ImportError struct {
	Filename string
	Code     models.ErrorCode
	Msg      string
	Err      error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("import of %s failed (%s): %s: %v", e.Filename, e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("import of %s failed (%s): %s", e.Filename, e.Code, e.Msg)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// EncodeError represents a failure to build a MASAV file. Encoding is
// all-or-nothing: any EncodeError means no file was produced.
type EncodeError struct {
	TransferID string // empty for file-level failures
	Field      string
	Msg        string
}

func (e *EncodeError) Error() string {
	if e.TransferID != "" {
		return fmt.Sprintf("masav encode failed for transfer %s, field %s: %s", e.TransferID, e.Field, e.Msg)
	}
	return fmt.Sprintf("masav encode failed: %s", e.Msg)
}

// EligibilityError reports transfers that cannot be exported because they
// are missing or not in an exportable status.
type EligibilityError struct {
	TransferID string
	Status     models.TransferStatus // zero when the id was not found
}

func (e *EligibilityError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("transfer %s not found", e.TransferID)
	}
	return fmt.Sprintf("transfer %s is not exportable (status %s)", e.TransferID, e.Status)
}

// ConflictError reports a repository uniqueness violation: a non-exported
// record with the same payment key already exists.
type ConflictError struct {
	Key string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("duplicate transfer for key %s", e.Key)
}

// NotFoundError reports a missing transfer id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("transfer %s not found", e.ID)
}

// ImmutableError reports an attempt to modify or delete an exported record.
type ImmutableError struct {
	ID string
}

func (e *ImmutableError) Error() string {
	return fmt.Sprintf("transfer %s is exported and immutable", e.ID)
}
