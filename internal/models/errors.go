package models

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Failure taxonomy for an ingestion run. Callers classify with errors.Is;
// wrapped causes stay inspectable through the cockroachdb chain.
var (
	// ErrLockBusy means the pipeline lock was not acquired within the wait
	// window. The whole run aborts without touching the ledger.
	ErrLockBusy = errors.New("ingestion lock busy")

	// ErrOCRFailure means the OCR adapter could not produce text for one
	// document. The document is skipped and the run continues.
	ErrOCRFailure = errors.New("ocr conversion failed")

	// ErrLedgerWrite means an append or flush against the ledger failed.
	// Fatal to the run; the lock is still released.
	ErrLedgerWrite = errors.New("ledger write failed")
)

// DocumentError carries the identifier and pipeline stage of a per-document
// failure so run summaries and logs can name the exact casualty.
type DocumentError struct {
	ID    string
	Stage string
	Err   error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %s: stage %s: %v", e.ID, e.Stage, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// NewDocumentError wraps err with the document identifier and stage.
func NewDocumentError(id, stage string, err error) *DocumentError {
	return &DocumentError{ID: id, Stage: stage, Err: err}
}
