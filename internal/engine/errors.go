package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrForbidden is returned when the actor's role may not perform a transition.
	ErrForbidden = errors.New("forbidden for actor role")

	// ErrInvalidTransition is returned when a resolved entity receives a
	// different resolving action.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidQuantity is returned for non-positive or out-of-range quantities.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrInvalidPrice is returned for missing or non-positive prices.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrInvalidInput is returned for missing descriptive fields.
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError reports a structurally invalid import. The whole import is
// aborted before any row is processed.
type ValidationError struct {
	MissingColumns []string `json:"missingColumns,omitempty"`
	Message        string   `json:"message,omitempty"`
}

func (e *ValidationError) Error() string {
	if len(e.MissingColumns) > 0 {
		return fmt.Sprintf("missing required column: %s", strings.Join(e.MissingColumns, ", "))
	}
	if e.Message != "" {
		return "invalid import: " + e.Message
	}
	return "invalid import"
}

// RowError describes a single skipped row. Row is the spreadsheet line
// number, counting the header as line 1.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// ReconciliationError signals a broken engine invariant. It is not expected
// for inputs produced by MapRecords and Deduplicate.
type ReconciliationError struct {
	Item   string
	Reason string
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciliation invariant violated for %q: %s", e.Item, e.Reason)
}

// CommitError is a per-item failure reported by the storage layer.
type CommitError struct {
	ItemName string `json:"itemName"`
	Reason   string `json:"reason"`
}

func (e CommitError) Error() string {
	return fmt.Sprintf("commit %q: %s", e.ItemName, e.Reason)
}
