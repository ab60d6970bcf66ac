// # Error Codes Reference
//
// This file maps technical errors to user-facing messages with a code that
// users can quote to support staff.
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Missing column: A required column is missing from the file
//	IMP002 - Invalid import: The file has no usable data rows
//	IMP003 - Too many rows: The file exceeds the row limit
//	IMP004 - Internal import error: The import plan failed a consistency check
//	IMP005 - System busy: Too many imports in progress
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE002 - Unsupported format: Not CSV, XLSX or XLS
//	FILE003 - Empty file
//	FILE004 - No file: No file was attached
//	FILE005 - Unreadable spreadsheet: The workbook could not be opened
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid quantity
//	VAL002 - Invalid price
//	VAL003 - Missing field
//	VAL004 - Invalid request body
//
// # Authorization Errors (AUTH001-AUTH099)
//
//	AUTH001 - Forbidden: The actor's role may not perform the operation
//	AUTH002 - Unauthorized: Missing or unknown API key
//
// # Pricing Errors (PRC001-PRC099)
//
//	PRC001 - Not a site supply: Site pricing applied to a warehouse entry
//	PRC002 - Not a warehouse entry: Current price applied to a site supply
//
// # Transfer Errors (TRF001-TRF099)
//
//	TRF001 - Invalid transition: The request was already resolved differently
//	TRF002 - Insufficient stock: The warehouse cannot cover the transfer
//	TRF003 - Concurrent update: The request changed while being resolved
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Not found
//	DB004 - Connection refused
//	DB005 - Connection reset
//	DB006 - Timeout
//	DB007 - Deadlock
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: check application logs for the technical error
//
// # Matching
//
// Entries are tried in order and the first match wins. An entry matches
// when its target is found with errors.Is, or when its pattern occurs in
// the lower-cased error text. Specific entries come before general ones.
package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sitestock/supplytrack/internal/engine"
	"github.com/sitestock/supplytrack/internal/store"
	"github.com/sitestock/supplytrack/internal/tabular"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Support reference
}

// errorPattern maps an error, by identity or by text, to a user message.
type errorPattern struct {
	target  error
	pattern string
	msg     UserMessage
}

func (p errorPattern) matches(err error, lower string) bool {
	if p.target != nil && errors.Is(err, p.target) {
		return true
	}
	return p.pattern != "" && strings.Contains(lower, p.pattern)
}

var errorPatterns = []errorPattern{
	// Import
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "A required column is missing from the file",
			Action:  "Add item name, quantity and unit columns (and price when pricing is required)",
			Code:    "IMP001",
		},
	},
	{
		pattern: "invalid import",
		msg: UserMessage{
			Message: "The file has no usable data rows",
			Action:  "Check that the first row holds column headers and data follows it",
			Code:    "IMP002",
		},
	},
	{
		target: tabular.ErrTooManyRows,
		msg: UserMessage{
			Message: "The file has too many rows",
			Action:  "Split the file into smaller imports",
			Code:    "IMP003",
		},
	},
	{
		pattern: "reconciliation invariant violated",
		msg: UserMessage{
			Message: "The import could not be planned",
			Action:  "Please try again or contact support",
			Code:    "IMP004",
		},
	},
	{
		target: ErrTooManyImports,
		msg: UserMessage{
			Message: "System is busy processing other imports",
			Action:  "Please wait a moment and try again",
			Code:    "IMP005",
		},
	},

	// File
	{
		target: ErrFileTooLarge,
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		target: tabular.ErrUnsupportedFormat,
		msg: UserMessage{
			Message: "File format is not supported",
			Action:  "Upload a CSV, XLSX or XLS file",
			Code:    "FILE002",
		},
	},
	{
		target: tabular.ErrEmptyFile,
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file with a header row and data rows",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please attach a spreadsheet to import",
			Code:    "FILE004",
		},
	},
	{
		target: tabular.ErrUnreadable,
		msg: UserMessage{
			Message: "The spreadsheet could not be read",
			Action:  "Re-save the file from your spreadsheet program and try again",
			Code:    "FILE005",
		},
	},

	// Authorization
	{
		target: engine.ErrForbidden,
		msg: UserMessage{
			Message: "You are not allowed to perform this action",
			Action:  "Ask a user with the required role",
			Code:    "AUTH001",
		},
	},
	{
		target: ErrUnauthorized,
		msg: UserMessage{
			Message: "Authentication required",
			Action:  "Provide a valid API key",
			Code:    "AUTH002",
		},
	},

	// Pricing, before generic invalid input
	{
		pattern: "not a site supply",
		msg: UserMessage{
			Message: "This entry is not a site supply",
			Action:  "Use current price updates for warehouse stock",
			Code:    "PRC001",
		},
	},
	{
		pattern: "not a warehouse entry",
		msg: UserMessage{
			Message: "This entry is not warehouse stock",
			Action:  "Use site pricing for site supplies",
			Code:    "PRC002",
		},
	},

	// Transfers
	{
		target: engine.ErrInvalidTransition,
		msg: UserMessage{
			Message: "The request has already been resolved",
			Action:  "Refresh to see its current state",
			Code:    "TRF001",
		},
	},
	{
		target: store.ErrInsufficientStock,
		msg: UserMessage{
			Message: "The warehouse does not hold enough stock",
			Action:  "Approve a smaller quantity or restock the warehouse",
			Code:    "TRF002",
		},
	},
	{
		target: store.ErrConflict,
		msg: UserMessage{
			Message: "The request was changed by someone else",
			Action:  "Refresh and try again",
			Code:    "TRF003",
		},
	},

	// Validation
	{
		target: engine.ErrInvalidQuantity,
		msg: UserMessage{
			Message: "Quantity is not valid",
			Action:  "Enter a quantity greater than zero and within the requested amount",
			Code:    "VAL001",
		},
	},
	{
		target: engine.ErrInvalidPrice,
		msg: UserMessage{
			Message: "Price is not valid",
			Action:  "Enter a price greater than zero",
			Code:    "VAL002",
		},
	},
	{
		target: engine.ErrInvalidInput,
		msg: UserMessage{
			Message: "A required field is missing",
			Action:  "Fill in all required fields",
			Code:    "VAL003",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request could not be understood",
			Action:  "Check the request fields and their formats",
			Code:    "VAL004",
		},
	},

	// Database
	{
		target: store.ErrNotFound,
		msg: UserMessage{
			Message: "Record not found",
			Action:  "Check the identifier and try again",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. If no
// entry matches, the ERR000 fallback is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	lower := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if ep.matches(err, lower) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
