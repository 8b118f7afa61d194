// Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Codes are grouped by category:
//
// # Configuration Errors (CFG001-CFG099)
//
//	CFG001 - Unknown key column: The selected key column does not exist
//	         Action: Pick a key from the column list of each file
//	         Patterns: "column not found"
//
//	CFG002 - Unsupported join: Join type is not left, right, inner or outer
//	         Action: Choose one of left, right, inner or outer
//	         Patterns: "unsupported join type"
//
//	CFG003 - No key resolvable: One of the files has no columns
//	         Action: Check that both files have a header row
//	         Patterns: "empty input"
//
//	CFG004 - Missing key: No key column was selected
//	         Action: Confirm a key column for each file before merging
//	         Patterns: "key column is required"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum size limit
//	FILE002 - Invalid CSV: File is not valid delimited text
//	FILE003 - Unsupported format: Extension is not csv, tsv, txt or xlsx
//	FILE004 - No file: A file slot was left empty
//	FILE005 - Empty file: The file has no data rows
//	FILE006 - Invalid spreadsheet: The workbook could not be opened
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Invalid request: A form field is missing or malformed
//
// # Merge Errors (MRG001-MRG099)
//
//	MRG001 - System busy: Merge capacity in use
//	MRG002 - Request cancelled
//	MRG003 - Request timeout
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//
// # Default Error (ERR000)
//
// Returned when no pattern matches. Check application logs for the technical
// error when a user reports ERR000.
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns precede general ones.

package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Configuration Errors (CFG001-CFG004)
	// =========================================================================
	{
		pattern: "column not found",
		msg: UserMessage{
			Message: "The selected key column does not exist",
			Action:  "Pick a key from the column list of each file",
			Code:    "CFG001",
		},
	},
	{
		pattern: "unsupported join type",
		msg: UserMessage{
			Message: "Join type is not supported",
			Action:  "Choose one of left, right, inner or outer",
			Code:    "CFG002",
		},
	},
	{
		pattern: "empty input",
		msg: UserMessage{
			Message: "No key column can be resolved",
			Action:  "Check that both files have a header row",
			Code:    "CFG003",
		},
	},
	{
		pattern: "key column is required",
		msg: UserMessage{
			Message: "No key column was selected",
			Action:  "Confirm a key column for each file before merging",
			Code:    "CFG004",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE006)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file or remove unused columns",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file or remove unused columns",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not valid delimited text",
			Action:  "Ensure every row has consistent delimiters and quotes",
			Code:    "FILE002",
		},
	},
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "File format is not supported",
			Action:  "Use .csv, .tsv, .txt or .xlsx files",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "A file was not selected",
			Action:  "Select both files before continuing",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The file is empty",
			Action:  "Upload a file with a header and data rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "invalid spreadsheet",
		msg: UserMessage{
			Message: "The workbook could not be opened",
			Action:  "Re-save the file as .xlsx and try again",
			Code:    "FILE006",
		},
	},

	// =========================================================================
	// Request Errors (REQ001)
	// =========================================================================
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The request is missing a field or has an invalid value",
			Action:  "Check the submitted form and try again",
			Code:    "REQ001",
		},
	},

	// =========================================================================
	// Merge Errors (MRG001-MRG003)
	// =========================================================================
	{
		pattern: "merge capacity exhausted",
		msg: UserMessage{
			Message: "The server is busy with other merges",
			Action:  "Please wait a moment and try again",
			Code:    "MRG001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "MRG002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try smaller files or try again later",
			Code:    "MRG003",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns the ERR000 fallback when no pattern matches.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
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

// IsUserFacing reports whether err maps to a specific (non-ERR000) message.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
