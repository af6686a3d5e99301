package core

// error_messages.go maps technical errors onto coded messages for users.
//
// Error codes are grouped by category:
//
//	FILE001-FILE099  file handling (size, format, decoding)
//	ETL001-ETL099    pipeline (entity kind, batch commit)
//	IMP001-IMP099    import scheduling (busy, cancelled, timed out)
//	REQ001-REQ099    request parameters and lookups
//	DB001-DB099      database constraints and connectivity
//	RATE001          request throttling
//	ERR000           anything else; check the logs for the technical error
//
// Sentinel errors are matched first with errors.Is. Everything else falls
// back to case-insensitive substring patterns, first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrFileTooLarge is returned when an upload exceeds the configured size.
var ErrFileTooLarge = errors.New("file too large")

// ErrNoFile is returned when a request carries no file.
var ErrNoFile = errors.New("no file provided")

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidParameter is returned for malformed request parameters.
var ErrInvalidParameter = errors.New("invalid parameter")

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrFileTooLarge, UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller files",
		Code:    "FILE001",
	}},
	{ErrUnsupportedFormat, UserMessage{
		Message: "Unsupported file format",
		Action:  "Upload a .csv, .xls or .xlsx file",
		Code:    "FILE002",
	}},
	{ErrUnreadableFile, UserMessage{
		Message: "The file could not be read",
		Action:  "Re-save the file as CSV (UTF-8) or .xlsx and try again",
		Code:    "FILE003",
	}},
	{ErrNoFile, UserMessage{
		Message: "No file was selected",
		Action:  "Please select a file to upload",
		Code:    "FILE004",
	}},
	{ErrEmptyFile, UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a file with a header row and data rows",
		Code:    "FILE005",
	}},
	{ErrUnknownEntityKind, UserMessage{
		Message: "The file's columns do not match a supported import",
		Action:  "Check the column headers, or pick the entity type explicitly",
		Code:    "ETL001",
	}},
	{ErrBatchRollback, UserMessage{
		Message: "The import could not be committed and was rolled back",
		Action:  "No rows were saved. Please try again",
		Code:    "ETL002",
	}},
	{ErrTooManyImports, UserMessage{
		Message: "Another import is in progress",
		Action:  "Please wait a moment and try again",
		Code:    "IMP001",
	}},
	{ErrNotFound, UserMessage{
		Message: "The requested record was not found",
		Action:  "Check the id and try again",
		Code:    "REQ001",
	}},
	{ErrInvalidParameter, UserMessage{
		Message: "The request has an invalid parameter",
		Action:  "Check the query parameters and try again",
		Code:    "REQ002",
	}},
	{context.Canceled, UserMessage{
		Message: "The import was cancelled",
		Action:  "Start a new import when ready",
		Code:    "IMP002",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "The import timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "IMP003",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user
// messages. More specific patterns come first.
var errorPatterns = []errorPattern{
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A restaurant with this name and address already exists",
			Action:  "Remove the duplicate rows and import again",
			Code:    "DB001",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A duplicate value was found",
			Action:  "Review your data for duplicate name and address pairs",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Check that the restaurant type exists",
			Code:    "DB003",
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
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},
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

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	msg := MapError(fmt.Errorf("read: %w", ErrUnsupportedFormat))
//	// msg.Code == "FILE002"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
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

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
