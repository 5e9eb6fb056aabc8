package core

// # Error Codes Reference
//
// Every error shown to a user carries a code they can quote to support.
//
// # Transform Errors
//
// Raised by the rewrite pipeline, matched by kind rather than by text:
//
//	FILE010 - Unsupported file type: only csv, xlsx and xls are accepted
//	          Action: Save the file as CSV or Excel and upload it again
//
//	FILE011 - File read error: the file could not be parsed
//	          Action: Check that the file opens in a spreadsheet program and is UTF-8 if CSV
//
//	COL001  - Column not found: no header matches the requested column
//	          Action: Pick one of the columns listed in the error
//
//	RGX001  - Invalid pattern: the regular expression does not compile
//	          Action: Fix the pattern syntax (Go RE2; no lookarounds or backreferences)
//
//	RGX002  - Substitution error: the replacement could not be applied
//	          Action: Check group references in the replacement ($1, ${name}, \1)
//
// # Request Errors
//
//	REQ001  - Invalid request: a required field is missing or malformed
//	          Action: Fill in the highlighted fields
//
// # File Errors (matched by pattern)
//
//	FILE001 - File too large
//	FILE004 - No file provided
//	FILE005 - Empty file
//
// # Upload Errors
//
//	UPL002  - System busy: all transform slots are taken
//	UPL004  - Request cancelled
//	UPL005  - Request timed out
//
// # Other
//
//	DB004   - History database unreachable
//	RATE001 - Rate limited
//	ERR000  - Unknown error; check the logs for the technical error
//
// Pattern matching is case-insensitive via strings.Contains and the first
// match wins.

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/JonMunkholm/regexcol/internal/transform"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var kindMessages = map[transform.Kind]UserMessage{
	transform.KindUnsupportedFileType: {
		Message: "Unsupported file type",
		Action:  "Save the file as CSV or Excel (.csv, .xlsx, .xls) and upload it again",
		Code:    "FILE010",
	},
	transform.KindFileRead: {
		Message: "The file could not be read",
		Action:  "Check that the file opens in a spreadsheet program; CSV files must be UTF-8",
		Code:    "FILE011",
	},
	transform.KindColumnNotFound: {
		Message: "Column not found in the uploaded file",
		Action:  "Pick one of the available columns",
		Code:    "COL001",
	},
	transform.KindInvalidPattern: {
		Message: "The regular expression is not valid",
		Action:  "Fix the pattern syntax; lookarounds and backreferences are not supported",
		Code:    "RGX001",
	},
	transform.KindSubstitution: {
		Message: "The replacement could not be applied",
		Action:  "Check the group references in the replacement ($1, ${name} or \\1)",
		Code:    "RGX002",
	},
}

var (
	invalidRequestMessage = UserMessage{
		Message: "The request is missing or has invalid fields",
		Action:  "Fill in the column and a pattern (or a known description)",
		Code:    "REQ001",
	}

	busyMessage = UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns covers errors that do not come from the transform pipeline.
// Specific patterns go before general ones.
var errorPatterns = []errorPattern{
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Remove unused columns or rows and try again",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV or Excel file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file with a header row",
			Code:    "FILE005",
		},
	},
	{
		pattern: "too many uploads",
		msg:     busyMessage,
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the history database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
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

// MapError converts an error to a user-facing message. Transform errors are
// matched by kind, request validation errors map to REQ001, and everything
// else falls back to case-insensitive pattern matching.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if kind := transform.KindOf(err); kind != transform.KindUnknown {
		if msg, ok := kindMessages[kind]; ok {
			return msg
		}
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) || errors.Is(err, ErrInvalidRequest) {
		return invalidRequestMessage
	}

	if errors.Is(err, ErrTooManyTransforms) {
		return busyMessage
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something other than ERR000.
// Unknown errors should be logged and replaced with a generic message.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// Detail returns the text to put in a response's "error" field: the
// pipeline stage's own message for transform and validation errors, the
// mapped message otherwise.
func Detail(err error) string {
	var te *transform.Error
	if errors.As(err, &te) {
		return te.Error()
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return verrs.Error()
	}
	if errors.Is(err, ErrInvalidRequest) {
		return err.Error()
	}
	return MapError(err).Message
}

// AvailableColumns returns the column list carried by a ColumnNotFound error.
func AvailableColumns(err error) []string {
	var te *transform.Error
	if errors.As(err, &te) && te.Kind == transform.KindColumnNotFound {
		return te.Available
	}
	return nil
}
