package core

// error_messages.go maps technical errors to user-facing messages with a
// support code.
//
// # Catalog Errors (FETCH001-FETCH099)
//
//	FETCH001 - Catalog unreachable: could not connect to the product catalog
//	           Patterns: "catalog request"
//	FETCH002 - Catalog unreadable: the catalog response was not valid
//	           Patterns: "decode catalog response"
//	FETCH003 - Catalog error: the catalog answered with an error status
//	           Patterns: "catalog returned unexpected status"
//	FETCH004 - Still loading: products are still being loaded
//	           Patterns: "catalog is still loading"
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Nothing selected: no products are selected for export
//	         Patterns: "no products selected"
//	EXP002 - Export failed: the spreadsheet could not be generated
//	         Patterns: "build workbook", "write workbook"
//	EXP003 - Export busy: too many exports are running
//	         Patterns: "too many concurrent exports"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Invalid product id
//	REQ002 - Unknown product
//	REQ003 - Invalid input (form validation)
//	REQ004 - Session expired
//	REQ005 - Request cancelled
//	REQ006 - Request timeout
//
// # Rate Limiting (RATE001)
//
// # Default Error (ERR000)
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

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
	// Catalog
	{
		pattern: "catalog returned unexpected status",
		msg: UserMessage{
			Message: "The product catalog returned an error",
			Action:  "Reload the application later",
			Code:    "FETCH003",
		},
	},
	{
		pattern: "decode catalog response",
		msg: UserMessage{
			Message: "The product catalog response could not be read",
			Action:  "Reload the application later",
			Code:    "FETCH002",
		},
	},
	{
		pattern: "catalog request",
		msg: UserMessage{
			Message: "Unable to reach the product catalog",
			Action:  "Check your connection and reload the application",
			Code:    "FETCH001",
		},
	},
	{
		pattern: "catalog is still loading",
		msg: UserMessage{
			Message: "Products are still loading",
			Action:  "Please wait a moment and try again",
			Code:    "FETCH004",
		},
	},

	// Export
	{
		pattern: "no products selected",
		msg: UserMessage{
			Message: "No products are selected",
			Action:  "Select at least one row before downloading",
			Code:    "EXP001",
		},
	},
	{
		pattern: "too many concurrent exports",
		msg: UserMessage{
			Message: "Too many downloads in progress",
			Action:  "Please wait a moment and try again",
			Code:    "EXP003",
		},
	},
	{
		pattern: "build workbook",
		msg: UserMessage{
			Message: "The spreadsheet could not be generated",
			Action:  "Please try again or contact support",
			Code:    "EXP002",
		},
	},
	{
		pattern: "write workbook",
		msg: UserMessage{
			Message: "The spreadsheet could not be generated",
			Action:  "Please try again or contact support",
			Code:    "EXP002",
		},
	},

	// Request
	{
		pattern: "invalid product id",
		msg: UserMessage{
			Message: "Invalid product id",
			Action:  "Use the controls in the table",
			Code:    "REQ001",
		},
	},
	{
		pattern: "unknown product",
		msg: UserMessage{
			Message: "That product does not exist",
			Action:  "Reload the page to refresh the table",
			Code:    "REQ002",
		},
	},
	{
		pattern: "invalid input",
		msg: UserMessage{
			Message: "The submitted value is not valid",
			Action:  "Check the value and try again",
			Code:    "REQ003",
		},
	},
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "Your session has expired",
			Action:  "Reload the page to start a new session",
			Code:    "REQ004",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ005",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again",
			Code:    "REQ006",
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

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Unknown
// errors map to ERR000; nil maps to the zero UserMessage.
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

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
