package mms

// describe.go maps parser errors to stable codes for API and CLI output.
//
// Codes by category:
//
//	ROW001 malformed row          ROW002 unrecognized schema
//	ROW003 schema mismatch        ROW004 data before header
//	FLD001 malformed timestamp    FLD002 ambiguous local time
//	FLD003 field type             ENT001 invalid text
//	ENT002 entry failure          REG001 duplicate schema
//	REQ001 request cancelled      REQ002 request timeout
//	ERR000 anything else; check the logs for the technical error.
//
// Field-level causes are checked before row-level ones, so a bad timestamp
// inside a RowError reports FLD001, not a generic row code.

import (
	"context"
	"errors"
)

// UserMessage is an error rendered for people: what happened, what to do,
// and a code to quote when reporting it.
type UserMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Action  string `json:"action"`
}

type errorCode struct {
	target error
	msg    UserMessage
}

// errorCodes is ordered most specific first; the first match wins.
var errorCodes = []errorCode{
	{ErrMalformedTimestamp, UserMessage{"FLD001", "A timestamp is not in YYYY/MM/DD HH:MM:SS form", "Check the column against the MMS data model"}},
	{ErrAmbiguousLocalTime, UserMessage{"FLD002", "A local time falls in a daylight-saving gap or overlap", "Supply the timestamp with an explicit offset or review the source row"}},
	{ErrFieldType, UserMessage{"FLD003", "A column does not hold a value of its declared type", "Review the row for misplaced or non-numeric values"}},
	{ErrUnrecognizedSchema, UserMessage{"ROW002", "The report contains a dataset with no registered schema", "Register a schema for the dataset key or ignore the section"}},
	{ErrSchemaMismatch, UserMessage{"ROW003", "A row does not belong to the section it appears in", "Check the report for interleaved or truncated sections"}},
	{ErrNoActiveSchema, UserMessage{"ROW004", "A data row appears before any header row", "Check that the file is a complete MMS report"}},
	{ErrMalformedRow, UserMessage{"ROW001", "A row could not be split into fields", "Check the row for unbalanced quotes"}},
	{ErrInvalidText, UserMessage{"ENT001", "A file is not valid UTF-8 text", "Confirm the archive holds MMS CSV reports"}},
	{ErrDuplicateSchema, UserMessage{"REG001", "A dataset key was registered twice", "Remove the duplicate schema registration"}},
	{context.Canceled, UserMessage{"REQ001", "The request was cancelled", "Please try again"}},
	{context.DeadlineExceeded, UserMessage{"REQ002", "The request timed out", "Try a smaller archive or try again later"}},
	{ErrEntryFailure, UserMessage{"ENT002", "A file in the archive could not be parsed", "Review the failure detail for that file"}},
}

var unknownError = UserMessage{
	Code:    "ERR000",
	Message: "An unexpected error occurred",
	Action:  "Please try again or check the server logs",
}

// Describe returns the user message for err. A nil error yields the zero
// UserMessage.
func Describe(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	for _, c := range errorCodes {
		if errors.Is(err, c.target) {
			return c.msg
		}
	}
	return unknownError
}
