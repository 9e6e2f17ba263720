package mms

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformedRow marks a line that cannot be split into fields, or a row
	// with too few fields for its role.
	ErrMalformedRow = errors.New("malformed row")

	// ErrUnrecognizedSchema marks a header whose key is not registered.
	ErrUnrecognizedSchema = errors.New("unrecognized schema")

	// ErrSchemaMismatch marks a data row whose tag differs from the active
	// header, or a header that lacks columns its schema needs.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrNoActiveSchema marks a data row seen before any header.
	ErrNoActiveSchema = errors.New("no active schema")

	ErrMalformedTimestamp = errors.New("malformed timestamp")
	ErrAmbiguousLocalTime = errors.New("ambiguous local time")
	ErrFieldType          = errors.New("field type error")

	// ErrEntryFailure marks a batch entry that produced no result at all.
	ErrEntryFailure = errors.New("entry failure")

	// ErrInvalidText marks content that is not valid UTF-8.
	ErrInvalidText = errors.New("invalid UTF-8 text")

	ErrDuplicateSchema = errors.New("schema already registered")
)

// RowError attributes an error to one line of a file.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// FieldError attributes a decoding error to one column of a data row.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s (%q): %v", e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// EntryFailure records a batch entry that could not be decoded or parsed.
// It matches both ErrEntryFailure and its cause under errors.Is.
type EntryFailure struct {
	Entry string
	Err   error
}

func (f EntryFailure) Error() string {
	return fmt.Sprintf("entry %s: %v", f.Entry, f.Err)
}

func (f EntryFailure) Unwrap() []error { return []error{ErrEntryFailure, f.Err} }

func (f EntryFailure) MarshalJSON() ([]byte, error) {
	msg := Describe(f.Err)
	var detail string
	if f.Err != nil {
		detail = f.Err.Error()
	}
	return json.Marshal(struct {
		Entry   string `json:"entry"`
		Code    string `json:"code"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}{f.Entry, msg.Code, msg.Message, detail})
}

// Err returns the diagnostic as an error wrapping ErrUnrecognizedSchema.
func (u Unrecognized) Err() error {
	return &RowError{Line: u.Line, Err: fmt.Errorf("%w: %s", ErrUnrecognizedSchema, u.Key)}
}

func (u Unrecognized) MarshalJSON() ([]byte, error) {
	msg := Describe(u.Err())
	return json.Marshal(struct {
		Key     SchemaKey `json:"key"`
		Fields  []string  `json:"fields"`
		Line    int       `json:"line"`
		Code    string    `json:"code"`
		Message string    `json:"message"`
	}{u.Key, u.Fields, u.Line, msg.Code, msg.Message})
}
