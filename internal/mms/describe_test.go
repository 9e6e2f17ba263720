package mms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"nil", nil, ""},
		{"malformed row", &RowError{Line: 3, Err: ErrMalformedRow}, "ROW001"},
		{"mismatch", &RowError{Line: 3, Err: fmt.Errorf("%w: x", ErrSchemaMismatch)}, "ROW003"},
		{"no header", &RowError{Line: 1, Err: ErrNoActiveSchema}, "ROW004"},
		{"unrecognized header", Unrecognized{Key: SchemaKey{"X", "Y", "1"}, Line: 2}.Err(), "ROW002"},
		{"timestamp inside row", &RowError{Line: 9, Err: &FieldError{Field: "T", Err: ErrMalformedTimestamp}}, "FLD001"},
		{"dst", &FieldError{Field: "T", Err: ErrAmbiguousLocalTime}, "FLD002"},
		{"field type", &FieldError{Field: "F", Err: ErrFieldType}, "FLD003"},
		{"entry with invalid text", EntryFailure{Entry: "a.csv", Err: ErrInvalidText}, "ENT001"},
		{"entry with other cause", EntryFailure{Entry: "a.csv", Err: errors.New("zip: checksum error")}, "ENT002"},
		{"cancelled", fmt.Errorf("parse: %w", context.Canceled), "REQ001"},
		{"deadline", context.DeadlineExceeded, "REQ002"},
		{"unknown", errors.New("boom"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.err).Code; got != tt.code {
				t.Errorf("Describe(%v).Code = %q, want %q", tt.err, got, tt.code)
			}
		})
	}
}

func TestUnrecognized_JSON(t *testing.T) {
	u := Unrecognized{Key: SchemaKey{"DISPATCH", "CASESOLUTION", "2"}, Fields: []string{"I", "DISPATCH", "CASESOLUTION", "2"}, Line: 4}

	if !errors.Is(u.Err(), ErrUnrecognizedSchema) {
		t.Errorf("Err() = %v, want ErrUnrecognizedSchema", u.Err())
	}
	var rowErr *RowError
	if !errors.As(u.Err(), &rowErr) || rowErr.Line != 4 {
		t.Errorf("Err() = %v, want a RowError at line 4", u.Err())
	}

	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	for _, want := range []string{`"code":"ROW002"`, `"line":4`, `"report":"CASESOLUTION"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("JSON %s lacks %s", data, want)
		}
	}
}

func TestEntryFailure_Is(t *testing.T) {
	cause := errors.New("zip: not a valid zip file")
	f := EntryFailure{Entry: "b.CSV", Err: cause}

	if !errors.Is(f, ErrEntryFailure) {
		t.Error("EntryFailure does not match ErrEntryFailure")
	}
	if !errors.Is(f, cause) {
		t.Error("EntryFailure does not match its cause")
	}
	if got, want := f.Error(), "entry b.CSV: zip: not a valid zip file"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
