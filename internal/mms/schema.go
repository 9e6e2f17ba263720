package mms

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FieldType is the declared type of a data column.
type FieldType int

const (
	FieldString    FieldType = iota // kept verbatim
	FieldInt                        // optional; empty decodes to nil
	FieldFloat                      // optional; empty decodes to nil
	FieldTimestamp                  // required wall-clock time, normalized to UTC
)

func (t FieldType) String() string {
	switch t {
	case FieldString:
		return "string"
	case FieldInt:
		return "int"
	case FieldFloat:
		return "float"
	case FieldTimestamp:
		return "timestamp"
	default:
		return "FieldType(" + strconv.Itoa(int(t)) + ")"
	}
}

// FieldSpec declares one column of a dataset. Name must match the header
// column (case-insensitive).
type FieldSpec struct {
	Name string    `json:"name"`
	Type FieldType `json:"-"`
}

// BuildFunc turns the decoded values of one data row into a record.
// Errors recorded by the Values accessors are returned by the parser even when
// BuildFunc itself returns nil.
type BuildFunc func(v *Values) (Record, error)

// Schema is the decoding rule for one dataset key.
type Schema struct {
	Key         SchemaKey
	Kind        RecordKind
	Description string
	Fields      []FieldSpec
	Build       BuildFunc

	index map[string]int // upper-cased field name -> position in Fields
}

// FieldIndex returns the position of a declared column.
func (s *Schema) FieldIndex(name string) (int, bool) {
	i, ok := s.index[strings.ToUpper(name)]
	return i, ok
}

func (s *Schema) validate() error {
	switch {
	case s.Key.Category == "" || s.Key.Report == "" || s.Key.Version == "":
		return fmt.Errorf("schema %q: key has an empty component", s.Key)
	case s.Kind == "":
		return fmt.Errorf("schema %s: kind is required", s.Key)
	case s.Build == nil:
		return fmt.Errorf("schema %s: build function is required", s.Key)
	case len(s.Fields) == 0:
		return fmt.Errorf("schema %s: no fields declared", s.Key)
	}

	s.index = make(map[string]int, len(s.Fields))
	for i, f := range s.Fields {
		name := strings.ToUpper(f.Name)
		if name == "" {
			return fmt.Errorf("schema %s: field %d has no name", s.Key, i)
		}
		if _, dup := s.index[name]; dup {
			return fmt.Errorf("schema %s: duplicate field %s", s.Key, f.Name)
		}
		s.index[name] = i
	}
	return nil
}

// Values gives a BuildFunc typed access to one data row. The first decoding
// error is kept and later accessors return zero values, so a BuildFunc can
// fill a whole struct and check Err once.
type Values struct {
	schema *Schema
	raw    []string
	cols   []int // schema field position -> position in raw
	tz     *Normalizer
	err    error
}

// Err returns the first decoding error, if any.
func (v *Values) Err() error { return v.err }

// Raw returns the undecoded text of a column.
func (v *Values) Raw(name string) string {
	s, _ := v.cell(name, -1)
	return s
}

// String returns a string column verbatim.
func (v *Values) String(name string) string {
	s, _ := v.cell(name, FieldString)
	return s
}

// Int returns an optional integer column; empty text decodes to nil.
func (v *Values) Int(name string) *int64 {
	s, ok := v.cell(name, FieldInt)
	if !ok || strings.TrimSpace(s) == "" {
		return nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		v.fail(name, s, fmt.Errorf("%w: not an integer", ErrFieldType))
		return nil
	}
	return &n
}

// Float returns an optional float column; empty text decodes to nil.
func (v *Values) Float(name string) *float64 {
	s, ok := v.cell(name, FieldFloat)
	if !ok || strings.TrimSpace(s) == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		v.fail(name, s, fmt.Errorf("%w: not a number", ErrFieldType))
		return nil
	}
	return &f
}

// Time returns a timestamp column converted to UTC.
func (v *Values) Time(name string) time.Time {
	s, ok := v.cell(name, FieldTimestamp)
	if !ok {
		return time.Time{}
	}
	t, err := v.tz.Parse(s)
	if err != nil {
		v.fail(name, s, err)
		return time.Time{}
	}
	return t
}

// cell looks up a column and checks it is declared with the requested type.
// want < 0 skips the type check.
func (v *Values) cell(name string, want FieldType) (string, bool) {
	if v.err != nil {
		return "", false
	}
	i, ok := v.schema.FieldIndex(name)
	if !ok {
		v.fail(name, "", fmt.Errorf("%w: column not declared by %s", ErrFieldType, v.schema.Key))
		return "", false
	}
	if want >= 0 && v.schema.Fields[i].Type != want {
		v.fail(name, "", fmt.Errorf("%w: declared %s, read as %s", ErrFieldType, v.schema.Fields[i].Type, want))
		return "", false
	}
	return v.raw[v.cols[i]], true
}

func (v *Values) fail(field, value string, err error) {
	if v.err == nil {
		v.err = &FieldError{Field: field, Value: value, Err: err}
	}
}
