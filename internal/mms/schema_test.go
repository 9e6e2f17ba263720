package mms

import (
	"errors"
	"testing"
)

func valuesFor(t *testing.T, s Schema, raw ...string) *Values {
	t.Helper()
	if err := s.validate(); err != nil {
		t.Fatalf("validate error = %v", err)
	}
	cols := make([]int, len(s.Fields))
	for i := range cols {
		cols[i] = i
	}
	return &Values{schema: &s, raw: raw, cols: cols, tz: DefaultNormalizer()}
}

func typedSchema() Schema {
	return Schema{
		Key:  SchemaKey{"TEST", "TYPES", "1"},
		Kind: KindPrice,
		Fields: []FieldSpec{
			{Name: "S", Type: FieldString},
			{Name: "I", Type: FieldInt},
			{Name: "F", Type: FieldFloat},
			{Name: "T", Type: FieldTimestamp},
		},
		Build: func(*Values) (Record, error) { return &Price{}, nil },
	}
}

func TestValues_Decode(t *testing.T) {
	v := valuesFor(t, typedSchema(), " keep ", " 42 ", "-1.5e2", "2024/03/03 19:30:00")

	if got := v.String("S"); got != " keep " {
		t.Errorf("String(S) = %q, want verbatim", got)
	}
	if got := v.Int("I"); got == nil || *got != 42 {
		t.Errorf("Int(I) = %v, want 42", got)
	}
	if got := v.Float("f"); got == nil || *got != -150 {
		t.Errorf("Float(f) = %v, want -150", got)
	}
	if got := v.Time("T"); got.Hour() != 8 || got.Minute() != 30 {
		t.Errorf("Time(T) = %v, want 08:30 UTC", got)
	}
	if v.Err() != nil {
		t.Errorf("Err() = %v, want nil", v.Err())
	}
}

func TestValues_EmptyOptionals(t *testing.T) {
	v := valuesFor(t, typedSchema(), "", "", "  ", "2024/03/03 19:30:00")

	if got := v.Int("I"); got != nil {
		t.Errorf("Int(empty) = %v, want nil", *got)
	}
	if got := v.Float("F"); got != nil {
		t.Errorf("Float(blank) = %v, want nil", *got)
	}
	if v.Err() != nil {
		t.Errorf("Err() = %v, want nil", v.Err())
	}
}

func TestValues_Errors(t *testing.T) {
	tests := []struct {
		name  string
		raw   []string
		read  func(*Values)
		field string
		want  error
	}{
		{"bad int", []string{"", "4.5", "", ""}, func(v *Values) { v.Int("I") }, "I", ErrFieldType},
		{"bad float", []string{"", "", "abc", ""}, func(v *Values) { v.Float("F") }, "F", ErrFieldType},
		{"empty timestamp", []string{"", "", "", ""}, func(v *Values) { v.Time("T") }, "T", ErrMalformedTimestamp},
		{"undeclared column", []string{"", "", "", ""}, func(v *Values) { v.String("NOPE") }, "NOPE", ErrFieldType},
		{"wrong accessor", []string{"", "1", "", ""}, func(v *Values) { v.Float("I") }, "I", ErrFieldType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := valuesFor(t, typedSchema(), tt.raw...)
			tt.read(v)

			var fe *FieldError
			if !errors.As(v.Err(), &fe) {
				t.Fatalf("Err() = %v, want *FieldError", v.Err())
			}
			if fe.Field != tt.field {
				t.Errorf("Field = %q, want %q", fe.Field, tt.field)
			}
			if !errors.Is(v.Err(), tt.want) {
				t.Errorf("Err() = %v, want %v", v.Err(), tt.want)
			}
		})
	}
}

func TestValues_FirstErrorSticks(t *testing.T) {
	v := valuesFor(t, typedSchema(), "x", "bad", "also bad", "")

	v.Int("I")
	v.Float("F")
	if got := v.String("S"); got != "" {
		t.Errorf("String after error = %q, want zero value", got)
	}

	var fe *FieldError
	if !errors.As(v.Err(), &fe) || fe.Field != "I" {
		t.Errorf("Err() = %v, want first error on field I", v.Err())
	}
}
