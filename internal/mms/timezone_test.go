package mms

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizer_Parse(t *testing.T) {
	n := DefaultNormalizer()

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "AEDT afternoon",
			input: "2024/03/03 19:30:00",
			want:  time.Date(2024, 3, 3, 8, 30, 0, 0, time.UTC),
		},
		{
			name:  "quoted",
			input: `"2024/03/03 13:35:00"`,
			want:  time.Date(2024, 3, 3, 2, 35, 0, 0, time.UTC),
		},
		{
			name:  "AEST winter",
			input: "2024/07/01 00:00:00",
			want:  time.Date(2024, 6, 30, 14, 0, 0, 0, time.UTC),
		},
		{
			name:  "surrounding spaces",
			input: `  "2024/07/01 10:05:00" `,
			want:  time.Date(2024, 7, 1, 0, 5, 0, 0, time.UTC),
		},
		{
			name:  "just before DST starts",
			input: "2024/10/06 01:59:59",
			want:  time.Date(2024, 10, 5, 15, 59, 59, 0, time.UTC),
		},
		{
			name:  "just after DST starts",
			input: "2024/10/06 03:00:00",
			want:  time.Date(2024, 10, 5, 16, 0, 0, 0, time.UTC),
		},
		{
			name:  "just after DST ends",
			input: "2024/04/07 03:00:00",
			want:  time.Date(2024, 4, 6, 17, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Errorf("Parse(%q) location = %v, want UTC", tt.input, got.Location())
			}
		})
	}
}

func TestNormalizer_Errors(t *testing.T) {
	n := DefaultNormalizer()

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrMalformedTimestamp},
		{"iso format", "2024-03-03T19:30:00", ErrMalformedTimestamp},
		{"missing seconds", "2024/03/03 19:30", ErrMalformedTimestamp},
		{"bad month", "2024/13/03 19:30:00", ErrMalformedTimestamp},
		{"DST gap", "2024/10/06 02:30:00", ErrAmbiguousLocalTime},
		{"DST overlap", "2024/04/07 02:30:00", ErrAmbiguousLocalTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Parse(tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse(%q) error = %v, want %v", tt.input, err, tt.want)
			}
		})
	}
}

func TestNewNormalizer(t *testing.T) {
	n, err := NewNormalizer("UTC")
	if err != nil {
		t.Fatalf("NewNormalizer(UTC) error = %v", err)
	}
	got, err := n.Parse("2024/03/03 19:30:00")
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	if want := time.Date(2024, 3, 3, 19, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("Parse = %v, want %v", got, want)
	}

	if _, err := NewNormalizer("Nowhere/Special"); err == nil {
		t.Error("NewNormalizer(Nowhere/Special) expected error")
	}
	if _, err := NewNormalizer(""); err == nil {
		t.Error("NewNormalizer(\"\") expected error")
	}
}
