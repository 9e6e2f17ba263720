package mms

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// RowKind is the role of a row, taken from its first field.
type RowKind uint8

const (
	RowIgnore RowKind = iota
	RowControl
	RowHeader
	RowData
)

func (k RowKind) String() string {
	switch k {
	case RowControl:
		return "control"
	case RowHeader:
		return "header"
	case RowData:
		return "data"
	default:
		return "ignore"
	}
}

// Row is one classified line. Line is 1-based and set by the scanner.
type Row struct {
	Line   int
	Kind   RowKind
	Fields []string
}

// ClassifyLine splits one line into fields, honoring double-quoted fields
// with "" escapes, and classifies it by field 0. A trailing \r is dropped.
// Blank lines classify as RowIgnore.
func ClassifyLine(line string) (Row, error) {
	line = strings.TrimSuffix(line, "\r")
	if strings.TrimSpace(line) == "" {
		return Row{Kind: RowIgnore}, nil
	}

	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	fields, err := r.Read()
	if err != nil {
		return Row{}, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}

	return Row{Kind: kindOf(fields[0]), Fields: fields}, nil
}

func kindOf(marker string) RowKind {
	switch marker {
	case "C":
		return RowControl
	case "I":
		return RowHeader
	case "D":
		return RowData
	default:
		return RowIgnore
	}
}

const endOfReport = "END OF REPORT"

// isEndOfReport reports whether a control row terminates the file.
func isEndOfReport(row Row) bool {
	return row.Kind == RowControl && len(row.Fields) > 1 &&
		strings.EqualFold(strings.TrimSpace(row.Fields[1]), endOfReport)
}
