package mms

import (
	"fmt"
	"strings"
)

// keyWidth is the number of leading fields (marker included) that identify
// a dataset on header and data rows.
const keyWidth = 4

// SchemaKey identifies a dataset: e.g. {TRADING, PRICE, 3}.
type SchemaKey struct {
	Category string `json:"category"`
	Report   string `json:"report"`
	Version  string `json:"version"`
}

func (k SchemaKey) String() string {
	return k.Category + "," + k.Report + "," + k.Version
}

// KeyFromFields extracts the key from fields 1..3 of a header or data row.
// Values are taken verbatim; matching is exact and case-sensitive.
func KeyFromFields(fields []string) (SchemaKey, error) {
	if len(fields) < keyWidth {
		return SchemaKey{}, fmt.Errorf("%w: %d fields, need at least %d for a dataset key",
			ErrMalformedRow, len(fields), keyWidth)
	}
	return SchemaKey{Category: fields[1], Report: fields[2], Version: fields[3]}, nil
}

// ParseSchemaKey parses the "CATEGORY,REPORT,VERSION" form produced by String.
func ParseSchemaKey(s string) (SchemaKey, error) {
	parts := strings.Split(s, ",")
	if len(parts) != keyWidth-1 {
		return SchemaKey{}, fmt.Errorf("schema key %q: want CATEGORY,REPORT,VERSION", s)
	}
	for _, p := range parts {
		if p == "" {
			return SchemaKey{}, fmt.Errorf("schema key %q: empty component", s)
		}
	}
	return SchemaKey{Category: parts[0], Report: parts[1], Version: parts[2]}, nil
}
