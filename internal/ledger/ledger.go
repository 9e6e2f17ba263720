// Package ledger records which NEMweb archives have been ingested so repeat
// sweeps of a directory only fetch new reports.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is one processed archive.
type Entry struct {
	Key         string    `json:"key"` // report unique key
	Href        string    `json:"href"`
	ReportTime  time.Time `json:"report_time"`
	Records     int       `json:"records"`
	Issues      int       `json:"issues"`
	Failures    int       `json:"failures"`
	Bytes       int64     `json:"bytes"`
	RunID       uuid.UUID `json:"run_id"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Ledger is the processed-archive store. Marking a key twice replaces the
// earlier entry.
type Ledger interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}
