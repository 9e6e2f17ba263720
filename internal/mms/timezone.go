package mms

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	_ "time/tzdata" // Australia/Sydney must resolve on hosts without zoneinfo
)

const (
	// TimestampLayout is the wall-clock format of every MMS timestamp column.
	TimestampLayout = "2006/01/02 15:04:05"

	// DefaultTimezone is the civil zone NEM market data is published in.
	DefaultTimezone = "Australia/Sydney"
)

// Normalizer converts MMS wall-clock timestamps in one zone to UTC.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer loads the named IANA zone.
func NewNormalizer(zone string) (*Normalizer, error) {
	if zone == "" {
		return nil, fmt.Errorf("timezone name is empty")
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", zone, err)
	}
	return &Normalizer{loc: loc}, nil
}

var defaultNormalizer = sync.OnceValue(func() *Normalizer {
	n, err := NewNormalizer(DefaultTimezone)
	if err != nil {
		panic(err)
	}
	return n
})

// DefaultNormalizer returns the shared Australia/Sydney normalizer.
func DefaultNormalizer() *Normalizer { return defaultNormalizer() }

// Location returns the zone timestamps are interpreted in.
func (n *Normalizer) Location() *time.Location { return n.loc }

// Parse reads s as "YYYY/MM/DD HH:MM:SS", optionally wrapped in double quotes,
// and returns the UTC instant it denotes. Wall times skipped by a DST change
// or repeated by one return ErrAmbiguousLocalTime.
func (n *Normalizer) Parse(s string) (time.Time, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(raw, `"`), `"`))

	wall, err := time.Parse(TimestampLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not %s", ErrMalformedTimestamp, s, TimestampLayout)
	}
	return n.resolve(wall)
}

// resolve maps a wall clock (carried in a UTC time) to the unique instant in
// n.loc showing that wall clock. Offsets are sampled a day either side so a
// transition near the wall time contributes both of its offsets.
func (n *Normalizer) resolve(wall time.Time) (time.Time, error) {
	var found []time.Time
	for _, shift := range [...]time.Duration{-24 * time.Hour, 0, 24 * time.Hour} {
		_, offset := wall.Add(shift).In(n.loc).Zone()
		candidate := wall.Add(-time.Duration(offset) * time.Second)
		if !sameWallClock(candidate.In(n.loc), wall) {
			continue
		}
		if !slices.ContainsFunc(found, candidate.Equal) {
			found = append(found, candidate)
		}
	}

	switch len(found) {
	case 1:
		return found[0].UTC(), nil
	case 0:
		return time.Time{}, fmt.Errorf("%w: %s does not exist in %s",
			ErrAmbiguousLocalTime, wall.Format(TimestampLayout), n.loc)
	default:
		return time.Time{}, fmt.Errorf("%w: %s occurs %d times in %s",
			ErrAmbiguousLocalTime, wall.Format(TimestampLayout), len(found), n.loc)
	}
}

func sameWallClock(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ah, amin, as := a.Clock()
	bh, bmin, bs := b.Clock()
	return ay == by && am == bm && ad == bd && ah == bh && amin == bmin && as == bs
}
