// Package ingest ties the NEMweb client, archive reader, parser and ledger
// together: parse an uploaded archive, fetch and parse one report, or sweep a
// report directory for archives not yet processed.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/JonMunkholm/nemweb/internal/archive"
	"github.com/JonMunkholm/nemweb/internal/ledger"
	"github.com/JonMunkholm/nemweb/internal/metrics"
	"github.com/JonMunkholm/nemweb/internal/mms"
	"github.com/JonMunkholm/nemweb/internal/nemweb"
)

// ErrAlreadyProcessed is returned by IngestReport for an archive the ledger
// already holds.
var ErrAlreadyProcessed = errors.New("archive already processed")

// Source lists and downloads report archives. *nemweb.Client satisfies it.
type Source interface {
	ListReports(ctx context.Context, dir string) ([]nemweb.ReportPath, error)
	FetchZip(ctx context.Context, href string) ([]byte, error)
}

// Option configures a Service.
type Option func(*Service)

// WithLimiter bounds concurrent archive parses.
func WithLimiter(l *Limiter) Option {
	return func(s *Service) { s.limiter = l }
}

// WithMetrics records parse outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// OnCollection registers a callback run for every successfully fetched
// report, after it is marked in the ledger.
func OnCollection(fn func(context.Context, nemweb.ReportPath, *mms.Collection) error) Option {
	return func(s *Service) { s.sink = fn }
}

// Service runs ingest operations.
type Service struct {
	source  Source
	agg     *mms.Aggregator
	ledger  ledger.Ledger
	limiter *Limiter
	metrics *metrics.Metrics
	logger  *slog.Logger
	sink    func(context.Context, nemweb.ReportPath, *mms.Collection) error
}

// NewService returns a service. source may be nil when only ParseArchive is used.
func NewService(source Source, agg *mms.Aggregator, l ledger.Ledger, opts ...Option) *Service {
	s := &Service{source: source, agg: agg, ledger: l}
	for _, opt := range opts {
		opt(s)
	}
	if s.limiter == nil {
		s.limiter = NewLimiter(DefaultMaxConcurrent, DefaultMaxWait)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.ledger == nil {
		s.ledger = ledger.NewMemory()
	}
	return s
}

// Limiter returns the parse limiter, for status and shutdown draining.
func (s *Service) Limiter() *Limiter { return s.limiter }

// Ledger returns the processed-archive ledger.
func (s *Service) Ledger() ledger.Ledger { return s.ledger }

// Registry returns the schemas the parser dispatches to.
func (s *Service) Registry() *mms.Registry { return s.agg.Parser().Registry() }

// ParseArchive parses an in-memory zip archive. It fails only when no slot
// is free or the bytes are not a zip; entry problems land in the Collection.
func (s *Service) ParseArchive(ctx context.Context, name string, data []byte) (*mms.Collection, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()
	defer s.metrics.TrackInFlight()()

	entries, err := archive.ReadEntries(data)
	if err != nil {
		s.metrics.ObserveResult(metrics.ResultFailed)
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	col := s.agg.Aggregate(ctx, name, entries)
	s.metrics.Observe(col)
	return col, nil
}

// IngestReport fetches, parses and records one archive by its server path.
// Archives where every entry failed are not marked, so a later sweep retries
// them.
func (s *Service) IngestReport(ctx context.Context, href string) (*mms.Collection, error) {
	if s.source == nil {
		return nil, errors.New("ingest: no report source configured")
	}
	rp, err := nemweb.ParseReportPath(href)
	if err != nil {
		return nil, err
	}

	seen, err := s.ledger.Seen(ctx, rp.UniqueKey)
	if err != nil {
		return nil, err
	}
	if seen {
		s.metrics.ObserveResult(metrics.ResultSkipped)
		return nil, fmt.Errorf("%w: %s", ErrAlreadyProcessed, rp.FileName)
	}

	data, err := s.source.FetchZip(ctx, rp.Href())
	if err != nil {
		s.metrics.ObserveResult(metrics.ResultFailed)
		return nil, fmt.Errorf("fetch %s: %w", rp.FileName, err)
	}

	col, err := s.ParseArchive(ctx, rp.FileName, data)
	if err != nil {
		return nil, err
	}
	if col.AllFailed() {
		return col, nil
	}

	err = s.ledger.Mark(ctx, ledger.Entry{
		Key:        rp.UniqueKey,
		Href:       rp.Href(),
		ReportTime: rp.Timestamp,
		Records:    len(col.Records),
		Issues:     len(col.Issues),
		Failures:   len(col.Failures),
		Bytes:      col.Bytes,
		RunID:      col.RunID,
	})
	if err != nil {
		return col, err
	}

	if s.sink != nil {
		if err := s.sink(ctx, rp, col); err != nil {
			return col, fmt.Errorf("deliver %s: %w", rp.FileName, err)
		}
	}
	return col, nil
}

// Summary reports one directory sweep.
type Summary struct {
	Dir      string        `json:"dir"`
	Listed   int           `json:"listed"`
	Skipped  int           `json:"skipped"`
	Ingested int           `json:"ingested"`
	Failed   int           `json:"failed"`
	Records  int           `json:"records"`
	Gaps     []time.Time   `json:"gaps,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// IngestDirectory lists a report directory and ingests, oldest first, every
// archive the ledger has not seen. Per-archive failures are counted and
// logged; only listing errors and cancellation stop the sweep.
func (s *Service) IngestDirectory(ctx context.Context, dir string) (Summary, error) {
	start := time.Now()
	sum := Summary{Dir: dir}
	if s.source == nil {
		return sum, errors.New("ingest: no report source configured")
	}

	reports, err := s.source.ListReports(ctx, dir)
	if err != nil {
		return sum, fmt.Errorf("list %s: %w", dir, err)
	}
	slices.SortFunc(reports, func(a, b nemweb.ReportPath) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	sum.Listed = len(reports)
	sum.Gaps = nemweb.Gaps(reports, Cadence(dir))

	for _, rp := range reports {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		col, err := s.IngestReport(ctx, rp.Href())
		switch {
		case errors.Is(err, ErrAlreadyProcessed):
			sum.Skipped++
			continue
		case err != nil:
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			sum.Failed++
			s.logger.Warn("report ingest failed", "href", rp.Href(), "error", err)
			continue
		case col.AllFailed():
			sum.Failed++
			continue
		}
		sum.Ingested++
		sum.Records += len(col.Records)
	}

	sum.Duration = time.Since(start)
	for _, gap := range sum.Gaps {
		s.logger.Debug("report missing from listing", "dir", dir, "interval", nemweb.FormatInterval(gap))
	}
	return sum, nil
}

// Cadence returns the publishing interval of a report directory.
func Cadence(dir string) time.Duration {
	if strings.Contains(strings.ToUpper(dir), "ROOFTOP") {
		return nemweb.ThirtyMinutes
	}
	return nemweb.FiveMinutes
}
