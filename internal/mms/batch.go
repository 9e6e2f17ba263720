package mms

import (
	"bytes"
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Entry is one named file of a batch, usually a member of a zip archive.
// Err is set when the container could not produce the bytes.
type Entry struct {
	Name string
	Data []byte
	Err  error
}

// Issue is a row-level problem attributed to an entry.
type Issue struct {
	Entry   string `json:"entry"`
	Line    int    `json:"line"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
	Err     error  `json:"-"`
}

// Collection is the folded result of one batch. It is complete when
// Aggregate returns and is not modified afterwards.
type Collection struct {
	RunID  uuid.UUID `json:"run_id"`
	Source string    `json:"source"`

	Records      []Record       `json:"-"`
	Unrecognized []Unrecognized `json:"unrecognized"`
	Issues       []Issue        `json:"issues"`
	Failures     []EntryFailure `json:"failures"`

	Entries  int           `json:"entries"`
	Bytes    int64         `json:"bytes"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration_ns"`
}

// AllFailed reports whether every entry failed, as opposed to entries that
// parsed but matched nothing.
func (c *Collection) AllFailed() bool {
	return c.Entries > 0 && len(c.Failures) == c.Entries
}

// CountByKind tallies records per variant.
func (c *Collection) CountByKind() map[RecordKind]int {
	counts := make(map[RecordKind]int)
	for _, r := range c.Records {
		counts[r.Kind()]++
	}
	return counts
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithWorkers bounds how many entries are parsed at once; n <= 0 uses GOMAXPROCS.
func WithWorkers(n int) AggregatorOption {
	return func(a *Aggregator) { a.workers = n }
}

// WithBatchLogger sets the logger used for per-entry progress.
func WithBatchLogger(l *slog.Logger) AggregatorOption {
	return func(a *Aggregator) { a.logger = l }
}

// Aggregator parses the entries of a batch and folds them into a Collection.
type Aggregator struct {
	parser  *Parser
	workers int
	logger  *slog.Logger
}

// NewAggregator returns an aggregator driving p.
func NewAggregator(p *Parser, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{parser: p}
	for _, opt := range opts {
		opt(a)
	}
	if a.workers <= 0 {
		a.workers = runtime.GOMAXPROCS(0)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Parser returns the parser entries are scanned with.
func (a *Aggregator) Parser() *Parser { return a.parser }

type entryResult struct {
	file *FileResult
	err  error
}

// Aggregate parses entries concurrently, one worker per entry, and merges the
// results in entry order. Entry failures are collected, never returned; once
// ctx is done the remaining entries fail with its error.
func (a *Aggregator) Aggregate(ctx context.Context, source string, entries []Entry) *Collection {
	col := &Collection{
		RunID:   uuid.New(),
		Source:  source,
		Entries: len(entries),
		Started: time.Now(),
	}
	logger := a.logger.With("run_id", col.RunID.String(), "source", source)

	results := make([]entryResult, len(entries))
	var g errgroup.Group
	g.SetLimit(a.workers)
	for i, e := range entries {
		col.Bytes += int64(len(e.Data))
		g.Go(func() error {
			results[i] = a.parseEntry(ctx, e)
			return nil
		})
	}
	_ = g.Wait()

	for i, r := range results {
		name := entries[i].Name
		if r.err != nil {
			col.Failures = append(col.Failures, EntryFailure{Entry: name, Err: r.err})
			logger.Warn("entry failed", "entry", name, "error", r.err)
			continue
		}
		col.Records = append(col.Records, r.file.Records...)
		col.Unrecognized = append(col.Unrecognized, r.file.Unrecognized...)
		for _, re := range r.file.Issues {
			col.Issues = append(col.Issues, newIssue(name, re))
		}
		logger.Debug("entry parsed",
			"entry", name,
			"records", len(r.file.Records),
			"issues", len(r.file.Issues),
			"lines", r.file.Lines,
		)
	}

	col.Duration = time.Since(col.Started)
	logger.Info("batch parsed",
		"entries", col.Entries,
		"records", len(col.Records),
		"issues", len(col.Issues),
		"failures", len(col.Failures),
		"bytes", col.Bytes,
		"duration_ms", col.Duration.Milliseconds(),
	)
	return col
}

func (a *Aggregator) parseEntry(ctx context.Context, e Entry) entryResult {
	if err := ctx.Err(); err != nil {
		return entryResult{err: err}
	}
	if e.Err != nil {
		return entryResult{err: e.Err}
	}
	res, err := a.parser.Parse(bytes.NewReader(e.Data))
	if err != nil {
		return entryResult{err: err}
	}
	return entryResult{file: res}
}

func newIssue(entry string, re *RowError) Issue {
	msg := Describe(re)
	return Issue{
		Entry:   entry,
		Line:    re.Line,
		Code:    msg.Code,
		Message: msg.Message,
		Detail:  re.Err.Error(),
		Err:     re,
	}
}
