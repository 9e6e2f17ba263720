package mms

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"slices"
	"strings"
)

// maxLineSize bounds a single MMS line; real rows are well under 4KB.
// Longer lines are skipped as malformed rows.
const maxLineSize = 1 << 20

var errLineTooLong = errors.New("line too long")

// Section is one header block of a file and the records decoded under it.
type Section struct {
	Key     SchemaKey  `json:"key"`
	Kind    RecordKind `json:"kind"`
	Line    int        `json:"line"`
	Records []Record   `json:"-"`
	Issues  int        `json:"issues"`
}

// FileResult is the output of scanning one file.
type FileResult struct {
	// Records holds every decoded record in file order.
	Records []Record

	// Sections groups Records by the header they were decoded under. Each
	// Section.Records aliases a window of Records.
	Sections []Section

	Unrecognized []Unrecognized
	Issues       []*RowError

	Lines      int
	Bytes      int64
	Terminated bool // an END OF REPORT control row was reached
}

// Option configures a Parser.
type Option func(*Parser)

// WithStrict makes the first row error abort the file.
func WithStrict(strict bool) Option {
	return func(p *Parser) { p.strict = strict }
}

// WithNormalizer sets the timestamp zone; the default is Australia/Sydney.
func WithNormalizer(n *Normalizer) Option {
	return func(p *Parser) { p.tz = n }
}

// WithLogger sets the logger used for per-row diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// Parser scans MMS files against a registry. It holds no per-file state and
// is safe for concurrent use.
type Parser struct {
	registry *Registry
	tz       *Normalizer
	strict   bool
	logger   *slog.Logger
}

// NewParser returns a parser for the schemas in reg.
func NewParser(reg *Registry, opts ...Option) *Parser {
	p := &Parser{registry: reg}
	for _, opt := range opts {
		opt(p)
	}
	if p.tz == nil {
		p.tz = DefaultNormalizer()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Registry returns the schemas the parser dispatches to.
func (p *Parser) Registry() *Registry { return p.registry }

// Strict reports whether row errors abort a file.
func (p *Parser) Strict() bool { return p.strict }

// Parse scans r line by line. A leading BOM is skipped and invalid UTF-8
// fails the whole file with ErrInvalidText. In strict mode the first row
// error is returned as a *RowError.
func (p *Parser) Parse(r io.Reader) (*FileResult, error) {
	counter := &countingReader{r: NewTextReader(r)}
	lines := newLineReader(counter, maxLineSize)

	s := p.newScan()
	for {
		line, err := lines.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, errLineTooLong) {
			if err := s.skipLong(); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read lines: %w", err)
		}

		done, err := s.step(line)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}

	res := s.finish()
	res.Bytes = counter.n
	return res, nil
}

// ParseLines scans already-decoded lines.
func (p *Parser) ParseLines(lines iter.Seq[string]) (*FileResult, error) {
	s := p.newScan()
	for line := range lines {
		done, err := s.step(line)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}
	return s.finish(), nil
}

// binding is a schema matched to the column order of one header row.
type binding struct {
	schema *Schema
	cols   []int
	need   int // minimum number of values a data row must carry
}

// bind maps the schema's fields onto header columns. A header that carries
// only its key binds positionally.
func bind(schema *Schema, columns []string) (*binding, error) {
	b := &binding{schema: schema, cols: make([]int, len(schema.Fields))}

	if len(columns) == 0 {
		for i := range b.cols {
			b.cols[i] = i
		}
		b.need = len(b.cols)
		return b, nil
	}

	pos := make(map[string]int, len(columns))
	for i, c := range columns {
		name := strings.ToUpper(strings.TrimSpace(c))
		if _, dup := pos[name]; !dup {
			pos[name] = i
		}
	}

	var missing []string
	for i, f := range schema.Fields {
		at, ok := pos[strings.ToUpper(f.Name)]
		if !ok {
			missing = append(missing, f.Name)
			continue
		}
		b.cols[i] = at
		b.need = max(b.need, at+1)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: header for %s lacks %s",
			ErrSchemaMismatch, schema.Key, strings.Join(missing, ", "))
	}
	return b, nil
}

func (b *binding) decode(values []string, tz *Normalizer) (Record, error) {
	if len(values) < b.need {
		return nil, fmt.Errorf("%w: %d values, %s needs %d",
			ErrMalformedRow, len(values), b.schema.Key, b.need)
	}

	v := &Values{schema: b.schema, raw: values, cols: b.cols, tz: tz}
	rec, err := b.schema.Build(v)
	if err == nil {
		err = v.Err()
	}
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("schema %s built no record", b.schema.Key)
	}
	return rec, nil
}

// scanState is the state machine for one file.
type scanState struct {
	p    *Parser
	line int

	// active is the schema in effect; nil with skipping=false means no
	// header has been seen, nil with skipping=true means the current block
	// is unknown or unusable and its data rows are dropped.
	active   *binding
	skipping bool

	section int // index of the open Section, -1 when none
	start   int // index in res.Records where the open section began

	res *FileResult
}

func (p *Parser) newScan() *scanState {
	return &scanState{p: p, section: -1, res: &FileResult{}}
}

// step consumes one line. done reports that scanning must stop.
func (s *scanState) step(text string) (done bool, err error) {
	s.line++
	s.res.Lines = s.line

	row, err := ClassifyLine(text)
	if err != nil {
		return false, s.fail(err)
	}
	row.Line = s.line

	switch row.Kind {
	case RowHeader:
		return false, s.header(row)
	case RowData:
		return false, s.data(row)
	case RowControl:
		if isEndOfReport(row) {
			s.res.Terminated = true
			return true, nil
		}
	}
	return false, nil
}

func (s *scanState) header(row Row) error {
	s.closeSection()
	s.active, s.skipping = nil, true

	key, err := KeyFromFields(row.Fields)
	if err != nil {
		return s.fail(err)
	}

	schema, ok := s.p.registry.Lookup(key)
	if !ok {
		s.res.Unrecognized = append(s.res.Unrecognized, Unrecognized{
			Key:    key,
			Fields: slices.Clone(row.Fields),
			Line:   row.Line,
		})
		s.p.logger.Debug("skipping unrecognized section", "key", key.String(), "line", row.Line)
		return nil
	}

	b, err := bind(schema, row.Fields[keyWidth:])
	if err != nil {
		return s.fail(err)
	}

	s.active, s.skipping = b, false
	s.start = len(s.res.Records)
	s.res.Sections = append(s.res.Sections, Section{Key: key, Kind: schema.Kind, Line: row.Line})
	s.section = len(s.res.Sections) - 1
	return nil
}

func (s *scanState) data(row Row) error {
	if s.skipping {
		return nil
	}
	if s.active == nil {
		return s.fail(ErrNoActiveSchema)
	}

	key, err := KeyFromFields(row.Fields)
	if err != nil {
		return s.fail(err)
	}
	if want := s.active.schema.Key; key != want {
		return s.fail(fmt.Errorf("%w: row tagged %s under header %s", ErrSchemaMismatch, key, want))
	}

	rec, err := s.active.decode(row.Fields[keyWidth:], s.p.tz)
	if err != nil {
		return s.fail(err)
	}
	s.res.Records = append(s.res.Records, rec)
	return nil
}

// skipLong counts a line that exceeded maxLineSize as a malformed row.
func (s *scanState) skipLong() error {
	s.line++
	s.res.Lines = s.line
	return s.fail(fmt.Errorf("%w: longer than %d bytes", ErrMalformedRow, maxLineSize))
}

// fail records a row error, or returns it in strict mode.
func (s *scanState) fail(err error) error {
	rowErr := &RowError{Line: s.line, Err: err}
	if s.p.strict {
		return rowErr
	}
	s.res.Issues = append(s.res.Issues, rowErr)
	if s.section >= 0 {
		s.res.Sections[s.section].Issues++
	}
	s.p.logger.Debug("row skipped", "line", s.line, "error", err)
	return nil
}

func (s *scanState) closeSection() {
	if s.section < 0 {
		return
	}
	end := len(s.res.Records)
	s.res.Sections[s.section].Records = s.res.Records[s.start:end:end]
	s.section = -1
}

func (s *scanState) finish() *FileResult {
	s.closeSection()
	return s.res
}

// lineReader splits text into lines with the terminator and a trailing \r
// removed. A line longer than max is discarded up to its newline and reported
// as errLineTooLong, so scanning resumes on the following line.
type lineReader struct {
	br  *bufio.Reader
	max int
	buf []byte
}

func newLineReader(r io.Reader, max int) *lineReader {
	return &lineReader{br: bufio.NewReaderSize(r, 64*1024), max: max}
}

func (l *lineReader) next() (string, error) {
	l.buf = l.buf[:0]
	tooLong := false
	for {
		chunk, err := l.br.ReadSlice('\n')
		if !tooLong {
			l.buf = append(l.buf, chunk...)
			if len(l.buf) > l.max+2 {
				tooLong = true
				l.buf = l.buf[:0]
			}
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if !tooLong && len(l.buf) == 0 {
				return "", io.EOF
			}
		case err != nil:
			return "", err
		}

		line := bytes.TrimSuffix(bytes.TrimSuffix(l.buf, []byte("\n")), []byte("\r"))
		if tooLong || len(line) > l.max {
			return "", errLineTooLong
		}
		return string(line), nil
	}
}
