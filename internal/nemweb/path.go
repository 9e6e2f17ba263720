package nemweb

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"
)

// reportStampLayout is the YYYYMMDDHHMM stamp in archive file names.
const reportStampLayout = "200601021504"

var (
	ErrBadReportPath = errors.New("bad report path")
	ErrBadUniqueKey  = errors.New("report unique key is not a number")
)

// ReportPath is a parsed archive link such as
// /Reports/Current/TradingIS_Reports/PUBLIC_TRADINGIS_202403120535_0000000413460134.zip
type ReportPath struct {
	Dir       string    `json:"dir"`
	FileName  string    `json:"file_name"`
	Timestamp time.Time `json:"timestamp"` // market time, labelled UTC
	UniqueKey string    `json:"unique_key"`
}

// Href returns the server path of the archive.
func (p ReportPath) Href() string { return p.Dir + p.FileName }

// ParseReportPath splits an archive link into its directory, file name,
// interval stamp and unique key.
func ParseReportPath(href string) (ReportPath, error) {
	if href == "" {
		return ReportPath{}, fmt.Errorf("%w: empty", ErrBadReportPath)
	}

	file := path.Base(href)
	if !strings.HasSuffix(strings.ToLower(file), ".zip") {
		return ReportPath{}, fmt.Errorf("%w: %q does not name a .zip file", ErrBadReportPath, href)
	}
	dir := strings.TrimSuffix(href, file)
	if !strings.HasPrefix(dir, "/") {
		return ReportPath{}, fmt.Errorf("%w: %q does not start with /", ErrBadReportPath, href)
	}

	stem := file[:len(file)-len(".zip")]
	i := strings.LastIndexByte(stem, '_')
	if i < 0 {
		return ReportPath{}, fmt.Errorf("%w: %q has no unique key", ErrBadReportPath, file)
	}
	key := stem[i+1:]
	stem = stem[:i]

	j := strings.LastIndexByte(stem, '_')
	if j < 0 {
		return ReportPath{}, fmt.Errorf("%w: %q has no timestamp", ErrBadReportPath, file)
	}
	ts, err := time.Parse(reportStampLayout, stem[j+1:])
	if err != nil {
		return ReportPath{}, fmt.Errorf("%w: %q timestamp: %v", ErrBadReportPath, file, err)
	}

	if _, err := strconv.ParseUint(key, 10, 64); err != nil {
		return ReportPath{}, fmt.Errorf("%w: %q", ErrBadUniqueKey, key)
	}

	return ReportPath{Dir: dir, FileName: file, Timestamp: ts, UniqueKey: key}, nil
}
