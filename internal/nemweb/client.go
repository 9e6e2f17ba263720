// Package nemweb talks to the public NEMweb file server: directory listings,
// report archive downloads, and the naming rules of published archives.
package nemweb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// maxBodySize bounds any single download.
const maxBodySize = 256 << 20

// ErrNotZip marks a download whose Content-Type is not a zip archive.
var ErrNotZip = errors.New("response is not a zip archive")

// StatusError is a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// ClientConfig holds the connection settings for a Client.
type ClientConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// RequestGap is the minimum spacing between requests; zero disables pacing.
	RequestGap time.Duration
}

// Client fetches listings and archives from NEMweb.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// NewClient returns a client for cfg.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if cfg.RequestGap > 0 {
		limit = rate.Every(cfg.RequestGap)
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger,
	}
}

// FetchIndex downloads the HTML listing of a report directory.
func (c *Client) FetchIndex(ctx context.Context, dir string) ([]byte, error) {
	resp, err := c.get(ctx, dir)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return readBody(resp)
}

// FetchZip downloads one report archive. The response must declare a zip
// Content-Type.
func (c *Client) FetchZip(ctx context.Context, href string) ([]byte, error) {
	resp, err := c.get(ctx, href)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	ct := resp.Header.Get("Content-Type")
	if !isZipContentType(ct) {
		c.logger.Warn("unexpected content type", "href", href, "content_type", ct)
		return nil, fmt.Errorf("%w: %s has Content-Type %q", ErrNotZip, href, ct)
	}

	data, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("archive downloaded", "href", href, "bytes", len(data))
	return data, nil
}

// ListReports fetches a directory listing and returns the archives it links
// to. Links that do not follow the report naming scheme are skipped.
func (c *Client) ListReports(ctx context.Context, dir string) ([]ReportPath, error) {
	body, err := c.FetchIndex(ctx, dir)
	if err != nil {
		return nil, err
	}
	links, err := ExtractZipLinks(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("scan listing %s: %w", dir, err)
	}

	reports := make([]ReportPath, 0, len(links))
	for _, href := range links {
		rp, err := ParseReportPath(href)
		if err != nil {
			c.logger.Debug("skipping link", "href", href, "error", err)
			continue
		}
		reports = append(reports, rp)
	}
	return reports, nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	c.logger.Debug("nemweb request", "url", url, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxBodySize {
		return nil, fmt.Errorf("response larger than %d bytes", maxBodySize)
	}
	return data, nil
}

func isZipContentType(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mt == "application/zip" || mt == "application/x-zip-compressed"
}
