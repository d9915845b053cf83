// Package mhr fetches and parses team pages from the external MHR ranking
// site.
//
// Extraction is two-tiered: the static HTML is fetched and flattened to plain
// text first, and a headless-browser render is attempted only when the cheap
// path yields no rank signal. The field parsers are pure functions over the
// normalized text.
package mhr

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"

	"github.com/chesterfieldhockey/scoutdata/internal/logger"
)

const (
	// DefaultTimeout bounds one HTTP fetch.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies the pipeline to the ranking site.
	DefaultUserAgent = "scoutdata/1.0 (github.com/chesterfieldhockey/scoutdata)"

	maxFetchRetries = 2
)

// Extractor fetches MHR team pages and produces normalized text.
type Extractor struct {
	client    *http.Client
	userAgent string
	renderer  Renderer
	dumpDir   string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRenderer installs the headless fallback used when static HTML carries
// no rank signal.
func WithRenderer(r Renderer) Option {
	return func(e *Extractor) { e.renderer = r }
}

// WithDumpDir enables persisting raw fetched HTML and its normalized text
// under dir for offline inspection.
func WithDumpDir(dir string) Option {
	return func(e *Extractor) { e.dumpDir = dir }
}

// WithTimeout overrides the per-fetch HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) { e.client.Timeout = d }
}

// WithUserAgent overrides the outbound User-Agent header.
func WithUserAgent(ua string) Option {
	return func(e *Extractor) { e.userAgent = ua }
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		client:    &http.Client{Timeout: DefaultTimeout},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PageText holds the extraction result for one page.
type PageText struct {
	// Primary is the normalized text of the static HTML.
	Primary string

	// Rendered is the normalized text of the headless render, empty unless
	// the fallback ran and succeeded.
	Rendered string
}

// RankText returns the text the rank parsers should prefer: the rendered body
// when the fallback ran, otherwise the static text.
func (p *PageText) RankText() string {
	if p.Rendered != "" {
		return p.Rendered
	}
	return p.Primary
}

// ExtractPage fetches url and returns its normalized text. When the static
// text yields no rank signal (given the caller's region hints) and a renderer
// is configured, the page is additionally rendered headlessly; a renderer
// failure falls back silently to the static text.
func (e *Extractor) ExtractPage(ctx context.Context, url string, hints []string) (*PageText, error) {
	html, err := e.fetchHTML(ctx, url)
	if err != nil {
		return nil, err
	}

	primary, err := NormalizeHTML(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	page := &PageText{Primary: primary}
	if e.renderer == nil || hasRankSignal(primary, hints) {
		e.dumpText(url, page)
		return page, nil
	}

	rendered, err := e.renderer.RenderText(ctx, url)
	if err != nil {
		logger.Debug("Headless render failed, using static text", logger.Fields{
			"url": url,
		})
		e.dumpText(url, page)
		return page, nil
	}
	page.Rendered = rendered
	e.dumpText(url, page)
	return page, nil
}

// fetchHTML retrieves the raw page body, retrying transient failures with
// exponential backoff. Client errors (4xx) are permanent.
func (e *Extractor) fetchHTML(ctx context.Context, url string) (string, error) {
	var body string

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("User-Agent", e.userAgent)

		resp, err := e.client.Do(req)
		if err != nil {
			return fmt.Errorf("fetching page: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading body: %w", err)
		}
		body = string(data)
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxFetchRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return "", err
	}

	if e.dumpDir != "" {
		e.dumpHTML(url, body)
	}
	return body, nil
}

// dumpHTML persists a raw page body for offline inspection. Failures only log.
func (e *Extractor) dumpHTML(url, body string) {
	if err := os.MkdirAll(e.dumpDir, 0755); err != nil {
		logger.Warn("Creating dump directory failed", logger.Fields{"dir": e.dumpDir})
		return
	}
	name := sanitizeFilename(url) + ".html"
	path := filepath.Join(e.dumpDir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		logger.Warn("Dumping HTML failed", logger.Fields{"path": path})
	}
}

// dumpText persists the normalized text next to the dumped HTML.
func (e *Extractor) dumpText(url string, page *PageText) {
	if e.dumpDir == "" {
		return
	}
	text := page.Primary
	if page.Rendered != "" {
		text += "\n\n--- rendered ---\n\n" + page.Rendered
	}
	path := filepath.Join(e.dumpDir, sanitizeFilename(url)+".txt")
	if err := os.WriteFile(path, []byte(text+"\n"), 0644); err != nil {
		logger.Warn("Dumping text failed", logger.Fields{"path": path})
	}
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func sanitizeFilename(url string) string {
	s := strings.TrimPrefix(url, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = unsafeFilenameChars.ReplaceAllString(s, "_")
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}

// NormalizeHTML strips script, style and noscript blocks plus all remaining
// markup, and collapses whitespace (including non-breaking spaces) to single
// spaces.
func NormalizeHTML(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript").Remove()

	text := doc.Text()
	return normalizeWhitespace(text), nil
}

var whitespaceRun = regexp.MustCompile(`[\s\x{00a0}]+`)

// normalizeWhitespace collapses all whitespace runs to single spaces and trims.
func normalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
