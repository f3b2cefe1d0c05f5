package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/clarityhq/claritymark/internal/config"
	"github.com/clarityhq/claritymark/internal/dom"
	"golang.org/x/net/html/charset"
)

// Fetch errors.
var (
	// ErrUnsupportedScheme is returned for URLs that are not http or
	// https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")

	// ErrHTTPStatus is returned when the server answers with a 4xx or
	// 5xx status code.
	ErrHTTPStatus = errors.New("unexpected HTTP status")
)

// Page is a fetched web page. Body always holds UTF-8 text regardless
// of the origin's declared character set.
type Page struct {
	// URL is the final URL after redirects.
	URL string

	// StatusCode is the HTTP response status code.
	StatusCode int

	// ContentType is the Content-Type response header.
	ContentType string

	// Body is the decoded response body.
	Body []byte

	// FetchedAt is when the fetch completed.
	FetchedAt time.Time
}

// Document parses the page body into a DOM document.
func (p *Page) Document() (*dom.Document, error) {
	return dom.Parse(bytes.NewReader(p.Body))
}

// Fetcher retrieves single pages. Unlike a crawler it never follows
// links; the caller names exactly one URL and gets exactly one page.
type Fetcher struct {
	// client is the HTTP client used for requests.
	client *http.Client

	// userAgent is the User-Agent header to use.
	userAgent string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets a custom HTTP client. Useful for tests and for
// callers that need proxy or TLS configuration.
func WithClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.client.Timeout = d
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// New creates a Fetcher with default settings.
//
// Design decision: We build the default client internally rather than
// requiring one because:
//  1. There is no proxy layer to pre-configure, unlike Tor scanners
//  2. Most callers only ever customize the timeout
//  3. WithClient remains available for tests
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{Timeout: config.DefaultTimeout},
		userAgent:   config.DefaultUserAgent,
		maxBodySize: config.DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch retrieves the page at rawURL. Bare host names are assumed to
// be https. Non-2xx responses return ErrHTTPStatus along with the
// page, so callers can still inspect error bodies if they want to.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme == "" {
		u, err = url.Parse("https://" + rawURL)
		if err != nil {
			return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")

	// Decode to UTF-8 using the charset from the Content-Type header
	// or, failing that, sniffed from the body itself.
	limited := io.LimitReader(resp.Body, f.maxBodySize)
	decoded, err := charset.NewReader(limited, contentType)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", u, err)
	}

	body, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u, err)
	}

	finalURL := u.String()
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	page := &Page{
		URL:         finalURL,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        body,
		FetchedAt:   time.Now(),
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return page, fmt.Errorf("fetch %s: %w %d", u, ErrHTTPStatus, resp.StatusCode)
	}

	return page, nil
}

// IsHTML reports whether the page's Content-Type looks like HTML.
// An empty Content-Type is treated as HTML because many small origins
// omit the header on static pages.
func (p *Page) IsHTML() bool {
	if p.ContentType == "" {
		return true
	}
	return strings.Contains(p.ContentType, "text/html") ||
		strings.Contains(p.ContentType, "application/xhtml+xml")
}
