package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. These are chosen for highlighting
// ordinary web pages fetched over the clearnet.
const (
	// DefaultTimeout is the per-request timeout for fetching pages.
	// 30 seconds is generous for slow origins without hanging a batch
	// run indefinitely.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize limits the response body size to read.
	// 5MB is sufficient for most HTML pages while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultUserAgent identifies claritymark in HTTP requests.
	// A descriptive User-Agent lets operators identify the traffic.
	DefaultUserAgent = "claritymark/1.0 (+https://github.com/clarityhq/claritymark)"

	// DefaultConcurrency is the number of concurrent runs in batch
	// mode. Highlighting is CPU-light; the limit mainly paces fetches.
	DefaultConcurrency = 4

	// DefaultCacheMaxAge is how long a cached page fetch stays fresh.
	// Claims are usually checked shortly after analysis, so an hour
	// avoids refetching within a session without serving stale news.
	DefaultCacheMaxAge = time.Hour

	// DefaultAddr is the listen address of the HTTP API server.
	DefaultAddr = ":8930"

	// AppName is the application name used for XDG directory paths.
	AppName = "claritymark"
)

// Config holds all configuration options for claritymark.
// This struct is designed to be populated from CLI flags and passed
// through the application via dependency injection rather than global
// state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., FetchConfig, ReportConfig) for simplicity. The number of
// options is manageable, and nesting would add complexity without
// significant benefit.
type Config struct {
	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file. If empty,
	// the tool searches for .claritymark in the current directory and
	// then in the user's home directory.
	ConfigFilePath string

	// OutputPath is where the rewritten HTML document is written.
	// Empty means stdout.
	OutputPath string

	// ReportFile is the output file path for the run report. When set,
	// the report is written to this file instead of stderr.
	ReportFile string

	// JSONReport enables JSON report output instead of the
	// human-readable format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of the
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// Timeout is the per-request timeout for page fetches.
	Timeout time.Duration

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated to prevent memory
	// exhaustion. Zero means use the default.
	MaxBodySize int64

	// UserAgent is the User-Agent header sent with page fetches.
	UserAgent string

	// Concurrency is the number of concurrent runs in batch mode.
	Concurrency int

	// HistoryDir is the directory for the SQLite history database
	// (page cache and run audit trail). When empty, the XDG data
	// directory is used. History never stores markers: highlights are
	// not persisted across loads, only the record that a run happened.
	HistoryDir string

	// NoHistory disables the history database entirely.
	NoHistory bool

	// CacheMaxAge is how long cached page fetches stay fresh.
	CacheMaxAge time.Duration

	// Addr is the HTTP API listen address for the serve command.
	Addr string

	// Palette maps verdict slugs to marker background colors. Loaded
	// from the config file on top of the built-in defaults.
	Palette map[string]string
}

// NewConfig creates a Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero. This also serves as
// documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Timeout:     DefaultTimeout,
		MaxBodySize: DefaultMaxBodySize,
		UserAgent:   DefaultUserAgent,
		Concurrency: DefaultConcurrency,
		CacheMaxAge: DefaultCacheMaxAge,
		Addr:        DefaultAddr,
		Palette:     DefaultPalette(),
	}
}

// Validate checks the configuration for contradictions and invalid
// values. Returns one of the package sentinel errors.
func (c *Config) Validate() error {
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	return nil
}

// DefaultPalette returns the built-in verdict color palette. The
// "default" entry styles the base marker class and therefore any
// verdict without its own entry.
func DefaultPalette() map[string]string {
	return map[string]string{
		"default":      "#fff3a8",
		"suspicious":   "#ffd2d2",
		"supported":    "#d2f5d2",
		"plausible":    "#fff3c4",
		"contradicted": "#ffb3b3",
		"verified":     "#c8e6ff",
	}
}

// XDGDataDir returns the XDG data directory for claritymark.
// On Linux: ~/.local/share/claritymark
// On macOS: ~/Library/Application Support/claritymark
// On Windows: %LOCALAPPDATA%\claritymark
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}
