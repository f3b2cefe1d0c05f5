package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and the loaders, and
// provide specific information about what is wrong.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances at the call sites. This allows callers
// to use errors.Is() for programmatic error handling while still
// providing human-readable messages.
var (
	// ErrNoInput is returned when neither an input file nor a URL is
	// supplied to the mark command.
	ErrNoInput = errors.New("no input specified: provide a file path, --url, or pipe HTML on stdin")

	// ErrNoClaim is returned when no claim text is supplied and no
	// claims list file is given.
	ErrNoClaim = errors.New("no claim specified: use --claim or --claims")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidTimeout is returned when the fetch timeout is not
	// positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the batch concurrency is
	// not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is
	// negative. Use 0 to fall back to the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrNoClaims is returned when a claims list file parses cleanly
	// but contains no entries.
	ErrNoClaims = errors.New("claims file contains no claims")
)
