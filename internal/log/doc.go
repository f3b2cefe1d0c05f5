// Package log provides logging for claritymark, built on top of the
// standard slog package.
//
// This package extends slog to provide:
//   - Automatic truncation of oversized attribute values (claims, page
//     snapshots, rendered HTML) so a single log line never carries a
//     whole document
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Truncation
//
// Highlight runs routinely log claim text and document excerpts. Page
// bodies can be megabytes; claims copied out of a sidebar can be whole
// paragraphs. The TrimHandler caps every string attribute at a fixed
// length and marks the cut, keeping logs readable and cheap to ship
// without losing the identifying prefix of the value.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("highlight run",
//	    "claim", claim, // long values are truncated with an ellipsis marker
//	    "verdict", verdict,
//	)
//
//	slog.SetDefault(logger)
package log
