package report

import (
	"io"

	"github.com/clarityhq/claritymark/internal/model"
)

// Writer defines the interface for report output.
// Implementations write run reports in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stderr, or network
// connections with the same API.
type Writer interface {
	// Write outputs a single run report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.RunReport) (int, error)

	// WriteBatch outputs the reports of a batch run together, with an
	// aggregate summary where the format supports one.
	WriteBatch(reports []*model.RunReport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.RunReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteBatch outputs the batch reports to all configured Writers.
func (m *MultiWriter) WriteBatch(reports []*model.RunReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteBatch(reports)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// countOutcomes tallies batch reports by outcome.
func countOutcomes(reports []*model.RunReport) (matched, noMatch, noCandidates int) {
	for _, r := range reports {
		switch r.Outcome {
		case model.OutcomeMatched:
			matched++
		case model.OutcomeNoMatch:
			noMatch++
		case model.OutcomeNoCandidates:
			noCandidates++
		}
	}
	return matched, noMatch, noCandidates
}
