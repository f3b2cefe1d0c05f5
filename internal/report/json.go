package report

import (
	"encoding/json"
	"io"

	"github.com/clarityhq/claritymark/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. It's sufficient for our needs
// 3. It provides consistent behavior across Go versions
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter:   newBaseWriter(output),
		indent:       false,
		indentPrefix: "",
		indentString: "",
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs a single run report in JSON format.
func (w *JSONWriter) Write(report *model.RunReport) (int, error) {
	return w.writeJSON(report)
}

// BatchReport wraps batch results with aggregate counts.
//
// Design decision: We wrap the reports rather than emitting a bare
// array because consumers of batch output want the totals without
// recomputing them, and the wrapper leaves room for new aggregate
// fields without breaking the format.
type BatchReport struct {
	// Runs is the full list of run reports.
	Runs []*model.RunReport `json:"runs"`

	// Matched is the number of runs that produced markers.
	Matched int `json:"matched"`

	// NoMatch is the number of runs where no candidate occurred on the page.
	NoMatch int `json:"no_match"`

	// NoCandidates is the number of runs with no usable candidates.
	NoCandidates int `json:"no_candidates"`
}

// WriteBatch outputs batch reports wrapped with aggregate counts.
func (w *JSONWriter) WriteBatch(reports []*model.RunReport) (int, error) {
	matched, noMatch, noCandidates := countOutcomes(reports)
	return w.writeJSON(&BatchReport{
		Runs:         reports,
		Matched:      matched,
		NoMatch:      noMatch,
		NoCandidates: noCandidates,
	})
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
