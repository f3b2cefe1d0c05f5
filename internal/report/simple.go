package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/clarityhq/claritymark/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables the per-candidate detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output listing every candidate tried.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs a single run report in human-readable format.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeRun(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

// WriteBatch outputs batch reports with an aggregate summary line.
func (w *SimpleWriter) WriteBatch(reports []*model.RunReport) (int, error) {
	var sb strings.Builder

	for _, report := range reports {
		w.writeRun(&sb, report)
	}

	matched, noMatch, noCandidates := countOutcomes(reports)
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("TOTAL: %d runs, %d matched, %d without a match, %d without candidates\n",
		len(reports), matched, noMatch, noCandidates))

	return w.output.Write([]byte(sb.String()))
}

// writeRun writes one report section.
func (w *SimpleWriter) writeRun(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Source:   %s\n", report.Source))
	sb.WriteString(fmt.Sprintf("Claim:    %s\n", w.truncate(report.Claim)))
	sb.WriteString(fmt.Sprintf("Verdict:  %s\n", report.Verdict.DisplayName()))
	sb.WriteString(fmt.Sprintf("Outcome:  %s\n", w.outcomeText(report)))

	if report.Matched != nil {
		sb.WriteString(fmt.Sprintf("Matched:  %q (%s tier)\n", report.Matched.Text, report.Matched.Tier))
		sb.WriteString(fmt.Sprintf("Markers:  %d\n", report.MarkerCount))
	}
	if report.Error != "" {
		sb.WriteString(fmt.Sprintf("Error:    %s\n", report.Error))
	}

	if w.verbose && len(report.Candidates) > 0 {
		sb.WriteString("Candidates tried:\n")
		for _, c := range report.Candidates {
			marker := " "
			if report.Matched != nil && *report.Matched == c {
				marker = "*"
			}
			sb.WriteString(fmt.Sprintf("  %s [%s] %q\n", marker, c.Tier, c.Text))
		}
	}

	sb.WriteString(fmt.Sprintf("Duration: %s\n", report.Duration.Round(time.Millisecond)))
	sb.WriteString("\n")
}

// outcomeText returns the outcome as display text.
func (w *SimpleWriter) outcomeText(report *model.RunReport) string {
	switch report.Outcome {
	case model.OutcomeMatched:
		return "MATCHED"
	case model.OutcomeNoMatch:
		return "no match found on page"
	case model.OutcomeNoCandidates:
		return "no usable candidates in claim"
	default:
		return string(report.Outcome)
	}
}

// truncate shortens long claims for the single-line header.
func (w *SimpleWriter) truncate(s string) string {
	const maxLen = 120
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
