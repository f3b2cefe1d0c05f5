package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/clarityhq/claritymark/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs a single run report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Claritymark Report")
	md.PlainText("")

	w.writeRun(md, report)
	w.writeAlert(md, report)

	return len(md.String()), md.Build()
}

// WriteBatch outputs batch reports with a summary table and an outcome
// distribution chart.
func (w *MarkdownWriter) WriteBatch(reports []*model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Claritymark Batch Report")
	md.PlainText("")

	w.writeBatchSummary(md, reports)

	for _, report := range reports {
		w.writeRun(md, report)
	}

	return len(md.String()), md.Build()
}

// writeRun writes one report section.
func (w *MarkdownWriter) writeRun(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Run: " + report.Source)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Claim", report.Claim},
			{"Verdict", report.Verdict.DisplayName()},
			{"Outcome", w.outcomeText(report)},
			{"Markers", strconv.Itoa(report.MarkerCount)},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")

	if len(report.Candidates) > 0 {
		w.writeCandidates(md, report)
	}
}

// outcomeText returns the outcome as display text.
func (w *MarkdownWriter) outcomeText(report *model.RunReport) string {
	if report.Error != "" {
		return "❌ Error - " + report.Error
	}
	switch report.Outcome {
	case model.OutcomeMatched:
		return "✅ Matched"
	case model.OutcomeNoMatch:
		return "⚠️ No match found on page"
	case model.OutcomeNoCandidates:
		return "⚠️ No usable candidates in claim"
	default:
		return string(report.Outcome)
	}
}

// writeCandidates writes the candidate table, marking the match.
func (w *MarkdownWriter) writeCandidates(md *markdown.Markdown, report *model.RunReport) {
	md.H3("Candidates")
	md.PlainText("")

	rows := make([][]string, 0, len(report.Candidates))
	for _, c := range report.Candidates {
		matched := ""
		if report.Matched != nil && *report.Matched == c {
			matched = "✅"
		}
		rows = append(rows, []string{c.Tier.String(), "`" + c.Text + "`", matched})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Tier", "Text", "Matched"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeBatchSummary writes the aggregate table and outcome pie chart.
func (w *MarkdownWriter) writeBatchSummary(md *markdown.Markdown, reports []*model.RunReport) {
	matched, noMatch, noCandidates := countOutcomes(reports)

	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"✅ Matched", strconv.Itoa(matched)},
			{"⚠️ No match", strconv.Itoa(noMatch)},
			{"⚠️ No candidates", strconv.Itoa(noCandidates)},
			{"**Total**", "**" + strconv.Itoa(len(reports)) + "**"},
		},
	})
	md.PlainText("")

	if len(reports) > 0 {
		w.writePieChart(md, matched, noMatch, noCandidates)
	}
}

// writePieChart writes a mermaid pie chart for the outcome distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, matched, noMatch, noCandidates int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Run Outcome Distribution"),
		piechart.WithShowData(true),
	)

	if matched > 0 {
		chart.LabelAndIntValue("Matched", uint64(matched))
	}
	if noMatch > 0 {
		chart.LabelAndIntValue("No match", uint64(noMatch))
	}
	if noCandidates > 0 {
		chart.LabelAndIntValue("No candidates", uint64(noCandidates))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert matching the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.RunReport) {
	switch {
	case report.Error != "":
		md.Warningf("The run failed before reaching the document: %s", report.Error)
	case report.Outcome == model.OutcomeMatched:
		md.Tipf("Highlighted %d occurrence(s) of the matched candidate.", report.MarkerCount)
	case report.Outcome == model.OutcomeNoCandidates:
		md.Note("The claim text produced no candidates long enough to search for.")
	default:
		md.Note("No candidate text was found on the page. The page may have changed since analysis.")
	}
	md.PlainText("")
}
