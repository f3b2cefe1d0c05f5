// Package api exposes the highlight engine over HTTP. Analysis
// backends POST a document (inline HTML, Markdown, or a URL) together
// with a claim and verdict, and receive the rewritten document plus
// the run report. The run history is browsable under /v1/runs.
package api
