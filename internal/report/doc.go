// Package report provides output writers for highlight run reports.
// It supports human-readable text, JSON, and Markdown formats, writing
// to any io.Writer destination.
package report
