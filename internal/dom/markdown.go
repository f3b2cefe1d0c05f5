package dom

import (
	"bytes"
	"fmt"
	"io"

	"github.com/yuin/goldmark"
)

// FromMarkdown converts Markdown source to HTML and parses the result.
// This lets the CLI highlight claims inside Markdown documents (reports,
// transcripts) with the same engine used for web pages.
func FromMarkdown(r io.Reader) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	var buf bytes.Buffer
	if err := goldmark.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}

	return Parse(&buf)
}
