package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/clarityhq/claritymark/internal/config"
	"github.com/clarityhq/claritymark/internal/database"
	"github.com/clarityhq/claritymark/internal/dom"
	"github.com/clarityhq/claritymark/internal/fetch"
	"github.com/clarityhq/claritymark/internal/highlight"
)

// StdinSource is the job source name for documents piped on stdin.
const StdinSource = "stdin"

// LoadStep resolves the job source into a parsed document.
// URLs are fetched (through the page cache when available), file paths
// are read from disk, and StdinSource reads the configured reader.
// Markdown sources are converted to HTML before parsing.
type LoadStep struct {
	// fetcher retrieves URL sources.
	fetcher *fetch.Fetcher

	// history is the optional page cache. Nil disables caching.
	history *database.HistoryDB

	// cacheMaxAge is the cache freshness window.
	cacheMaxAge time.Duration

	// stdin is the reader used for StdinSource jobs.
	stdin io.Reader

	// logger for structured logging.
	logger *slog.Logger
}

// LoadStepOption configures a LoadStep.
type LoadStepOption func(*LoadStep)

// WithHistory enables the page cache backed by the history database.
func WithHistory(history *database.HistoryDB, maxAge time.Duration) LoadStepOption {
	return func(s *LoadStep) {
		s.history = history
		s.cacheMaxAge = maxAge
	}
}

// WithStdin sets the reader used for stdin sources. Defaults to
// os.Stdin.
func WithStdin(r io.Reader) LoadStepOption {
	return func(s *LoadStep) {
		s.stdin = r
	}
}

// WithLoadLogger sets a custom logger for the load step.
func WithLoadLogger(logger *slog.Logger) LoadStepOption {
	return func(s *LoadStep) {
		s.logger = logger
	}
}

// NewLoadStep creates a load step using the given fetcher for URL
// sources.
func NewLoadStep(fetcher *fetch.Fetcher, opts ...LoadStepOption) *LoadStep {
	s := &LoadStep{
		fetcher:     fetcher,
		cacheMaxAge: config.DefaultCacheMaxAge,
		stdin:       os.Stdin,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *LoadStep) Name() string {
	return "load"
}

// Do executes the load step.
func (s *LoadStep) Do(ctx context.Context, job *Job) error {
	switch {
	case job.Source == StdinSource:
		return s.loadReader(job, s.stdin)
	case strings.HasPrefix(job.Source, "http://"), strings.HasPrefix(job.Source, "https://"):
		return s.loadURL(ctx, job)
	default:
		return s.loadFile(job)
	}
}

// loadURL fetches the source URL, consulting the page cache first.
func (s *LoadStep) loadURL(ctx context.Context, job *Job) error {
	if s.history != nil {
		cached, err := s.history.GetPage(ctx, job.Source, s.cacheMaxAge)
		if err != nil {
			s.logger.Warn("page cache lookup failed", "url", job.Source, "error", err)
		} else if cached != nil {
			s.logger.Debug("page cache hit", "url", job.Source, "fetched_at", cached.FetchedAt)
			doc, err := cached.Document()
			if err != nil {
				return fmt.Errorf("parse cached page: %w", err)
			}
			job.Doc = doc
			return nil
		}
	}

	page, err := s.fetcher.Fetch(ctx, job.Source)
	if err != nil {
		return err
	}

	if s.history != nil {
		if err := s.history.SavePage(ctx, page); err != nil {
			s.logger.Warn("page cache store failed", "url", job.Source, "error", err)
		}
	}

	doc, err := page.Document()
	if err != nil {
		return fmt.Errorf("parse %s: %w", job.Source, err)
	}
	job.Doc = doc
	return nil
}

// loadFile reads and parses a document from disk. Markdown files are
// converted to HTML first.
func (s *LoadStep) loadFile(job *Job) error {
	data, err := os.ReadFile(job.Source) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		return fmt.Errorf("read %s: %w", job.Source, err)
	}

	if isMarkdownPath(job.Source) {
		doc, err := dom.FromMarkdown(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("convert %s: %w", job.Source, err)
		}
		job.Doc = doc
		return nil
	}

	doc, err := dom.Parse(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse %s: %w", job.Source, err)
	}
	job.Doc = doc
	return nil
}

// loadReader parses a document from a stream.
func (s *LoadStep) loadReader(job *Job, r io.Reader) error {
	doc, err := dom.Parse(r)
	if err != nil {
		return fmt.Errorf("parse stdin: %w", err)
	}
	job.Doc = doc
	return nil
}

// isMarkdownPath reports whether the path names a Markdown file.
func isMarkdownPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	default:
		return false
	}
}

// ChromeStep injects the highlight chrome into the document: the style
// element with the verdict palette, and the hidden clear affordance.
// Idempotent, so re-running a pipeline over the same document is safe.
type ChromeStep struct {
	// palette maps verdict slugs to marker background colors.
	palette map[string]string
}

// NewChromeStep creates a chrome injection step with the given palette.
// A nil palette uses the built-in defaults.
func NewChromeStep(palette map[string]string) *ChromeStep {
	if palette == nil {
		palette = config.DefaultPalette()
	}
	return &ChromeStep{palette: palette}
}

// Name returns the step name.
func (s *ChromeStep) Name() string {
	return "chrome"
}

// Do executes the chrome injection step.
func (s *ChromeStep) Do(_ context.Context, job *Job) error {
	if job.Doc == nil {
		return fmt.Errorf("chrome: no document loaded for %s", job.Source)
	}
	return job.Doc.EnsureChrome(s.palette)
}

// HighlightStep runs the matching engine over the loaded document.
//
// Design decision: The step uses NopScheduler because pipeline runs
// serialize the document immediately afterwards. The transient effects
// ride along in the output as client-side animations; expiring them
// in memory would race the render step.
type HighlightStep struct {
	// logger for structured logging.
	logger *slog.Logger
}

// HighlightStepOption configures a HighlightStep.
type HighlightStepOption func(*HighlightStep)

// WithHighlightLogger sets a custom logger for the highlight step.
func WithHighlightLogger(logger *slog.Logger) HighlightStepOption {
	return func(s *HighlightStep) {
		s.logger = logger
	}
}

// NewHighlightStep creates a highlight step.
func NewHighlightStep(opts ...HighlightStepOption) *HighlightStep {
	s := &HighlightStep{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *HighlightStep) Name() string {
	return "highlight"
}

// Do executes the highlight step.
func (s *HighlightStep) Do(_ context.Context, job *Job) error {
	if job.Doc == nil {
		return fmt.Errorf("highlight: no document loaded for %s", job.Source)
	}

	engine := highlight.New(job.Doc,
		highlight.WithScheduler(highlight.NopScheduler{}),
		highlight.WithLogger(s.logger),
	)

	started := job.Report.StartedAt
	report := engine.Highlight(job.Claim, job.Verdict)
	report.Source = job.Source
	report.StartedAt = started
	report.Duration = time.Since(started)
	job.Report = report
	return nil
}

// PersistStep appends the run report to the history database.
type PersistStep struct {
	// history is the run audit trail. Nil makes the step a no-op.
	history *database.HistoryDB

	// logger for structured logging.
	logger *slog.Logger
}

// NewPersistStep creates a persistence step. A nil history database
// turns the step into a no-op, which keeps pipeline assembly simple
// when history is disabled.
func NewPersistStep(history *database.HistoryDB, logger *slog.Logger) *PersistStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersistStep{history: history, logger: logger}
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do executes the persistence step.
func (s *PersistStep) Do(ctx context.Context, job *Job) error {
	if s.history == nil {
		return nil
	}

	id, err := s.history.SaveRun(ctx, job.Report)
	if err != nil {
		return fmt.Errorf("persist run: %w", err)
	}
	s.logger.Debug("run persisted", "id", id, "source", job.Source)
	return nil
}

// RenderStep serializes the rewritten document. The HTML always lands
// on the job; an optional writer receives a copy for streaming output.
type RenderStep struct {
	// output optionally receives the rendered document.
	output io.Writer
}

// NewRenderStep creates a render step. A nil output keeps the result
// on the job only.
func NewRenderStep(output io.Writer) *RenderStep {
	return &RenderStep{output: output}
}

// Name returns the step name.
func (s *RenderStep) Name() string {
	return "render"
}

// Do executes the render step.
func (s *RenderStep) Do(_ context.Context, job *Job) error {
	if job.Doc == nil {
		return fmt.Errorf("render: no document loaded for %s", job.Source)
	}

	html, err := job.Doc.HTML()
	if err != nil {
		return fmt.Errorf("render %s: %w", job.Source, err)
	}
	job.HTML = html

	if s.output != nil {
		if _, err := io.WriteString(s.output, html); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	return nil
}
