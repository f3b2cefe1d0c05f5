package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/clarityhq/claritymark/internal/config"
	"github.com/clarityhq/claritymark/internal/database"
	"github.com/clarityhq/claritymark/internal/fetch"
	"github.com/clarityhq/claritymark/internal/log"
	"github.com/clarityhq/claritymark/internal/model"
	"github.com/clarityhq/claritymark/internal/pipeline"
	"github.com/clarityhq/claritymark/internal/report"
)

// NewMarkCmd creates the mark command.
func NewMarkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mark [file]",
		Short: "Highlight a claim inside an HTML or Markdown document",
		Long: `Mark locates a claim or threat excerpt inside a document and rewrites
the document with highlight markers styled by verdict.

The document comes from a file argument, --url, or stdin. Matching is
case-insensitive and literal: the claim is broken into sentence,
phrase, and keyword candidates, and the first candidate found in the
page's visible text is wrapped in markers. At most one text node is
ever rewritten per claim.

The rewritten HTML goes to stdout (or --output); the run report goes
to stderr (or --report) so piped HTML stays clean.

Examples:
  # Highlight a claim in a local file
  claritymark mark article.html --claim "Housing prices fell sharply" --verdict contradicted

  # Fetch and highlight a live page
  claritymark mark --url https://example.com/article --claim "..." > marked.html

  # Highlight from stdin
  cat article.html | claritymark mark --claim "..."

  # Run a claims list concurrently against one document
  claritymark mark article.html --claims claims.yaml --output out/

  # JSON run report
  claritymark mark article.html --claim "..." --json --report report.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runMarkCmd,
	}

	// Input flags
	cmd.Flags().StringP("url", "u", "", "Fetch and highlight the page at this URL")
	cmd.Flags().StringP("claim", "C", "", "Claim or threat excerpt to locate")
	cmd.Flags().String("claims", "", "YAML claims list for batch runs")
	cmd.Flags().String("verdict", "suspicious", "Verdict styling the markers (suspicious, supported, plausible, contradicted, verified)")

	// Fetch flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Fetch timeout per request")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize, "Maximum response body size in bytes")
	cmd.Flags().String("user-agent", config.DefaultUserAgent, "User-Agent header for fetches")

	// Batch flags
	cmd.Flags().IntP("concurrency", "b", config.DefaultConcurrency, "Number of concurrent runs in batch mode")

	// History flags
	cmd.Flags().Bool("no-history", false, "Disable the run history database")

	// Configuration file
	cmd.Flags().StringP("config", "c", "", "Configuration file path (default: .claritymark in current or home directory)")

	// Output flags
	cmd.Flags().StringP("output", "o", "", "Rewritten HTML destination (file, or directory in batch mode; default stdout)")
	cmd.Flags().String("report", "", "Run report destination file (default stderr)")
	cmd.Flags().BoolP("json", "j", false, "JSON run report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false, "Markdown run report (mutually exclusive with --json)")

	return cmd
}

// runMarkCmd executes the mark command.
func runMarkCmd(cmd *cobra.Command, args []string) error {
	cfg, claimsPath, claim, verdict, err := buildMarkConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	source, err := resolveSource(cmd, args, cfg)
	if err != nil {
		return err
	}

	if claim == "" && claimsPath == "" {
		return config.ErrNoClaim
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	history, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}
	if history != nil {
		defer history.Close()
	}

	fetcher := fetch.New(
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
	)

	if claimsPath != "" {
		return runBatchMark(ctx, cfg, claimsPath, source, fetcher, history, logger)
	}

	return runSingleMark(ctx, cfg, source, claim, verdict, fetcher, history, logger)
}

// buildMarkConfig creates a Config from cobra command flags, merged
// with the configuration file.
func buildMarkConfig(cmd *cobra.Command) (cfg *config.Config, claimsPath, claim string, verdict model.Verdict, err error) {
	cfg = config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return nil, "", "", "", err
	}

	// Load the configuration file before flag values so explicit flags
	// can override file settings where both are given.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, "", "", "", fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if explicitConfigPath {
		return nil, "", "", "", fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if cmd.Flags().Changed("timeout") || cfg.Timeout == 0 {
		if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
			return nil, "", "", "", err
		}
	}
	if cmd.Flags().Changed("max-body-size") || cfg.MaxBodySize == 0 {
		if cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size"); err != nil {
			return nil, "", "", "", err
		}
	}
	if cmd.Flags().Changed("user-agent") || cfg.UserAgent == "" {
		if cfg.UserAgent, err = cmd.Flags().GetString("user-agent"); err != nil {
			return nil, "", "", "", err
		}
	}
	if cfg.Concurrency, err = cmd.Flags().GetInt("concurrency"); err != nil {
		return nil, "", "", "", err
	}
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, "", "", "", err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, "", "", "", err
	}
	if cfg.OutputPath, err = cmd.Flags().GetString("output"); err != nil {
		return nil, "", "", "", err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("report"); err != nil {
		return nil, "", "", "", err
	}

	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, "", "", "", err
	}
	if noHistory {
		cfg.NoHistory = true
	}
	if cfg.HistoryDir == "" {
		cfg.HistoryDir = config.XDGDataDir()
	}

	if claimsPath, err = cmd.Flags().GetString("claims"); err != nil {
		return nil, "", "", "", err
	}
	if claim, err = cmd.Flags().GetString("claim"); err != nil {
		return nil, "", "", "", err
	}

	verdictText, err := cmd.Flags().GetString("verdict")
	if err != nil {
		return nil, "", "", "", err
	}
	verdict = model.Verdict(verdictText)

	return cfg, claimsPath, claim, verdict, nil
}

// resolveSource determines the job source from the file argument,
// --url, or stdin.
func resolveSource(cmd *cobra.Command, args []string, cfg *config.Config) (string, error) {
	url, err := cmd.Flags().GetString("url")
	if err != nil {
		return "", err
	}

	switch {
	case len(args) == 1 && url != "":
		return "", fmt.Errorf("both a file argument and --url given; use one")
	case len(args) == 1:
		return args[0], nil
	case url != "":
		return url, nil
	default:
		// Fall back to stdin only when something is actually piped in.
		stat, err := os.Stdin.Stat()
		if err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
			return pipeline.StdinSource, nil
		}
		return "", config.ErrNoInput
	}
}

// openHistory opens the run history database unless disabled.
// History failures are soft: the run proceeds without persistence.
func openHistory(cfg *config.Config, logger *slog.Logger) (*database.HistoryDB, error) {
	if cfg.NoHistory {
		return nil, nil
	}

	history, err := database.Open(cfg.HistoryDir, database.DefaultOptions())
	if err != nil {
		logger.Warn("run history unavailable", "dir", cfg.HistoryDir, "error", err)
		return nil, nil
	}
	return history, nil
}

// newRunPipeline assembles the standard run pipeline.
func newRunPipeline(cfg *config.Config, fetcher *fetch.Fetcher, history *database.HistoryDB, logger *slog.Logger, output io.Writer) *pipeline.Pipeline {
	loadOpts := []pipeline.LoadStepOption{pipeline.WithLoadLogger(logger)}
	if history != nil {
		loadOpts = append(loadOpts, pipeline.WithHistory(history, cfg.CacheMaxAge))
	}

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddSteps(
		pipeline.NewLoadStep(fetcher, loadOpts...),
		pipeline.NewChromeStep(cfg.Palette),
		pipeline.NewHighlightStep(pipeline.WithHighlightLogger(logger)),
		pipeline.NewPersistStep(history, logger),
		pipeline.NewRenderStep(output),
	)
	return p
}

// runSingleMark executes one highlight run.
func runSingleMark(ctx context.Context, cfg *config.Config, source, claim string, verdict model.Verdict, fetcher *fetch.Fetcher, history *database.HistoryDB, logger *slog.Logger) error {
	output, closeOutput, err := openOutput(cfg.OutputPath)
	if err != nil {
		return err
	}
	defer closeOutput()

	job := pipeline.NewJob(source, claim, verdict)
	p := newRunPipeline(cfg, fetcher, history, logger, output)

	if err := p.Execute(ctx, job); err != nil {
		return err
	}

	return outputReport(cfg, func(w report.Writer) (int, error) {
		return w.Write(job.Report)
	})
}

// runBatchMark executes a claims list concurrently against one source.
// Each claim gets its own document; highlights are not additive.
func runBatchMark(ctx context.Context, cfg *config.Config, claimsPath, source string, fetcher *fetch.Fetcher, history *database.HistoryDB, logger *slog.Logger) error {
	if source == pipeline.StdinSource {
		return fmt.Errorf("batch mode cannot read the document from stdin; use a file or --url")
	}

	claimsFile, err := config.LoadClaimsFile(claimsPath)
	if err != nil {
		return err
	}

	jobs := make([]*pipeline.Job, 0, len(claimsFile.Claims))
	for _, c := range claimsFile.Claims {
		jobs = append(jobs, pipeline.NewJob(source, c.Text, model.Verdict(c.Verdict)))
	}

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return newRunPipeline(cfg, fetcher, history, logger, nil)
		},
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)

	reports, err := bp.ProcessBatch(ctx, jobs)
	if err != nil {
		return err
	}

	if cfg.OutputPath != "" {
		if err := writeBatchOutputs(cfg.OutputPath, bp.Jobs()); err != nil {
			return err
		}
	}

	return outputReport(cfg, func(w report.Writer) (int, error) {
		return w.WriteBatch(reports)
	})
}

// writeBatchOutputs writes each run's rewritten HTML into the output
// directory as run-<n>.html.
func writeBatchOutputs(dir string, jobs []*pipeline.Job) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for i, job := range jobs {
		if job == nil || job.HTML == "" {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("run-%d.html", i+1))
		if err := os.WriteFile(path, []byte(job.HTML), 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}

// openOutput opens the rewritten HTML destination.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// outputReport writes the run report in the requested format. The
// report goes to stderr by default so stdout carries only the HTML.
func outputReport(cfg *config.Config, write func(report.Writer) (int, error)) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided report path is intentional
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stderr
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := write(w)
	return err
}
