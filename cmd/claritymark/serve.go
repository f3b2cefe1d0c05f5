package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/clarityhq/claritymark/internal/api"
	"github.com/clarityhq/claritymark/internal/config"
	"github.com/clarityhq/claritymark/internal/fetch"
	"github.com/clarityhq/claritymark/internal/log"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the highlight HTTP API server",
		Long: `Serve starts an HTTP server exposing the highlight engine.

Analysis backends POST a document (inline HTML, Markdown, or a URL)
together with a claim and verdict to /v1/highlight and receive the
rewritten document plus the run report. Persisted runs are browsable
under /v1/runs.

Examples:
  # Listen on the default address
  claritymark serve

  # Custom listen address without run history
  claritymark serve --addr :9000 --no-history`,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("addr", "a", config.DefaultAddr, "Listen address")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Fetch timeout per request")
	cmd.Flags().Bool("no-history", false, "Disable the run history database")
	cmd.Flags().StringP("config", "c", "", "Configuration file path (default: .claritymark in current or home directory)")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return err
	}
	if configPath := config.FindConfigFile(cfg.ConfigFilePath); configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if cfg.ConfigFilePath != "" {
		return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if cfg.Addr, err = cmd.Flags().GetString("addr"); err != nil {
		return err
	}
	if cmd.Flags().Changed("timeout") || cfg.Timeout == 0 {
		if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
			return err
		}
	}
	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return err
	}
	if noHistory {
		cfg.NoHistory = true
	}
	if cfg.HistoryDir == "" {
		cfg.HistoryDir = config.XDGDataDir()
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

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

	serverOpts := []api.ServerOption{
		api.WithPalette(cfg.Palette),
		api.WithMaxBodyBytes(cfg.MaxBodySize),
	}
	if history != nil {
		serverOpts = append(serverOpts, api.WithHistory(history, cfg.CacheMaxAge))
	}

	handler := api.NewServer(fetcher, logger, serverOpts...)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown on interrupt.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving highlight API", "addr", cfg.Addr)
		fmt.Printf("Listening on %s\n", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
