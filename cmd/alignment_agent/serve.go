package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/alignment-checker/internal/config"
	"github.com/jonathan/alignment-checker/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server exposing heuristic scoring (POST /analyze), combined LLM
analysis, rewriting, context assembly and the reference corpus.

The reference corpus comes from Postgres when DATABASE_URL is set, otherwise
from --corpus. LLM endpoints require GEMINI_API_KEY. Bearer tokens are
verified with JWT_SECRET unless --no-auth is given.`,
	RunE: runServe,
}

var serveFlagKeys = map[string]string{
	"port":             config.KeyPort,
	"profiles":         config.KeyProfilesPath,
	"corpus":           config.KeyCorpusPath,
	"watch":            config.KeyWatchCorpus,
	"min-chars":        config.KeyMinChars,
	"max-context-docs": config.KeyMaxContextDocs,
	"llm-timeout":      config.KeyLLMTimeout,
	"no-auth":          config.KeyAuthDisabled,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("profiles", "", "YAML or JSON file of style profiles")
	serveCmd.Flags().String("corpus", "", "YAML or JSON reference corpus, used when no database is configured")
	serveCmd.Flags().Bool("watch", false, "Reload the corpus file when it changes")
	serveCmd.Flags().Int("min-chars", 0, "Reject texts shorter than this many characters")
	serveCmd.Flags().Int("max-context-docs", 3, "Reference documents included in LLM prompts")
	serveCmd.Flags().Duration("llm-timeout", 0, "Timeout for a single LLM call (default 60s)")
	serveCmd.Flags().Bool("no-auth", false, "Disable bearer token verification (local development only)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, serveFlagKeys)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.Bool("database", cfg.DatabaseURL != ""),
		zap.Bool("llm", cfg.GeminiAPIKey != ""),
		zap.Bool("auth", !cfg.Auth.Disabled))

	return srv.Start(ctx)
}
