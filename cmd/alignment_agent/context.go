package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonathan/alignment-checker/internal/config"
	"github.com/jonathan/alignment-checker/internal/db"
	"github.com/jonathan/alignment-checker/internal/observability"
	"github.com/jonathan/alignment-checker/internal/reference"
)

var contextCmd = &cobra.Command{
	Use:   "context <query>",
	Short: "Print the reference context assembled for a query",
	Long: `Context runs the same topic routing and full-text fallback the server uses
for LLM prompts and prints the rendered reference context.`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

var contextMax int

var contextFlagKeys = map[string]string{
	"corpus": config.KeyCorpusPath,
}

func init() {
	contextCmd.Flags().IntVar(&contextMax, "max", reference.DefaultMaxDocs, "Maximum number of documents")
	contextCmd.Flags().String("corpus", "", "YAML or JSON reference corpus, used when no database is configured")

	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd.Flags(), contextFlagKeys); err != nil {
		return err
	}

	source, closeSource, err := openCorpus(cmd.Context())
	if err != nil {
		return err
	}
	defer closeSource()

	assembler := reference.NewAssembler(source, reference.WithLogger(logger))
	docs, route := assembler.Select(cmd.Context(), args[0], contextMax)
	if len(docs) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No reference documents matched.")
		return nil
	}

	observability.NewPrinter(cmd.ErrOrStderr()).PrintDocuments(route, docs)
	fmt.Fprintln(cmd.OutOrStdout(), assembler.Render(docs))
	return nil
}

// openCorpus returns the configured reference source: Postgres when a database URL
// is set, otherwise the corpus file.
func openCorpus(ctx context.Context) (reference.Store, func(), error) {
	if url := viper.GetString(config.KeyDatabaseURL); url != "" {
		database, err := db.Connect(ctx, url)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return database, database.Close, nil
	}

	path := viper.GetString(config.KeyCorpusPath)
	if path == "" {
		return nil, nil, fmt.Errorf("no reference corpus configured: set DATABASE_URL or --corpus")
	}
	source, err := reference.NewFileSource(path, logger)
	if err != nil {
		return nil, nil, err
	}
	return source, func() {}, nil
}

// openDatabase connects to the database named by DATABASE_URL
func openDatabase(ctx context.Context) (*db.DB, error) {
	url := viper.GetString(config.KeyDatabaseURL)
	if url == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	database, err := db.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return database, nil
}
