package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/alignment-checker/internal/ingestion"
	"github.com/jonathan/alignment-checker/internal/types"
)

var importDocsCmd = &cobra.Command{
	Use:   "import-docs <dir|url>...",
	Short: "Import speeches and papers into the reference corpus",
	Long: `Import walks directories of HTML, Markdown, text, JSON and YAML files, cleans
their text and upserts them into the Postgres reference corpus. Arguments that
start with http:// or https:// are fetched and parsed as published pages.

Markdown files may carry YAML front matter with the corpus fields (id, kind,
date, sectors, initiatives, authors). Use --dry-run to list what would be
imported without a database.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImportDocs,
}

var (
	importKind   string
	importDryRun bool
)

func init() {
	importDocsCmd.Flags().StringVar(&importKind, "kind", types.KindDocument, "Kind for files that do not declare one (speech, document, priority, biography, strategy)")
	importDocsCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "List documents without storing them")

	rootCmd.AddCommand(importDocsCmd)
}

func runImportDocs(cmd *cobra.Command, args []string) error {
	if !validKind(importKind) {
		return fmt.Errorf("unknown document kind %q", importKind)
	}

	importer := ingestion.NewImporter(
		ingestion.WithDefaultKind(importKind),
		ingestion.WithLogger(logger.Named("import")),
	)
	result, err := importSources(cmd, importer, args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if importDryRun {
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tKIND\tDATE\tTITLE")
		for _, doc := range result.Documents {
			date := "-"
			if !doc.Date.IsZero() {
				date = doc.Date.Format("2006-01-02")
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", doc.ID, doc.Kind, date, doc.Title)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%d documents found, %d files skipped (dry run)\n", len(result.Documents), len(result.Skipped))
		return nil
	}

	database, err := openDatabase(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close()

	stored, err := ingestion.Store(cmd.Context(), database, result.Documents)
	if err != nil {
		logger.Error("import stopped", zap.Int("stored", stored), zap.Error(err))
		return err
	}

	fmt.Fprintf(out, "Imported %d documents, %d files skipped\n", stored, len(result.Skipped))
	return nil
}

// importSources collects documents from every directory and URL argument.
// A URL that cannot be fetched is reported as skipped.
func importSources(cmd *cobra.Command, importer *ingestion.Importer, sources []string) (*ingestion.Result, error) {
	result := &ingestion.Result{}
	for _, source := range sources {
		if ingestion.IsURL(source) {
			doc, err := importer.ImportURL(cmd.Context(), source)
			if err != nil {
				logger.Warn("skipping url", zap.String("url", source), zap.Error(err))
				result.Skipped = append(result.Skipped, source)
				continue
			}
			result.Documents = append(result.Documents, *doc)
			continue
		}

		dirResult, err := importer.ImportDir(cmd.Context(), source)
		if err != nil {
			return nil, err
		}
		result.Documents = append(result.Documents, dirResult.Documents...)
		result.Skipped = append(result.Skipped, dirResult.Skipped...)
	}
	return result, nil
}

func validKind(kind string) bool {
	switch kind {
	case types.KindSpeech, types.KindDocument, types.KindPriority, types.KindBiography, types.KindStrategy:
		return true
	}
	return false
}
