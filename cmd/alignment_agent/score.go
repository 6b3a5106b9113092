package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonathan/alignment-checker/internal/alignment"
	"github.com/jonathan/alignment-checker/internal/config"
	"github.com/jonathan/alignment-checker/internal/observability"
	"github.com/jonathan/alignment-checker/internal/profile"
	"github.com/jonathan/alignment-checker/internal/types"
)

var scoreCmd = &cobra.Command{
	Use:   "score [file]",
	Short: "Score a text file (or stdin) against a style profile",
	Long: `Score reads candidate text from a file, or from stdin when the file is "-" or
omitted, and prints the alignment breakdown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScore,
}

var (
	scoreProfile string
	scoreJSON    bool
)

var scoreFlagKeys = map[string]string{
	"profiles":  config.KeyProfilesPath,
	"min-chars": config.KeyMinChars,
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreProfile, "profile", "p", types.DefaultProfileName, "Style profile name")
	scoreCmd.Flags().String("profiles", "", "YAML or JSON file of style profiles")
	scoreCmd.Flags().Int("min-chars", 0, "Reject texts shorter than this many characters")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "Print the breakdown as JSON")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd.Flags(), scoreFlagKeys); err != nil {
		return err
	}

	path := "-"
	if len(args) == 1 {
		path = args[0]
	}
	text, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	registry, err := profile.LoadRegistry(cmd.Context(), viper.GetString(config.KeyProfilesPath), nil)
	if err != nil {
		return err
	}
	p, err := registry.Get(scoreProfile)
	if err != nil {
		return err
	}

	b, err := alignment.Score(text, p, alignment.WithMinChars(viper.GetInt(config.KeyMinChars)))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if scoreJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	}
	observability.NewPrinter(out).PrintBreakdown(p.Name, b)
	return nil
}

// readInput reads path, or r when path is "-"
func readInput(path string, r io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
