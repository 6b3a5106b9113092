package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/alignment-checker/internal/profile"
)

var validateProfileCmd = &cobra.Command{
	Use:   "validate-profile <file>",
	Short: "Check a style profile file",
	Long:  "Parse a YAML or JSON style profile file and report each profile's term counts, or the first problem found.",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidateProfile,
}

func init() {
	rootCmd.AddCommand(validateProfileCmd)
}

func runValidateProfile(cmd *cobra.Command, args []string) error {
	profiles, err := profile.LoadFile(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	seen := make(map[string]bool, len(profiles))
	for _, p := range profiles {
		if seen[p.Name] {
			return fmt.Errorf("profile %q is defined more than once", p.Name)
		}
		seen[p.Name] = true
		fmt.Fprintf(out, "%s: %d core, %d secondary, %d mission phrases\n",
			p.Name, len(p.CoreTerms), len(p.SecondaryTerms), len(p.MissionPhrases))
	}
	fmt.Fprintf(out, "OK: %d profiles\n", len(profiles))
	return nil
}
