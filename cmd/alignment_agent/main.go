// Package main provides the entry point for the alignment checker CLI and HTTP API server.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jonathan/alignment-checker/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is built once flags are parsed
var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:     "alignment_agent",
	Short:   "Score text against an institutional communication style",
	Version: version,
	Long: `alignment_agent scores candidate text (speeches, posts, statements) against a
style profile of core terms, secondary terms and mission phrases, assembles
reference context from a corpus of past speeches and strategy papers, and
serves both over a REST API with optional LLM analysis and rewriting.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		zc := zap.NewProductionConfig()
		if viper.GetBool(config.KeyVerbose) {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		built, err := zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = built
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./alignment-checker.yaml or ~/.config/alignment-checker/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	_ = viper.BindPFlag(config.KeyVerbose, rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("alignment-checker")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "alignment-checker"))
		}
	}

	config.SetDefaults(viper.GetViper())
	if err := config.BindEnv(viper.GetViper()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintln(os.Stderr, "Error reading config file:", err)
	}
}

// bindFlags binds command flags to configuration keys at run time, so commands
// that share a key do not overwrite each other's bindings.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) error {
	for flag, key := range keys {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", flag, err)
		}
	}
	return nil
}

// loadConfig decodes and validates the configuration after flag binding
func loadConfig(cmd *cobra.Command, keys map[string]string) (*config.ServerConfig, error) {
	if err := bindFlags(cmd.Flags(), keys); err != nil {
		return nil, err
	}
	return config.Load(viper.GetViper())
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
