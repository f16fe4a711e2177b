// Package cli implements the policyqa command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/policyqa/internal/config"
	logpkg "github.com/kailas-cloud/policyqa/internal/logger"
	"github.com/kailas-cloud/policyqa/internal/version"
)

var (
	cfgFile  string
	envName  string
	logLevel string

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "policyqa",
	Short: "Grounded Q&A over national climate laws and adaptation plans",
	Long: `policyqa answers questions about climate legislation and National Adaptation Plans.
Each question is embedded, matched against a pre-ingested vector index (optionally
restricted to one country) and answered by a generative model from the retrieved text.

Example usage:
  policyqa serve                                       # Start the HTTP API
  policyqa ask -q "What are Kenya's climate laws?" --country Kenya
  policyqa countries                                   # List the country menu`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error

		if cfgFile != "" {
			cfg, err = config.LoadFile(cfgFile)
		} else {
			cfg, err = config.Load(envName)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if logLevel != "" {
			level = logLevel
		}
		logger, err = logpkg.NewLogger(loggerEnv(cmd), level)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/<env>.yaml)")
	rootCmd.PersistentFlags().StringVar(&envName, "env", config.GetEnv(), "environment: local, dev, docker, prod")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level: debug, info, warn, error")
	rootCmd.SetVersionTemplate(version.String() + "\n")
}

// loggerEnv keeps one-shot commands quiet unless a level is forced.
func loggerEnv(cmd *cobra.Command) string {
	if cmd.Name() != "serve" && logLevel == "" {
		return "test"
	}
	switch envName {
	case "prod", "local", "dev", "docker":
		return envName
	default:
		return "local"
	}
}
