package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kms/internal/config"
)

type rootOptions struct {
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "sercha-kms",
		Short: "Sercha KMS: hybrid document retrieval",
		Long: `Sercha KMS ranks document chunks for a query by fusing PostgreSQL full-text
relevance with pgvector cosine similarity. Conversational requests can be
rewritten into standalone queries by an LLM before ranking.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default is ./config.yaml when present)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(opts),
		newSearchCmd(opts),
		newTokenCmd(opts),
	)
	return cmd
}

// load reads configuration, applies flag overrides and installs the default logger
func (o *rootOptions) load() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
