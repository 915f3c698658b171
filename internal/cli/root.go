// Package cli builds the preprocessor command tree.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alejandroruanova/preprocessing-service/internal/core/services/linguistic"
	"github.com/alejandroruanova/preprocessing-service/internal/core/services/preprocessing"
	"github.com/alejandroruanova/preprocessing-service/internal/pkg/config"
	"github.com/alejandroruanova/preprocessing-service/internal/pkg/logger"
)

// app is the state every subcommand shares once the root has set it up
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	pipeline *preprocessing.Pipeline
}

// RootCmd returns the preprocessor command with all subcommands attached
func RootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "preprocessor",
		Short:         "Turkish text normalization service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().String("dictionary", "", "contraction dictionary JSON file (overrides DICTIONARY_PATH)")
	root.PersistentFlags().String("log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")

	root.AddCommand(
		ServeCmd(a),
		WorkerCmd(a),
		NormalizeCmd(a),
		FileCmd(a),
		PresetsCmd(a),
		MigrateCmd(a),
		CleanupCmd(a),
	)

	return root
}

// setup loads configuration, initializes logging and loads the dictionary.
// A dictionary that cannot be loaded aborts the command.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("dictionary") {
		if cfg.Pipeline.DictionaryPath, err = flags.GetString("dictionary"); err != nil {
			return err
		}
	}
	if flags.Changed("log-level") {
		if cfg.LogLevel, err = flags.GetString("log-level"); err != nil {
			return err
		}
	}

	// stdout carries command output
	a.cfg = cfg
	a.logger = logger.InitializeWriter(cmd.ErrOrStderr(), cfg.Environment, cfg.LogLevel)

	a.pipeline, err = buildPipeline(&cfg.Pipeline)
	if err != nil {
		return err
	}

	a.logger.Debug("pipeline ready",
		slog.Int("dictionary_entries", a.pipeline.Dictionary().Len()),
		slog.Int("workers", a.pipeline.Workers()))

	return nil
}

func buildPipeline(cfg *config.PipelineConfig) (*preprocessing.Pipeline, error) {
	dict, err := preprocessing.LoadDictionary(cfg.DictionaryPath)
	if err != nil {
		return nil, err
	}

	return preprocessing.NewPipeline(dict, linguistic.NewTurkish(),
		preprocessing.WithWorkers(cfg.BatchWorkers),
		preprocessing.WithMaxTextBytes(cfg.MaxTextBytes),
	)
}
