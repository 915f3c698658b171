package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/alejandroruanova/preprocessing-service/internal/app/preprocess"
	"github.com/alejandroruanova/preprocessing-service/internal/core/services/deduplication"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/parsers"
)

// FileCmd normalizes the text column of a local dataset into JSON lines
func FileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Normalize a CSV, JSON, JSONL, XLSX or TXT dataset into JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.normalizeDataset(cmd, args[0])
		},
	}

	addOptionFlags(cmd.Flags())
	cmd.Flags().String("column", parsers.DefaultTextColumn, "column holding the text")
	cmd.Flags().String("format", "", "input format; defaults to the file extension")
	cmd.Flags().StringP("output", "o", "", "output file; defaults to stdout")
	cmd.Flags().Bool("dedup", false, "drop results that repeat an earlier row")

	return cmd
}

func (a *app) normalizeDataset(cmd *cobra.Command, path string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	opts, err := optionsFromFlags(flags)
	if err != nil {
		return err
	}

	column, _ := flags.GetString("column")
	format, _ := flags.GetString("format")
	output, _ := flags.GetString("output")
	dedup, _ := flags.GetBool("dedup")
	if format == "" {
		format = filepath.Ext(path)
	}

	svc, err := preprocess.NewService(preprocess.Deps{
		Pipeline:     a.pipeline,
		Deduplicator: deduplication.NewService(deduplication.DefaultConfig(), nil, a.logger),
	}, a.logger)
	if err != nil {
		return err
	}

	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	res, err := svc.NormalizeFile(ctx, uuid.New(), in, preprocess.FileOptions{
		Format:      format,
		TextColumn:  column,
		Deduplicate: dedup,
		Options:     opts,
	})
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := preprocess.WriteResultLines(out, res.Lines); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	a.logger.Info("dataset normalized",
		slog.String("input", path),
		slog.Int("total", res.Counts.Total),
		slog.Int("processed", res.Counts.Processed),
		slog.Int("filtered", res.Counts.Filtered),
		slog.Int("failed", res.Counts.Failed),
		slog.Int("duplicates", res.Counts.Duplicates))

	return nil
}
