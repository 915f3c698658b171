package cli

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/alejandroruanova/preprocessing-service/internal/app/preprocess"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/parsers"
)

// NormalizeCmd normalizes texts given as arguments, or one per stdin line
func NormalizeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize [text...]",
		Short: "Normalize texts from the arguments or from stdin, one per line",
		Example: `  preprocessor normalize "Merhaba Dünya, 2022 yılında!"
  cat comments.txt | preprocessor normalize --remove-stopwords --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.normalize(cmd, args)
		},
	}

	addOptionFlags(cmd.Flags())
	cmd.Flags().Bool("json", false, "write JSON lines with index, text, filtered and error")

	return cmd
}

func (a *app) normalize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	opts, err := optionsFromFlags(cmd.Flags())
	if err != nil {
		return err
	}

	svc, err := preprocess.NewService(preprocess.Deps{Pipeline: a.pipeline}, a.logger)
	if err != nil {
		return err
	}

	var lines []preprocess.ResultLine
	if len(args) > 0 {
		res, err := svc.NormalizeBatch(ctx, args, opts)
		if err != nil {
			return err
		}
		lines = preprocess.LinesOf(res)
	} else {
		res, err := svc.NormalizeFile(ctx, uuid.Nil, cmd.InOrStdin(), preprocess.FileOptions{
			Format:  parsers.FormatText,
			Options: opts,
		})
		if err != nil {
			return err
		}
		lines = res.Lines
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		err = preprocess.WriteResultLines(cmd.OutOrStdout(), lines)
	} else {
		err = a.writePlain(cmd.OutOrStdout(), lines)
	}
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if failed := countFailed(lines); failed > 0 {
		return fmt.Errorf("%d of %d texts failed", failed, len(lines))
	}
	return nil
}

// writePlain prints one line per input. Filtered and failed texts print an
// empty line so the output stays aligned with the input.
func (a *app) writePlain(w io.Writer, lines []preprocess.ResultLine) error {
	bw := bufio.NewWriter(w)
	for _, line := range lines {
		if line.Error != "" {
			a.logger.Warn("text failed",
				slog.Int("index", line.Index),
				slog.String("error", line.Error))
		}
		if _, err := fmt.Fprintln(bw, line.Text); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func countFailed(lines []preprocess.ResultLine) int {
	n := 0
	for _, line := range lines {
		if line.Error != "" {
			n++
		}
	}
	return n
}
