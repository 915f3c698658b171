package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alejandroruanova/preprocessing-service/internal/core/services/preprocessing"
)

// PresetsCmd lists the option presets and the steps each one runs
func PresetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List option presets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tALIASES\tSTEPS")
			for _, info := range preprocessing.ListPresetsWithMetadata() {
				opts, err := preprocessing.Preset(info.Name)
				if err != nil {
					return err
				}
				plan, err := a.pipeline.Compile(opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n",
					info.Name,
					strings.Join(info.Aliases, ","),
					strings.Join(plan.Steps(), " > "))
			}
			return tw.Flush()
		},
	}
}
