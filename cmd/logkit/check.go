package main

import (
	"fmt"
	"strings"

	"github.com/HorseArcher567/logkit/pkg/xlog"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the logging config and list the sinks it creates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			framework, err := ctx.loadFramework()
			if err != nil {
				return err
			}

			sinks, err := xlog.Plan(framework.Logging)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderSinks(sinks))
			return nil
		},
	}
}

func renderSinks(sinks []xlog.Sink) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Target", "Level", "Format", "Suppressed"})

	for _, s := range sinks {
		suppressed := strings.Join(s.Suppressed, ", ")
		if suppressed == "" {
			suppressed = "-"
		}
		tw.AppendRow(table.Row{s.Target, strings.ToUpper(s.Level), s.Format, suppressed})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
	})
	return tw.Render()
}
