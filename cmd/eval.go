package cmd

import (
	"github.com/lehigh-university-libraries/floraeval/internal/evalcmd"
	"github.com/spf13/cobra"
)

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Plant identification evaluation tools",
		Long: `Evaluation tools for measuring the accuracy of a plant identification service.

The scoring pipeline identifies every image of one dataset folder and writes a
result table. The statistics pipeline summarizes a directory of result tables
and renders charts.`,
	}

	// Add eval subcommands
	cmd.AddCommand(evalcmd.NewFoldersCmd())
	cmd.AddCommand(evalcmd.NewScoreCmd())
	cmd.AddCommand(evalcmd.NewStatsCmd())

	return cmd
}
