package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "floraeval",
		Short: "Evaluate plant identification services against labeled image datasets",
		Long: `floraeval scores a plant species-identification API (Pl@ntNet by default)
against a dataset of labeled images, then computes accuracy and confidence
statistics over the result tables and renders comparison charts.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newEvalCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}
