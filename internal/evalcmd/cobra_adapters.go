package evalcmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/floraeval/internal/identify"
)

// NewFoldersCmd creates the folders command listing label folders
func NewFoldersCmd() *cobra.Command {
	var datasetPath string

	cmd := &cobra.Command{
		Use:   "folders",
		Short: "List dataset label folders with their image counts",
		Example: `  # List the folders of ./dataset
  floraeval eval folders --dataset ./dataset`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeFolders(cmd.OutOrStdout(), datasetPath)
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "dataset", "Dataset directory with one folder per species")

	return cmd
}

// NewScoreCmd creates the score command running identification on one folder
func NewScoreCmd() *cobra.Command {
	opts := scoreOptions{config: identify.DefaultConfig()}

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Identify every image of a dataset folder and score the results",
		Long: `Sends every image of one dataset folder to the identification service and
compares the ranked candidates with the folder's species and its synonyms.

One row per image is written to <output>/<species>.csv (and .xlsx/.parquet when
requested). Images that fail are logged and left out of the table.

Configuration is read from the environment (or a .env file):
  PLANTNET_API_KEY   Pl@ntNet API key (required for --provider plantnet)
  PLANTNET_URL       API base URL (default https://my-api.plantnet.org)
  PLANTNET_PROJECT   Flora project (default all)
  GEMINI_API_KEY     Gemini API key (required for --provider gemini)
  GEMINI_MODEL       Gemini model name
  OLLAMA_URL         Ollama server (default http://localhost:11434)
  OLLAMA_MODEL       Ollama vision model (default llava)
  OPENAI_API_KEY     OpenAI API key (required for --provider openai)
  OPENAI_URL         OpenAI-compatible server (default https://api.openai.com)
  OPENAI_MODEL       OpenAI vision model (default gpt-4o-mini)
  FLORAEVAL_SYNONYMS Synonym table YAML file`,
		Example: `  # Choose a folder interactively
  floraeval eval score --dataset ./dataset --output ./output --synonyms synonyms.yaml

  # Score one folder and also write xlsx and parquet tables
  floraeval eval score --folder "Quercus robur" --xlsx --parquet

  # Compare against a Gemini vision model
  floraeval eval score --folder "Quercus robur" --provider gemini --output ./output-gemini`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Environment is read here so values from .env are visible.
			opts.config.APIKey = os.Getenv("PLANTNET_API_KEY")
			opts.config.BaseURL = envOr("PLANTNET_URL", opts.config.BaseURL)
			if !cmd.Flags().Changed("project") {
				opts.config.Project = envOr("PLANTNET_PROJECT", opts.config.Project)
			}
			if opts.synonymsPath == "" {
				opts.synonymsPath = os.Getenv("FLORAEVAL_SYNONYMS")
			}
			if opts.synonymsPath == "" {
				return fmt.Errorf("a synonym table is required: pass --synonyms or set FLORAEVAL_SYNONYMS")
			}

			return executeScore(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.datasetPath, "dataset", "dataset", "Dataset directory with one folder per species")
	cmd.Flags().StringVar(&opts.outputDir, "output", "output", "Directory for result tables")
	cmd.Flags().StringVar(&opts.folder, "folder", "", "Folder to score (prompts when empty)")
	cmd.Flags().StringVar(&opts.provider, "provider", providerPlantNet, "Identification provider (plantnet, gemini, ollama or openai)")
	cmd.Flags().StringVar(&opts.model, "model", "", "Model name for the vision model providers")
	cmd.Flags().StringVar(&opts.synonymsPath, "synonyms", "", "Synonym table YAML file (default $FLORAEVAL_SYNONYMS)")
	cmd.Flags().StringVar(&opts.recordDir, "record-dir", "evals", "Directory for YAML run records")
	cmd.Flags().BoolVar(&opts.xlsx, "xlsx", false, "Also write an xlsx table")
	cmd.Flags().BoolVar(&opts.parquet, "parquet", false, "Also write a parquet table")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "Verbose logging")

	cmd.Flags().StringVar(&opts.config.Project, "project", opts.config.Project, "Pl@ntNet flora project")
	cmd.Flags().StringSliceVar(&opts.config.Organs, "organs", opts.config.Organs, "Organs sent with each image")
	cmd.Flags().IntVar(&opts.config.NbResults, "nb-results", opts.config.NbResults, "Number of candidates requested and searched")
	cmd.Flags().StringVar(&opts.config.Lang, "lang", opts.config.Lang, "Language of common names")
	cmd.Flags().StringVar(&opts.config.ModelType, "type", opts.config.ModelType, "Pl@ntNet model type (kt or legacy)")
	cmd.Flags().BoolVar(&opts.config.IncludeRelatedImages, "include-related-images", false, "Ask for related images")
	cmd.Flags().BoolVar(&opts.config.NoReject, "no-reject", false, "Disable the rejection class")
	cmd.Flags().DurationVar(&opts.config.Timeout, "timeout", opts.config.Timeout, "Per-request timeout")

	return cmd
}

// NewStatsCmd creates the stats command summarizing result tables
func NewStatsCmd() *cobra.Command {
	var opts statsOptions

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Compute accuracy statistics and charts over result tables",
		Long: `Reads every .csv, .xlsx and .parquet result table in a directory and computes
per-file counts, score means with mean ± 1.96·std bands, Wald intervals for the
species and genus accuracy and the weighted average position of the correct
species. Writes summary.json, optional summary.xlsx and six PNG charts.`,
		Example: `  # Summarize ./output into ./report
  floraeval eval stats --data ./output --output ./report --xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.nbResults < 1 {
				return fmt.Errorf("--nb-results must be at least 1, got %d", opts.nbResults)
			}
			return executeStats(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.dataDir, "data", "output", "Directory of result tables")
	cmd.Flags().StringVar(&opts.outputDir, "output", "report", "Directory for summary and charts")
	cmd.Flags().IntVar(&opts.nbResults, "nb-results", 5, "Number of candidates the rank codes were computed against")
	cmd.Flags().BoolVar(&opts.xlsx, "xlsx", false, "Also write summary.xlsx")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "Verbose logging")

	return cmd
}
