package evalcmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lehigh-university-libraries/floraeval/internal/eval/dataset"
	"github.com/lehigh-university-libraries/floraeval/internal/eval/results"
	"github.com/lehigh-university-libraries/floraeval/internal/eval/scoring"
	"github.com/lehigh-university-libraries/floraeval/internal/identify"
	"github.com/lehigh-university-libraries/floraeval/internal/identify/gemini"
	"github.com/lehigh-university-libraries/floraeval/internal/identify/ollama"
	"github.com/lehigh-university-libraries/floraeval/internal/identify/openai"
	"github.com/lehigh-university-libraries/floraeval/internal/identify/plantnet"
	"github.com/lehigh-university-libraries/floraeval/internal/taxon"
)

const (
	providerPlantNet = "plantnet"
	providerGemini   = "gemini"
	providerOllama   = "ollama"
	providerOpenAI   = "openai"
)

type scoreOptions struct {
	datasetPath  string
	outputDir    string
	folder       string
	provider     string
	model        string
	synonymsPath string
	recordDir    string
	xlsx         bool
	parquet      bool
	verbose      bool
	config       identify.Config
}

// formats returns the table formats to write. CSV is always written.
func (o scoreOptions) formats() []results.Format {
	formats := []results.Format{results.FormatCSV}
	if o.xlsx {
		formats = append(formats, results.FormatXLSX)
	}
	if o.parquet {
		formats = append(formats, results.FormatParquet)
	}
	return formats
}

// newIdentifier builds the identification client for a provider.
func newIdentifier(provider, model string, config identify.Config) (identify.Identifier, error) {
	switch provider {
	case providerPlantNet, "":
		if err := config.Validate(); err != nil {
			return nil, fmt.Errorf("invalid Pl@ntNet configuration: %w (set PLANTNET_API_KEY)", err)
		}
		return plantnet.NewClient(config), nil
	case providerGemini:
		return gemini.New(config, model)
	case providerOllama:
		return ollama.New(config, model), nil
	case providerOpenAI:
		return openai.New(config, model)
	default:
		return nil, fmt.Errorf("unsupported provider: %s (supported: %s, %s, %s, %s)",
			provider, providerPlantNet, providerGemini, providerOllama, providerOpenAI)
	}
}

func executeScore(ctx context.Context, in io.Reader, out io.Writer, opts scoreOptions) error {
	setupLogging(opts.verbose)

	loader := dataset.NewLoader(opts.datasetPath)

	folder := opts.folder
	if folder == "" {
		folders, err := loader.Folders()
		if err != nil {
			return fmt.Errorf("failed to list dataset: %w", err)
		}
		selected, err := dataset.SelectFolder(in, out, folders)
		if err != nil {
			return err
		}
		folder = selected.Name
	} else if !loader.HasFolder(folder) {
		return fmt.Errorf("folder %q not found in %s", folder, opts.datasetPath)
	}

	synonyms, err := taxon.LoadSynonyms(opts.synonymsPath)
	if err != nil {
		return err
	}

	identifier, err := newIdentifier(opts.provider, opts.model, opts.config)
	if err != nil {
		return err
	}

	slog.Info("Starting identification run",
		"dataset", opts.datasetPath,
		"folder", folder,
		"provider", opts.provider,
		"nb_results", opts.config.NbResults)

	record := results.NewRunRecord(results.RunConfig{
		Provider:             opts.provider,
		Model:                opts.model,
		Project:              opts.config.Project,
		Organs:               opts.config.Organs,
		IncludeRelatedImages: opts.config.IncludeRelatedImages,
		NoReject:             opts.config.NoReject,
		NbResults:            opts.config.NbResults,
		Lang:                 opts.config.Lang,
		ModelType:            opts.config.ModelType,
		DatasetPath:          opts.datasetPath,
		Folder:               folder,
	})

	scored, err := scoreFolder(ctx, identifier, loader, synonyms, folder, opts.config.NbResults, record)
	if err != nil {
		return err
	}

	paths, err := results.WriteTables(opts.outputDir, folder, results.NewRows(scored), opts.formats()...)
	record.Outputs = paths
	if err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	fmt.Fprintf(out, "\nScored %d of %d images from %s\n", record.Scored, record.Images, folder)
	for _, f := range record.Failures {
		fmt.Fprintf(out, "  failed: %s: %s\n", f.Image, f.Error)
	}
	for _, p := range paths {
		fmt.Fprintf(out, "Data has been written to %s\n", p)
	}

	if path, err := record.Save(opts.recordDir); err != nil {
		slog.Warn("Failed to save run record", "error", err)
	} else {
		fmt.Fprintf(out, "Run record saved to: %s\n", path)
	}

	slog.Info("Identification run complete", "run_id", record.RunID)
	return nil
}

// scoreFolder identifies and scores every image of one label folder. An
// image that cannot be identified or scored is logged, recorded as a
// failure and left out of the returned rows.
func scoreFolder(ctx context.Context, identifier identify.Identifier, loader *dataset.Loader, synonyms *taxon.SynonymTable, folder string, n int, record *results.RunRecord) ([]scoring.ScoredRow, error) {
	label := taxon.ParseLabel(folder)

	// Fail before spending any API calls on a folder that cannot be scored.
	if _, err := synonyms.Lookup(label.Species); err != nil {
		return nil, err
	}

	images, err := loader.Images(folder)
	if err != nil {
		return nil, err
	}
	record.Images = len(images)
	if len(images) == 0 {
		slog.Warn("Folder has no images", "folder", folder)
	}

	slog.Debug("Scoring folder", "genus", label.Genus, "species", label.Species, "images", len(images))

	rows := make([]scoring.ScoredRow, 0, len(images))
	for i, image := range images {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run cancelled: %w", err)
		}

		slog.Info("Processing image", "index", i+1, "total", len(images), "image", image)

		result, err := identifier.Identify(ctx, loader.ImagePath(folder, image))
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, fmt.Errorf("run cancelled: %w", err)
			}
			logFailure(image, err)
			record.AddFailure(image, err)
			continue
		}

		row, err := scoring.Score(label, synonyms, image, result, n)
		if err != nil {
			logFailure(image, err)
			record.AddFailure(image, err)
			continue
		}

		slog.Debug("Scored image",
			"image", image,
			"top", row.TopPredictedName,
			"top_score", row.TopScore,
			"species_match", row.SpeciesMatchTop,
			"rank", row.RankOfCorrectMatch)
		rows = append(rows, row)
	}

	record.Scored = len(rows)
	return rows, nil
}

func logFailure(image string, err error) {
	var serviceErr *identify.ServiceError
	if errors.As(err, &serviceErr) {
		slog.Warn("Identification failed, dropping image",
			"image", image,
			"status", serviceErr.StatusCode,
			"content_type", serviceErr.ContentType,
			"error", err)
		return
	}
	slog.Warn("Identification failed, dropping image", "image", image, "error", err)
}

// envOr returns the environment value of key, or fallback when unset.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
