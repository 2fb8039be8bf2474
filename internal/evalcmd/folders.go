package evalcmd

import (
	"fmt"
	"io"

	"github.com/lehigh-university-libraries/floraeval/internal/eval/dataset"
)

func executeFolders(w io.Writer, datasetPath string) error {
	folders, err := dataset.NewLoader(datasetPath).Folders()
	if err != nil {
		return fmt.Errorf("failed to list dataset: %w", err)
	}
	if len(folders) == 0 {
		return fmt.Errorf("no label folders found in %s", datasetPath)
	}

	dataset.PrintFolders(w, folders)
	return nil
}
