package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidSelection is returned when the interactive prompt gets an
// answer that is not the index of a listed folder.
var ErrInvalidSelection = errors.New("invalid selection")

// Folder is one label directory of the dataset.
type Folder struct {
	Name      string
	FileCount int
}

// Loader lists the label folders and images of a dataset directory.
// The dataset layout is one sub-directory per species, named after it.
type Loader struct {
	datasetPath string
}

// NewLoader creates a new dataset loader
func NewLoader(datasetPath string) *Loader {
	return &Loader{
		datasetPath: datasetPath,
	}
}

// Path returns the dataset root.
func (l *Loader) Path() string {
	return l.datasetPath
}

// Folders lists the label folders in name order with their file counts.
func (l *Loader) Folders() ([]Folder, error) {
	slog.Debug("Listing dataset folders", "path", l.datasetPath)

	entries, err := os.ReadDir(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset directory: %w", err)
	}

	var folders []Folder
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		images, err := l.Images(entry.Name())
		if err != nil {
			return nil, err
		}
		folders = append(folders, Folder{Name: entry.Name(), FileCount: len(images)})
	}

	slog.Debug("Finished listing dataset folders", "folders", len(folders))
	return folders, nil
}

// Images returns the regular files of one label folder, sorted by name.
func (l *Loader) Images(folder string) ([]string, error) {
	dir := filepath.Join(l.datasetPath, folder)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder %s: %w", folder, err)
	}

	var images []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		images = append(images, entry.Name())
	}
	sort.Strings(images)
	return images, nil
}

// ImagePath joins a folder and image name under the dataset root.
func (l *Loader) ImagePath(folder, image string) string {
	return filepath.Join(l.datasetPath, folder, image)
}

// HasFolder reports whether folder is one of the dataset's label folders.
func (l *Loader) HasFolder(folder string) bool {
	info, err := os.Stat(filepath.Join(l.datasetPath, folder))
	return err == nil && info.IsDir()
}

// PrintFolders writes the numbered folder listing used by the prompt.
func PrintFolders(w io.Writer, folders []Folder) {
	fmt.Fprintln(w, "Available Folders:")
	for i, f := range folders {
		fmt.Fprintf(w, "%d: %s (%d files)\n", i, f.Name, f.FileCount)
	}
}

// SelectFolder prints the folder listing to w and reads a folder index
// from r. Anything other than an in-range integer is ErrInvalidSelection.
func SelectFolder(r io.Reader, w io.Writer, folders []Folder) (Folder, error) {
	if len(folders) == 0 {
		return Folder{}, fmt.Errorf("%w: dataset has no folders", ErrInvalidSelection)
	}

	PrintFolders(w, folders)
	fmt.Fprint(w, "Enter the number of the folder you want to process: ")

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return Folder{}, fmt.Errorf("failed to read selection: %w", err)
	}

	idx, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return Folder{}, fmt.Errorf("%w: %q is not a number", ErrInvalidSelection, strings.TrimSpace(line))
	}
	if idx < 0 || idx >= len(folders) {
		return Folder{}, fmt.Errorf("%w: %d is out of range 0..%d", ErrInvalidSelection, idx, len(folders)-1)
	}
	return folders[idx], nil
}
