package results

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// RunConfig is the configuration section of a run record. The API key is
// never recorded.
type RunConfig struct {
	Provider             string   `yaml:"provider"`
	Model                string   `yaml:"model,omitempty"`
	Project              string   `yaml:"project"`
	Organs               []string `yaml:"organs"`
	IncludeRelatedImages bool     `yaml:"includerelatedimages"`
	NoReject             bool     `yaml:"noreject"`
	NbResults            int      `yaml:"nbresults"`
	Lang                 string   `yaml:"lang"`
	ModelType            string   `yaml:"modeltype"`
	DatasetPath          string   `yaml:"datasetpath"`
	Folder               string   `yaml:"folder"`
	Timestamp            string   `yaml:"timestamp"`
}

// RunFailure is an image whose row was dropped.
type RunFailure struct {
	Image string `yaml:"image"`
	Error string `yaml:"error"`
}

// RunRecord is the YAML record of one scoring run.
type RunRecord struct {
	RunID    string       `yaml:"runid"`
	Config   RunConfig    `yaml:"config"`
	Images   int          `yaml:"images"`
	Scored   int          `yaml:"scored"`
	Outputs  []string     `yaml:"outputs"`
	Failures []RunFailure `yaml:"failures,omitempty"`
}

// NewRunRecord starts a record with a fresh run ID and timestamp.
func NewRunRecord(config RunConfig) *RunRecord {
	config.Timestamp = time.Now().Format("2006-01-02_15-04-05")
	return &RunRecord{
		RunID:  uuid.NewString(),
		Config: config,
	}
}

// AddFailure records an image that could not be scored.
func (r *RunRecord) AddFailure(image string, err error) {
	r.Failures = append(r.Failures, RunFailure{Image: image, Error: err.Error()})
}

// Save writes the record to <dir>/<folder>-<timestamp>-<id>.yaml, where id
// is the first block of the run ID, and returns the absolute path.
func (r *RunRecord) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	id, _, _ := strings.Cut(r.RunID, "-")
	filename := filepath.Join(dir, fmt.Sprintf("%s-%s-%s.yaml", r.Config.Folder, r.Config.Timestamp, id))

	data, err := yaml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}

	absPath, _ := filepath.Abs(filename)
	return absPath, nil
}

// LoadRunRecord reads a record written by Save.
func LoadRunRecord(path string) (*RunRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run record: %w", err)
	}

	var record RunRecord
	if err := yaml.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse run record: %w", err)
	}
	return &record, nil
}
