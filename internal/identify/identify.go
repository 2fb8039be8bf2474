package identify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Config holds the fixed request parameters for an identification run.
// It is passed by value and never mutated once a run starts.
type Config struct {
	Project              string
	Organs               []string
	IncludeRelatedImages bool
	NoReject             bool
	NbResults            int
	Lang                 string
	ModelType            string
	APIKey               string
	BaseURL              string
	Timeout              time.Duration
}

// DefaultConfig returns the parameters used by the original evaluation runs.
func DefaultConfig() Config {
	return Config{
		Project:   "all",
		Organs:    []string{"auto"},
		NbResults: 5,
		Lang:      "en",
		ModelType: "kt",
		BaseURL:   "https://my-api.plantnet.org",
		Timeout:   30 * time.Second,
	}
}

// Validate checks the parameters that would otherwise fail on every request.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	if c.NbResults < 1 {
		return fmt.Errorf("nb-results must be at least 1, got %d", c.NbResults)
	}
	if len(c.Organs) == 0 {
		return fmt.Errorf("at least one organ is required")
	}
	return nil
}

// Candidate is one ranked species suggestion for an image.
type Candidate struct {
	ScientificName string
	Genus          string
	Score          float64
}

// Result is the ordered candidate list returned for one image.
type Result struct {
	Candidates []Candidate
}

// Top returns the best-ranked candidate.
func (r *Result) Top() (Candidate, bool) {
	if r == nil || len(r.Candidates) == 0 {
		return Candidate{}, false
	}
	return r.Candidates[0], true
}

// Identifier classifies a single image.
type Identifier interface {
	Identify(ctx context.Context, imagePath string) (*Result, error)
}

// ServiceError is returned when the service answers with a non-200 status
// or a body that is not JSON.
type ServiceError struct {
	StatusCode  int
	ContentType string
	Body        string
}

func (e *ServiceError) Error() string {
	if e.ContentType != "" {
		return fmt.Sprintf("identification service returned status %d (%s): %s", e.StatusCode, e.ContentType, e.Body)
	}
	return fmt.Sprintf("identification service returned status %d: %s", e.StatusCode, e.Body)
}

type apiResponse struct {
	Results []struct {
		Species struct {
			ScientificNameWithoutAuthor string `json:"scientificNameWithoutAuthor"`
			Genus                       struct {
				ScientificNameWithoutAuthor string `json:"scientificNameWithoutAuthor"`
			} `json:"genus"`
		} `json:"species"`
		Score float64 `json:"score"`
	} `json:"results"`
}

// ParseResponse decodes the identification response body shared by all
// providers.
func ParseResponse(data []byte) (*Result, error) {
	var resp apiResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode identification response: %w", err)
	}

	result := &Result{Candidates: make([]Candidate, 0, len(resp.Results))}
	for _, r := range resp.Results {
		result.Candidates = append(result.Candidates, Candidate{
			ScientificName: r.Species.ScientificNameWithoutAuthor,
			Genus:          r.Species.Genus.ScientificNameWithoutAuthor,
			Score:          r.Score,
		})
	}
	return result, nil
}
