package scoring

import (
	"errors"
	"fmt"

	"github.com/lehigh-university-libraries/floraeval/internal/identify"
	"github.com/lehigh-university-libraries/floraeval/internal/taxon"
)

// ErrNoCandidates is returned when the service answered with an empty
// candidate list, so there is no top prediction to score.
var ErrNoCandidates = errors.New("identification returned no candidates")

// ScoredRow is the per-image evaluation record.
//
// RankOfCorrectMatch is 0 when the species is absent from the first N
// candidates. Otherwise it is (N+1)-c for the 1-indexed match position c,
// so a top-1 match with N=5 is encoded as 5. The encoding is kept for
// compatibility with existing result tables.
type ScoredRow struct {
	Label              string
	ImageName          string
	SpeciesMatchTop    bool
	GenusMatchTop      bool
	RankOfCorrectMatch int
	TopPredictedName   string
	TopScore           float64
	ScoreAtCorrectRank float64
}

// Score compares one identification result against the ground truth.
// n is the number of candidates considered by the rank search.
func Score(label taxon.Label, synonyms *taxon.SynonymTable, imageName string, result *identify.Result, n int) (ScoredRow, error) {
	row := ScoredRow{
		Label:     label.Species,
		ImageName: imageName,
	}

	accepted, err := synonyms.Lookup(label.Species)
	if err != nil {
		return row, err
	}

	top, ok := result.Top()
	if !ok {
		return row, fmt.Errorf("%s: %w", imageName, ErrNoCandidates)
	}

	row.SpeciesMatchTop = taxon.Matches(top.ScientificName, label.Species, accepted)
	row.GenusMatchTop = taxon.NormalizeName(top.Genus) == label.Genus
	row.TopPredictedName = top.ScientificName
	row.TopScore = top.Score

	if position, candidate, found := findMatch(result.Candidates, label.Species, accepted, n); found {
		row.RankOfCorrectMatch = (n + 1) - position
		row.ScoreAtCorrectRank = candidate.Score
	}

	return row, nil
}

// findMatch returns the 1-indexed position of the first candidate naming
// the species or one of its synonyms, looking at no more than n candidates.
func findMatch(candidates []identify.Candidate, species string, synonyms []string, n int) (int, identify.Candidate, bool) {
	limit := min(n, len(candidates))
	for i := 0; i < limit; i++ {
		if taxon.Matches(candidates[i].ScientificName, species, synonyms) {
			return i + 1, candidates[i], true
		}
	}
	return 0, identify.Candidate{}, false
}
