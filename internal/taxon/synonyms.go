package taxon

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrMissingSynonymEntry is matched by errors.Is when a species has no entry
// in the synonym table.
var ErrMissingSynonymEntry = errors.New("missing synonym entry")

// MissingSynonymError reports the species that had no synonym entry.
type MissingSynonymError struct {
	Species string
}

func (e *MissingSynonymError) Error() string {
	return fmt.Sprintf("no synonym entry for species %q", e.Species)
}

func (e *MissingSynonymError) Is(target error) bool {
	return target == ErrMissingSynonymEntry
}

// SynonymTable maps an accepted species name to its alternate names.
// A species with no known synonyms must still be present with an empty list.
type SynonymTable struct {
	entries map[string][]string
}

// NewSynonymTable builds a table from a species -> synonyms map.
func NewSynonymTable(entries map[string][]string) *SynonymTable {
	t := &SynonymTable{entries: make(map[string][]string, len(entries))}
	for species, synonyms := range entries {
		normalized := make([]string, 0, len(synonyms))
		for _, s := range synonyms {
			normalized = append(normalized, NormalizeName(s))
		}
		t.entries[NormalizeName(species)] = normalized
	}
	return t
}

// LoadSynonyms reads a YAML synonym table of the form
//
//	Quercus robur:
//	  - Quercus pedunculata
func LoadSynonyms(path string) (*SynonymTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read synonym table: %w", err)
	}

	entries := make(map[string][]string)
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse synonym table %s: %w", path, err)
	}

	slog.Debug("Loaded synonym table", "path", path, "species", len(entries))
	return NewSynonymTable(entries), nil
}

// Lookup returns the synonyms recorded for species.
func (t *SynonymTable) Lookup(species string) ([]string, error) {
	if t == nil {
		return nil, &MissingSynonymError{Species: species}
	}
	synonyms, ok := t.entries[NormalizeName(species)]
	if !ok {
		return nil, &MissingSynonymError{Species: species}
	}
	return synonyms, nil
}

// Len returns the number of species in the table.
func (t *SynonymTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Matches reports whether name is the species itself or one of synonyms.
func Matches(name, species string, synonyms []string) bool {
	name = NormalizeName(name)
	if name == NormalizeName(species) {
		return true
	}
	for _, s := range synonyms {
		if name == NormalizeName(s) {
			return true
		}
	}
	return false
}
