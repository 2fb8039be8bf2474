package taxon

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Label is the ground-truth taxon of a dataset folder.
type Label struct {
	Genus   string
	Species string
}

// ParseLabel builds a Label from a folder name such as "Quercus robur".
// The genus is the first whitespace-separated token.
func ParseLabel(folderName string) Label {
	species := NormalizeName(folderName)
	genus := species
	if fields := strings.Fields(species); len(fields) > 0 {
		genus = fields[0]
	}
	return Label{
		Genus:   genus,
		Species: species,
	}
}

// NormalizeName applies NFC normalization and trims surrounding whitespace
// so names coming from the filesystem and the API compare equal.
func NormalizeName(name string) string {
	return strings.TrimSpace(norm.NFC.String(name))
}
