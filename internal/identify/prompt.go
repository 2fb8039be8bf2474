package identify

import (
	"fmt"
	"strings"
)

// VisionPrompt asks a general vision model for the same JSON shape the
// Pl@ntNet API returns, so ParseResponse handles every provider.
func VisionPrompt(nbResults int, lang string) string {
	return fmt.Sprintf(`Identify the plant species in this photograph.
Return the %d most likely species, best first, as JSON of exactly this shape:
{"results":[{"species":{"scientificNameWithoutAuthor":"Genus species","genus":{"scientificNameWithoutAuthor":"Genus"}},"score":0.0}]}
Scores are your confidence between 0 and 1. Use accepted scientific names without authorship.
Language for any free text: %s. Return only the JSON.`, nbResults, lang)
}

// StripCodeFence removes a ```json fence some models wrap around output.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
