// Package certainty scores how confidently extracted metadata identifies a
// release and gates automatic approval on that score.
package certainty

import (
	"strings"

	"torrup/internal/media"
)

// DefaultThreshold is the score at or above which items are auto-approved.
const DefaultThreshold = 80

// Score rates metadata completeness from 0 to 100. Music weighs the fields
// that drive release naming; other types weigh title, year, and an external
// id reference.
func Score(meta media.Metadata, mediaType media.Type) int {
	score := 0
	if mediaType == media.TypeMusic {
		if present(meta.Artist) {
			score += 30
		}
		if present(meta.Album) {
			score += 30
		}
		if present(meta.Year) {
			score += 15
		}
		if present(meta.Format) {
			score += 15
		}
		if present(meta.Bitrate) {
			score += 10
		}
	} else {
		if present(meta.Title) {
			score += 40
		}
		if present(meta.Year) {
			score += 30
		}
		if present(meta.IMDB) || present(meta.TVMazeID) {
			score += 30
		}
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Approved reports whether a score clears the approval threshold. A
// non-positive threshold falls back to the default.
func Approved(score, threshold int) bool {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return score >= threshold
}

func present(value string) bool {
	return strings.TrimSpace(value) != ""
}
