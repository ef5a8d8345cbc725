package sources

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/povarna/generative-ai-agents/book-agent/internal/models"
)

const fingerprintRunes = 100

const (
	highConfidenceScore = 0.6
	highConfidenceCount = 3
	mediumConfidence    = 0.4
)

// Fingerprint identifies a citation by its content rather than by chunk ID.
// It hashes the first 100 runes of the whitespace-normalized text.
func Fingerprint(text string) string {
	normalized := []rune(strings.Join(strings.Fields(text), " "))
	if len(normalized) > fingerprintRunes {
		normalized = normalized[:fingerprintRunes]
	}

	sum := sha256.Sum256([]byte(string(normalized)))
	return hex.EncodeToString(sum[:])
}

// Deduplicate keeps the first citation seen for each fingerprint, in order.
func Deduplicate(citations []models.SourceCitation) []models.SourceCitation {
	seen := make(map[string]struct{}, len(citations))
	unique := make([]models.SourceCitation, 0, len(citations))

	for _, c := range citations {
		key := Fingerprint(c.Text)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, c)
	}

	return unique
}

func AverageScore(citations []models.SourceCitation) float64 {
	if len(citations) == 0 {
		return 0
	}

	total := 0.0
	for _, c := range citations {
		total += c.RelevanceScore
	}
	return total / float64(len(citations))
}

func Confidence(citations []models.SourceCitation) models.Confidence {
	if len(citations) == 0 {
		return models.ConfidenceLow
	}

	avg := AverageScore(citations)
	if avg > highConfidenceScore && len(citations) >= highConfidenceCount {
		return models.ConfidenceHigh
	}
	if avg > mediumConfidence {
		return models.ConfidenceMedium
	}
	return models.ConfidenceLow
}

// Reconcile deduplicates citations and labels the result.
func Reconcile(citations []models.SourceCitation) ([]models.SourceCitation, models.Confidence) {
	unique := Deduplicate(citations)
	return unique, Confidence(unique)
}
