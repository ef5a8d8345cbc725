package sources

import (
	"strings"
	"testing"

	"github.com/povarna/generative-ai-agents/book-agent/internal/models"
)

func citation(text string, score float64) models.SourceCitation {
	return models.SourceCitation{Text: text, Chapter: "Chapter 1", RelevanceScore: score}
}

func TestFingerprint_NormalizesWhitespace(t *testing.T) {
	a := Fingerprint("ROS 2   nodes\ncommunicate  over topics")
	b := Fingerprint("  ROS 2 nodes communicate over topics ")
	if a != b {
		t.Errorf("Expected equal fingerprints, got %s and %s", a, b)
	}
}

func TestFingerprint_UsesPrefixOnly(t *testing.T) {
	prefix := strings.Repeat("x", 100)
	if Fingerprint(prefix+" tail one") != Fingerprint(prefix+" tail two") {
		t.Error("Expected texts sharing a 100 rune prefix to collide")
	}
	if Fingerprint("short one") == Fingerprint("short two") {
		t.Error("Expected different short texts to differ")
	}
}

func TestDeduplicate_FirstSeenWins(t *testing.T) {
	input := []models.SourceCitation{
		citation("alpha", 0.9),
		citation("beta", 0.5),
		citation("alpha", 0.2),
		citation("gamma", 0.4),
		citation("beta ", 0.1),
	}

	got := Deduplicate(input)
	if len(got) != 3 {
		t.Fatalf("Expected 3 citations, got %d", len(got))
	}

	wantOrder := []string{"alpha", "beta", "gamma"}
	for i, want := range wantOrder {
		if got[i].Text != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, got[i].Text)
		}
	}
	if got[0].RelevanceScore != 0.9 {
		t.Errorf("Expected first occurrence to be kept, got score %v", got[0].RelevanceScore)
	}
}

func TestDeduplicate_Idempotent(t *testing.T) {
	input := []models.SourceCitation{citation("a", 0.1), citation("b", 0.2), citation("a", 0.3)}

	once := Deduplicate(input)
	twice := Deduplicate(once)
	if len(once) != len(twice) {
		t.Fatalf("Expected idempotent result, got %d then %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("Position %d differs: %+v vs %+v", i, once[i], twice[i])
		}
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name      string
		citations []models.SourceCitation
		want      models.Confidence
	}{
		{name: "empty", citations: nil, want: models.ConfidenceLow},
		{
			name:      "three strong",
			citations: []models.SourceCitation{citation("a", 0.7), citation("b", 0.7), citation("c", 0.7)},
			want:      models.ConfidenceHigh,
		},
		{
			name:      "two strong is not enough for high",
			citations: []models.SourceCitation{citation("a", 0.9), citation("b", 0.9)},
			want:      models.ConfidenceMedium,
		},
		{name: "single medium", citations: []models.SourceCitation{citation("a", 0.5)}, want: models.ConfidenceMedium},
		{name: "single weak", citations: []models.SourceCitation{citation("a", 0.3)}, want: models.ConfidenceLow},
		{name: "boundary", citations: []models.SourceCitation{citation("a", 0.4)}, want: models.ConfidenceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Confidence(tt.citations); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestReconcile(t *testing.T) {
	unique, confidence := Reconcile([]models.SourceCitation{
		citation("a", 0.8), citation("a", 0.8), citation("b", 0.7), citation("c", 0.65),
	})
	if len(unique) != 3 {
		t.Errorf("Expected 3 unique citations, got %d", len(unique))
	}
	if confidence != models.ConfidenceHigh {
		t.Errorf("Expected high confidence, got %s", confidence)
	}
}
