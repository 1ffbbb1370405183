package ai

import (
	"strings"
	"testing"
)

func TestShouldGroundIntentShortCircuit(t *testing.T) {
	g := NewGroundingEngine(0)

	for _, intent := range []string{IntentCurrentEvents, IntentFactualQuery} {
		analysis := IntentAnalysis{PrimaryIntent: intent}
		if ok, _ := g.ShouldGround(analysis, "anything"); !ok {
			t.Errorf("intent %q should always ground", intent)
		}
	}
}

func TestShouldGround(t *testing.T) {
	a := NewAnalyzer("")
	g := NewGroundingEngine(0)

	tests := []struct {
		name    string
		message string
		want    bool
	}{
		{"fresh event bonus query", "Apa itu bonus event terbaru hari ini?", true},
		{"live data", "tolong kirim data live pertandingan", true},
		{"price today", "berapa price bitcoin today", true},
		{"small talk", "aku senang sekali", false},
		{"bare thanks", "makasih ya", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := a.AnalyzeIntent(tt.message, "")
			got, score := g.ShouldGround(analysis, tt.message)
			if got != tt.want {
				t.Errorf("ShouldGround(%q) = %v (score %d), want %v", tt.message, got, score, tt.want)
			}
		})
	}
}

func TestShouldGroundAlwaysGroundPatterns(t *testing.T) {
	g := NewGroundingEngine(1000)

	// These bypass the threshold entirely, even an absurdly high one.
	msgs := []string{
		"harga emas hari ini berapa",
		"status server current",
		"ada update?",
		"skor live dong",
	}
	for _, msg := range msgs {
		analysis := IntentAnalysis{PrimaryIntent: IntentGeneral}
		if ok, _ := g.ShouldGround(analysis, msg); !ok {
			t.Errorf("ShouldGround(%q) = false, want true via always-ground", msg)
		}
	}
}

func TestShouldGroundThresholdConfigurable(t *testing.T) {
	a := NewAnalyzer("")
	msg := "sejarah singkat ya"

	analysis := a.AnalyzeIntent(msg, "")

	loose := NewGroundingEngine(1)
	strict := NewGroundingEngine(50)

	gotLoose, score := loose.ShouldGround(analysis, msg)
	if !gotLoose {
		t.Fatalf("loose threshold rejected score %d", score)
	}
	if gotStrict, _ := strict.ShouldGround(analysis, msg); gotStrict {
		t.Error("strict threshold should reject a weak message")
	}
}

func TestGroundingScoreMonotonic(t *testing.T) {
	a := NewAnalyzer("")
	g := NewGroundingEngine(0)

	base := "cuaca"
	extended := base + " hari ini di Jakarta"

	baseAnalysis := IntentAnalysis{PrimaryIntent: IntentGeneral, Language: a.fallback}
	_, baseScore := g.ShouldGround(baseAnalysis, base)
	_, extScore := g.ShouldGround(baseAnalysis, extended)
	if extScore < baseScore {
		t.Errorf("extending the message lowered the score: %d -> %d", baseScore, extScore)
	}
}

func TestGroundingDeterministic(t *testing.T) {
	a := NewAnalyzer("")
	g := NewGroundingEngine(0)
	msg := "berapa populasi Indonesia sekarang menurut data resmi 2025"

	analysis := a.AnalyzeIntent(msg, "")
	first, firstScore := g.ShouldGround(analysis, msg)
	for i := 0; i < 10; i++ {
		got, score := g.ShouldGround(analysis, msg)
		if got != first || score != firstScore {
			t.Fatalf("run %d differs: %v/%d vs %v/%d", i, got, score, first, firstScore)
		}
	}
	if !strings.Contains(msg, "populasi") || !first {
		t.Errorf("expected population query to ground (score %d)", firstScore)
	}
}
