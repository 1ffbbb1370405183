package ai

import "testing"

func mediumAnalysis() IntentAnalysis {
	return IntentAnalysis{Style: ResponseStyle{Length: LengthMedium, Tone: ToneFriendly, Format: FormatParagraph}}
}

func shortAnalysis() IntentAnalysis {
	return IntentAnalysis{Style: ResponseStyle{Length: LengthShort, Tone: ToneFriendly, Format: FormatParagraph}}
}

func TestPostProcess(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		analysis IntentAnalysis
		want     string
	}{
		{"empty passes through", "", mediumAnalysis(), ""},
		{"plain text untouched", "Jakarta adalah ibu kota Indonesia.", mediumAnalysis(), "Jakarta adalah ibu kota Indonesia."},
		{"forbidden opener dropped", "Tentu. Jakarta adalah ibu kota.", mediumAnalysis(), "Jakarta adalah ibu kota."},
		{"sure opener dropped", "Sure. The answer is 42.", mediumAnalysis(), "The answer is 42."},
		{"single sentence opener kept", "Tentu saja bisa", mediumAnalysis(), "Tentu saja bisa"},
		{"robot emoji removed", "Halo 🤖 apa kabar", mediumAnalysis(), "Halo apa kabar"},
		{"whitespace collapsed", "satu   dua\n\ntiga", mediumAnalysis(), "satu dua tiga"},
		{"short style capped at two sentences", "Satu. Dua. Tiga. Empat.", shortAnalysis(), "Satu. Dua."},
		{"short style under cap untouched", "Satu. Dua.", shortAnalysis(), "Satu. Dua."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PostProcess(tt.text, tt.analysis)
			if got != tt.want {
				t.Errorf("PostProcess(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestPostProcessIdempotent(t *testing.T) {
	inputs := []string{
		"Jakarta adalah ibu kota Indonesia.",
		"Halo apa kabar",
		"Satu. Dua.",
	}
	for _, in := range inputs {
		for _, analysis := range []IntentAnalysis{mediumAnalysis(), shortAnalysis()} {
			once := PostProcess(in, analysis)
			twice := PostProcess(once, analysis)
			if once != twice {
				t.Errorf("not idempotent for %q: %q vs %q", in, once, twice)
			}
		}
	}
}
