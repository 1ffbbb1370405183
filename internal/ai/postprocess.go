package ai

import "strings"

// forbiddenOpeners are sycophantic lead-ins the model is told to avoid but
// still produces; the whole first sentence gets dropped when one appears.
var forbiddenOpeners = []string{"tentu", "tentunya", "sure", "certainly", "por supuesto", "bien sûr"}

const robotEmoji = "🤖"

// PostProcess cleans a generated reply: drops a forbidden opening sentence,
// strips the robot emoji, collapses runs of whitespace, and caps short-style
// replies at two sentences. Empty input passes through unchanged.
func PostProcess(text string, analysis IntentAnalysis) string {
	if text == "" {
		return text
	}

	lower := strings.ToLower(text)
	for _, opener := range forbiddenOpeners {
		if strings.HasPrefix(lower, opener) {
			sentences := strings.Split(text, ".")
			if len(sentences) > 1 {
				text = strings.TrimSpace(strings.Join(sentences[1:], "."))
				text = strings.TrimSpace(strings.TrimPrefix(text, "."))
			}
			break
		}
	}

	text = strings.ReplaceAll(text, robotEmoji, "")
	text = strings.Join(strings.Fields(text), " ")

	if analysis.Style.Length == LengthShort {
		sentences := strings.Split(text, ".")
		if len(sentences) > 2 {
			first := strings.TrimSpace(sentences[0])
			second := strings.TrimSpace(sentences[1])
			if second != "" {
				text = first + ". " + second + "."
			} else {
				text = first + "."
			}
		}
	}

	return text
}
