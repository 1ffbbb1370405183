// Package conversation selects which stored context turns are worth feeding
// back into the prompt for a new message.
package conversation

import (
	"sort"
	"strings"

	"github.com/sangar-bot/sangar/internal/store"
)

// relevanceWindow is how many trailing turns are scored at all.
const relevanceWindow = 20

// continuationKeywords hint that the user is referring back to something.
var continuationKeywords = []string{
	"lanjut", "selanjutnya", "kemudian", "terus", "jadi", "bagaimana",
	"mengapa", "kenapa", "itu", "ini", "yang tadi", "sebelumnya",
	"seperti", "sama", "berbeda", "bandingkan", "jelaskan lebih",
}

// questionWords only pull in context when the message is short enough to be
// a follow-up rather than a self-contained question.
var questionWords = []string{"apa", "siapa", "kapan", "dimana", "mengapa", "bagaimana"}

var greetings = []string{"halo", "hai", "selamat", "hello", "hi"}

// RelevantContext ranks the trailing turns by word overlap with the current
// message (response words count half) and returns the best max turns, most
// relevant first. Turns with zero overlap are dropped.
func RelevantContext(history []store.Turn, currentMessage string, max int) []store.Turn {
	if len(history) == 0 || max <= 0 {
		return nil
	}
	if len(history) > relevanceWindow {
		history = history[len(history)-relevanceWindow:]
	}

	currentWords := wordSet(currentMessage)
	if len(currentWords) == 0 {
		return nil
	}

	type scored struct {
		turn  store.Turn
		score float64
	}
	var matches []scored
	for _, turn := range history {
		score := float64(overlap(currentWords, wordSet(turn.MessageText))) +
			0.5*float64(overlap(currentWords, wordSet(turn.ResponseText)))
		if score > 0 {
			matches = append(matches, scored{turn: turn, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].turn.Timestamp.After(matches[j].turn.Timestamp)
	})

	if len(matches) > max {
		matches = matches[:max]
	}
	out := make([]store.Turn, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.turn)
	}
	return out
}

// ShouldIncludeContext decides whether stored context belongs in the prompt.
// Continuation phrasing always includes it, short questions include it, and
// greetings start fresh.
func ShouldIncludeContext(currentMessage string) bool {
	messageLower := strings.ToLower(currentMessage)

	for _, kw := range continuationKeywords {
		if strings.Contains(messageLower, kw) {
			return true
		}
	}

	if len(strings.Fields(currentMessage)) <= 10 {
		for _, w := range questionWords {
			if strings.Contains(messageLower, w) {
				return true
			}
		}
	}

	for _, g := range greetings {
		if strings.Contains(messageLower, g) {
			return false
		}
	}

	return true
}

func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func overlap(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}
