package ai

import (
	"regexp"
	"strings"
)

// Supported language tags. Detection falls back to the configured default
// (indonesian unless overridden) when nothing scores high enough.
const (
	LangEnglish    = "english"
	LangSpanish    = "spanish"
	LangFrench     = "french"
	LangGerman     = "german"
	LangJapanese   = "japanese"
	LangKorean     = "korean"
	LangChinese    = "chinese"
	LangArabic     = "arabic"
	LangIndonesian = "indonesian"
)

// DefaultFallbackLanguage is used when no language scores above the noise floor.
const DefaultFallbackLanguage = LangIndonesian

type languageProfile struct {
	lang     string
	keywords []string
	patterns []*regexp.Regexp
}

// languageProfiles is an ordered slice, not a map. Ties between equal scores
// resolve to the earliest entry, so iteration order is part of the contract.
var languageProfiles = []languageProfile{
	{
		lang:     LangEnglish,
		keywords: []string{"hello", "hi", "what", "how", "why", "when", "where", "who", "can you", "please", "thank you", "analyze", "explain"},
		patterns: compileAll(`\bthe\b`, `\band\b`, `\bor\b`, `\bof\b`, `\bin\b`, `\bis\b`, `\bare\b`),
	},
	{
		lang:     LangSpanish,
		keywords: []string{"hola", "qué", "cómo", "por qué", "cuándo", "dónde", "quién", "puedes", "por favor", "gracias"},
		patterns: compileAll(`\bel\b`, `\bla\b`, `\by\b`, `\bde\b`, `\ben\b`, `\bes\b`),
	},
	{
		lang:     LangFrench,
		keywords: []string{"bonjour", "qu'est-ce que", "comment", "pourquoi", "quand", "où", "qui", "pouvez-vous", "merci"},
		patterns: compileAll(`\ble\b`, `\bla\b`, `\bet\b`, `\bde\b`, `\best\b`),
	},
	{
		lang:     LangGerman,
		keywords: []string{"hallo", "was", "wie", "warum", "wann", "wo", "wer", "können sie", "danke"},
		patterns: compileAll(`\bder\b`, `\bdie\b`, `\bdas\b`, `\bund\b`, `\bist\b`),
	},
	{
		lang:     LangJapanese,
		keywords: []string{"こんにちは", "ありがとう", "なに", "どう", "なぜ", "いつ", "どこ"},
		patterns: compileAll(`\p{Hiragana}`, `\p{Katakana}`, `です`, `ます`),
	},
	{
		lang:     LangKorean,
		keywords: []string{"안녕하세요", "감사합니다", "무엇", "어떻게", "왜", "언제", "어디서"},
		patterns: compileAll(`[가-힣]`, `입니다`, `습니다`),
	},
	{
		lang:     LangChinese,
		keywords: []string{"你好", "谢谢", "什么", "怎么", "为什么", "什么时候", "哪里"},
		patterns: compileAll(`[一-龯]`, `的`, `了`, `是`),
	},
	{
		lang:     LangArabic,
		keywords: []string{"مرحبا", "شكرا", "ماذا", "كيف", "لماذا", "متى", "أين"},
		patterns: compileAll(`[ا-ي]`, `في`, `من`),
	},
	{
		lang:     LangIndonesian,
		keywords: []string{"halo", "apa", "bagaimana", "mengapa", "kapan", "dimana", "siapa", "tolong", "terima kasih"},
		patterns: compileAll(`\byang\b`, `\bdan\b`, `\bdi\b`, `\badalah\b`),
	},
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

// DetectLanguage scores the text against every language profile and returns
// the best tag with a confidence in [0,1]. Keyword hits count double, regex
// hits count per match, and the raw score is normalized by whitespace token
// count so long messages don't dominate. Scores under 0.1 are treated as
// noise and yield the fallback language at confidence 0.5. The confidence is
// a clamped heuristic, not a calibrated probability.
func (a *Analyzer) DetectLanguage(text string) (string, float64) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return a.fallback, 0.5
	}

	textLower := strings.ToLower(trimmed)
	tokens := len(strings.Fields(textLower))
	if tokens == 0 {
		return a.fallback, 0.5
	}

	bestLang := ""
	bestScore := -1.0
	for _, p := range languageProfiles {
		score := 0.0
		for _, kw := range p.keywords {
			if strings.Contains(textLower, kw) {
				score += 2
			}
		}
		for _, re := range p.patterns {
			score += float64(len(re.FindAllString(textLower, -1)))
		}
		score /= float64(tokens)
		if score > bestScore {
			bestScore = score
			bestLang = p.lang
		}
	}

	confidence := bestScore
	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < 0.1 {
		return a.fallback, 0.5
	}
	return bestLang, confidence
}

// languageDirective returns the "respond in X" instruction that leads every
// generation prompt. Unknown tags get the fallback language's directive.
var languageDirectives = map[string]string{
	LangIndonesian: "Respond in Bahasa Indonesia.",
	LangEnglish:    "Respond in English.",
	LangSpanish:    "Responde en Español.",
	LangFrench:     "Répondez en Français.",
	LangGerman:     "Antworten Sie auf Deutsch.",
	LangJapanese:   "日本語で返答してください。",
	LangKorean:     "한국어로 답변해주세요.",
	LangChinese:    "请用中文回答。",
	LangArabic:     "أجب باللغة العربية.",
}

func languageDirective(lang string) string {
	if d, ok := languageDirectives[lang]; ok {
		return d
	}
	return languageDirectives[LangIndonesian]
}
