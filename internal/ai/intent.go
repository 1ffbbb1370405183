package ai

import (
	"regexp"
	"strings"
)

// Intent labels produced by AnalyzeIntent.
const (
	IntentDetailedExplanation = "detailed_explanation"
	IntentSimpleQuestion      = "simple_question"
	IntentUrgentHelp          = "urgent_help"
	IntentGreeting            = "greeting"
	IntentCurrentEvents       = "current_events"
	IntentFactualQuery        = "factual_query"
	IntentGeneral             = "general"
)

// Complexity levels.
const (
	ComplexityLow    = "low"
	ComplexityMedium = "medium"
	ComplexityHigh   = "high"
)

// Response style dimensions.
const (
	LengthShort  = "short"
	LengthMedium = "medium"
	LengthLong   = "long"

	ToneFriendly = "friendly"
	ToneHelpful  = "helpful"

	FormatParagraph  = "paragraph"
	FormatStructured = "structured"
)

// ResponseStyle describes how the model should shape its answer.
type ResponseStyle struct {
	Length string
	Tone   string
	Format string
}

// IntentAnalysis is the result of classifying a single user message.
type IntentAnalysis struct {
	Language        string
	Confidence      float64
	PrimaryIntent   string
	Complexity      string
	Style           ResponseStyle
	MessageLength   int
	HasQuestionMark bool
}

// Analyzer bundles the pure classifiers: language detection, intent
// classification and command detection. All pattern tables are compiled once
// at package init; an Analyzer is safe for concurrent use.
type Analyzer struct {
	fallback string
}

// NewAnalyzer returns an Analyzer using the given fallback language tag.
// An empty tag means DefaultFallbackLanguage.
func NewAnalyzer(fallback string) *Analyzer {
	if fallback == "" {
		fallback = DefaultFallbackLanguage
	}
	return &Analyzer{fallback: fallback}
}

type intentGroup struct {
	intent   string
	weight   int
	patterns []*regexp.Regexp
}

// Ordered by table position: the first group with the highest score wins.
var intentGroups = []intentGroup{
	{
		intent: IntentDetailedExplanation,
		weight: 2,
		patterns: compileAll(
			`(jelaskan|explain|expliquer|erklären|説明|설명|解释|اشرح)`,
			`(bagaimana|how|comment|wie|どうやって|어떻게|怎么|كيف)`,
			`(mengapa|why|pourquoi|warum|なぜ|왜|为什么|لماذا)`,
			`(analisa|analyze|analyser|analysieren|分析|분석|تحليل)`,
			`(detail|detailed|détaillé|detailliert|詳細|자세히|详细|تفصيلي)`,
			`(tutorial|guide|panduan|anleitung|ガイド|가이드|指南|دليل)`,
		),
	},
	{
		intent: IntentSimpleQuestion,
		weight: 3,
		patterns: compileAll(
			`^(apa|what|qu'?est|was|何|무엇|什么|ما)\s`,
			`^(siapa|who|qui|wer|誰|누구|谁|من)\s`,
			`^(kapan|when|quand|wann|いつ|언제|什么时候|متى)\s`,
			`^(dimana|where|où|wo|どこ|어디|哪里|أين)\s`,
			`^(apakah|is|est|ist|ですか|입니까|是|هل)`,
			`(ya\?|no\?|yes\?|benar\?|true\?|정말\?|真的\?|صحيح\?)`,
		),
	},
	{
		intent: IntentUrgentHelp,
		weight: 2,
		patterns: compileAll(
			`(urgent|mendesak|tolong|help|aide|hilfe|助けて|도와주세요|帮助|مساعدة)`,
			`(cepat|quick|vite|schnell|早く|빨리|快|بسرعة)`,
		),
	},
	{
		intent: IntentGreeting,
		weight: 1,
		patterns: compileAll(
			`^(hai|halo|hello|hi|salut|hallo|こんにちは|안녕|你好|مرحبا)`,
			`(selamat|good|bon|guten|おはよう|안녕하세요|早上好|صباح الخير)`,
		),
	},
	{
		intent: IntentCurrentEvents,
		weight: 3,
		patterns: compileAll(
			`(terbaru|latest|recent|atual|récent|aktuell|最新|최신|最近|أحدث)`,
			`(sekarang|now|maintenant|jetzt|今|지금|现在|الآن)`,
			`(hari ini|today|aujourd'hui|heute|今日|오늘|今天|اليوم)`,
			`(berita|news|nouvelles|nachrichten|ニュース|뉴스|新闻|أخبار)`,
			`(kejadian|events|événements|ereignisse|イベント|사건|事件|أحداث)`,
			`(siapa yang menang|who won|qui a gagné|wer hat gewonnen|誰が勝った|누가 이겼나|谁赢了|من فاز)`,
			`(kapan|when|quand|wann|いつ|언제|什么时候|متى).*2024`,
			`(euro 2024|olympics|world cup|election|pemilu)`,
		),
	},
	{
		intent: IntentFactualQuery,
		weight: 2,
		patterns: compileAll(
			`(berapa|how much|how many|combien|wie viel|いくら|얼마|多少|كم)`,
			`(dimana|where|où|wo|どこ|어디|哪里|أين)`,
			`(statistik|statistics|statistiques|statistiken|統計|통계|统计|إحصائيات)`,
			`(data|données|daten|データ|데이터|数据|بيانات)`,
			`(harga|price|prix|preis|価格|가격|价格|سعر)`,
			`(populasi|population|einwohner|人口|인구|سكان)`,
			`(alamat|address|adresse|住所|주소|地址|عنوان)`,
			`(nomor|number|numéro|nummer|番号|번호|号码|رقم)`,
		),
	},
}

var (
	highComplexityRe = regexp.MustCompile(`(mengapa|why|bagaimana|how|jelaskan|explain|analisa|analyze)`)
	lowComplexityRe  = regexp.MustCompile(`^(ya|no|yes|ok|terima kasih|thanks)$`)
)

// AnalyzeIntent classifies a message. An empty language triggers detection;
// a caller-supplied language is trusted at confidence 0.8. An empty message
// yields the neutral default analysis.
func (a *Analyzer) AnalyzeIntent(message, language string) IntentAnalysis {
	if message == "" {
		return a.DefaultIntent()
	}

	confidence := 0.8
	if language == "" {
		language, confidence = a.DetectLanguage(message)
	}

	messageLower := strings.ToLower(strings.TrimSpace(message))

	primary := IntentGeneral
	bestScore := 0
	for _, g := range intentGroups {
		score := 0
		for _, re := range g.patterns {
			score += len(re.FindAllString(messageLower, -1)) * g.weight
		}
		if score > bestScore {
			bestScore = score
			primary = g.intent
		}
	}

	complexity := complexityOf(messageLower)

	return IntentAnalysis{
		Language:        language,
		Confidence:      confidence,
		PrimaryIntent:   primary,
		Complexity:      complexity,
		Style:           styleFor(primary, complexity),
		MessageLength:   len(strings.Fields(message)),
		HasQuestionMark: strings.Contains(message, "?"),
	}
}

// DefaultIntent is the analysis used for empty messages and captionless images.
func (a *Analyzer) DefaultIntent() IntentAnalysis {
	return IntentAnalysis{
		Language:      a.fallback,
		Confidence:    0.5,
		PrimaryIntent: IntentGeneral,
		Complexity:    ComplexityMedium,
		Style:         ResponseStyle{Length: LengthMedium, Tone: ToneFriendly, Format: FormatParagraph},
	}
}

func complexityOf(messageLower string) string {
	if highComplexityRe.MatchString(messageLower) {
		return ComplexityHigh
	}
	if lowComplexityRe.MatchString(messageLower) {
		return ComplexityLow
	}
	return ComplexityMedium
}

// styleFor maps intent to a base style, then lets complexity adjust length:
// high complexity upgrades short to medium, low complexity forces short.
func styleFor(intent, complexity string) ResponseStyle {
	style := ResponseStyle{Length: LengthMedium, Tone: ToneFriendly, Format: FormatParagraph}

	switch intent {
	case IntentDetailedExplanation:
		style.Length = LengthLong
		style.Format = FormatStructured
	case IntentSimpleQuestion:
		style.Length = LengthShort
	case IntentUrgentHelp:
		style.Length = LengthMedium
		style.Tone = ToneHelpful
	case IntentGreeting:
		style.Length = LengthShort
	}

	if complexity == ComplexityHigh && style.Length == LengthShort {
		style.Length = LengthMedium
	} else if complexity == ComplexityLow {
		style.Length = LengthShort
	}

	return style
}
