package ai

import "regexp"

// DefaultGroundingThreshold is the score a message must reach before the
// grounded generation path is taken. Kept low on purpose so factual-looking
// messages lean toward search.
const DefaultGroundingThreshold = 2

type groundingTier struct {
	weight   int
	patterns []*regexp.Regexp
}

var groundingTiers = []groundingTier{
	{
		weight: 3,
		patterns: compileAll(
			`(terbaru|latest|recent|breaking|aktual)`,
			`(hari ini|today|sekarang|now|saat ini)`,
			`(berita|news|kejadian|events|peristiwa)`,
			`(2024|2025|tahun ini|this year)`,
			`(kemarin|yesterday|minggu ini|this week)`,
			`(siapa yang|who is|who are|siapa sekarang)`,
			`(apa yang terjadi|what happened|what's happening)`,
			`(dimana|where is|where are|lokasi)`,
			`(kapan|when did|when will|jadwal)`,
			`(berapa|how much|how many|price|harga)`,
			`(statistik|data|facts|fakta|informasi)`,
			`(populasi|population|jumlah penduduk)`,
			`(alamat|address|location|tempat)`,
			`(weather|cuaca|temperature|suhu)`,
			`(stock|saham|cryptocurrency|crypto)`,
			`(election|pemilu|politik|government)`,
			`(sports|olahraga|match|pertandingan)`,
			`(technology|teknologi|gadget|software)`,
			`(health|kesehatan|medical|medis)`,
			`(ekonomi|economy|inflation|inflasi)`,
		),
	},
	{
		weight: 2,
		patterns: compileAll(
			`(apa itu|what is|qu'est-ce que|was ist)`,
			`(siapa|who|qui|wer)`,
			`(mengapa|why|pourquoi|warum)`,
			`(bagaimana|how|comment|wie)`,
			`(bandingkan|compare|comparison|perbandingan)`,
			`(difference|perbedaan|berbeda|distinct)`,
			`(lebih baik|better|best|terbaik)`,
			`(vs|versus|dibanding|compared to)`,
			`(penelitian|research|study|studi)`,
			`(university|universitas|college|kampus)`,
			`(buku|book|artikel|article|paper)`,
			`(definisi|definition|meaning|arti)`,
			`(company|perusahaan|corporation|bisnis)`,
			`(ceo|founder|pendiri|owner|pemilik)`,
			`(product|produk|service|layanan)`,
			`(market|pasar|industry|industri)`,
		),
	},
	{
		weight: 1,
		patterns: compileAll(
			`(sejarah|history|historical|historique)`,
			`(budaya|culture|tradition|tradisi)`,
			`(bahasa|language|linguistic|linguistik)`,
			`(negara|country|nation|bangsa)`,
			`(pelajaran|lesson|tutorial|guide)`,
			`(explain|jelaskan|cara|method)`,
			`(tips|advice|saran|recommendation)`,
			`(example|contoh|sample|ilustrasi)`,
		),
	},
}

var questionIndicators = compileAll(
	`\b(apa|what|siapa|who|dimana|where|kapan|when|berapa|how much|how many)\b`,
	`\b(bagaimana|how|mengapa|why|apakah|is|are)\b`,
)

var timeKeywords = compileAll(
	`\b(2024|2025|tahun ini|this year|bulan ini|this month)\b`,
	`\b(tadi|just|baru saja|recently|lately)\b`,
	`\b(akan|will|future|masa depan|nanti)\b`,
)

var factualIndicators = compileAll(
	`\b(data|statistics|facts|informasi|detail|specification)\b`,
	`\b(official|resmi|accurate|akurat|valid)\b`,
	`\b(source|sumber|reference|referensi)\b`,
)

var domainKeywords = compileAll(
	`\b(api|software|hardware|programming|coding)\b`,
	`\b(medicine|medical|health|treatment|obat)\b`,
	`\b(legal|law|regulation|peraturan|hukum)\b`,
	`\b(finance|financial|investment|investasi)\b`,
)

var uncertaintyIndicators = compileAll(
	`\b(correct|benar|accurate|akurat|sure|yakin)\b`,
	`\b(verify|verifikasi|confirm|konfirmasi)\b`,
	`\b(real|nyata|actual|sebenarnya)\b`,
)

var alwaysGroundPatterns = compileAll(
	`\b(price|harga|cost|biaya)\b.*\b(today|hari ini|now|sekarang)\b`,
	`\b(status|kondisi|condition)\b.*\b(current|terkini|latest)\b`,
	`\b(update|pembaruan|info terbaru)\b`,
	`\b(live|realtime|real-time)\b`,
)

var (
	properNounRe = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)
	numericRe    = regexp.MustCompile(`\b\d+(?:[.,]\d+)*\b`)
)

// GroundingEngine decides whether a message should go through search-grounded
// generation. It is pure: no I/O, no randomness, safe for concurrent use.
type GroundingEngine struct {
	threshold int
}

// NewGroundingEngine builds an engine with the given score threshold.
// Thresholds below 1 fall back to the default.
func NewGroundingEngine(threshold int) *GroundingEngine {
	if threshold < 1 {
		threshold = DefaultGroundingThreshold
	}
	return &GroundingEngine{threshold: threshold}
}

// Threshold returns the configured score threshold.
func (g *GroundingEngine) Threshold() int { return g.threshold }

// ShouldGround reports whether the message warrants grounded generation.
// Current-events and factual-query intents always ground. Otherwise the
// message accumulates tiered pattern scores plus heuristic bonuses, the
// always-ground list gets a final say, and the score is compared to the
// threshold. Adding characters to a message never lowers the score.
func (g *GroundingEngine) ShouldGround(analysis IntentAnalysis, message string) (bool, int) {
	if analysis.PrimaryIntent == IntentCurrentEvents || analysis.PrimaryIntent == IntentFactualQuery {
		return true, 0
	}

	messageLower := toLowerTrim(message)
	score := 0

	for _, tier := range groundingTiers {
		for _, re := range tier.patterns {
			score += len(re.FindAllString(messageLower, -1)) * tier.weight
		}
	}

	for _, re := range questionIndicators {
		if re.MatchString(messageLower) {
			score++
		}
	}
	for _, re := range timeKeywords {
		if re.MatchString(messageLower) {
			score += 2
		}
	}
	for _, re := range factualIndicators {
		if re.MatchString(messageLower) {
			score++
		}
	}
	if properNounRe.MatchString(message) {
		score++
	}
	if numericRe.MatchString(message) {
		score++
	}
	for _, re := range domainKeywords {
		if re.MatchString(messageLower) {
			score += 2
		}
	}
	for _, re := range uncertaintyIndicators {
		if re.MatchString(messageLower) {
			score++
		}
	}

	for _, re := range alwaysGroundPatterns {
		if re.MatchString(messageLower) {
			return true, score
		}
	}

	return score >= g.threshold, score
}
