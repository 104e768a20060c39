package news

import (
	"cmp"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"
)

type Normalizer struct {
	// random returns a value in [0, 1). Shared normalizers need a
	// goroutine-safe source.
	random func() float64
	now    func() time.Time
}

func NewNormalizer() *Normalizer {
	return &Normalizer{random: rand.Float64, now: time.Now}
}

// NewSeededNormalizer returns a normalizer with a deterministic change sequence.
// It must not be shared between goroutines.
func NewSeededNormalizer(seed1, seed2 uint64) *Normalizer {
	return &Normalizer{random: rand.New(rand.NewPCG(seed1, seed2)).Float64, now: time.Now}
}

func (n *Normalizer) Run(candidate RawCandidate, ownerID string) Item {
	headline := cmp.Or(candidate.Headline, "No headline")
	source := MapSource(cmp.Or(candidate.Source, "Unknown"))
	date := cmp.Or(candidate.Date, n.now().UTC().Format(dateLayout))
	code := cmp.Or(strings.ToUpper(candidate.StockSymbol), "UNKNOWN")

	tone := ToneNegative
	if candidate.Sentiment == SentimentPositive {
		tone = TonePositive
	}

	return Item{
		ID:         GenerateID(headline, source, date),
		Code:       code,
		Name:       cmp.Or(candidate.StockName, code),
		Headline:   headline,
		Summary:    cmp.Or(candidate.Summary, headline),
		Source:     source,
		URL:        candidate.URL,
		CMP:        0,
		PE:         0,
		Change:     n.change(candidate.Sentiment),
		ChangeTone: tone,
		Sector:     "General",
		Confidence: cmp.Or(candidate.Confidence, "Medium"),
		Date:       date,
		OwnerID:    ownerID,
	}
}

// change is a placeholder percentage until real market data is wired in.
func (n *Normalizer) change(sentiment string) float64 {
	switch sentiment {
	case SentimentPositive:
		return 5.5 - n.random()*5
	case SentimentNegative:
		return -(5.5 - n.random()*5)
	default:
		return n.random()*2 - 1
	}
}

// GenerateID derives a stable item id from headline, source and date.
// Collisions are possible.
func GenerateID(headline, source, date string) string {
	return "news_" + hashKey(headline+source+date)
}

func CitationID(url string) string {
	return "cit_" + hashKey(url)
}

// hashKey is the 32-bit h = 31*h + c string hash over UTF-16 code units,
// rendered as base36 of its absolute value.
func hashKey(s string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}

	abs := int64(h)
	if abs < 0 {
		abs = -abs
	}

	return strconv.FormatInt(abs, 36)
}
