package news

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	two     = decimal.NewFromInt(2)
	five    = decimal.NewFromInt(5)
	hundred = decimal.NewFromInt(100)
)

// BuildDetail derives the detail view of an item from its change and citations.
func BuildDetail(item Item, citations []Citation, now time.Time) Detail {
	change := decimal.NewFromFloat(item.Change)

	if citations == nil {
		citations = []Citation{}
	}

	expertReview := "Negative"
	if item.ChangeTone == TonePositive {
		expertReview = "Positive"
	}

	return Detail{
		ID:           item.ID,
		Code:         item.Code,
		Name:         item.Name,
		Summary:      detailSummary(item.Headline, citations),
		MarketImpact: marketImpact(change),
		ExpertReview: expertReview,
		Changes: map[string]float64{
			"1D": round(change),
			"1W": round(change.Mul(two)),
			"1M": round(change.Mul(decimal.NewFromInt(4))),
			"1Y": round(change.Mul(decimal.NewFromInt(10))),
		},
		InvestorMood:   investorMood(item.ChangeTone, change),
		DominantPhrase: dominantPhrase(item.Headline),
		Citations:      citations,
		OwnerID:        item.OwnerID,
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      now,
	}
}

func marketImpact(change decimal.Decimal) MarketImpact {
	abs := change.Abs()

	switch {
	case change.GreaterThan(five):
		return MarketImpact{Level: "Very Positive", Percentage: round(decimal.Min(abs.Mul(decimal.NewFromInt(15)), hundred))}
	case change.GreaterThan(two):
		return MarketImpact{Level: "Positive", Percentage: round(decimal.Min(abs.Mul(decimal.NewFromInt(12)), decimal.NewFromInt(85)))}
	case change.LessThan(five.Neg()):
		return MarketImpact{Level: "Very Negative", Percentage: round(decimal.Min(abs.Mul(decimal.NewFromInt(15)), hundred))}
	case change.LessThan(two.Neg()):
		return MarketImpact{Level: "Negative", Percentage: round(decimal.Min(abs.Mul(decimal.NewFromInt(12)), decimal.NewFromInt(85)))}
	default:
		return MarketImpact{Level: "Neutral", Percentage: round(decimal.Min(abs.Mul(decimal.NewFromInt(10)), decimal.NewFromInt(50)))}
	}
}

func investorMood(tone Tone, change decimal.Decimal) InvestorMood {
	abs := change.Abs()
	n := decimal.NewFromInt

	if tone == TonePositive {
		return InvestorMood{
			Bullish: round(decimal.Min(n(40).Add(abs.Mul(n(5))), n(70))),
			Neutral: round(decimal.Max(n(30).Sub(abs.Mul(n(2))), n(20))),
			Bearish: round(decimal.Max(n(30).Sub(abs.Mul(n(3))), n(10))),
		}
	}

	return InvestorMood{
		Bullish: round(decimal.Max(n(20).Sub(abs.Mul(n(2))), n(10))),
		Neutral: round(decimal.Max(n(30).Sub(abs), n(20))),
		Bearish: round(decimal.Min(n(50).Add(abs.Mul(n(3))), n(70))),
	}
}

func detailSummary(headline string, citations []Citation) string {
	if len(citations) > 0 && citations[0].Summary != "" {
		return citations[0].Summary
	}
	return headline
}

func dominantPhrase(headline string) string {
	lower := strings.ToLower(headline)

	switch {
	case strings.Contains(lower, "growth"), strings.Contains(lower, "increase"):
		return "Strong growth"
	case strings.Contains(lower, "decline"), strings.Contains(lower, "drop"):
		return "Declining performance"
	default:
		return "Strategic partnership"
	}
}

func round(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
