package news

import (
	"time"
)

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

type Tone string

const (
	TonePositive Tone = "positive"
	ToneNegative Tone = "negative"
)

// RawCandidate is one news item as described by the generator. Every field
// may be missing.
type RawCandidate struct {
	Headline    string `json:"headline"`
	Summary     string `json:"summary"`
	Source      string `json:"source"`
	StockSymbol string `json:"stockSymbol,omitempty"`
	StockName   string `json:"stockName,omitempty"`
	Sentiment   string `json:"sentiment"`
	Confidence  string `json:"confidence"`
	Date        string `json:"date"`
	URL         string `json:"url,omitempty"`
}

type GeneratorResponse struct {
	Items     []RawCandidate `json:"items"`
	Sources   []string       `json:"sources"`
	Timestamp string         `json:"timestamp"`
}

type Item struct {
	ID             string  `json:"id"`
	Code           string  `json:"code"`
	Name           string  `json:"name"`
	Headline       string  `json:"headline"`
	Summary        string  `json:"summary,omitempty"`
	Source         string  `json:"source"`
	URL            string  `json:"url,omitempty"`
	CMP            float64 `json:"cmp"`
	PE             float64 `json:"pe"`
	Change         float64 `json:"change"`
	ChangeTone     Tone    `json:"changeTone"`
	Sector         string  `json:"sector"`
	Confidence     string  `json:"confidence"`
	Date           string  `json:"date"`
	OwnerID        string  `json:"ownerId,omitempty"`
	CitationStatus string  `json:"citationStatus,omitempty"` // success, failed
	// CitationAttempts counts failed extractions that will be retried
	CitationAttempts int       `json:"citationAttempts,omitempty"`
	CreatedAt        time.Time `json:"createdAt,omitzero"`
	UpdatedAt        time.Time `json:"updatedAt,omitzero"`
}

type IngestResult struct {
	Items     []Item
	Sources   []string
	Timestamp string
	// PersistErr is set when the items were computed but not (fully) stored
	PersistErr error
}

type MarketImpact struct {
	Level      string  `json:"level"`
	Percentage float64 `json:"percentage"`
}

type InvestorMood struct {
	Bullish float64 `json:"bullish"`
	Neutral float64 `json:"neutral"`
	Bearish float64 `json:"bearish"`
}

type Detail struct {
	ID             string             `json:"id"`
	Code           string             `json:"code"`
	Name           string             `json:"name"`
	Summary        string             `json:"summary"`
	MarketImpact   MarketImpact       `json:"marketImpact"`
	ExpertReview   string             `json:"expertReview"`
	Changes        map[string]float64 `json:"changes"`
	InvestorMood   InvestorMood       `json:"investorMood"`
	DominantPhrase string             `json:"dominantPhrase"`
	Citations      []Citation         `json:"citations"`
	OwnerID        string             `json:"ownerId,omitempty"`
	CreatedAt      time.Time          `json:"createdAt,omitzero"`
	UpdatedAt      time.Time          `json:"updatedAt,omitzero"`
}

type Citation struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Source      string    `json:"source"`
	ExtractedAt time.Time `json:"extractedAt,omitzero"`
}

type ItemQuery struct {
	Date    string
	OwnerID string
	Sources []string
	Limit   int
}

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// FetchJob records the outcome of one scheduled ingestion for an owner and day.
type FetchJob struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"ownerId,omitempty"`
	Date       string    `json:"date"`
	Source     string    `json:"source"`
	Status     string    `json:"status"`
	LastRun    time.Time `json:"lastRun"`
	ItemsCount int       `json:"itemsCount"`
	Sources    []string  `json:"sources"`
	ErrorLog   string    `json:"errorLog"`
}

func JobID(ownerID, date string) string {
	if ownerID == "" {
		ownerID = "global"
	}
	return "job_" + ownerID + "_" + date
}
