package database

import (
	"encoding/json"
	"time"
)

// Document is a JSON record stored under a collection. An empty OwnerID marks
// a global document.
type Document struct {
	ID        string
	OwnerID   string
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (d *Document) Decode(v any) error {
	return json.Unmarshal(d.Data, v)
}

type Operator string

const (
	OpEqual        Operator = "=="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpIn           Operator = "in"
	OpIsNull       Operator = "is null"
)

type Filter struct {
	Field string
	Op    Operator
	Value any
}

type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Desc       bool
	Limit      int
}

// Collection names
const (
	CollectionNewsItems   = "news_items"
	CollectionNewsDetails = "news_details"
	CollectionCitations   = "citations"
	CollectionUsers       = "users"
	CollectionNewsSources = "news_sources"
	CollectionWatchlists  = "watchlists"
	CollectionFetchJobs   = "news_fetch_jobs"
)

var zeroTime time.Time
