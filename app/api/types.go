package api

import (
	"context"
	"time"

	"github.com/lysyi3m/news-tracker/app/cache"
	"github.com/lysyi3m/news-tracker/app/news"
	"github.com/lysyi3m/news-tracker/app/tasks"
)

type IngesterInterface interface {
	Ingest(ctx context.Context, sources []string, ownerID string, tickers []string) (*news.IngestResult, error)
}

type NewsServiceInterface interface {
	FetchNews(ctx context.Context, channels []string, date, ownerID string) []news.Item
	FetchNewsDetail(ctx context.Context, id, ownerID string) (*news.Detail, error)
	GetCitations(ctx context.Context, itemID string) ([]news.Citation, error)
	CountItems(ctx context.Context) (int, error)
}

type FeedGeneratorInterface interface {
	Run(title, link, selfLink string, items []news.Item) (string, error)
}

type TrackerStoreInterface interface {
	AddUser(ctx context.Context, ownerID string) error
	GetTrackerConfig(ctx context.Context, ownerID string) (*news.TrackerConfig, error)
	SaveTrackerConfig(ctx context.Context, ownerID string, config news.TrackerConfig) error
	GetWatchlistSymbols(ctx context.Context, ownerID string) ([]string, error)
	SaveWatchlistSymbols(ctx context.Context, ownerID string, symbols []string) error
}

var (
	_ IngesterInterface      = (*news.Aggregator)(nil)
	_ NewsServiceInterface   = (*news.Service)(nil)
	_ FeedGeneratorInterface = (*news.FeedGenerator)(nil)
)

type Handler struct {
	ingester      IngesterInterface
	service       NewsServiceInterface
	trackers      TrackerStoreInterface
	generator     FeedGeneratorInterface
	queryCache    cache.CacheInterface
	cacheTTL      time.Duration
	scheduler     tasks.TaskSchedulerInterface
	defaultConfig *news.TrackerConfig
	baseURL       string
}

type FetchNewsRequest struct {
	Sources      []string `json:"sources"`
	OwnerID      string   `json:"ownerId"`
	UserID       string   `json:"userId"`
	TickerFilter []string `json:"tickerFilter"`
	StockSymbols []string `json:"stockSymbols"`
}

type WatchlistRequest struct {
	Symbols []string `json:"symbols"`
}

type FetchNewsResponse struct {
	Items     []news.Item `json:"items"`
	Count     int         `json:"count"`
	Timestamp string      `json:"timestamp"`
	Persisted bool        `json:"persisted"`
	Warning   string      `json:"warning,omitempty"`
}
