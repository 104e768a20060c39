package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lysyi3m/news-tracker/app/news"
)

type TrackerRepository struct {
	store DocumentStoreInterface
}

func NewTrackerRepository(store DocumentStoreInterface) *TrackerRepository {
	return &TrackerRepository{store: store}
}

type watchlistRecord struct {
	Items []struct {
		Symbol string `json:"symbol"`
	} `json:"items"`
}

func (r *TrackerRepository) ListUsers(ctx context.Context) ([]string, error) {
	docs, err := r.store.List(ctx, CollectionUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]string, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.ID)
	}

	return users, nil
}

func (r *TrackerRepository) AddUser(ctx context.Context, ownerID string) error {
	return r.store.Set(ctx, CollectionUsers, Document{ID: ownerID, OwnerID: ownerID})
}

// GetTrackerConfig returns nil when the owner has no stored configuration.
func (r *TrackerRepository) GetTrackerConfig(ctx context.Context, ownerID string) (*news.TrackerConfig, error) {
	doc, err := r.store.Get(ctx, CollectionNewsSources, ownerID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}

	var config news.TrackerConfig
	if err := doc.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to decode tracker config for %s: %w", ownerID, err)
	}

	return &config, nil
}

func (r *TrackerRepository) SaveTrackerConfig(ctx context.Context, ownerID string, config news.TrackerConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid tracker config: %w", err)
	}

	data, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode tracker config: %w", err)
	}

	return r.store.Set(ctx, CollectionNewsSources, Document{ID: ownerID, OwnerID: ownerID, Data: data})
}

func (r *TrackerRepository) GetWatchlistSymbols(ctx context.Context, ownerID string) ([]string, error) {
	doc, err := r.store.Get(ctx, CollectionWatchlists, ownerID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}

	var watchlist watchlistRecord
	if err := doc.Decode(&watchlist); err != nil {
		return nil, fmt.Errorf("failed to decode watchlist for %s: %w", ownerID, err)
	}

	symbols := make([]string, 0, len(watchlist.Items))
	for _, item := range watchlist.Items {
		if item.Symbol != "" {
			symbols = append(symbols, item.Symbol)
		}
	}

	return symbols, nil
}

func (r *TrackerRepository) SaveWatchlistSymbols(ctx context.Context, ownerID string, symbols []string) error {
	var watchlist watchlistRecord
	for _, symbol := range symbols {
		watchlist.Items = append(watchlist.Items, struct {
			Symbol string `json:"symbol"`
		}{Symbol: symbol})
	}

	data, err := json.Marshal(watchlist)
	if err != nil {
		return fmt.Errorf("failed to encode watchlist: %w", err)
	}

	return r.store.Set(ctx, CollectionWatchlists, Document{ID: ownerID, OwnerID: ownerID, Data: data})
}

func (r *TrackerRepository) GetLatestJob(ctx context.Context, ownerID string) (*news.FetchJob, error) {
	query := Query{
		Collection: CollectionFetchJobs,
		OrderBy:    "updatedAt",
		Desc:       true,
		Limit:      1,
	}
	if ownerID != "" {
		query.Filters = []Filter{{Field: "ownerId", Op: OpEqual, Value: ownerID}}
	} else {
		query.Filters = []Filter{{Field: "ownerId", Op: OpIsNull}}
	}

	docs, err := r.store.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest job: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	var job news.FetchJob
	if err := docs[0].Decode(&job); err != nil {
		return nil, fmt.Errorf("failed to decode job %s: %w", docs[0].ID, err)
	}
	job.ID = docs[0].ID
	job.OwnerID = docs[0].OwnerID

	return &job, nil
}

func (r *TrackerRepository) RecordJob(ctx context.Context, job news.FetchJob) error {
	if job.ID == "" {
		job.ID = news.JobID(job.OwnerID, job.Date)
	}

	ownerID := job.OwnerID
	job.OwnerID = ""

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job %s: %w", job.ID, err)
	}

	return r.store.Set(ctx, CollectionFetchJobs, Document{ID: job.ID, OwnerID: ownerID, Data: data})
}
