package news

import (
	"context"
)

type Repository interface {
	ItemStore

	QueryItems(ctx context.Context, q ItemQuery) ([]Item, error)
	GetItem(ctx context.Context, id string) (*Item, error)
	CountItems(ctx context.Context) (int, error)

	GetDetail(ctx context.Context, id string) (*Detail, error)
	StoreDetail(ctx context.Context, detail Detail) error

	GetCitations(ctx context.Context, itemID string) ([]Citation, error)
}

type TrackerRepository interface {
	ListUsers(ctx context.Context) ([]string, error)
	GetTrackerConfig(ctx context.Context, ownerID string) (*TrackerConfig, error)
	SaveTrackerConfig(ctx context.Context, ownerID string, config TrackerConfig) error
	GetWatchlistSymbols(ctx context.Context, ownerID string) ([]string, error)
	GetLatestJob(ctx context.Context, ownerID string) (*FetchJob, error)
	RecordJob(ctx context.Context, job FetchJob) error
}
