package tasks

import (
	"context"

	"github.com/lysyi3m/news-tracker/app/news"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the API to manage background task processing.
//
//	scheduler := NewScheduler(aggregator, newsRepo, trackerRepo, trackerConfig, httpClient, extractor, opts)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueScheduledFetch()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueScheduledFetch() (TaskInterface, error)
}

type Enqueuer interface {
	EnqueueTask(task TaskInterface) error
}

type Ingester interface {
	Ingest(ctx context.Context, sources []string, ownerID string, tickers []string) (*news.IngestResult, error)
}

type JobRecorder interface {
	RecordJob(ctx context.Context, job news.FetchJob) error
}

type CitationRepository interface {
	ItemsPendingCitations(ctx context.Context, since string, limit int) ([]news.Item, error)
	StoreCitations(ctx context.Context, itemID string, citations []news.Citation) error
	MarkCitationStatus(ctx context.Context, itemID, status string) error
	RecordCitationAttempt(ctx context.Context, itemID string, attempts int) error
}
