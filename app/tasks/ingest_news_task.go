package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/news-tracker/app/cache"
	"github.com/lysyi3m/news-tracker/app/news"
)

// IngestNewsTask runs the ingestion pipeline once for an owner. It is never
// retried.
type IngestNewsTask struct {
	Task
	Sources  []string
	Tickers  []string
	ingester Ingester
	jobs     JobRecorder
	// queryCache is cleared after a successful run so readers see new items
	queryCache cache.CacheInterface
	now        func() time.Time
}

func NewIngestNewsTask(ownerID string, sources, tickers []string, ingester Ingester, jobs JobRecorder) *IngestNewsTask {
	task := NewTask(TaskTypeIngestNews, ownerID)
	task.MaxRetries = 0

	return &IngestNewsTask{
		Task:     task,
		Sources:  sources,
		Tickers:  tickers,
		ingester: ingester,
		jobs:     jobs,
		now:      time.Now,
	}
}

func (t *IngestNewsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	sources := t.Sources
	if len(sources) == 0 {
		sources = news.DefaultSources
	}

	now := t.now().UTC()
	job := news.FetchJob{
		ID:      news.JobID(t.OwnerID, now.Format("2006-01-02")),
		OwnerID: t.OwnerID,
		Date:    now.Format("2006-01-02"),
		Source:  "scheduled",
		Status:  news.JobStatusRunning,
		LastRun: now,
		Sources: sources,
	}
	t.recordJob(ctx, job)

	result, err := t.ingester.Ingest(ctx, sources, t.OwnerID, t.Tickers)
	if err != nil {
		job.Status = news.JobStatusFailed
		job.ErrorLog = err.Error()
		job.LastRun = t.now().UTC()
		t.recordJob(context.WithoutCancel(ctx), job)
		return fmt.Errorf("failed to ingest news: %w", err)
	}

	job.Status = news.JobStatusCompleted
	job.ItemsCount = len(result.Items)
	job.LastRun = t.now().UTC()
	if result.PersistErr != nil {
		job.ErrorLog = fmt.Sprintf("items not persisted: %v", result.PersistErr)
	}
	t.recordJob(ctx, job)

	if t.queryCache != nil && len(result.Items) > 0 {
		if err := t.queryCache.DeletePrefix(context.WithoutCancel(ctx), cache.NewsPrefix); err != nil {
			slog.Warn("Failed to invalidate news cache", "owner", t.OwnerID, "error", err)
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"owner", t.OwnerID,
		"items", len(result.Items),
		"persisted", result.PersistErr == nil,
		"duration", t.GetDuration())

	return nil
}

func (t *IngestNewsTask) recordJob(ctx context.Context, job news.FetchJob) {
	if t.jobs == nil {
		return
	}
	if err := t.jobs.RecordJob(ctx, job); err != nil {
		slog.Error("Failed to update job status", "job", job.ID, "status", job.Status, "error", err)
	}
}
