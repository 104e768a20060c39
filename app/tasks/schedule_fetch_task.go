package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/news-tracker/app/cache"
	"github.com/lysyi3m/news-tracker/app/news"
)

// ScheduleFetchTask decides which owners are due for ingestion and enqueues
// one IngestNewsTask per owner.
type ScheduleFetchTask struct {
	Task
	ingester      Ingester
	trackerRepo   news.TrackerRepository
	defaultConfig *news.TrackerConfig
	enqueuer      Enqueuer
	queryCache    cache.CacheInterface
	now           func() time.Time
}

func NewScheduleFetchTask(ingester Ingester, trackerRepo news.TrackerRepository, defaultConfig *news.TrackerConfig, enqueuer Enqueuer) *ScheduleFetchTask {
	if defaultConfig == nil {
		defaultConfig = news.DefaultTrackerConfig()
	}

	return &ScheduleFetchTask{
		Task:          NewTask(TaskTypeScheduleFetch, ""),
		ingester:      ingester,
		trackerRepo:   trackerRepo,
		defaultConfig: defaultConfig,
		enqueuer:      enqueuer,
		now:           time.Now,
	}
}

func (t *ScheduleFetchTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	users, err := t.trackerRepo.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if len(users) == 0 {
		slog.Debug("No users found, scheduling global news fetch")
		if err := t.schedule(ctx, "", news.DefaultSources, nil); err != nil {
			return fmt.Errorf("failed to schedule global fetch: %w", err)
		}
		return nil
	}

	now := t.now().UTC()
	scheduled := 0

	for _, ownerID := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		config := t.ownerConfig(ctx, ownerID)

		channels := config.EnabledChannels()
		if len(channels) == 0 {
			slog.Debug("Skipping owner without enabled channels", "owner", ownerID)
			continue
		}

		frequency, err := news.ParseFrequency(config.UpdateFrequency)
		if err != nil {
			slog.Warn("Invalid update frequency, using default", "owner", ownerID, "frequency", config.UpdateFrequency, "error", err)
			frequency, _ = news.ParseFrequency(news.DefaultUpdateFrequency)
		}

		var lastRun *time.Time
		job, err := t.trackerRepo.GetLatestJob(ctx, ownerID)
		if err != nil {
			slog.Warn("Failed to get latest fetch job", "owner", ownerID, "error", err)
		} else if job != nil {
			lastRun = &job.LastRun
		}

		if !frequency.ShouldFetch(lastRun, now) {
			slog.Debug("Owner not due for fetch yet", "owner", ownerID, "frequency", config.UpdateFrequency)
			continue
		}

		symbols, err := t.trackerRepo.GetWatchlistSymbols(ctx, ownerID)
		if err != nil {
			slog.Warn("Failed to get watchlist symbols", "owner", ownerID, "error", err)
			symbols = nil
		}

		if err := t.schedule(ctx, ownerID, channels, symbols); err != nil {
			slog.Warn("Failed to schedule news fetch", "owner", ownerID, "error", err)
			continue
		}
		scheduled++
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"users", len(users),
		"scheduled", scheduled,
		"duration", t.GetDuration())

	return nil
}

func (t *ScheduleFetchTask) ownerConfig(ctx context.Context, ownerID string) *news.TrackerConfig {
	config, err := t.trackerRepo.GetTrackerConfig(ctx, ownerID)
	if err != nil {
		slog.Warn("Failed to get tracker config, using default", "owner", ownerID, "error", err)
		return t.defaultConfig
	}
	if config == nil {
		return t.defaultConfig
	}
	return config
}

// schedule records a pending job before enqueueing so later ticks do not
// schedule the owner again before the ingestion runs.
func (t *ScheduleFetchTask) schedule(ctx context.Context, ownerID string, sources, tickers []string) error {
	now := t.now().UTC()
	date := now.Format("2006-01-02")

	job := news.FetchJob{
		ID:      news.JobID(ownerID, date),
		OwnerID: ownerID,
		Date:    date,
		Source:  "scheduled",
		Status:  news.JobStatusPending,
		LastRun: now,
		Sources: sources,
	}
	if err := t.trackerRepo.RecordJob(ctx, job); err != nil {
		slog.Warn("Failed to record pending job", "owner", ownerID, "error", err)
	}

	task := NewIngestNewsTask(ownerID, sources, tickers, t.ingester, t.trackerRepo)
	task.queryCache = t.queryCache
	if err := t.enqueuer.EnqueueTask(task); err != nil {
		job.Status = news.JobStatusFailed
		job.ErrorLog = fmt.Sprintf("failed to enqueue: %v", err)
		if recordErr := t.trackerRepo.RecordJob(ctx, job); recordErr != nil {
			slog.Warn("Failed to record failed job", "owner", ownerID, "error", recordErr)
		}
		return err
	}

	return nil
}
