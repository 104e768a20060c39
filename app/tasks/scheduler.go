package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/lysyi3m/news-tracker/app/cache"
	"github.com/lysyi3m/news-tracker/app/news"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const (
	queueSize   = 300
	taskTimeout = 5 * time.Minute
	maxBackoff  = 30 * time.Second
)

type SchedulerOptions struct {
	Interval    time.Duration
	WorkerCount int
	UserAgent   string
	// FetchTimeout bounds each article download during citation extraction
	FetchTimeout time.Duration
	// CitationBatch is the number of items handled per extraction run
	CitationBatch int
	// QueryCache, when set, is invalidated after scheduled ingestions
	QueryCache cache.CacheInterface
}

type Scheduler struct {
	ingester         Ingester
	citationRepo     CitationRepository
	trackerRepo      news.TrackerRepository
	trackerConfig    *news.TrackerConfig
	httpClient       *http.Client
	contentExtractor *news.ContentExtractor
	opts             SchedulerOptions
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	taskQueue        chan TaskInterface
}

func NewScheduler(ingester Ingester, citationRepo CitationRepository, trackerRepo news.TrackerRepository,
	trackerConfig *news.TrackerConfig, httpClient *http.Client, contentExtractor *news.ContentExtractor,
	opts SchedulerOptions) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if opts.WorkerCount < 1 {
		opts.WorkerCount = 1
	}
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Minute
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	if opts.CitationBatch <= 0 {
		opts.CitationBatch = 20
	}
	if trackerConfig == nil {
		trackerConfig = news.DefaultTrackerConfig()
	}

	return &Scheduler{
		ingester:         ingester,
		citationRepo:     citationRepo,
		trackerRepo:      trackerRepo,
		trackerConfig:    trackerConfig,
		httpClient:       httpClient,
		contentExtractor: contentExtractor,
		opts:             opts,
		ctx:              ctx,
		cancel:           cancel,
		taskQueue:        make(chan TaskInterface, queueSize),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.opts.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.opts.Interval)
		defer ticker.Stop()

		s.enqueueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

// Stop cancels running tasks and waits for workers. The queue stays open so
// late retries fail on the cancelled context instead of a closed channel.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) EnqueueScheduledFetch() (TaskInterface, error) {
	task := NewScheduleFetchTask(s.ingester, s.trackerRepo, s.trackerConfig, s)
	task.queryCache = s.opts.QueryCache
	if err := s.EnqueueTask(task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Scheduler) enqueueTasks() {
	if _, err := s.EnqueueScheduledFetch(); err != nil {
		slog.Warn("Failed to enqueue ScheduleFetchTask", "error", err)
	}

	extractTask := NewExtractCitationsTask(s.citationRepo, s.httpClient, s.contentExtractor,
		s.opts.UserAgent, s.opts.FetchTimeout, s.opts.CitationBatch)
	if err := s.EnqueueTask(extractTask); err != nil {
		slog.Warn("Failed to enqueue ExtractCitationsTask", "error", err)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "owner", task.GetOwnerID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		if task.GetMaxRetries() > 0 {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
		return
	}

	task.IncrementRetryCount()
	retryDelay := retryBackoff(task.GetRetryCount())

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "owner", task.GetOwnerID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	go func() {
		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-time.After(retryDelay):
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}

// retryBackoff doubles from one second and is capped at 30 seconds.
func retryBackoff(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	if retryCount > 6 {
		return maxBackoff
	}
	return min(time.Duration(1<<uint(retryCount-1))*time.Second, maxBackoff)
}
