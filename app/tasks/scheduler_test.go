package tasks

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lysyi3m/news-tracker/app/cache"
	"github.com/lysyi3m/news-tracker/app/news"
)

type countingTask struct {
	Task
	executed atomic.Int32
	done     chan struct{}
}

func newCountingTask() *countingTask {
	return &countingTask{Task: NewTask(TaskTypeExtractCitations, ""), done: make(chan struct{}, 1)}
}

func (c *countingTask) Execute(ctx context.Context) error {
	c.executed.Add(1)
	c.done <- struct{}{}
	return nil
}

func newTestScheduler(ingester *MockIngester, repo *MockTrackerRepository) *Scheduler {
	return NewScheduler(ingester, NewMockCitationRepository(), repo, nil, http.DefaultClient,
		news.NewContentExtractor(), SchedulerOptions{Interval: time.Hour, WorkerCount: 2})
}

func TestRetryBackoff(t *testing.T) {
	tests := []struct {
		retry    int
		expected time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second},
		{20, 30 * time.Second},
	}

	for _, tt := range tests {
		if got := retryBackoff(tt.retry); got != tt.expected {
			t.Errorf("retryBackoff(%d): expected %v, got %v", tt.retry, tt.expected, got)
		}
	}
}

func TestNewScheduler_Defaults(t *testing.T) {
	scheduler := NewScheduler(nil, nil, nil, nil, http.DefaultClient, nil, SchedulerOptions{})

	if scheduler.opts.WorkerCount != 1 {
		t.Errorf("Expected 1 worker, got %d", scheduler.opts.WorkerCount)
	}
	if scheduler.opts.Interval != 5*time.Minute {
		t.Errorf("Expected 5m interval, got %v", scheduler.opts.Interval)
	}
	if scheduler.trackerConfig == nil {
		t.Errorf("Expected default tracker config")
	}
}

func TestScheduler_QueueFull(t *testing.T) {
	scheduler := newTestScheduler(&MockIngester{}, NewMockTrackerRepository())

	for i := 0; i < queueSize; i++ {
		if err := scheduler.EnqueueTask(newCountingTask()); err != nil {
			t.Fatalf("Unexpected error at %d: %v", i, err)
		}
	}

	if err := scheduler.EnqueueTask(newCountingTask()); err == nil {
		t.Errorf("Expected error when queue is full")
	}
}

func TestScheduler_EnqueueAfterStop(t *testing.T) {
	scheduler := newTestScheduler(&MockIngester{}, NewMockTrackerRepository())
	scheduler.Start()
	scheduler.Stop()

	if err := scheduler.EnqueueTask(newCountingTask()); err == nil {
		t.Errorf("Expected error after stop")
	}
}

func TestScheduler_RunsEnqueuedTasks(t *testing.T) {
	scheduler := newTestScheduler(&MockIngester{}, NewMockTrackerRepository())
	scheduler.Start()
	defer scheduler.Stop()

	task := newCountingTask()
	if err := scheduler.EnqueueTask(task); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}

	select {
	case <-task.done:
	case <-time.After(5 * time.Second):
		t.Fatal("Task was not executed")
	}

	if task.executed.Load() != 1 {
		t.Errorf("Expected 1 execution, got %d", task.executed.Load())
	}
}

func TestScheduler_StartTriggersGlobalFetch(t *testing.T) {
	ingester := &MockIngester{}
	scheduler := newTestScheduler(ingester, NewMockTrackerRepository())
	scheduler.Start()
	defer scheduler.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for ingester.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if ingester.callCount() != 1 {
		t.Errorf("Expected one global ingestion on start, got %d", ingester.callCount())
	}
}

func TestScheduler_EnqueueScheduledFetch(t *testing.T) {
	scheduler := newTestScheduler(&MockIngester{}, NewMockTrackerRepository())

	task, err := scheduler.EnqueueScheduledFetch()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if task.GetType() != TaskTypeScheduleFetch {
		t.Errorf("Expected schedule fetch task, got %s", task.GetType())
	}
	if task.GetID() == "" {
		t.Errorf("Expected task id")
	}
}

func TestScheduler_PassesQueryCacheToIngestTasks(t *testing.T) {
	queryCache := cache.NewMemoryCache(time.Minute)
	defer queryCache.Close()

	scheduler := NewScheduler(&MockIngester{}, NewMockCitationRepository(), NewMockTrackerRepository(), nil,
		http.DefaultClient, news.NewContentExtractor(), SchedulerOptions{QueryCache: queryCache})

	task, err := scheduler.EnqueueScheduledFetch()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	scheduleTask := task.(*ScheduleFetchTask)
	if scheduleTask.queryCache != queryCache {
		t.Fatalf("Expected schedule task to carry the query cache")
	}

	enqueuer := &MockEnqueuer{}
	scheduleTask.enqueuer = enqueuer
	scheduleTask.now = fixedNow
	if err := scheduleTask.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(enqueuer.tasks) != 1 {
		t.Fatalf("Expected 1 ingest task, got %d", len(enqueuer.tasks))
	}
	if ingestTask := enqueuer.tasks[0].(*IngestNewsTask); ingestTask.queryCache != queryCache {
		t.Errorf("Expected ingest task to carry the query cache")
	}
}
