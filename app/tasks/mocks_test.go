package tasks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lysyi3m/news-tracker/app/news"
)

// MockIngester records every ingestion call
type MockIngester struct {
	mu     sync.Mutex
	calls  []ingestCall
	result *news.IngestResult
	err    error
}

type ingestCall struct {
	sources []string
	ownerID string
	tickers []string
}

func (m *MockIngester) Ingest(ctx context.Context, sources []string, ownerID string, tickers []string) (*news.IngestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, ingestCall{sources: sources, ownerID: ownerID, tickers: tickers})
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &news.IngestResult{Items: []news.Item{}}, nil
}

func (m *MockIngester) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// MockTrackerRepository keeps tracker state in memory
type MockTrackerRepository struct {
	mu         sync.Mutex
	users      []string
	configs    map[string]*news.TrackerConfig
	watchlists map[string][]string
	latest     map[string]*news.FetchJob
	jobs       []news.FetchJob
	listErr    error
}

func NewMockTrackerRepository(users ...string) *MockTrackerRepository {
	return &MockTrackerRepository{
		users:      users,
		configs:    make(map[string]*news.TrackerConfig),
		watchlists: make(map[string][]string),
		latest:     make(map[string]*news.FetchJob),
	}
}

func (m *MockTrackerRepository) ListUsers(ctx context.Context) ([]string, error) {
	return m.users, m.listErr
}

func (m *MockTrackerRepository) GetTrackerConfig(ctx context.Context, ownerID string) (*news.TrackerConfig, error) {
	return m.configs[ownerID], nil
}

func (m *MockTrackerRepository) SaveTrackerConfig(ctx context.Context, ownerID string, config news.TrackerConfig) error {
	m.configs[ownerID] = &config
	return nil
}

func (m *MockTrackerRepository) GetWatchlistSymbols(ctx context.Context, ownerID string) ([]string, error) {
	return m.watchlists[ownerID], nil
}

func (m *MockTrackerRepository) GetLatestJob(ctx context.Context, ownerID string) (*news.FetchJob, error) {
	return m.latest[ownerID], nil
}

func (m *MockTrackerRepository) RecordJob(ctx context.Context, job news.FetchJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
	return nil
}

func (m *MockTrackerRepository) recordedJobs() []news.FetchJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]news.FetchJob(nil), m.jobs...)
}

// MockEnqueuer collects tasks instead of running them
type MockEnqueuer struct {
	tasks []TaskInterface
	full  bool
}

func (m *MockEnqueuer) EnqueueTask(task TaskInterface) error {
	if m.full {
		return errors.New("task queue is full")
	}
	m.tasks = append(m.tasks, task)
	return nil
}

// MockCitationRepository keeps citations in memory
type MockCitationRepository struct {
	mu        sync.Mutex
	pending   []news.Item
	since     string
	citations map[string][]news.Citation
	statuses  map[string]string
	attempts  map[string]int
}

func NewMockCitationRepository(pending ...news.Item) *MockCitationRepository {
	return &MockCitationRepository{
		pending:   pending,
		citations: make(map[string][]news.Citation),
		statuses:  make(map[string]string),
		attempts:  make(map[string]int),
	}
}

func (m *MockCitationRepository) ItemsPendingCitations(ctx context.Context, since string, limit int) ([]news.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.since = since
	var items []news.Item
	for _, item := range m.pending {
		if _, done := m.statuses[item.ID]; !done {
			item.CitationAttempts = m.attempts[item.ID]
			items = append(items, item)
		}
	}
	return items, nil
}

func (m *MockCitationRepository) StoreCitations(ctx context.Context, itemID string, citations []news.Citation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.citations[itemID] = append(m.citations[itemID], citations...)
	return nil
}

func (m *MockCitationRepository) MarkCitationStatus(ctx context.Context, itemID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[itemID] = status
	return nil
}

func (m *MockCitationRepository) RecordCitationAttempt(ctx context.Context, itemID string, attempts int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[itemID] = attempts
	return nil
}

func fixedNow() time.Time {
	return time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
}
