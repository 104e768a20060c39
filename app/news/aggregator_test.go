package news

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type mockGenerator struct {
	content string
	err     error
	calls   int
	system  string
	user    string
	delay   time.Duration
}

func (m *mockGenerator) Complete(ctx context.Context, system, user string) (string, error) {
	m.calls++
	m.system = system
	m.user = user

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return m.content, m.err
}

type mockItemStore struct {
	items []Item
	calls int
	err   error
}

func (m *mockItemStore) UpsertItems(ctx context.Context, items []Item) error {
	m.calls++
	m.items = append(m.items, items...)
	return m.err
}

func newTestAggregator(generator NewsGenerator, store ItemStore) *Aggregator {
	aggregator := NewAggregator(generator, store, time.Second)
	aggregator.normalizer = NewSeededNormalizer(1, 1)
	aggregator.parser.now = fixedClock
	aggregator.now = fixedClock
	return aggregator
}

const singleItemResponse = `{"items":[{"headline":"X raises guidance","source":"CNBC","sentiment":"positive","date":"2024-05-01"}]}`

func TestAggregator_EmptySourcesSkipsGenerator(t *testing.T) {
	generator := &mockGenerator{content: singleItemResponse}
	store := &mockItemStore{}
	aggregator := newTestAggregator(generator, store)

	result, err := aggregator.Ingest(context.Background(), nil, "", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if generator.calls != 0 {
		t.Errorf("Expected generator not to be called, got %d calls", generator.calls)
	}
	if store.calls != 0 {
		t.Errorf("Expected store not to be called, got %d calls", store.calls)
	}
	if result.Items == nil || len(result.Items) != 0 {
		t.Errorf("Expected empty items, got %v", result.Items)
	}
	if result.Sources == nil || len(result.Sources) != 0 {
		t.Errorf("Expected empty sources, got %v", result.Sources)
	}
}

func TestAggregator_EndToEnd(t *testing.T) {
	generator := &mockGenerator{content: singleItemResponse}
	store := &mockItemStore{}
	aggregator := newTestAggregator(generator, store)

	result, err := aggregator.Ingest(context.Background(), []string{"CNBC News", "Twitter"}, "user-1", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if generator.calls != 1 {
		t.Errorf("Expected exactly one generator call, got %d", generator.calls)
	}
	if generator.system != SystemPrompt {
		t.Errorf("Expected system prompt to be sent")
	}
	if !strings.Contains(generator.user, "from these sources: CNBC, Twitter/X.") {
		t.Errorf("Expected mapped sources in prompt, got: %s", generator.user)
	}
	if strings.Contains(generator.user, "Focus on these stock symbols") {
		t.Errorf("Expected no ticker clause without tickers")
	}

	if len(result.Items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(result.Items))
	}

	item := result.Items[0]
	if item.Source != "CNBC" {
		t.Errorf("Expected source CNBC, got %s", item.Source)
	}
	if item.ChangeTone != TonePositive {
		t.Errorf("Expected positive tone, got %s", item.ChangeTone)
	}
	if item.Change <= 0.5 || item.Change > 5.5 {
		t.Errorf("Expected change in (0.5, 5.5], got %f", item.Change)
	}
	if item.Date != "2024-05-01" {
		t.Errorf("Expected date 2024-05-01, got %s", item.Date)
	}
	if item.OwnerID != "user-1" {
		t.Errorf("Expected owner user-1, got %s", item.OwnerID)
	}

	if len(result.Sources) != 2 || result.Sources[0] != "CNBC" || result.Sources[1] != "Twitter/X" {
		t.Errorf("Expected mapped sources, got %v", result.Sources)
	}
	if result.PersistErr != nil {
		t.Errorf("Unexpected persist error: %v", result.PersistErr)
	}
	if store.calls != 1 || len(store.items) != 1 {
		t.Errorf("Expected one persisted item, got %d calls / %d items", store.calls, len(store.items))
	}
}

func TestAggregator_TickersInPrompt(t *testing.T) {
	generator := &mockGenerator{content: `{"items":[]}`}
	aggregator := newTestAggregator(generator, &mockItemStore{})

	if _, err := aggregator.Ingest(context.Background(), []string{"Reddit Community"}, "", []string{"INFY", "TCS"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.Contains(generator.user, "Focus on these stock symbols: INFY, TCS.") {
		t.Errorf("Expected ticker clause in prompt, got: %s", generator.user)
	}
}

func TestAggregator_DuplicatesCollapse(t *testing.T) {
	content := `{"items":[` +
		`{"headline":"X raises guidance","source":"CNBC","sentiment":"positive","date":"2024-05-01"},` +
		`{"headline":"X raises guidance","source":"CNBC","sentiment":"positive","date":"2024-05-01"}]}`
	store := &mockItemStore{}
	aggregator := newTestAggregator(&mockGenerator{content: content}, store)

	result, err := aggregator.Ingest(context.Background(), []string{"CNBC News"}, "", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(result.Items) != 1 {
		t.Errorf("Expected 1 item after dedup, got %d", len(result.Items))
	}
	if len(store.items) != 1 {
		t.Errorf("Expected 1 persisted item, got %d", len(store.items))
	}
}

func TestAggregator_MalformedOutputIsEmpty(t *testing.T) {
	store := &mockItemStore{}
	aggregator := newTestAggregator(&mockGenerator{content: "no json here"}, store)

	result, err := aggregator.Ingest(context.Background(), []string{"Twitter"}, "", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(result.Items) != 0 {
		t.Errorf("Expected no items, got %d", len(result.Items))
	}
	if len(result.Sources) != 1 || result.Sources[0] != "Twitter/X" {
		t.Errorf("Expected requested sources, got %v", result.Sources)
	}
	if store.calls != 0 {
		t.Errorf("Expected no persistence for empty batch, got %d calls", store.calls)
	}
}

func TestAggregator_GeneratorFailure(t *testing.T) {
	tests := []struct {
		name      string
		generator *mockGenerator
	}{
		{"transport error", &mockGenerator{err: errors.New("connection refused")}},
		{"empty content", &mockGenerator{content: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockItemStore{}
			aggregator := newTestAggregator(tt.generator, store)

			result, err := aggregator.Ingest(context.Background(), []string{"CNBC News"}, "", nil)

			var genErr *GeneratorError
			if !errors.As(err, &genErr) {
				t.Fatalf("Expected GeneratorError, got %v", err)
			}
			if result != nil {
				t.Errorf("Expected nil result, got %+v", result)
			}
			if tt.generator.calls != 1 {
				t.Errorf("Expected exactly one attempt, got %d", tt.generator.calls)
			}
			if store.calls != 0 {
				t.Errorf("Expected nothing persisted")
			}
		})
	}
}

func TestAggregator_GeneratorTimeout(t *testing.T) {
	generator := &mockGenerator{content: singleItemResponse, delay: time.Second}
	aggregator := newTestAggregator(generator, &mockItemStore{})
	aggregator.timeout = 10 * time.Millisecond

	_, err := aggregator.Ingest(context.Background(), []string{"CNBC News"}, "", nil)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestAggregator_PersistFailureStillReturnsItems(t *testing.T) {
	store := &mockItemStore{err: errors.New("database is locked")}
	aggregator := newTestAggregator(&mockGenerator{content: singleItemResponse}, store)

	result, err := aggregator.Ingest(context.Background(), []string{"CNBC News"}, "", nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(result.Items) != 1 {
		t.Errorf("Expected 1 item, got %d", len(result.Items))
	}
	if result.PersistErr == nil {
		t.Errorf("Expected PersistErr to be set")
	}
}
