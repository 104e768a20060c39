package news

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const DefaultGeneratorTimeout = 60 * time.Second

// NewsGenerator turns a prompt into free text that should contain one JSON
// object.
type NewsGenerator interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type ItemStore interface {
	UpsertItems(ctx context.Context, items []Item) error
}

// GeneratorError reports a failed generator call. Ingestion is not retried.
type GeneratorError struct {
	Err error
}

func (e *GeneratorError) Error() string {
	return fmt.Sprintf("news generator failed: %v", e.Err)
}

func (e *GeneratorError) Unwrap() error {
	return e.Err
}

type Aggregator struct {
	generator    NewsGenerator
	store        ItemStore
	parser       *Parser
	normalizer   *Normalizer
	deduplicator *Deduplicator
	timeout      time.Duration
	now          func() time.Time
}

func NewAggregator(generator NewsGenerator, store ItemStore, timeout time.Duration) *Aggregator {
	if timeout <= 0 {
		timeout = DefaultGeneratorTimeout
	}

	return &Aggregator{
		generator:    generator,
		store:        store,
		parser:       NewParser(),
		normalizer:   NewNormalizer(),
		deduplicator: NewDeduplicator(),
		timeout:      timeout,
		now:          time.Now,
	}
}

func (a *Aggregator) Ingest(ctx context.Context, sources []string, ownerID string, tickers []string) (*IngestResult, error) {
	if len(sources) == 0 {
		return &IngestResult{
			Items:     []Item{},
			Sources:   []string{},
			Timestamp: a.now().UTC().Format(timestampLayout),
		}, nil
	}

	mapped := MapSources(sources)

	content, err := a.generate(ctx, mapped, tickers)
	if err != nil {
		return nil, &GeneratorError{Err: err}
	}

	response := a.parser.Run(content, mapped)

	items := make([]Item, 0, len(response.Items))
	for _, candidate := range response.Items {
		items = append(items, a.normalizer.Run(candidate, ownerID))
	}
	items = a.deduplicator.Run(items)

	result := &IngestResult{
		Items:     items,
		Sources:   response.Sources,
		Timestamp: response.Timestamp,
	}

	if len(items) > 0 && a.store != nil {
		if err := a.store.UpsertItems(ctx, items); err != nil {
			slog.Error("Failed to persist news items", "owner", ownerID, "count", len(items), "error", err)
			result.PersistErr = err
		}
	}

	slog.Info("News ingested",
		"owner", ownerID,
		"sources", strings.Join(mapped, ","),
		"candidates", len(response.Items),
		"items", len(items),
		"persisted", result.PersistErr == nil)

	return result, nil
}

func (a *Aggregator) generate(ctx context.Context, sources []string, tickers []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	content, err := a.generator.Complete(ctx, SystemPrompt, BuildPrompt(sources, tickers))
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(content) == "" {
		return "", errors.New("no content in generator response")
	}

	return content, nil
}
