package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lysyi3m/news-tracker/app/news"
)

const (
	citationLookbackDays = 2
	maxArticleSize       = 5 << 20
	// maxCitationAttempts bounds how many scheduler runs try the same item
	maxCitationAttempts = 3
)

const (
	CitationStatusSuccess = "success"
	CitationStatusFailed  = "failed"
)

// ExtractCitationsTask fetches the article behind recent items and stores a
// citation for each.
type ExtractCitationsTask struct {
	Task
	repo             CitationRepository
	httpClient       *http.Client
	contentExtractor *news.ContentExtractor
	userAgent        string
	timeout          time.Duration
	batchSize        int
	now              func() time.Time
}

func NewExtractCitationsTask(repo CitationRepository, httpClient *http.Client, contentExtractor *news.ContentExtractor, userAgent string, timeout time.Duration, batchSize int) *ExtractCitationsTask {
	return &ExtractCitationsTask{
		Task:             NewTask(TaskTypeExtractCitations, ""),
		repo:             repo,
		httpClient:       httpClient,
		contentExtractor: contentExtractor,
		userAgent:        userAgent,
		timeout:          timeout,
		batchSize:        batchSize,
		now:              time.Now,
	}
}

func (t *ExtractCitationsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	since := t.now().UTC().AddDate(0, 0, -citationLookbackDays).Format("2006-01-02")

	items, err := t.repo.ItemsPendingCitations(ctx, since, t.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get items for citation extraction: %w", err)
	}

	if len(items) == 0 {
		slog.Debug("No items need citation extraction")
		return nil
	}

	successCount := 0
	errorCount := 0

	for _, item := range items {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		status := CitationStatusSuccess
		if err := t.extractCitation(ctx, item); err != nil {
			errorCount++
			attempts := item.CitationAttempts + 1

			if attempts < maxCitationAttempts && !errors.Is(err, ErrUnsafeURL) {
				slog.Warn("Citation extraction failed, will retry", "item_id", item.ID, "url", item.URL, "attempt", attempts, "error", err)
				if err := t.repo.RecordCitationAttempt(ctx, item.ID, attempts); err != nil {
					slog.Error("Failed to record citation attempt", "item_id", item.ID, "error", err)
				}
				continue
			}

			slog.Error("Failed to extract citation for item", "item_id", item.ID, "url", item.URL, "attempt", attempts, "error", err)
			status = CitationStatusFailed
		} else {
			successCount++
		}

		if err := t.repo.MarkCitationStatus(ctx, item.ID, status); err != nil {
			slog.Error("Failed to update citation status", "item_id", item.ID, "error", err)
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"success", successCount,
		"errors", errorCount)

	return nil
}

func (t *ExtractCitationsTask) extractCitation(ctx context.Context, item news.Item) error {
	if item.URL == "" {
		return fmt.Errorf("item has no URL")
	}

	data, err := t.fetchArticle(ctx, item.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch article: %w", err)
	}

	citation, err := t.contentExtractor.Run(item.URL, data)
	if err != nil {
		return fmt.Errorf("failed to extract citation: %w", err)
	}

	if err := t.repo.StoreCitations(ctx, item.ID, []news.Citation{*citation}); err != nil {
		return fmt.Errorf("failed to store citation: %w", err)
	}

	slog.Debug("Citation stored", "item_id", item.ID, "citation_id", citation.ID)
	return nil
}

func (t *ExtractCitationsTask) fetchArticle(ctx context.Context, rawURL string) ([]byte, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsafeURL, err)
	}
	if err := checkArticleURL(pageURL); err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArticleSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
