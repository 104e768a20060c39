package news

import (
	"bytes"
	"cmp"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

const maxCitationSummary = 500

type ContentExtractor struct {
	policy *bluemonday.Policy
	now    func() time.Time
}

func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{
		policy: bluemonday.StrictPolicy(),
		now:    time.Now,
	}
}

// Run extracts a citation from an article page.
func (e *ContentExtractor) Run(pageURL string, data []byte) (*Citation, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("HTML data is empty")
	}

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}

	article, err := readability.FromReader(bytes.NewReader(data), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to extract content: %w", err)
	}

	title := e.plainText(article.Title)
	summary := truncate(e.plainText(cmp.Or(article.Excerpt, article.TextContent)), maxCitationSummary)

	if title == "" && summary == "" {
		return nil, fmt.Errorf("no content extracted from HTML data")
	}

	slog.Debug("Citation extracted",
		"url", pageURL,
		"title", title,
		"summary_length", len(summary))

	return &Citation{
		ID:          CitationID(pageURL),
		URL:         pageURL,
		Title:       cmp.Or(title, pageURL),
		Summary:     summary,
		Source:      cmp.Or(e.plainText(article.SiteName), parsedURL.Hostname()),
		ExtractedAt: e.now().UTC(),
	}, nil
}

func (e *ContentExtractor) plainText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(e.policy.Sanitize(s))), " ")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit]))
}
