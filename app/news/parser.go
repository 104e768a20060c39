package news

import (
	"bytes"
	"cmp"
	"encoding/json"
	"log/slog"
	"strings"
	"time"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

type Parser struct {
	now func() time.Time
}

func NewParser() *Parser {
	return &Parser{now: time.Now}
}

// rawResponse defers decoding of every field so a single ill-typed value
// does not discard the whole reply.
type rawResponse struct {
	Items     json.RawMessage `json:"items"`
	Sources   json.RawMessage `json:"sources"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// Run parses the generator reply. Output that is not a JSON object with an
// items array degrades to an empty response for the requested sources.
func (p *Parser) Run(content string, sources []string) *GeneratorResponse {
	now := p.now().UTC()

	var parsed rawResponse
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &parsed); err != nil {
		slog.Warn("Failed to parse generator response", "error", err, "content_length", len(content))
		return p.empty(sources, now)
	}

	var rawItems []json.RawMessage
	if len(parsed.Items) > 0 {
		if err := json.Unmarshal(parsed.Items, &rawItems); err != nil {
			rawItems = nil
		}
	}
	if rawItems == nil {
		slog.Warn("Generator response has no items array")
		return p.empty(sources, now)
	}

	today := now.Format(dateLayout)
	items := make([]RawCandidate, 0, len(rawItems))
	for _, raw := range rawItems {
		item := decodeCandidate(raw)
		items = append(items, RawCandidate{
			Headline:    cmp.Or(item.Headline, "No headline"),
			Summary:     cmp.Or(item.Summary, item.Headline, "No summary"),
			Source:      cmp.Or(item.Source, "Unknown"),
			StockSymbol: item.StockSymbol,
			StockName:   item.StockName,
			Sentiment:   cmp.Or(item.Sentiment, SentimentNeutral),
			Confidence:  cmp.Or(item.Confidence, "Medium"),
			Date:        cmp.Or(item.Date, today),
			URL:         item.URL,
		})
	}

	response := &GeneratorResponse{
		Items:     items,
		Sources:   stringList(parsed.Sources),
		Timestamp: cmp.Or(textValue(parsed.Timestamp, false), now.Format(timestampLayout)),
	}
	if len(response.Sources) == 0 {
		response.Sources = sources
	}

	return response
}

func (p *Parser) empty(sources []string, now time.Time) *GeneratorResponse {
	return &GeneratorResponse{
		Items:     []RawCandidate{},
		Sources:   sources,
		Timestamp: now.Format(timestampLayout),
	}
}

// decodeCandidate reads one item field by field. Numbers and booleans are
// kept as their literal text, anything else counts as missing.
func decodeCandidate(raw json.RawMessage) RawCandidate {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return RawCandidate{}
	}

	text := func(name string) string {
		return textValue(fields[name], true)
	}

	return RawCandidate{
		Headline:    text("headline"),
		Summary:     text("summary"),
		Source:      text("source"),
		StockSymbol: text("stockSymbol"),
		StockName:   text("stockName"),
		Sentiment:   text("sentiment"),
		Confidence:  text("confidence"),
		Date:        text("date"),
		URL:         text("url"),
	}
}

func textValue(raw json.RawMessage, coerce bool) string {
	if len(raw) == 0 {
		return ""
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		if coerce {
			return v.String()
		}
	case bool:
		if coerce && v {
			return "true"
		}
	}

	return ""
}

// stringList accepts only an array of strings.
func stringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	return list
}

// stripCodeFence removes one leading ``` line and one trailing ``` line.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	lines := strings.Split(content, "\n")
	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}

	return strings.Join(lines, "\n")
}
