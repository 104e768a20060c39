package llm

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
)

const (
	DefaultGrokURL   = "https://api.x.ai/v1"
	DefaultGrokModel = "grok-beta"

	contentPath = "$.choices[0].message.content"
)

type GrokClient struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	model      string
	userAgent  string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

func NewGrokClient(apiKey, apiURL, model, userAgent string, timeout time.Duration) *GrokClient {
	return &GrokClient{
		httpClient: &http.Client{Timeout: timeout},
		apiURL:     strings.TrimSuffix(cmp.Or(apiURL, DefaultGrokURL), "/"),
		apiKey:     apiKey,
		model:      cmp.Or(model, DefaultGrokModel),
		userAgent:  userAgent,
	}
}

func (c *GrokClient) Name() string {
	return ProviderGrok + "/" + c.model
}

func (c *GrokClient) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode grok request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create grok request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("grok request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read grok response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("grok API error: %d - %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("failed to decode grok response: %w", err)
	}

	return extractContent(payload)
}

func extractContent(payload any) (string, error) {
	value, err := jsonpath.Get(contentPath, payload)
	if err != nil {
		return "", fmt.Errorf("no content in grok API response: %w", err)
	}

	if list, ok := value.([]any); ok && len(list) > 0 {
		value = list[0]
	}

	content, ok := value.(string)
	if !ok || strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("no content in grok API response")
	}

	return content, nil
}
