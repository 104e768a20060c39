package api

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// sanitizeText strips markup and surrounding whitespace from user input.
func sanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// sanitizeList sanitizes every value and drops the empty ones.
func sanitizeList(values []string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		if clean := sanitizeText(value); clean != "" {
			result = append(result, clean)
		}
	}
	return result
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return sanitizeList(strings.Split(s, ","))
}
