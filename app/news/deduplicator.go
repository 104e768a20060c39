package news

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Deduplicator struct{}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

// Run keeps the first item for each (lowercased headline, source, date) key,
// preserving order.
func (d *Deduplicator) Run(items []Item) []Item {
	// Casers are stateful, one per call
	lower := cases.Lower(language.Und)

	seen := make(map[string]struct{}, len(items))
	unique := make([]Item, 0, len(items))
	for _, item := range items {
		key := lower.String(item.Headline) + "_" + item.Source + "_" + item.Date
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, item)
	}

	return unique
}
