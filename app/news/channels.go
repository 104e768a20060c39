package news

// Channel labels shown to users mapped to the source names the generator knows
var channelSources = map[string]string{
	"CNBC News":        "CNBC",
	"Twitter":          "Twitter/X",
	"Reddit Community": "Reddit",
	"Live Mint":        "Live Mint",
	"Money Control":    "Money Control",
	"Times Prime":      "Times Prime",
	"Google Finance":   "Google Finance",
}

// DefaultSources are ingested when no tracker exists yet
var DefaultSources = []string{"CNBC News", "Twitter", "Live Mint", "Money Control"}

func MapSource(name string) string {
	if source, ok := channelSources[name]; ok {
		return source
	}
	return name
}

func MapSources(names []string) []string {
	sources := make([]string, len(names))
	for i, name := range names {
		sources[i] = MapSource(name)
	}
	return sources
}
