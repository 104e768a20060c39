package news

import (
	"fmt"
	"strings"
)

const SystemPrompt = "You are a financial news aggregator. Extract and structure news articles about stocks and companies. Return data in JSON format."

const responseShape = `Please return a JSON object with the following structure:
{
  "items": [
    {
      "headline": "News headline",
      "summary": "Brief summary",
      "source": "Source name (e.g., CNBC, Twitter, etc.)",
      "stockSymbol": "Stock symbol if mentioned",
      "stockName": "Full company name",
      "sentiment": "positive|negative|neutral",
      "confidence": "High|Medium|Low",
      "date": "YYYY-MM-DD",
      "url": "Source URL if available"
    }
  ],
  "sources": ["list", "of", "sources", "checked"],
  "timestamp": "ISO timestamp"
}

Extract real, current news. If no recent news is found, return an empty items array.`

func BuildPrompt(sources []string, tickers []string) string {
	var stockFilter string
	if len(tickers) > 0 {
		stockFilter = fmt.Sprintf(" Focus on these stock symbols: %s.", strings.Join(tickers, ", "))
	}

	return fmt.Sprintf("Fetch the latest financial news from these sources: %s.%s\n\n%s",
		strings.Join(sources, ", "), stockFilter, responseShape)
}
