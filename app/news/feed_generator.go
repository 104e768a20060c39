package news

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"time"
)

type FeedGenerator struct {
	version string
}

func NewFeedGenerator(version string) *FeedGenerator {
	return &FeedGenerator{version: version}
}

func (g *FeedGenerator) Run(title, link, selfLink string, items []Item) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", title, 4)
	g.writeElement(&buf, "link", link, 4)
	g.writeElement(&buf, "description", fmt.Sprintf("%s: aggregated financial news", title), 4)

	if selfLink != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(selfLink)))
	}

	lastBuildDate := time.Now().In(time.Local)
	if len(items) > 0 {
		lastBuildDate = cmp.Or(items[0].UpdatedAt, items[0].CreatedAt, lastBuildDate)
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("News-Tracker/%s", g.version), 4)

	for _, item := range items {
		g.writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *FeedGenerator) writeItem(buf *bytes.Buffer, item Item) {
	buf.WriteString("    <item>\n")

	buf.WriteString("      <guid isPermaLink=\"false\">")
	xml.EscapeText(buf, []byte(item.ID))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", item.Headline, 6)
	g.writeElement(buf, "link", item.URL, 6)
	g.writeElement(buf, "description", cmp.Or(item.Summary, item.Headline), 6)

	if publishedAt := g.publishedAt(item); !publishedAt.IsZero() {
		g.writeElement(buf, "pubDate", publishedAt.Format(time.RFC1123Z), 6)
	}

	if item.Code != "" && item.Code != "UNKNOWN" {
		g.writeElement(buf, "category", item.Code, 6)
	}
	g.writeElement(buf, "category", item.Sector, 6)
	g.writeElement(buf, "category", item.Source, 6)

	buf.WriteString("    </item>\n")
}

// publishedAt prefers the creation time when it falls on the item's date.
func (g *FeedGenerator) publishedAt(item Item) time.Time {
	date, err := time.Parse(dateLayout, item.Date)
	if err != nil {
		return item.CreatedAt
	}
	if !item.CreatedAt.IsZero() && item.CreatedAt.UTC().Format(dateLayout) == item.Date {
		return item.CreatedAt
	}
	return date
}

func (g *FeedGenerator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
