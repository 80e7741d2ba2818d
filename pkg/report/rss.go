package report

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// RSS represents the root RSS 2.0 element
type RSS struct {
	XMLName xml.Name    `xml:"rss"`
	Version string      `xml:"version,attr"`
	Atom    string      `xml:"xmlns:atom,attr"`
	Channel *RSSChannel `xml:"channel"`
}

// RSSChannel represents an RSS channel
type RSSChannel struct {
	XMLName       xml.Name   `xml:"channel"`
	Title         string     `xml:"title"`
	Link          string     `xml:"link"`
	Description   string     `xml:"description"`
	AtomLink      *AtomLink  `xml:"http://www.w3.org/2005/Atom link"`
	LastBuildDate string     `xml:"lastBuildDate"`
	Items         []*RSSItem `xml:"item"`
}

// AtomLink represents an Atom link element within RSS
type AtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

// RSSItem represents an item in an RSS feed
type RSSItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	GUID        RSSGUID  `xml:"guid"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate,omitempty"`
	Categories  []string `xml:"category"`
}

// RSSGUID is an item guid, IsPermaLink is "false" when the value is not a URL
type RSSGUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink string `xml:"isPermaLink,attr,omitempty"`
}

// RSSGenerator creates an RSS companion feed for the dashboard
type RSSGenerator struct {
	baseURL string
	title   string
}

// NewRSSGenerator makes a generator, baseURL is where the dashboard is published
func NewRSSGenerator(baseURL, title string) *RSSGenerator {
	if title == "" {
		title = DefaultTitle
	}
	return &RSSGenerator{baseURL: strings.TrimRight(baseURL, "/"), title: title}
}

// Generate creates an RSS 2.0 feed from rows, keeping their order
func (g *RSSGenerator) Generate(rows []Row, feedName string, now time.Time) (string, error) {
	items := make([]*RSSItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, g.convertToRSSItem(row))
	}

	feed := &RSS{
		Version: "2.0",
		Atom:    "http://www.w3.org/2005/Atom",
		Channel: &RSSChannel{
			Title:         g.title,
			Link:          g.baseURL + "/",
			Description:   fmt.Sprintf("Latest %d buying-intent signals", len(items)),
			AtomLink:      &AtomLink{Href: g.baseURL + "/" + feedName, Rel: "self", Type: "application/rss+xml"},
			LastBuildDate: now.UTC().Format(time.RFC1123Z),
			Items:         items,
		},
	}

	output, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal RSS: %w", err)
	}

	return xml.Header + string(output), nil
}

func (g *RSSGenerator) convertToRSSItem(row Row) *RSSItem {
	desc := "Intent: " + row.IntentLabel
	if len(row.Tags) > 0 {
		desc += fmt.Sprintf("\nTags: %s", strings.Join(row.Tags, ", "))
	}
	if row.Source != "" {
		desc += "\nSource: " + row.Source
	}
	if row.Summary != "" {
		desc += "\n\n" + row.Summary
	}

	// guid has to be stable between runs, permalink when present, otherwise title and raw timestamp
	guid := RSSGUID{Value: row.Permalink}
	if row.Permalink == defaultPermalink {
		guid.Value = row.Title + "|" + row.Created
	}
	if !isAbsoluteURL(guid.Value) {
		guid.IsPermaLink = "false"
	}

	item := &RSSItem{
		Title:       fmt.Sprintf("[%s] %s", row.IntentLabel, row.Title),
		Link:        row.Permalink,
		GUID:        guid,
		Description: desc,
		Categories:  make([]string, 0, len(row.Tags)+1),
	}
	if row.CreatedValid {
		item.PubDate = row.CreatedAt.Format(time.RFC1123Z)
	}
	if row.Category != "" {
		item.Categories = append(item.Categories, row.Category)
	}
	item.Categories = append(item.Categories, row.Tags...)
	return item
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
