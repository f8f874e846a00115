package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"jobmate/digest-service/internal/config"
	"jobmate/digest-service/internal/model"
)

// FeedSource reads RSS and Atom job feeds. Feeds are not keyword searches:
// every item is collected and left to the relevance filter.
type FeedSource struct {
	client *Client
	parser *gofeed.Parser
	now    Clock
	log    *slog.Logger
}

// NewFeedSource constructs a FeedSource sharing the given client.
func NewFeedSource(client *Client, now Clock, log *slog.Logger) *FeedSource {
	if now == nil {
		now = time.Now
	}
	return &FeedSource{client: client, parser: gofeed.NewParser(), now: now, log: log.With("component", "feed")}
}

// Fetch downloads and parses one feed.
func (f *FeedSource) Fetch(ctx context.Context, feed config.Feed) ([]model.RawRecord, error) {
	header := http.Header{}
	header.Set("User-Agent", browserUserAgent)
	header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	body, err := f.client.Get(ctx, feed.URL, header)
	if err != nil {
		return nil, err
	}

	parsed, err := f.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feed.Name, err)
	}

	collected := f.now()
	records := make([]model.RawRecord, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil || strings.TrimSpace(item.Link) == "" {
			continue
		}
		records = append(records, model.RawRecord{
			Title:          strings.TrimSpace(item.Title),
			Employer:       feedEmployer(item, parsed),
			Location:       feedLocation(item),
			Link:           item.Link,
			PostedAt:       feedPostedAt(item),
			SourceKeywords: feed.Name,
			CollectedAt:    collected,
			Source:         "feed:" + feed.Name,
		})
	}
	f.log.Debug("parsed feed", "feed", feed.Name, "items", len(records))
	return records, nil
}

func feedEmployer(item *gofeed.Item, feed *gofeed.Feed) string {
	if item.Author != nil && item.Author.Name != "" {
		return strings.TrimSpace(item.Author.Name)
	}
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			return strings.TrimSpace(a.Name)
		}
	}
	// "Company: Role" titles are common on job boards.
	if company, _, ok := strings.Cut(item.Title, ":"); ok && strings.TrimSpace(company) != "" {
		return strings.TrimSpace(company)
	}
	return strings.TrimSpace(feed.Title)
}

func feedLocation(item *gofeed.Item) string {
	for _, key := range []string{"region", "location"} {
		if vals, ok := item.Custom[key]; ok && vals != "" {
			return strings.TrimSpace(vals)
		}
	}
	return ""
}

func feedPostedAt(item *gofeed.Item) string {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.UTC().Format(time.RFC3339)
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.UTC().Format(time.RFC3339)
	default:
		return model.UnknownPostedAt
	}
}
