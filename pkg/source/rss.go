package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// RSSFeed is a named RSS/Atom feed URL.
type RSSFeed struct {
	Name string
	URL  string
}

// RSS collects AI news from RSS/Atom feeds.
type RSS struct {
	client *http.Client
	parser *gofeed.Parser
	feeds  []RSSFeed
	filter *Filter
	logger *slog.Logger
}

// NewRSS creates a new RSS collector.
func NewRSS(feeds []RSSFeed, filter *Filter, logger *slog.Logger) *RSS {
	if logger == nil {
		logger = slog.Default()
	}
	return &RSS{
		client: &http.Client{Timeout: 30 * time.Second},
		parser: gofeed.NewParser(),
		feeds:  feeds,
		filter: filter,
		logger: logger,
	}
}

func (r *RSS) Name() SourceType { return SourceRSS }

// Collect returns entries from every feed; a failing feed is logged and
// skipped. It errors only when all feeds fail.
func (r *RSS) Collect(ctx context.Context, day time.Time) ([]Item, error) {
	var (
		allItems []Item
		failed   int
		lastErr  error
	)

	for _, feed := range r.feeds {
		items, err := r.collectFeed(ctx, feed, day)
		if err != nil {
			r.logger.Warn("rss feed failed", "feed", feed.Name, "error", err)
			failed++
			lastErr = err
			continue
		}
		allItems = append(allItems, items...)
	}

	if len(r.feeds) > 0 && failed == len(r.feeds) {
		return nil, fmt.Errorf("all %d rss feeds failed: %w", failed, lastErr)
	}
	return allItems, nil
}

func (r *RSS) collectFeed(ctx context.Context, feed RSSFeed, day time.Time) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create rss request %s: %w", feed.Name, err)
	}
	req.Header.Set("User-Agent", "aipulse/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rss %s: %w", feed.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rss %s status %d", feed.Name, resp.StatusCode)
	}

	parsed, err := r.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse rss %s: %w", feed.Name, err)
	}

	start, end := DayBounds(day)
	var items []Item

	for _, entry := range parsed.Items {
		var published time.Time
		switch {
		case entry.PublishedParsed != nil:
			published = entry.PublishedParsed.UTC()
		case entry.UpdatedParsed != nil:
			published = entry.UpdatedParsed.UTC()
		default:
			continue
		}
		if !inDay(published, start, end) {
			continue
		}

		if !r.filter.Match(entry.Title + " " + entry.Description) {
			continue
		}

		link := entry.Link
		if link == "" && len(entry.Links) > 0 {
			link = entry.Links[0]
		}

		guid := entry.GUID
		if guid == "" {
			guid = link
		}

		author := ""
		if entry.Author != nil {
			author = entry.Author.Name
		}

		items = append(items, Item{
			ID:          fmt.Sprintf("rss:%s:%s", feed.Name, guid),
			Source:      SourceRSS,
			Publisher:   feed.Name,
			Title:       entry.Title,
			URL:         link,
			Description: truncate(entry.Description, 2000),
			Author:      author,
			PublishedAt: published,
			Tags:        entry.Categories,
		})
	}

	return items, nil
}
