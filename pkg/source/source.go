// Package source collects candidate AI news items from live feeds.
package source

import (
	"context"
	"time"
)

// SourceType identifies which platform an item came from.
type SourceType string

const (
	SourceHackerNews SourceType = "hackernews"
	SourceRSS        SourceType = "rss"
)

// Item is the standardized data model for all collectors.
type Item struct {
	ID          string     `json:"id"`
	Source      SourceType `json:"source"`
	Publisher   string     `json:"publisher"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Description string     `json:"description"`
	Author      string     `json:"author"`
	Score       int        `json:"score"`
	Comments    int        `json:"comments"`
	Tags        []string   `json:"tags"`
	PublishedAt time.Time  `json:"published_at"`
}

// Source is the interface every collector must implement. Collect returns
// the AI-related items published on the UTC calendar day containing day.
type Source interface {
	Name() SourceType
	Collect(ctx context.Context, day time.Time) ([]Item, error)
}

// DayBounds returns [start, end) of the UTC day containing t.
func DayBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

func inDay(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
