package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/elonfeng/aipulse/pkg/source"
)

type stubCollector struct {
	name  source.SourceType
	items []source.Item
	err   error
	day   time.Time
}

func (s *stubCollector) Name() source.SourceType { return s.name }

func (s *stubCollector) Collect(_ context.Context, day time.Time) ([]source.Item, error) {
	s.day = day
	return s.items, s.err
}

func at(h int) time.Time { return time.Date(2024, 6, 1, h, 0, 0, 0, time.UTC) }

func TestClassify(t *testing.T) {
	assert.Equal(t, Classify("EU finalises AI Act regulation"), CategoryPolicy)
	assert.Equal(t, Classify("NVIDIA unveils new GPU"), CategoryHardware)
	assert.Equal(t, Classify("AI startup raises $100M"), CategoryIndustry)
	assert.Equal(t, Classify("Anthropic releases Claude update"), CategoryModel)
	assert.Equal(t, Classify("Robots learn to fold laundry"), CategoryTechnology)
}

func TestCollectedSourceBuildsReport(t *testing.T) {
	rss := &stubCollector{name: source.SourceRSS, items: []source.Item{
		{Title: "NVIDIA unveils new GPU", URL: "https://r/1", Publisher: "Wire", Description: "<p>Faster <b>chips</b>.</p>", PublishedAt: at(9)},
		{Title: "Robots learn to fold laundry", URL: "https://r/2", Publisher: "Wire", PublishedAt: at(11)},
	}}
	hn := &stubCollector{name: source.SourceHackerNews, items: []source.Item{
		{Title: "Anthropic releases Claude update", URL: "https://h/1", Publisher: "Hacker News", Score: 500, PublishedAt: at(8)},
		{Title: "anthropic releases claude update", URL: "https://h/dup", Publisher: "Hacker News", Score: 10, PublishedAt: at(8)},
	}}

	s := NewCollected([]source.Source{rss, hn}, nil)
	r, err := s.Report(context.Background(), "2024-06-01")
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	assert.Equal(t, rss.day, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, len(r.Highlights), 3)
	assert.Equal(t, r.Headline, "Anthropic releases Claude update")
	assert.Equal(t, r.Highlights[0].Impact, ImpactHigh)
	assert.Equal(t, r.Highlights[0].Category, CategoryModel)
	// Equal scores fall back to recency.
	assert.Equal(t, r.Highlights[1].Title, "Robots learn to fold laundry")
	assert.Equal(t, r.Highlights[2].Summary, "Faster chips.")
	assert.Equal(t, r.Highlights[2].ID, "live-news-2024-06-01-2")
	assert.Equal(t, r.Sources, []string{"https://h/1", "https://r/2", "https://r/1"})
}

func TestCollectedSourceFailures(t *testing.T) {
	down := &stubCollector{name: source.SourceRSS, err: errors.New("timeout")}
	_, err := NewCollected([]source.Source{down}, nil).Report(context.Background(), "2024-06-01")
	assert.Equal(t, errors.Is(err, ErrRemoteUnavailable), true)

	quiet := &stubCollector{name: source.SourceRSS}
	_, err = NewCollected([]source.Source{down, quiet}, nil).Report(context.Background(), "2024-06-01")
	assert.Equal(t, errors.Is(err, ErrNoItems), true)

	_, err = NewCollected(nil, nil).Report(context.Background(), "2024-06-01")
	assert.Equal(t, errors.Is(err, ErrRemoteUnavailable), true)
}

func TestFilterItems(t *testing.T) {
	items := Generate("2024-06-01").Highlights

	all := FilterItems(items, "", "")
	assert.Equal(t, len(all), len(items))

	all = FilterItems(items, "all", "")
	assert.Equal(t, len(all), len(items))

	for _, it := range FilterItems(items, "Industry", "") {
		assert.Equal(t, it.Category, CategoryIndustry)
	}

	byLabel := FilterItems(items, "行业动态", "")
	assert.Equal(t, len(byLabel), len(FilterItems(items, "industry", "")))

	hits := FilterItems(items, "", "ZURICH")
	for _, it := range hits {
		assert.MatchRegex(t, it.Title+it.Summary, "(?i)zurich")
	}

	assert.Equal(t, len(FilterItems(items, "", "no such words anywhere")), 0)
}

func TestSearchLinksAndShareText(t *testing.T) {
	it := NewsItem{Title: "GPT-5 & friends", Summary: "Sum", Source: "Blog", URL: "https://a"}

	links := SearchLinks(it)
	assert.Equal(t, links.Google, "https://www.google.com/search?q=GPT-5%20%26%20friends")
	assert.Equal(t, links.Baidu, "https://www.baidu.com/s?wd=GPT-5%20%26%20friends")
	assert.Equal(t, links.Article, "https://a")

	assert.Equal(t, ShareText(it, "https://pulse.example"),
		"GPT-5 & friends\n\nSum\n\nSource: Blog\nRead more: https://pulse.example")
}
