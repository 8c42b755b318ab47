package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const hnSearchURL = "https://hn.algolia.com/api/v1"

// HackerNews collects AI-related stories from the Hacker News search API,
// which, unlike the front-page API, can be scoped to a past day.
type HackerNews struct {
	client  *http.Client
	baseURL string
	limit   int
	filter  *Filter
}

// NewHackerNews creates a new HN collector. An empty baseURL uses the public
// Algolia endpoint.
func NewHackerNews(baseURL string, limit int, filter *Filter) *HackerNews {
	if baseURL == "" {
		baseURL = hnSearchURL
	}
	if limit <= 0 {
		limit = 100
	}
	return &HackerNews{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		limit:   limit,
		filter:  filter,
	}
}

func (h *HackerNews) Name() SourceType { return SourceHackerNews }

type hnHit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Author      string `json:"author"`
	Points      int    `json:"points"`
	NumComments int    `json:"num_comments"`
	CreatedAtI  int64  `json:"created_at_i"`
}

type hnSearchResponse struct {
	Hits []hnHit `json:"hits"`
}

func (h *HackerNews) Collect(ctx context.Context, day time.Time) ([]Item, error) {
	start, end := DayBounds(day)

	q := url.Values{}
	q.Set("tags", "story")
	q.Set("hitsPerPage", fmt.Sprintf("%d", h.limit))
	q.Set("numericFilters", fmt.Sprintf("created_at_i>=%d,created_at_i<%d", start.Unix(), end.Unix()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/search_by_date?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create hn request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch hn stories: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hn status %d", resp.StatusCode)
	}

	var result hnSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode hn stories: %w", err)
	}

	var items []Item
	for _, hit := range result.Hits {
		published := time.Unix(hit.CreatedAtI, 0).UTC()
		if hit.Title == "" || !inDay(published, start, end) {
			continue
		}
		if !h.filter.Match(hit.Title + " " + hit.URL) {
			continue
		}

		link := hit.URL
		if link == "" {
			link = "https://news.ycombinator.com/item?id=" + hit.ObjectID
		}

		items = append(items, Item{
			ID:          "hackernews:" + hit.ObjectID,
			Source:      SourceHackerNews,
			Publisher:   "Hacker News",
			Title:       hit.Title,
			URL:         link,
			Author:      hit.Author,
			Score:       hit.Points,
			Comments:    hit.NumComments,
			PublishedAt: published,
		})
	}
	return items, nil
}
