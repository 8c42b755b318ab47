package report

import (
	"fmt"
	"net/url"
	"strings"
)

// AllCategories is the filter value that matches every category.
const AllCategories = "All"

// FilterItems keeps items in category whose title or summary contains query,
// case-insensitively. An empty or "All" category matches everything.
func FilterItems(items []NewsItem, category, query string) []NewsItem {
	var want Category
	filterCat := category != "" && !strings.EqualFold(category, AllCategories)
	if filterCat {
		want, _ = ParseCategory(category)
	}
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]NewsItem, 0, len(items))
	for _, it := range items {
		if filterCat && it.Category != want {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(it.Title), q) &&
			!strings.Contains(strings.ToLower(it.Summary), q) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Links are outbound search links for an item.
type Links struct {
	Article string `json:"article,omitempty"`
	Baidu   string `json:"baidu"`
	Google  string `json:"google"`
}

// SearchLinks builds search-engine query links for item.
func SearchLinks(item NewsItem) Links {
	// Spaces as %20, not '+'.
	q := url.QueryEscape(item.Title)
	q = strings.ReplaceAll(q, "+", "%20")
	return Links{
		Article: item.URL,
		Baidu:   "https://www.baidu.com/s?wd=" + q,
		Google:  "https://www.google.com/search?q=" + q,
	}
}

// ShareText is the plain-text card copied when a reader shares item.
func ShareText(item NewsItem, pageURL string) string {
	return fmt.Sprintf("%s\n\n%s\n\nSource: %s\nRead more: %s", item.Title, item.Summary, item.Source, pageURL)
}
