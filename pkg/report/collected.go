package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/elonfeng/aipulse/pkg/source"
)

const summaryMaxRunes = 400

// categoryKeywords are checked in order; the first category with a hit wins
// and anything unmatched is Technology.
var categoryKeywords = []struct {
	category Category
	keywords []string
}{
	{CategoryPolicy, []string{"regulat", "policy", "governance", "lawsuit", "copyright", "ai act", "legislat", "senate", "congress", "ban "}},
	{CategoryHardware, []string{"chip", "gpu", "tpu", "nvidia", "semiconductor", "data center", "datacenter", "hardware", "compute"}},
	{CategoryIndustry, []string{"funding", "raises", "acquir", "startup", "ipo", "revenue", "valuation", "partnership", "layoff", "market"}},
	{CategoryModel, []string{"model", "llm", "gpt", "claude", "gemini", "llama", "mistral", "weights", "benchmark"}},
}

// Classify guesses the category of a headline and description.
func Classify(text string) Category {
	lower := strings.ToLower(text)
	for _, ck := range categoryKeywords {
		for _, kw := range ck.keywords {
			if strings.Contains(lower, kw) {
				return ck.category
			}
		}
	}
	return CategoryTechnology
}

// CollectedSource builds a report from live collectors (RSS, Hacker News)
// for the requested day.
type CollectedSource struct {
	collectors []source.Source
	count      int
	logger     *slog.Logger
}

// NewCollected creates a collected source over the given collectors.
func NewCollected(collectors []source.Source, logger *slog.Logger) *CollectedSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CollectedSource{collectors: collectors, count: generatedCount, logger: logger}
}

func (s *CollectedSource) Name() string { return "collected" }

func (s *CollectedSource) Report(ctx context.Context, date string) (*DailyReport, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}
	day, _ := time.Parse(DateLayout, date)

	var (
		all  []source.Item
		errs []error
	)
	for _, c := range s.collectors {
		items, err := c.Collect(ctx, day)
		if err != nil {
			s.logger.Warn("collector failed", "collector", c.Name(), "date", date, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
			continue
		}
		s.logger.Debug("collected", "collector", c.Name(), "date", date, "items", len(items))
		all = append(all, items...)
	}

	if len(s.collectors) == 0 || len(errs) == len(s.collectors) {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, errors.Join(errs...))
	}

	picked := rankItems(all, s.count)
	if len(picked) == 0 {
		return nil, fmt.Errorf("%w %s", ErrNoItems, date)
	}

	r := &DailyReport{
		Date:       date,
		Highlights: make([]NewsItem, len(picked)),
	}
	var urls []string
	for i, it := range picked {
		summary := plainText(it.Description)
		if summary == "" {
			summary = it.Title
		}
		tags := append([]string{string(it.Source)}, it.Tags...)
		if len(tags) > 3 {
			tags = tags[:3]
		}
		r.Highlights[i] = NewsItem{
			ID:       fmt.Sprintf("live-news-%s-%d", date, i),
			Title:    it.Title,
			Summary:  summary,
			Category: Classify(it.Title + " " + summary),
			Source:   it.Publisher,
			Time:     it.PublishedAt.Format("03:04 PM"),
			Tags:     tags,
			Impact:   impactForPosition(i),
			URL:      it.URL,
		}
		urls = append(urls, it.URL)
	}
	r.Headline = r.Highlights[0].Title
	r.TrendAnalysis = categoryMix(r.Highlights)
	r.Sources = mergeSources(urls)
	return r, nil
}

// rankItems orders by score, then recency, dropping duplicate titles.
func rankItems(items []source.Item, n int) []source.Item {
	sorted := append([]source.Item(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].PublishedAt.After(sorted[j].PublishedAt)
	})

	seen := make(map[string]bool)
	var out []source.Item
	for _, it := range sorted {
		key := strings.ToLower(strings.TrimSpace(it.Title))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
		if len(out) == n {
			break
		}
	}
	return out
}

// plainText strips markup from a feed description and caps its length.
func plainText(html string) string {
	if html == "" {
		return ""
	}
	text := html
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		text = doc.Text()
	}
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) > summaryMaxRunes {
		return string(runes[:summaryMaxRunes]) + "..."
	}
	return text
}

func categoryMix(items []NewsItem) string {
	counts := make(map[Category]int)
	for _, it := range items {
		counts[it.Category]++
	}
	cats := Categories()
	sort.SliceStable(cats, func(i, j int) bool { return counts[cats[i]] > counts[cats[j]] })

	var parts []string
	for _, c := range cats {
		if counts[c] > 0 {
			parts = append(parts, fmt.Sprintf("%s (%d)", c, counts[c]))
		}
	}
	return fmt.Sprintf("Today's live coverage centres on %s across %d stories: %s.",
		cats[0], len(items), strings.Join(parts, ", "))
}
