// Package report defines the daily AI digest and the strategies that
// produce one for a calendar date.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date key used everywhere (UTC).
const DateLayout = "2006-01-02"

var (
	ErrRemoteUnavailable = errors.New("report: remote service unavailable")
	ErrParse             = errors.New("report: no parseable JSON in response")
	ErrInvalidShape      = errors.New("report: response missing highlights")
	ErrInvalidDate       = errors.New("report: invalid date")
	ErrNoItems           = errors.New("report: no items for date")
)

// Category is one of the fixed digest categories.
type Category string

const (
	CategoryTechnology Category = "Technology"
	CategoryIndustry   Category = "Industry"
	CategoryModel      Category = "Model"
	CategoryHardware   Category = "Hardware"
	CategoryPolicy     Category = "Policy"
)

var categoryLabels = map[Category]string{
	CategoryTechnology: "前沿技术",
	CategoryIndustry:   "行业动态",
	CategoryModel:      "大语言模型",
	CategoryHardware:   "硬件/算力",
	CategoryPolicy:     "政策法规",
}

// Categories returns the fixed enumeration in display order.
func Categories() []Category {
	return []Category{
		CategoryTechnology,
		CategoryIndustry,
		CategoryModel,
		CategoryHardware,
		CategoryPolicy,
	}
}

// Label is the front end's display label for c.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Known reports whether c belongs to the fixed enumeration.
func (c Category) Known() bool {
	_, ok := categoryLabels[c]
	return ok
}

// ParseCategory maps an English name (any case) or a display label onto the
// enumeration. Unknown values come back verbatim with ok=false.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories() {
		if strings.EqualFold(s, string(c)) || s == c.Label() {
			return c, true
		}
	}
	return Category(s), false
}

// Impact is the editorial weight of an item.
type Impact string

const (
	ImpactHigh   Impact = "High"
	ImpactMedium Impact = "Medium"
	ImpactLow    Impact = "Low"
)

// ParseImpact normalises s, defaulting to Low.
func ParseImpact(s string) Impact {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return ImpactHigh
	case "medium":
		return ImpactMedium
	}
	return ImpactLow
}

// impactForPosition assigns High to the lead item, Medium to the next two.
func impactForPosition(idx int) Impact {
	switch {
	case idx == 0:
		return ImpactHigh
	case idx < 3:
		return ImpactMedium
	}
	return ImpactLow
}

// NewsItem is one digest entry.
type NewsItem struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Category Category `json:"category"`
	Source   string   `json:"source"`
	Time     string   `json:"time"`
	Tags     []string `json:"tags"`
	Impact   Impact   `json:"impact"`
	URL      string   `json:"url,omitempty"`
}

// DailyReport is one day's digest.
type DailyReport struct {
	Date          string     `json:"date"`
	Headline      string     `json:"headline"`
	TrendAnalysis string     `json:"trendAnalysis"`
	Highlights    []NewsItem `json:"highlights"`
	Sources       []string   `json:"sources,omitempty"`
}

// Item returns the highlight with the given id.
func (r *DailyReport) Item(id string) (NewsItem, bool) {
	for _, it := range r.Highlights {
		if it.ID == id {
			return it, true
		}
	}
	return NewsItem{}, false
}

// Source produces the report for a calendar date.
type Source interface {
	Name() string
	Report(ctx context.Context, date string) (*DailyReport, error)
}

// ValidateDate checks that date is a YYYY-MM-DD calendar date.
func ValidateDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidDate, date, err)
	}
	return nil
}

// Today returns the UTC calendar date of t.
func Today(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Placeholder is the report shown when a source failed.
func Placeholder(date string, err error) *DailyReport {
	trend := "The digest service did not return usable data. Try refreshing in a moment."
	if err != nil {
		trend = fmt.Sprintf("The digest service did not return usable data (%v). Try refreshing in a moment.", err)
	}
	return &DailyReport{
		Date:          date,
		Headline:      "Today's AI digest is temporarily unavailable",
		TrendAnalysis: trend,
		Highlights:    []NewsItem{},
	}
}
