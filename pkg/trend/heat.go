// Package trend aggregates engagement into the heat and traffic views.
package trend

import (
	"sort"
	"time"

	"github.com/elonfeng/aipulse/internal/engagement"
	"github.com/elonfeng/aipulse/pkg/report"
)

// CategoryHeat is the aggregate reader interest in one category.
type CategoryHeat struct {
	Category   report.Category `json:"category"`
	Label      string          `json:"label"`
	TotalViews int             `json:"totalViews"`
	Percentage float64         `json:"percentage"`
}

// ComputeHeat sums item views per category for every known category, scales
// them against the busiest one and sorts descending. Ties keep enumeration
// order. A nil report yields no entries.
func ComputeHeat(r *report.DailyReport, stats map[string]engagement.Stat) []CategoryHeat {
	if r == nil {
		return nil
	}

	cats := report.Categories()
	totals := make(map[report.Category]int, len(cats))
	for _, it := range r.Highlights {
		totals[it.Category] += stats[it.ID].Views
	}

	maxViews := 1
	for _, c := range cats {
		if totals[c] > maxViews {
			maxViews = totals[c]
		}
	}

	heat := make([]CategoryHeat, len(cats))
	for i, c := range cats {
		heat[i] = CategoryHeat{
			Category:   c,
			Label:      c.Label(),
			TotalViews: totals[c],
			Percentage: float64(totals[c]) / float64(maxViews) * 100,
		}
	}
	sort.SliceStable(heat, func(i, j int) bool {
		return heat[i].TotalViews > heat[j].TotalViews
	})
	return heat
}

// TrafficSource is anything that can produce a trailing traffic series.
type TrafficSource interface {
	TrailingTraffic(windowDays int, endingOn time.Time) []engagement.DayCount
}

// Traffic is the trailing series plus its summary figures.
type Traffic struct {
	Days  []engagement.DayCount `json:"days"`
	Total int                   `json:"total"`
	Peak  engagement.DayCount   `json:"peak"`
}

// ComputeTraffic returns the days-long series ending on end. Peak is the
// earliest busiest day.
func ComputeTraffic(src TrafficSource, days int, end time.Time) Traffic {
	t := Traffic{Days: src.TrailingTraffic(days, end)}
	for i, d := range t.Days {
		t.Total += d.Views
		if i == 0 || d.Views > t.Peak.Views {
			t.Peak = d
		}
	}
	if t.Days == nil {
		t.Days = []engagement.DayCount{}
	}
	return t
}
