package trend

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/elonfeng/aipulse/internal/engagement"
	"github.com/elonfeng/aipulse/internal/store"
	"github.com/elonfeng/aipulse/pkg/report"
)

func TestComputeHeatCoversEveryCategory(t *testing.T) {
	r := &report.DailyReport{Highlights: []report.NewsItem{
		{ID: "a", Category: report.CategoryIndustry},
		{ID: "b", Category: report.CategoryIndustry},
		{ID: "c", Category: report.CategoryPolicy},
		{ID: "d", Category: "Robotics"},
	}}
	stats := map[string]engagement.Stat{
		"a": {Views: 2}, "b": {Views: 2}, "c": {Views: 1}, "d": {Views: 50},
	}

	heat := ComputeHeat(r, stats)
	assert.Equal(t, len(heat), 5)

	assert.Equal(t, heat[0], CategoryHeat{Category: report.CategoryIndustry, Label: "行业动态", TotalViews: 4, Percentage: 100})
	assert.Equal(t, heat[1].Category, report.CategoryPolicy)
	assert.Equal(t, heat[1].Percentage, 25.0)

	// Zero-view categories keep enumeration order.
	assert.Equal(t, heat[2].Category, report.CategoryTechnology)
	assert.Equal(t, heat[3].Category, report.CategoryModel)
	assert.Equal(t, heat[4].Category, report.CategoryHardware)

	for _, h := range heat {
		if h.Percentage < 0 || h.Percentage > 100 {
			t.Fatalf("%s percentage out of range: %v", h.Category, h.Percentage)
		}
	}
}

func TestComputeHeatNilReport(t *testing.T) {
	assert.Equal(t, len(ComputeHeat(nil, nil)), 0)
}

func TestHeatEndToEnd(t *testing.T) {
	ctx := context.Background()
	blobs := store.NewMemory()
	r := report.Generate("2024-06-01")

	eng := engagement.Open(ctx, blobs, nil)
	for _, h := range ComputeHeat(r, eng.Snapshot()) {
		assert.Equal(t, h.Percentage, 0.0)
	}

	var modelID string
	for _, it := range r.Highlights {
		if it.Category == report.CategoryModel {
			modelID = it.ID
			break
		}
	}
	if modelID == "" {
		t.Fatal("generated report has no Model item")
	}
	eng.RecordView(ctx, modelID)

	check := func(stats map[string]engagement.Stat) {
		for _, h := range ComputeHeat(r, stats) {
			if h.Category == report.CategoryModel {
				assert.Equal(t, h.Percentage, 100.0)
			} else {
				assert.Equal(t, h.Percentage, 0.0)
			}
		}
	}
	check(eng.Snapshot())

	reloaded := engagement.Open(ctx, blobs, nil)
	assert.Equal(t, reloaded.Views(modelID), 1)
	check(reloaded.Snapshot())
}

func TestComputeTraffic(t *testing.T) {
	ctx := context.Background()
	eng := engagement.Open(ctx, store.NewMemory(), nil)
	end := time.Date(2024, 6, 7, 12, 0, 0, 0, time.UTC)

	eng.RecordTraffic(ctx, end.AddDate(0, 0, -2))
	eng.RecordTraffic(ctx, end.AddDate(0, 0, -2))
	eng.RecordTraffic(ctx, end)

	tr := ComputeTraffic(eng, 7, end)
	assert.Equal(t, len(tr.Days), 7)
	assert.Equal(t, tr.Total, 3)
	assert.Equal(t, tr.Peak.Date, "2024-06-05")
	assert.Equal(t, tr.Peak.Views, 2)

	empty := ComputeTraffic(eng, 0, end)
	assert.Equal(t, len(empty.Days), 0)
	assert.Equal(t, empty.Total, 0)
}
