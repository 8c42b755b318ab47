package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"

	"github.com/elonfeng/aipulse/internal/engagement"
	"github.com/elonfeng/aipulse/internal/portal"
	"github.com/elonfeng/aipulse/internal/store"
	"github.com/elonfeng/aipulse/pkg/report"
	"github.com/elonfeng/aipulse/pkg/trend"
)

type failingSource struct{}

func (failingSource) Name() string { return "failing" }

func (failingSource) Report(context.Context, string) (*report.DailyReport, error) {
	return nil, report.ErrRemoteUnavailable
}

// flakySource fails its first call and then defers to the generator.
type flakySource struct{ calls int }

func (f *flakySource) Name() string { return "flaky" }

func (f *flakySource) Report(ctx context.Context, date string) (*report.DailyReport, error) {
	f.calls++
	if f.calls == 1 {
		return nil, report.ErrRemoteUnavailable
	}
	return report.Generate(date), nil
}

func newTestRouter(t *testing.T, src report.Source) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	eng := engagement.Open(context.Background(), store.NewMemory(), nil)
	p := portal.New(src, eng, portal.WithClock(func() time.Time {
		return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	}))
	return New(p, Config{AllowedOrigins: []string{"http://localhost:3000"}, PageURL: "https://pulse.example"}, nil).Handler()
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthSetsRequestID(t *testing.T) {
	r := newTestRouter(t, report.NewGenerated())

	w := do(r, "GET", "/health", "")
	assert.Equal(t, w.Code, http.StatusOK)
	assert.Equal(t, w.Body.String(), `{"status":"ok"}`)
	assert.MatchRegex(t, w.Header().Get(requestIDHeader), "^[0-9a-f-]{36}$")

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set(requestIDHeader, "abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, rec.Header().Get(requestIDHeader), "abc")
}

func TestGetReport(t *testing.T) {
	r := newTestRouter(t, report.NewGenerated())

	w := do(r, "GET", "/api/v1/report", "")
	assert.Equal(t, w.Code, http.StatusOK)

	var res struct {
		Data     report.DailyReport `json:"data"`
		Fallback bool               `json:"fallback"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	assert.Equal(t, res.Data.Date, "2024-06-01")
	assert.Equal(t, len(res.Data.Highlights), 5)
	assert.Equal(t, res.Fallback, false)

	w = do(r, "GET", "/api/v1/report?date=2024-06-02", "")
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, res.Data.Date, "2024-06-02")

	w = do(r, "GET", "/api/v1/report?date=June", "")
	assert.Equal(t, w.Code, http.StatusBadRequest)
}

func TestGetReportFallback(t *testing.T) {
	r := newTestRouter(t, failingSource{})

	w := do(r, "GET", "/api/v1/report?date=2024-06-01", "")
	assert.Equal(t, w.Code, http.StatusOK)

	var res struct {
		Data     report.DailyReport `json:"data"`
		Fallback bool               `json:"fallback"`
		Error    string             `json:"error"`
	}
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, res.Fallback, true)
	assert.Equal(t, len(res.Data.Highlights), 0)
	assert.MatchRegex(t, res.Error, "unavailable")
	assert.MatchRegex(t, w.Body.String(), `"highlights":\[\]`)
}

func TestItemsFilter(t *testing.T) {
	r := newTestRouter(t, report.NewGenerated())

	w := do(r, "GET", "/api/v1/items?category=Policy", "")
	assert.Equal(t, w.Code, http.StatusOK)

	var res struct {
		Data  []report.NewsItem `json:"data"`
		Count int               `json:"count"`
	}
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, res.Count, 1)
	assert.Equal(t, res.Data[0].Category, report.CategoryPolicy)

	w = do(r, "GET", "/api/v1/items?q=zzzz", "")
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, res.Count, 0)
}

func TestOpenShareAndHeat(t *testing.T) {
	r := newTestRouter(t, report.NewGenerated())
	id := report.Generate("2024-06-01").Highlights[4].ID // the Model item

	w := do(r, "POST", "/api/v1/items/"+id+"/open", "")
	assert.Equal(t, w.Code, http.StatusOK)

	var opened struct {
		Data portal.Opened `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &opened)
	assert.Equal(t, opened.Data.Stat.Views, 1)
	assert.Equal(t, opened.Data.Item.Category, report.CategoryModel)

	w = do(r, "POST", "/api/v1/items/"+id+"/share", "")
	assert.Equal(t, w.Code, http.StatusOK)
	var shared struct {
		Data portal.Shared `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &shared)
	assert.Equal(t, shared.Data.Stat.Shares, 1)
	assert.MatchRegex(t, shared.Data.Text, "https://pulse.example$")

	w = do(r, "POST", "/api/v1/items/"+id+"/share", `{"pageUrl":"https://other.example"}`)
	json.Unmarshal(w.Body.Bytes(), &shared)
	assert.MatchRegex(t, shared.Data.Text, "https://other.example$")

	w = do(r, "GET", "/api/v1/heat", "")
	var heat struct {
		Data []trend.CategoryHeat `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &heat)
	assert.Equal(t, len(heat.Data), 5)
	assert.Equal(t, heat.Data[0].Category, report.CategoryModel)
	assert.Equal(t, heat.Data[0].Percentage, 100.0)
	assert.Equal(t, heat.Data[1].Percentage, 0.0)

	w = do(r, "POST", "/api/v1/items/nope/open", "")
	assert.Equal(t, w.Code, http.StatusNotFound)
}

func TestTraffic(t *testing.T) {
	r := newTestRouter(t, report.NewGenerated())
	id := report.Generate("2024-06-01").Highlights[0].ID
	do(r, "POST", "/api/v1/items/"+id+"/open", "")

	w := do(r, "GET", "/api/v1/traffic", "")
	assert.Equal(t, w.Code, http.StatusOK)
	var res struct {
		Data trend.Traffic `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, len(res.Data.Days), 7)
	assert.Equal(t, res.Data.Days[6].Label, "6/1")
	assert.Equal(t, res.Data.Days[6].Views, 1)
	assert.Equal(t, res.Data.Total, 1)

	w = do(r, "GET", "/api/v1/traffic?days=abc", "")
	assert.Equal(t, w.Code, http.StatusBadRequest)
	w = do(r, "GET", "/api/v1/traffic?days=0", "")
	assert.Equal(t, w.Code, http.StatusBadRequest)
}

func TestCategoriesAndCORS(t *testing.T) {
	r := newTestRouter(t, report.NewGenerated())

	req := httptest.NewRequest("GET", "/api/v1/categories", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, w.Code, http.StatusOK)
	assert.Equal(t, w.Header().Get("Access-Control-Allow-Origin"), "http://localhost:3000")
	assert.MatchRegex(t, w.Body.String(), `"name":"Technology","label":"`)
	assert.MatchRegex(t, w.Body.String(), `"count":5`)
}

func TestReadersOnDifferentDates(t *testing.T) {
	r := newTestRouter(t, report.NewGenerated())

	do(r, "GET", "/api/v1/report?date=2024-05-30", "")
	do(r, "GET", "/api/v1/report?date=2024-05-31", "")

	w := do(r, "POST", "/api/v1/items/sim-news-2024-05-30-0/open?date=2024-05-30", "")
	assert.Equal(t, w.Code, http.StatusOK)
	var opened struct {
		Data portal.Opened `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &opened)
	assert.Equal(t, opened.Data.Item.ID, "sim-news-2024-05-30-0")

	w = do(r, "POST", "/api/v1/items/sim-news-2024-05-31-1/share?date=2024-05-31", "")
	assert.Equal(t, w.Code, http.StatusOK)

	// A date nobody loaded yet is fetched on demand.
	w = do(r, "GET", "/api/v1/items?date=2024-05-29", "")
	var items struct {
		Data  []report.NewsItem `json:"data"`
		Count int               `json:"count"`
	}
	json.Unmarshal(w.Body.Bytes(), &items)
	assert.Equal(t, items.Count, 5)
	assert.Equal(t, strings.HasPrefix(items.Data[0].ID, "sim-news-2024-05-29-"), true)

	w = do(r, "GET", "/api/v1/heat?date=2024-05-30", "")
	var heat struct {
		Data []trend.CategoryHeat `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &heat)
	assert.Equal(t, heat.Data[0].TotalViews, 1)

	w = do(r, "POST", "/api/v1/items/x/open?date=May", "")
	assert.Equal(t, w.Code, http.StatusBadRequest)
}

func TestCancelledRequestDoesNotPinPlaceholder(t *testing.T) {
	r := newTestRouter(t, report.NewStatic(nil, 50*time.Millisecond))
	do(r, "GET", "/api/v1/report?date=2024-06-01", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest("GET", "/api/v1/report?date=2024-06-02", nil).WithContext(ctx)
	r.ServeHTTP(httptest.NewRecorder(), req)

	w := do(r, "GET", "/api/v1/report?date=2024-06-02", "")
	var res struct {
		Data     report.DailyReport `json:"data"`
		Fallback bool               `json:"fallback"`
	}
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, res.Fallback, false)
	assert.Equal(t, res.Data.Date, "2024-06-02")
	assert.NotEqual(t, len(res.Data.Highlights), 0)
}

func TestPlaceholderIsRetried(t *testing.T) {
	src := &flakySource{}
	r := newTestRouter(t, src)

	w := do(r, "GET", "/api/v1/report?date=2024-06-01", "")
	assert.MatchRegex(t, w.Body.String(), `"fallback":true`)

	w = do(r, "GET", "/api/v1/report?date=2024-06-01", "")
	assert.MatchRegex(t, w.Body.String(), `"fallback":false`)
	assert.Equal(t, src.calls, 2)

	do(r, "GET", "/api/v1/report?date=2024-06-01", "")
	assert.Equal(t, src.calls, 2)
}
