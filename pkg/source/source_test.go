package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/go-playground/assert/v2"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>AI Wire</title>
  <link>https://wire.example.com</link>
  <description>AI news</description>
  <item>
    <title>OpenAI ships a new reasoning model</title>
    <link>https://wire.example.com/a</link>
    <guid>a</guid>
    <description>&lt;p&gt;The LLM tops every benchmark.&lt;/p&gt;</description>
    <pubDate>Sat, 01 Jun 2024 09:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Gardening tips for June</title>
    <link>https://wire.example.com/b</link>
    <guid>b</guid>
    <description>Tomatoes.</description>
    <pubDate>Sat, 01 Jun 2024 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>NVIDIA GPU roadmap leaks</title>
    <link>https://wire.example.com/c</link>
    <guid>c</guid>
    <description>Next year.</description>
    <pubDate>Fri, 31 May 2024 23:59:00 GMT</pubDate>
  </item>
</channel>
</rss>`

var june1 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestFilterMatch(t *testing.T) {
	f := NewFilter([]string{"robotics"}, []string{"crypto"})

	assert.Equal(t, f.Match("New LLM released"), true)
	assert.Equal(t, f.Match("Robotics startup raises"), true)
	assert.Equal(t, f.Match("Crypto LLM token"), false)
	assert.Equal(t, f.Match("Local bakery opens"), false)

	var nilFilter *Filter
	assert.Equal(t, nilFilter.Match("anything"), true)
}

func TestTruncateOnRuneBoundary(t *testing.T) {
	s := truncate("深度学习模型", 3)
	assert.Equal(t, s, "深度学...")
	assert.Equal(t, utf8.ValidString(s), true)
	assert.Equal(t, truncate("short", 10), "short")
}

func TestDayBounds(t *testing.T) {
	start, end := DayBounds(time.Date(2024, 6, 1, 23, 30, 0, 0, time.FixedZone("X", -2*3600)))
	assert.Equal(t, start, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, end, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC))
}

func TestRSSCollectKeepsAIItemsOfDay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	rss := NewRSS([]RSSFeed{{Name: "AI Wire", URL: srv.URL}}, NewFilter(nil, nil), nil)
	items, err := rss.Collect(context.Background(), june1)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	assert.Equal(t, len(items), 1)
	assert.Equal(t, items[0].Title, "OpenAI ships a new reasoning model")
	assert.Equal(t, items[0].ID, "rss:AI Wire:a")
	assert.Equal(t, items[0].Publisher, "AI Wire")
	assert.Equal(t, items[0].Source, SourceRSS)
}

func TestRSSCollectAllFeedsFailing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	rss := NewRSS([]RSSFeed{{Name: "down", URL: srv.URL}}, nil, nil)
	_, err := rss.Collect(context.Background(), june1)
	assert.NotEqual(t, err, nil)
}

func TestHackerNewsCollect(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"hits":[
			{"objectID":"1","title":"Claude gets a new agentic mode","url":"https://x.example/1","author":"pg","points":320,"num_comments":80,"created_at_i":1717228800},
			{"objectID":"2","title":"Show HN: my sourdough app","url":"","author":"baker","points":5,"num_comments":1,"created_at_i":1717232400},
			{"objectID":"3","title":"Ask HN: which LLM for code?","url":"","author":"dev","points":40,"num_comments":30,"created_at_i":1717236000}
		]}`))
	}))
	defer srv.Close()

	hn := NewHackerNews(srv.URL, 50, NewFilter(nil, nil))
	items, err := hn.Collect(context.Background(), june1)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	assert.Equal(t, strings.Contains(gotQuery, "tags=story"), true)
	assert.Equal(t, len(items), 2)
	assert.Equal(t, items[0].ID, "hackernews:1")
	assert.Equal(t, items[0].Score, 320)
	assert.Equal(t, items[1].URL, "https://news.ycombinator.com/item?id=3")
}
