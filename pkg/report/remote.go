package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/elonfeng/aipulse/internal/retry"
	"github.com/elonfeng/aipulse/pkg/llm"
)

const remoteSystem = `You are an AI industry news editor with web search. You only answer with a single JSON object and never add commentary.`

const remotePrompt = `Search the web for the %d most significant AI industry news items published on %s and summarise them as a daily digest.

Rules:
1. "category" must be exactly one of: %s
2. "impact" must be one of: High, Medium, Low
3. Each item needs a one-paragraph "summary", the publisher in "source", a short display "time", 2-3 "tags" and the article "url"
4. "headline" is one sentence capturing the day; "trendAnalysis" is 2-3 sentences on the overall trend
5. List every page you relied on in "sources"

Respond with one JSON object of this shape:
{
  "date": "%s",
  "headline": "...",
  "trendAnalysis": "...",
  "highlights": [
    {"id": "news-1", "title": "...", "summary": "...", "category": "Model", "source": "...", "time": "...", "tags": ["..."], "impact": "High", "url": "https://..."}
  ],
  "sources": ["https://..."]
}`

// RemoteSource asks a generative model to search for and summarise the day's
// news. Errors are returned to the caller; fallback is the caller's policy.
type RemoteSource struct {
	completer llm.Completer
	count     int
	retry     retry.Config
}

// NewRemote creates a remote source. retryCfg.MaxRetries of 0 sends exactly
// one request.
func NewRemote(c llm.Completer, retryCfg retry.Config) *RemoteSource {
	return &RemoteSource{completer: c, count: generatedCount, retry: retryCfg}
}

func (s *RemoteSource) Name() string { return "remote" }

// Prompt returns the instruction sent for date.
func (s *RemoteSource) Prompt(date string) string {
	names := make([]string, 0, len(Categories()))
	for _, c := range Categories() {
		names = append(names, string(c))
	}
	return fmt.Sprintf(remotePrompt, s.count, date, strings.Join(names, ", "), date)
}

func (s *RemoteSource) Report(ctx context.Context, date string) (*DailyReport, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}

	var out *llm.Completion
	err := retry.WithBackoff(ctx, s.retry, isRemoteUnavailable, func(ctx context.Context) error {
		c, err := s.completer.Complete(ctx, remoteSystem, s.Prompt(date))
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrRemoteUnavailable, s.completer.Provider(), err)
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	r, err := ExtractStructured(out.Text)
	if err != nil {
		return nil, err
	}

	r.Date = date
	// ids must be unique within the report.
	ids := make(map[string]bool)
	for i := range r.Highlights {
		if id := r.Highlights[i].ID; id == "" || ids[id] {
			r.Highlights[i].ID = fmt.Sprintf("news-%s-%d", date, i)
		}
		ids[r.Highlights[i].ID] = true
	}
	if r.Headline == "" {
		r.Headline = r.Highlights[0].Title
	}
	r.Sources = mergeSources(r.Sources, out.Citations)
	return r, nil
}

func isRemoteUnavailable(err error) bool {
	return errors.Is(err, ErrRemoteUnavailable)
}

// mergeSources appends citations to sources, dropping blanks and duplicates.
func mergeSources(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range lists {
		for _, u := range l {
			u = strings.TrimSpace(u)
			if u == "" || seen[u] {
				continue
			}
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}
