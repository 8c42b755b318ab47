// Package alert delivers the daily digest to chat and webhook destinations.
package alert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/elonfeng/aipulse/pkg/report"
)

const defaultTopItems = 5

// Notification is the digest sent to alert destinations.
type Notification struct {
	Date     string            `json:"date"`
	Headline string            `json:"headline"`
	Trend    string            `json:"trend"`
	PageURL  string            `json:"pageUrl,omitempty"`
	Items    []report.NewsItem `json:"items"`
	Sources  []string          `json:"sources,omitempty"`
}

// FromReport builds a notification carrying the first top items of r.
func FromReport(r *report.DailyReport, pageURL string, top int) *Notification {
	if top <= 0 {
		top = defaultTopItems
	}
	items := r.Highlights
	if len(items) > top {
		items = items[:top]
	}
	return &Notification{
		Date:     r.Date,
		Headline: r.Headline,
		Trend:    r.TrendAnalysis,
		PageURL:  pageURL,
		Items:    append([]report.NewsItem(nil), items...),
		Sources:  r.Sources,
	}
}

// itemLink is the best outbound link for an item: its article, else a
// search for its title.
func itemLink(it report.NewsItem) string {
	if it.URL != "" {
		return it.URL
	}
	return report.SearchLinks(it).Google
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return m != nil && len(m.notifiers) > 0
}

// Broadcast sends a notification to all registered notifiers.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

// postJSON posts body and treats any non-2xx status as an error.
func postJSON(ctx context.Context, client *http.Client, name, url string, body []byte, headers map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s status %d", name, resp.StatusCode)
	}
	return nil
}
