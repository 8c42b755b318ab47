// Package engagement keeps per-item view/share counters and per-day traffic,
// persisted as JSON blobs through a store.Store.
package engagement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/elonfeng/aipulse/internal/store"
)

const (
	StatsNamespace   = "ai_portal_engagement_stats"
	TrafficNamespace = "ai_portal_daily_traffic"

	dayLayout = "2006-01-02"
)

// ErrPersistence wraps blob read and write failures. They are logged and
// never returned from Record* calls.
var ErrPersistence = errors.New("engagement: persistence failed")

// Stat is the engagement counter pair for one item.
type Stat struct {
	Views  int `json:"views"`
	Shares int `json:"shares"`
}

// DayCount is one point of the traffic series.
type DayCount struct {
	Date  string `json:"date"`
	Label string `json:"label"`
	Views int    `json:"views"`
}

// Store holds engagement state in memory and mirrors it to a blob store.
type Store struct {
	mu      sync.Mutex
	blobs   store.Store
	logger  *slog.Logger
	stats   map[string]Stat
	traffic map[string]int
}

// Open loads both namespaces from blobs. Missing or malformed blobs start
// empty.
func Open(ctx context.Context, blobs store.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		blobs:   blobs,
		logger:  logger,
		stats:   make(map[string]Stat),
		traffic: make(map[string]int),
	}
	s.load(ctx, StatsNamespace, &s.stats)
	s.load(ctx, TrafficNamespace, &s.traffic)
	if s.stats == nil {
		s.stats = make(map[string]Stat)
	}
	if s.traffic == nil {
		s.traffic = make(map[string]int)
	}
	return s
}

func (s *Store) load(ctx context.Context, namespace string, dst any) {
	data, err := s.blobs.Get(ctx, namespace)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		s.bestEffort(namespace, fmt.Errorf("%w: read: %v", ErrPersistence, err))
		return
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn("malformed engagement blob, starting empty", "namespace", namespace, "error", err)
		switch d := dst.(type) {
		case *map[string]Stat:
			*d = make(map[string]Stat)
		case *map[string]int:
			*d = make(map[string]int)
		}
	}
}

// RecordView increments the view counter for id and persists all stats.
func (s *Store) RecordView(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stats[id]
	st.Views++
	s.stats[id] = st
	s.persist(ctx, StatsNamespace, s.stats)
}

// RecordShare increments the share counter for id and persists all stats.
func (s *Store) RecordShare(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stats[id]
	st.Shares++
	s.stats[id] = st
	s.persist(ctx, StatsNamespace, s.stats)
}

// RecordTraffic increments the aggregate counter for the UTC day of t.
func (s *Store) RecordTraffic(ctx context.Context, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.traffic[t.UTC().Format(dayLayout)]++
	s.persist(ctx, TrafficNamespace, s.traffic)
}

// Views returns the view count for id, 0 if never seen.
func (s *Store) Views(id string) int {
	return s.Stat(id).Views
}

func (s *Store) Stat(id string) Stat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats[id]
}

// Snapshot returns a copy of every item's counters.
func (s *Store) Snapshot() map[string]Stat {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]Stat, len(s.stats))
	for k, v := range s.stats {
		out[k] = v
	}
	return out
}

// TrailingTraffic returns windowDays consecutive days ending on endingOn,
// oldest first, with zero for days that saw no traffic.
func (s *Store) TrailingTraffic(windowDays int, endingOn time.Time) []DayCount {
	if windowDays <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	end := endingOn.UTC()
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	out := make([]DayCount, windowDays)
	for i := range out {
		d := end.AddDate(0, 0, i-windowDays+1)
		key := d.Format(dayLayout)
		out[i] = DayCount{
			Date:  key,
			Label: fmt.Sprintf("%d/%d", int(d.Month()), d.Day()),
			Views: s.traffic[key],
		}
	}
	return out
}

// persist writes the whole mapping. Caller holds mu.
func (s *Store) persist(ctx context.Context, namespace string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.bestEffort(namespace, fmt.Errorf("%w: encode: %v", ErrPersistence, err))
		return
	}
	if err := s.blobs.Put(ctx, namespace, data); err != nil {
		s.bestEffort(namespace, fmt.Errorf("%w: write: %v", ErrPersistence, err))
	}
}

func (s *Store) bestEffort(namespace string, err error) {
	s.logger.Warn("engagement persistence failed", "namespace", namespace, "error", err)
}
