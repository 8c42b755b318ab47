// Package portal is the application shell: it loads daily reports, tracks
// which one is current, keeps recent reports by date so readers on different
// days can interact with their own items, and routes interactions to the
// engagement store.
package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/elonfeng/aipulse/internal/engagement"
	"github.com/elonfeng/aipulse/pkg/report"
	"github.com/elonfeng/aipulse/pkg/trend"
)

var (
	ErrNoReport     = errors.New("portal: no report loaded")
	ErrItemNotFound = errors.New("portal: item not found")
)

// LoadResult describes one Load call. Err is the source error when Report
// is the fallback placeholder. Stale is set when a newer load committed
// first and this result was dropped, or when the caller's ctx ended first
// and nothing was committed.
type LoadResult struct {
	Report *report.DailyReport
	Seq    uint64
	Stale  bool
	Err    error
}

// Opened is returned when a reader opens an item.
type Opened struct {
	Item  report.NewsItem `json:"item"`
	Stat  engagement.Stat `json:"stat"`
	Links report.Links    `json:"links"`
}

// Shared is returned when a reader shares an item.
type Shared struct {
	Item report.NewsItem `json:"item"`
	Stat engagement.Stat `json:"stat"`
	Text string          `json:"text"`
}

// maxCachedDays bounds the per-date report cache.
const maxCachedDays = 14

type cached struct {
	report *report.DailyReport
	err    error
	seq    uint64
}

// Service owns the current report and a small cache of recent ones.
type Service struct {
	source report.Source
	eng    *engagement.Store
	logger *slog.Logger
	now    func() time.Time

	mu        sync.RWMutex
	nextSeq   uint64
	committed uint64
	current   *report.DailyReport
	lastErr   error
	byDate    map[string]*cached
	order     []string
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func New(src report.Source, eng *engagement.Store, opts ...Option) *Service {
	s := &Service{
		source: src,
		eng:    eng,
		logger: slog.Default(),
		now:    time.Now,
		byDate: make(map[string]*cached),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Today is the current UTC date in report layout.
func (s *Service) Today() string {
	return report.Today(s.now())
}

// Load fetches the report for date (today when empty). Concurrent loads do
// not cancel each other; a result is dropped as stale when a later-started
// load has already committed. On source failure a placeholder is committed
// and the error is returned in the result. A load whose ctx ended before the
// source answered commits nothing.
func (s *Service) Load(ctx context.Context, date string) LoadResult {
	if date == "" {
		date = s.Today()
	}

	s.mu.Lock()
	s.nextSeq++
	seq := s.nextSeq
	s.mu.Unlock()

	start := s.now()
	r, err := s.source.Report(ctx, date)
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.logger.Debug("report load abandoned", "date", date, "seq", seq, "error", ctxErr)
		if err == nil {
			err = ctxErr
		}
		return LoadResult{Report: report.Placeholder(date, err), Seq: seq, Stale: true, Err: err}
	}
	if err != nil {
		s.logger.Warn("report load failed, using placeholder",
			"source", s.source.Name(), "date", date, "error", err)
		r = report.Placeholder(date, err)
	} else {
		s.logger.Info("report loaded",
			"source", s.source.Name(), "date", date,
			"items", len(r.Highlights), "took", s.now().Sub(start))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.remember(date, r, err, seq)
	if seq < s.committed {
		s.logger.Debug("discarding stale report", "date", date, "seq", seq, "committed", s.committed)
		return LoadResult{Report: r, Seq: seq, Stale: true, Err: err}
	}
	s.committed = seq
	s.current = r
	s.lastErr = err
	return LoadResult{Report: r, Seq: seq, Err: err}
}

// remember stores r as the report for date unless a later-started load for
// the same date already did. Callers hold s.mu.
func (s *Service) remember(date string, r *report.DailyReport, err error, seq uint64) {
	if c, ok := s.byDate[date]; ok {
		if seq < c.seq {
			return
		}
		c.report, c.err, c.seq = r, err, seq
		return
	}
	s.byDate[date] = &cached{report: r, err: err, seq: seq}
	s.order = append(s.order, date)
	if len(s.order) > maxCachedDays {
		delete(s.byDate, s.order[0])
		s.order = s.order[1:]
	}
}

// Current returns the committed report, or nil before the first load.
func (s *Service) Current() *report.DailyReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// LastError is the source error behind the current report, if it is a
// placeholder.
func (s *Service) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Cached returns the last report loaded for date and the source error behind
// it. An empty date means the current report.
func (s *Service) Cached(date string) (*report.DailyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if date == "" {
		return s.current, s.lastErr
	}
	if c, ok := s.byDate[date]; ok {
		return c.report, c.err
	}
	return nil, nil
}

func (s *Service) reportFor(date string) (*report.DailyReport, error) {
	r, _ := s.Cached(date)
	if r == nil {
		if date == "" {
			return nil, ErrNoReport
		}
		return nil, fmt.Errorf("%w for %s", ErrNoReport, date)
	}
	return r, nil
}

func (s *Service) lookup(date, id string) (report.NewsItem, error) {
	cur, err := s.reportFor(date)
	if err != nil {
		return report.NewsItem{}, err
	}
	it, ok := cur.Item(id)
	if !ok {
		return report.NewsItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return it, nil
}

// Open records a view of id in the report for date (the current report when
// empty) and a hit on today's traffic.
func (s *Service) Open(ctx context.Context, date, id string) (*Opened, error) {
	it, err := s.lookup(date, id)
	if err != nil {
		return nil, err
	}
	s.eng.RecordView(ctx, id)
	s.eng.RecordTraffic(ctx, s.now())
	return &Opened{Item: it, Stat: s.eng.Stat(id), Links: report.SearchLinks(it)}, nil
}

// Share records a share of id and returns the card text pointing at pageURL.
func (s *Service) Share(ctx context.Context, date, id, pageURL string) (*Shared, error) {
	it, err := s.lookup(date, id)
	if err != nil {
		return nil, err
	}
	s.eng.RecordShare(ctx, id)
	return &Shared{Item: it, Stat: s.eng.Stat(id), Text: report.ShareText(it, pageURL)}, nil
}

// Items filters the highlights of the report for date.
func (s *Service) Items(date, category, query string) ([]report.NewsItem, error) {
	cur, err := s.reportFor(date)
	if err != nil {
		return nil, err
	}
	return report.FilterItems(cur.Highlights, category, query), nil
}

// Heat is the category heat of the report for date.
func (s *Service) Heat(date string) []trend.CategoryHeat {
	r, _ := s.Cached(date)
	return trend.ComputeHeat(r, s.eng.Snapshot())
}

// Traffic is the trailing traffic series ending today.
func (s *Service) Traffic(days int) trend.Traffic {
	return trend.ComputeTraffic(s.eng, days, s.now())
}
