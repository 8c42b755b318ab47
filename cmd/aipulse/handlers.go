package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/gin-gonic/gin"

	"github.com/elonfeng/aipulse/internal/config"
	"github.com/elonfeng/aipulse/internal/engagement"
	"github.com/elonfeng/aipulse/internal/portal"
	"github.com/elonfeng/aipulse/internal/retry"
	"github.com/elonfeng/aipulse/internal/scheduler"
	"github.com/elonfeng/aipulse/internal/store"
	"github.com/elonfeng/aipulse/pkg/alert"
	"github.com/elonfeng/aipulse/pkg/llm"
	"github.com/elonfeng/aipulse/pkg/report"
	"github.com/elonfeng/aipulse/pkg/server"
	"github.com/elonfeng/aipulse/pkg/source"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

// app is the wired application for one command invocation.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	blobs  store.Store
	eng    *engagement.Store
	portal *portal.Service
}

func (a *app) Close() error { return a.blobs.Close() }

func newApp(ctx context.Context, strategy string) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if strategy != "" {
		cfg.Report.Strategy = strategy
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(logger)

	blobs, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	src, err := buildSource(cfg, logger)
	if err != nil {
		blobs.Close()
		return nil, err
	}

	eng := engagement.Open(ctx, blobs, logger)
	return &app{
		cfg:    cfg,
		logger: logger,
		blobs:  blobs,
		eng:    eng,
		portal: portal.New(src, eng, portal.WithLogger(logger)),
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Database.Backend {
	case config.BackendRedis:
		s, err := store.NewRedis(ctx, cfg.Database.RedisURL, cfg.Database.RedisPrefix)
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		return s, nil
	case config.BackendMemory:
		return store.NewMemory(), nil
	}
	s, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}

func buildSource(cfg *config.Config, logger *slog.Logger) (report.Source, error) {
	switch cfg.Report.Strategy {
	case config.StrategyStatic:
		return report.NewStatic(nil, cfg.Report.ParseStaticDelay()), nil
	case config.StrategyRemote:
		c, err := llm.New(cfg.LLM.Provider, cfg.LLM.Model, cfg.LLM.APIKey, cfg.LLM.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("remote strategy: %w", err)
		}
		logger.Info("remote report source", "provider", c.Provider(), "max_retries", cfg.LLM.MaxRetries)
		return report.NewRemote(c, retry.Config{
			MaxRetries: cfg.LLM.MaxRetries,
			BaseDelay:  cfg.LLM.ParseRetryDelay(),
		}), nil
	case config.StrategyCollected:
		filter := source.NewFilter(cfg.Filter.ExtraKeywords, cfg.Filter.ExcludeKeywords)
		return report.NewCollected(buildCollectors(cfg, filter, logger), logger), nil
	}
	return report.NewGenerated(), nil
}

func buildCollectors(cfg *config.Config, filter *source.Filter, logger *slog.Logger) []source.Source {
	var collectors []source.Source

	if cfg.Sources.HackerNews.Enabled {
		collectors = append(collectors, source.NewHackerNews(cfg.Sources.HackerNews.BaseURL, cfg.Sources.HackerNews.Limit, filter))
	}
	if cfg.Sources.RSS.Enabled {
		feeds := make([]source.RSSFeed, len(cfg.Sources.RSS.Feeds))
		for i, f := range cfg.Sources.RSS.Feeds {
			feeds[i] = source.RSSFeed{Name: f.Name, URL: f.URL}
		}
		collectors = append(collectors, source.NewRSS(feeds, filter, logger))
	}

	return collectors
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// load commits the report for date and reports a fallback on stderr.
func (a *app) load(ctx context.Context, date string) (*report.DailyReport, error) {
	if date != "" {
		if err := report.ValidateDate(date); err != nil {
			return nil, err
		}
	}
	res := a.portal.Load(ctx, date)
	if res.Err != nil {
		fmt.Fprintf(os.Stderr, "report unavailable, showing placeholder: %v\n", res.Err)
	}
	return res.Report, nil
}

func runReport(ctx context.Context, date, strategy string, jsonOutput bool) error {
	a, err := newApp(ctx, strategy)
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := a.load(ctx, date)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(r)
	}

	fmt.Printf("AI Pulse · %s\n\n%s\n\n%s\n\n", r.Date, r.Headline, r.TrendAnalysis)
	if len(r.Highlights) == 0 {
		fmt.Println("no highlights (try again later or use --strategy generated)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tIMPACT\tCATEGORY\tVIEWS\tTIME\tTITLE")
	for _, it := range r.Highlights {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			it.ID, it.Impact, it.Category, humanize.Comma(int64(a.eng.Views(it.ID))), it.Time, it.Title)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(r.Sources) > 0 {
		fmt.Printf("\nsources:\n  %s\n", strings.Join(r.Sources, "\n  "))
	}
	return nil
}

func runCollect(ctx context.Context, date string, only []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if date == "" {
		date = report.Today(time.Now())
	}
	if err := report.ValidateDate(date); err != nil {
		return err
	}
	day, _ := time.Parse(report.DateLayout, date)

	filter := source.NewFilter(cfg.Filter.ExtraKeywords, cfg.Filter.ExcludeKeywords)
	all := buildCollectors(cfg, filter, slog.Default())

	var collectors []source.Source
	if len(only) > 0 {
		wanted := make(map[string]bool)
		for _, s := range only {
			wanted[strings.ToLower(strings.TrimSpace(s))] = true
		}
		for _, c := range all {
			if wanted[string(c.Name())] || wanted[shortName(c.Name())] {
				collectors = append(collectors, c)
			}
		}
		if len(collectors) == 0 {
			return fmt.Errorf("no matching collectors for: %s", strings.Join(only, ", "))
		}
	} else {
		collectors = all
	}

	total := 0
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tSCORE\tCATEGORY\tPUBLISHED\tTITLE")
	for _, c := range collectors {
		fmt.Fprintf(os.Stderr, "collecting from %s...\n", c.Name())
		items, err := c.Collect(ctx, day)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  error: %v\n", err)
			continue
		}
		fmt.Fprintf(os.Stderr, "  collected %d items\n", len(items))
		total += len(items)
		for _, it := range items {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
				it.Publisher, it.Score, report.Classify(it.Title), humanize.Time(it.PublishedAt), it.Title)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "\ntotal: %d items from %d collectors\n", total, len(collectors))
	return nil
}

func runOpen(ctx context.Context, date, id string) error {
	a, err := newApp(ctx, "")
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := a.load(ctx, date)
	if err != nil {
		return err
	}
	opened, err := a.portal.Open(ctx, r.Date, id)
	if err != nil {
		return err
	}

	it := opened.Item
	fmt.Printf("%s\n[%s · %s · %s]\n\n%s\n\n", it.Title, it.Category.Label(), it.Impact, it.Source, it.Summary)
	if len(it.Tags) > 0 {
		fmt.Printf("tags: #%s\n", strings.Join(it.Tags, " #"))
	}
	if opened.Links.Article != "" {
		fmt.Printf("article: %s\n", opened.Links.Article)
	}
	fmt.Printf("google:  %s\nbaidu:   %s\n\n", opened.Links.Google, opened.Links.Baidu)
	fmt.Printf("%s view of this story\n", humanize.Ordinal(opened.Stat.Views))
	return nil
}

func runShare(ctx context.Context, date, id string) error {
	a, err := newApp(ctx, "")
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := a.load(ctx, date)
	if err != nil {
		return err
	}
	shared, err := a.portal.Share(ctx, r.Date, id, a.cfg.Report.PageURL)
	if err != nil {
		return err
	}
	fmt.Println(shared.Text)
	fmt.Fprintf(os.Stderr, "\nshared %s\n", english.Plural(shared.Stat.Shares, "time", "times"))
	return nil
}

func runHeat(ctx context.Context, date string, jsonOutput bool) error {
	a, err := newApp(ctx, "")
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := a.load(ctx, date)
	if err != nil {
		return err
	}
	heat := a.portal.Heat(r.Date)

	if jsonOutput {
		return printJSON(heat)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tLABEL\tVIEWS\tHEAT")
	for _, h := range heat {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s %3.0f%%\n",
			h.Category, h.Label, humanize.Comma(int64(h.TotalViews)), bar(h.Percentage, 20), h.Percentage)
	}
	return w.Flush()
}

func runTraffic(ctx context.Context, days int, jsonOutput bool) error {
	a, err := newApp(ctx, "")
	if err != nil {
		return err
	}
	defer a.Close()

	tr := a.portal.Traffic(days)
	if jsonOutput {
		return printJSON(tr)
	}

	peak := tr.Peak.Views
	if peak < 1 {
		peak = 1
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DAY\tDATE\tVIEWS\t")
	for _, d := range tr.Days {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			d.Label, d.Date, humanize.Comma(int64(d.Views)), bar(100*float64(d.Views)/float64(peak), 20))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\ntotal: %s\n", humanize.Comma(int64(tr.Total)))
	return nil
}

func bar(pct float64, width int) string {
	n := int(pct / 100 * float64(width))
	if n < 0 {
		n = 0
	}
	if n > width {
		n = width
	}
	return strings.Repeat("█", n) + strings.Repeat("·", width-n)
}

func runServe(ctx context.Context, port int) error {
	a, err := newApp(ctx, "")
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.newServer(port).ListenAndServe(ctx)
}

func runDaemon(ctx context.Context, port int) error {
	a, err := newApp(ctx, "")
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched, err := scheduler.New(a.portal, buildAlertManager(a.cfg), scheduler.Config{
		Schedule:   a.cfg.Schedule.Cron,
		RunOnStart: a.cfg.Schedule.RunOnStart,
		PageURL:    a.cfg.Report.PageURL,
		TopItems:   a.cfg.Report.TopItems,
	}, a.logger)
	if err != nil {
		return err
	}

	go func() {
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("scheduler error", "error", err)
		}
	}()

	err = a.newServer(port).ListenAndServe(ctx)
	fmt.Fprintln(os.Stderr, "\nshutting down...")
	return err
}

func (a *app) newServer(port int) *server.Server {
	if port == 0 {
		port = a.cfg.Server.Port
	}
	if a.cfg.Log.SlogLevel() > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	return server.New(a.portal, server.Config{
		Port:           port,
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		PageURL:        a.cfg.Report.PageURL,
	}, a.logger)
}

func shortName(st source.SourceType) string {
	switch st {
	case source.SourceHackerNews:
		return "hn"
	case source.SourceRSS:
		return "rss"
	}
	return string(st)
}
