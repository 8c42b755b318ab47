package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/elonfeng/aipulse/internal/portal"
	"github.com/elonfeng/aipulse/pkg/report"
)

const (
	requestIDHeader = "X-Request-ID"
	defaultDays     = 7
	maxDays         = 90
)

// Config holds server settings.
type Config struct {
	Port           int
	AllowedOrigins []string
	PageURL        string
}

// Server provides the HTTP API over a portal service.
type Server struct {
	portal *portal.Service
	cfg    Config
	logger *slog.Logger
}

// New creates a new HTTP server.
func New(p *portal.Service, cfg Config, logger *slog.Logger) *Server {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{portal: p, cfg: cfg, logger: logger}
}

// Handler builds the gin engine with all routes.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.accessLog())

	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  s.cfg.AllowedOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", requestIDHeader},
			ExposeHeaders: []string{requestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	r.GET("/health", s.handleHealth)

	api := r.Group("/api/v1")
	api.GET("/report", s.handleReport)
	api.GET("/items", s.handleItems)
	api.POST("/items/:id/open", s.handleOpen)
	api.POST("/items/:id/share", s.handleShare)
	api.GET("/heat", s.handleHeat)
	api.GET("/traffic", s.handleTraffic)
	api.GET("/categories", s.handleCategories)
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("aipulse server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"took", time.Since(start),
			"request_id", c.GetString("request_id"))
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleReport returns the report for ?date= (today by default). A cached
// report for that date is reused unless it is a placeholder or ?refresh=true.
func (s *Server) handleReport(c *gin.Context) {
	date := c.DefaultQuery("date", s.portal.Today())
	if err := report.ValidateDate(date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cached, lastErr := s.portal.Cached(date)
	if cached != nil && lastErr == nil && c.Query("refresh") != "true" {
		c.JSON(http.StatusOK, reportBody(cached, nil, false))
		return
	}

	res := s.portal.Load(c.Request.Context(), date)
	c.JSON(http.StatusOK, reportBody(res.Report, res.Err, res.Stale))
}

func reportBody(r *report.DailyReport, err error, stale bool) gin.H {
	body := gin.H{
		"data":     r,
		"fallback": err != nil,
		"stale":    stale,
	}
	if err != nil {
		body["error"] = err.Error()
	}
	return body
}

// reportDate reads ?date=, empty meaning the current report. ok is false
// after a 400 has been written.
func (s *Server) reportDate(c *gin.Context) (string, bool) {
	date := c.Query("date")
	if date == "" {
		return "", true
	}
	if err := report.ValidateDate(date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return date, true
}

// ensureReport loads the report for date (today when empty and nothing is
// loaded yet) on first use.
func (s *Server) ensureReport(c *gin.Context, date string) {
	if r, _ := s.portal.Cached(date); r == nil {
		s.portal.Load(c.Request.Context(), date)
	}
}

func (s *Server) handleItems(c *gin.Context) {
	date, ok := s.reportDate(c)
	if !ok {
		return
	}
	s.ensureReport(c, date)
	items, err := s.portal.Items(date, c.Query("category"), c.Query("q"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items, "count": len(items)})
}

func (s *Server) handleOpen(c *gin.Context) {
	date, ok := s.reportDate(c)
	if !ok {
		return
	}
	s.ensureReport(c, date)
	opened, err := s.portal.Open(c.Request.Context(), date, c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": opened})
}

type shareRequest struct {
	PageURL string `json:"pageUrl"`
}

func (s *Server) handleShare(c *gin.Context) {
	date, ok := s.reportDate(c)
	if !ok {
		return
	}
	var req shareRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.PageURL == "" {
		req.PageURL = s.cfg.PageURL
	}

	s.ensureReport(c, date)
	shared, err := s.portal.Share(c.Request.Context(), date, c.Param("id"), req.PageURL)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": shared})
}

func (s *Server) handleHeat(c *gin.Context) {
	date, ok := s.reportDate(c)
	if !ok {
		return
	}
	s.ensureReport(c, date)
	heat := s.portal.Heat(date)
	c.JSON(http.StatusOK, gin.H{"data": heat, "count": len(heat)})
}

func (s *Server) handleTraffic(c *gin.Context) {
	days := defaultDays
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxDays {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("days must be an integer between 1 and %d", maxDays)})
			return
		}
		days = n
	}
	c.JSON(http.StatusOK, gin.H{"data": s.portal.Traffic(days)})
}

type categoryInfo struct {
	Name  report.Category `json:"name"`
	Label string          `json:"label"`
}

func (s *Server) handleCategories(c *gin.Context) {
	cats := report.Categories()
	out := make([]categoryInfo, len(cats))
	for i, cat := range cats {
		out[i] = categoryInfo{Name: cat, Label: cat.Label()}
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "count": len(out)})
}

func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, portal.ErrItemNotFound), errors.Is(err, portal.ErrNoReport):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
