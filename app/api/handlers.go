package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/reddit-comb/app/config"
	"github.com/lysyi3m/reddit-comb/app/database"
	"github.com/lysyi3m/reddit-comb/app/reddit"
	"github.com/lysyi3m/reddit-comb/app/scraper"
)

type Handler struct {
	configCache   *config.Cache
	subredditRepo database.SubredditRepository
	postRepo      database.PostRepository
	snapshotRepo  database.SnapshotRepository
	scrapeLogRepo database.ScrapeLogRepository
	scraper       *scraper.Scraper
}

func NewHandler(configCache *config.Cache, subredditRepo database.SubredditRepository,
	postRepo database.PostRepository, snapshotRepo database.SnapshotRepository,
	scrapeLogRepo database.ScrapeLogRepository, s *scraper.Scraper) *Handler {
	return &Handler{
		configCache:   configCache,
		subredditRepo: subredditRepo,
		postRepo:      postRepo,
		snapshotRepo:  snapshotRepo,
		scrapeLogRepo: scrapeLogRepo,
		scraper:       s,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if subredditCount, err := h.subredditRepo.GetSubredditCount(); err == nil {
		health["subreddits"] = subredditCount
	}

	health["loaded_definitions"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{}

	if count, err := h.subredditRepo.GetSubredditCount(); err == nil {
		stats["subreddits"] = count
	}
	if count, err := h.postRepo.GetPostCount(); err == nil {
		stats["posts"] = count
	}
	if count, err := h.snapshotRepo.GetSnapshotCount(); err == nil {
		stats["snapshots"] = count
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIGetTrending(c *gin.Context) {
	window, limit, ok := trendingParams(c)
	if !ok {
		return
	}

	posts, err := h.snapshotRepo.Trending(window, limit)
	if err != nil {
		slog.Error("Database error", "operation", "trending", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"window": window.String(),
		"posts":  posts,
		"total":  len(posts),
	})
}

func (h *Handler) APIGetTrendingSubreddits(c *gin.Context) {
	window, limit, ok := trendingParams(c)
	if !ok {
		return
	}

	trends, err := h.snapshotRepo.TrendingSubreddits(window, limit)
	if err != nil {
		slog.Error("Database error", "operation", "trending_subreddits", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"window":     window.String(),
		"subreddits": trends,
		"total":      len(trends),
	})
}

func (h *Handler) APIGetScrapes(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	logs, err := h.scrapeLogRepo.GetRecent(limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_scrapes", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"scrapes": logs,
		"total":   len(logs),
	})
}

func (h *Handler) APIScrapeSubreddit(c *gin.Context) {
	name := c.Param("subreddit")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing subreddit parameter"})
		return
	}

	mode, opts, ok := scrapeParams(c)
	if !ok {
		return
	}

	result, err := h.scraper.ScrapeSubreddit(c.Request.Context(), name, mode, opts)
	if err != nil {
		if errors.Is(err, scraper.ErrScrapeInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "result": result})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) APIScrapeAll(c *gin.Context) {
	mode, opts, ok := scrapeParams(c)
	if !ok {
		return
	}

	// A full sweep can take minutes with politeness delays, so run it in the
	// background and let callers follow progress via /api/scrapes
	go func() {
		if _, err := h.scraper.ScrapeAll(context.Background(), mode, opts); err != nil {
			slog.Error("On-demand batch failed", "mode", mode, "error", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"status": "started",
		"mode":   mode,
	})
}

func scrapeParams(c *gin.Context) (reddit.Mode, reddit.FetchOptions, bool) {
	mode := reddit.Mode(c.DefaultQuery("mode", string(reddit.ModeHot)))
	if !mode.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid mode parameter"})
		return "", reddit.FetchOptions{}, false
	}

	opts := reddit.FetchOptions{
		Timeframe: reddit.Timeframe(c.Query("timeframe")),
		Query:     c.Query("q"),
	}

	if opts.Timeframe != "" && !opts.Timeframe.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid timeframe parameter"})
		return "", reddit.FetchOptions{}, false
	}

	if mode == reddit.ModeSearch && opts.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search mode requires a q parameter"})
		return "", reddit.FetchOptions{}, false
	}

	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return "", reddit.FetchOptions{}, false
		}
		opts.Limit = parsed
	}

	return mode, opts, true
}

func trendingParams(c *gin.Context) (time.Duration, int, bool) {
	window := 24 * time.Hour
	if raw := c.Query("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid window parameter"})
			return 0, 0, false
		}
		window = parsed
	}

	limit := 25
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return 0, 0, false
		}
		limit = parsed
	}

	return window, limit, true
}
