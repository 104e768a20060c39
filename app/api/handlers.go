package api

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/news-tracker/app/cache"
	"github.com/lysyi3m/news-tracker/app/news"
	"github.com/lysyi3m/news-tracker/app/tasks"
)

const feedTitle = "News Tracker"

func NewHandler(ingester IngesterInterface, service NewsServiceInterface, trackers TrackerStoreInterface,
	generator FeedGeneratorInterface, queryCache cache.CacheInterface, cacheTTL time.Duration,
	scheduler tasks.TaskSchedulerInterface, defaultConfig *news.TrackerConfig, baseURL string) *Handler {
	if defaultConfig == nil {
		defaultConfig = news.DefaultTrackerConfig()
	}

	return &Handler{
		ingester:      ingester,
		service:       service,
		trackers:      trackers,
		generator:     generator,
		queryCache:    queryCache,
		cacheTTL:      cacheTTL,
		scheduler:     scheduler,
		defaultConfig: defaultConfig,
		baseURL:       baseURL,
	}
}

func (h *Handler) FetchNews(c *gin.Context) {
	var req FetchNewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	sources := sanitizeList(req.Sources)
	if len(sources) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Sources array is required"})
		return
	}

	ownerID := sanitizeText(cmp.Or(req.OwnerID, req.UserID))
	tickers := sanitizeList(append(req.TickerFilter, req.StockSymbols...))

	logger := requestLogger(c)

	result, err := h.ingester.Ingest(c.Request.Context(), sources, ownerID, tickers)
	if err != nil {
		logger.Error("Failed to fetch news", "owner", ownerID, "sources", sources, "error", err)

		status := http.StatusInternalServerError
		var genErr *news.GeneratorError
		if errors.As(err, &genErr) {
			status = http.StatusBadGateway
		}

		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}

	h.invalidateCache(c.Request.Context(), logger)

	response := FetchNewsResponse{
		Items:     result.Items,
		Count:     len(result.Items),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Persisted: result.PersistErr == nil,
	}
	if result.PersistErr != nil {
		response.Warning = fmt.Sprintf("Items could not be persisted: %v", result.PersistErr)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": response})
}

func (h *Handler) ListNews(c *gin.Context) {
	date := c.Query("date")
	channels := splitList(c.Query("channels"))
	ownerID := ownerFromRequest(c)

	key := cache.GenerateNewsKey("list", cmp.Or(date, today()), ownerID, channels)
	if h.serveCached(c, key, "application/json; charset=utf-8") {
		return
	}

	items := h.service.FetchNews(c.Request.Context(), channels, date, ownerID)

	body, err := json.Marshal(gin.H{"success": true, "data": items})
	if err != nil {
		requestLogger(c).Error("Failed to encode news", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch news"})
		return
	}

	h.storeCached(c, key, body)
	c.Header("X-Cache", "MISS")
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (h *Handler) GetNewsDetail(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing news id"})
		return
	}

	detail, err := h.service.FetchNewsDetail(c.Request.Context(), id, ownerFromRequest(c))
	if err != nil {
		requestLogger(c).Error("Failed to fetch news detail", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch news detail"})
		return
	}

	if detail == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "News item not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": detail})
}

func (h *Handler) GetCitations(c *gin.Context) {
	id := c.Param("id")

	citations, err := h.service.GetCitations(c.Request.Context(), id)
	if err != nil {
		requestLogger(c).Error("Failed to fetch citations", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch citations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": citations})
}

func (h *Handler) GetFeed(c *gin.Context) {
	date := c.Query("date")
	channels := splitList(c.Query("channels"))
	ownerID := ownerFromRequest(c)

	key := cache.GenerateNewsKey("rss", cmp.Or(date, today()), ownerID, channels)
	if h.serveCached(c, key, "application/xml; charset=utf-8") {
		return
	}

	items := h.service.FetchNews(c.Request.Context(), channels, date, ownerID)

	rss, err := h.generator.Run(feedTitle, h.publicURL("/api/news"), h.publicURL(c.Request.URL.RequestURI()), items)
	if err != nil {
		requestLogger(c).Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	h.storeCached(c, key, []byte(rss))

	c.Header("X-Cache", "MISS")
	c.Header("X-Feed-Items", strconv.Itoa(len(items)))
	c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(rss))
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if count, err := h.service.CountItems(c.Request.Context()); err == nil {
		health["news_items"] = count
	} else {
		health["status"] = "degraded"
		health["error"] = err.Error()
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetTrackerConfig(c *gin.Context) {
	ownerID := sanitizeText(c.Param("ownerId"))

	config, err := h.trackers.GetTrackerConfig(c.Request.Context(), ownerID)
	if err != nil {
		requestLogger(c).Error("Failed to get tracker config", "owner", ownerID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to get tracker config"})
		return
	}

	if config == nil {
		config = h.defaultConfig
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": config})
}

func (h *Handler) SaveTrackerConfig(c *gin.Context) {
	ownerID := sanitizeText(c.Param("ownerId"))
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing owner id"})
		return
	}

	var config news.TrackerConfig
	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	for i := range config.Channels {
		config.Channels[i].Name = sanitizeText(config.Channels[i].Name)
	}
	config.UpdateFrequency = cmp.Or(sanitizeText(config.UpdateFrequency), news.DefaultUpdateFrequency)

	if err := config.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if err := h.trackers.AddUser(ctx, ownerID); err != nil {
		requestLogger(c).Error("Failed to register user", "owner", ownerID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to save tracker config"})
		return
	}
	if err := h.trackers.SaveTrackerConfig(ctx, ownerID, config); err != nil {
		requestLogger(c).Error("Failed to save tracker config", "owner", ownerID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to save tracker config"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": config})
}

func (h *Handler) GetWatchlist(c *gin.Context) {
	ownerID := sanitizeText(c.Param("ownerId"))

	symbols, err := h.trackers.GetWatchlistSymbols(c.Request.Context(), ownerID)
	if err != nil {
		requestLogger(c).Error("Failed to get watchlist", "owner", ownerID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to get watchlist"})
		return
	}

	if symbols == nil {
		symbols = []string{}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": WatchlistRequest{Symbols: symbols}})
}

// SaveWatchlist replaces the symbols used as the stock focus of scheduled
// fetches for the owner.
func (h *Handler) SaveWatchlist(c *gin.Context) {
	ownerID := sanitizeText(c.Param("ownerId"))
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing owner id"})
		return
	}

	var req WatchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	symbols := make([]string, 0, len(req.Symbols))
	for _, symbol := range sanitizeList(req.Symbols) {
		symbol = strings.ToUpper(symbol)
		if !slices.Contains(symbols, symbol) {
			symbols = append(symbols, symbol)
		}
	}

	ctx := c.Request.Context()
	if err := h.trackers.AddUser(ctx, ownerID); err != nil {
		requestLogger(c).Error("Failed to register user", "owner", ownerID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to save watchlist"})
		return
	}
	if err := h.trackers.SaveWatchlistSymbols(ctx, ownerID, symbols); err != nil {
		requestLogger(c).Error("Failed to save watchlist", "owner", ownerID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to save watchlist"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": WatchlistRequest{Symbols: symbols}})
}

func (h *Handler) TriggerFetch(c *gin.Context) {
	task, err := h.scheduler.EnqueueScheduledFetch()
	if err != nil {
		requestLogger(c).Error("Error enqueueing scheduled fetch", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to enqueue scheduled fetch",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Scheduled fetch enqueued",
		"task": gin.H{
			"id":   task.GetID(),
			"type": task.GetType(),
		},
	})
}

func (h *Handler) serveCached(c *gin.Context, key, contentType string) bool {
	if h.queryCache == nil {
		return false
	}

	body, found, err := h.queryCache.Get(c.Request.Context(), key)
	if err != nil {
		requestLogger(c).Warn("Cache read failed", "key", key, "error", err)
		return false
	}
	if !found {
		return false
	}

	c.Header("X-Cache", "HIT")
	c.Data(http.StatusOK, contentType, []byte(body))
	return true
}

func (h *Handler) storeCached(c *gin.Context, key string, body []byte) {
	if h.queryCache == nil || h.cacheTTL <= 0 {
		return
	}

	if err := h.queryCache.Set(c.Request.Context(), key, body, h.cacheTTL); err != nil {
		requestLogger(c).Warn("Cache write failed", "key", key, "error", err)
	}
}

func (h *Handler) invalidateCache(ctx context.Context, logger *slog.Logger) {
	if h.queryCache == nil {
		return
	}
	if err := h.queryCache.DeletePrefix(ctx, cache.NewsPrefix); err != nil {
		logger.Warn("Cache invalidation failed", "error", err)
	}
}

func (h *Handler) publicURL(path string) string {
	if h.baseURL == "" {
		return ""
	}
	return h.baseURL + path
}

func ownerFromRequest(c *gin.Context) string {
	return sanitizeText(cmp.Or(c.Query("ownerId"), c.Query("userId"), c.GetHeader("X-User-Id")))
}

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}
