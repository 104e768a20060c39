package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string, fetchLimiter *rate.Limiter) *gin.Engine {
	// Set Gin mode (can be controlled via GIN_MODE environment variable)
	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(requestIDMiddleware())

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key", "X-User-Id", requestIDHeader},
		ExposeHeaders:   []string{requestIDHeader, "X-Cache"},
		MaxAge:          12 * time.Hour,
	}))

	setupRoutes(r, handler, apiAccessKey, fetchLimiter)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string, fetchLimiter *rate.Limiter) {
	r.GET("/feeds/news", handler.GetFeed)

	r.GET("/health", handler.GetHealth)

	news := r.Group("/api/news")
	{
		news.GET("", handler.ListNews)
		news.POST("/fetch", rateLimitMiddleware(fetchLimiter), handler.FetchNews)
		news.GET("/:id", handler.GetNewsDetail)
		news.GET("/:id/citations", handler.GetCitations)
	}

	trackers := r.Group("/api/trackers")
	{
		trackers.GET("/:ownerId", handler.GetTrackerConfig)
		trackers.PUT("/:ownerId", handler.SaveTrackerConfig)
		trackers.GET("/:ownerId/watchlist", handler.GetWatchlist)
		trackers.PUT("/:ownerId/watchlist", handler.SaveWatchlist)
	}

	// Job endpoints (conditionally enabled with authentication)
	if apiAccessKey != "" {
		jobs := r.Group("/api/jobs")
		jobs.Use(authMiddleware(apiAccessKey))
		{
			jobs.POST("/fetch", handler.TriggerFetch)
		}
		slog.Info("Job endpoints enabled with authentication")
	} else {
		slog.Info("Job endpoints disabled (API_ACCESS_KEY not set)")
	}

	r.GET("/", func(c *gin.Context) {
		endpoints := map[string]string{
			"news":      "/api/news?date=&channels=&ownerId=",
			"fetch":     "/api/news/fetch (POST)",
			"detail":    "/api/news/<id>",
			"citations": "/api/news/<id>/citations",
			"trackers":  "/api/trackers/<ownerId> (GET, PUT)",
			"watchlist": "/api/trackers/<ownerId>/watchlist (GET, PUT)",
			"feed":      "/feeds/news",
			"health":    "/health",
		}

		if apiAccessKey != "" {
			endpoints["jobs"] = "/api/jobs/fetch (POST, requires X-API-Key header)"
		}

		c.JSON(200, gin.H{
			"service":     "News Tracker",
			"description": "Financial news aggregation with scheduled ingestion and RSS export",
			"endpoints":   endpoints,
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
