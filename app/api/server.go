package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates the HTTP server with all routes configured. Generated
// audio files are served statically from audioDir under /audio/.
func NewServer(handler *Handler, apiAccessKey, audioDir string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

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

	// CORS middleware for the dashboard frontend
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-API-Key, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	if apiAccessKey != "" {
		r.Use(authMiddleware(apiAccessKey))
	}

	setupRoutes(r, handler, audioDir)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, audioDir string) {
	// RSS sources
	r.GET("/sources/", handler.ListSources)
	r.POST("/sources/", handler.CreateSource)
	r.GET("/sources/:id", handler.GetSource)
	r.PUT("/sources/:id", handler.UpdateSource)
	r.DELETE("/sources/:id", handler.DeleteSource)

	// News
	r.GET("/news/", handler.ListNews)
	r.POST("/news/fetch", handler.FetchNews)
	r.GET("/parse-rss", handler.ParseRSS)

	// Episodes and their news links
	r.GET("/episodes/", handler.ListEpisodes)
	r.POST("/episodes/", handler.CreateEpisode)
	r.GET("/episodes/:id", handler.GetEpisode)
	r.PUT("/episodes/:id", handler.UpdateEpisode)
	r.DELETE("/episodes/:id", handler.DeleteEpisode)
	r.GET("/episodes/:id/news", handler.ListEpisodeNews)
	r.POST("/episodes/:id/news", handler.AttachEpisodeNews)
	r.PUT("/episodes/:id/news/reorder", handler.ReorderEpisodeNews)
	r.PUT("/episodes/:id/news/:linkId", handler.UpdateEpisodeNewsLink)
	r.DELETE("/episodes/:id/news/:linkId", handler.RemoveEpisodeNewsLink)

	// Generation pipeline
	r.POST("/episodes/:id/news/:linkId/generate-script", handler.GenerateScript)
	r.POST("/episodes/:id/news/:linkId/generate-audio", handler.GenerateAudio)
	r.POST("/episodes/:id/generate-all", handler.GenerateAll)
	r.POST("/episodes/:id/generate-all/cancel", handler.CancelGenerateAll)

	// Sequencing and assembly
	r.GET("/episodes/:id/segments", handler.ListSegments)
	r.PUT("/episodes/:id/segments/reorder", handler.ReorderSegment)
	r.POST("/episodes/:id/segments/:segmentId/toggle", handler.ToggleSegment)
	r.GET("/episodes/:id/assembly-plan", handler.GetAssemblyPlan)

	// Asset library and settings
	r.GET("/assets/", handler.ListAssets)
	r.GET("/settings/status", handler.GetSettingsStatus)

	// Generated audio files
	r.Static("/audio", audioDir)

	// Health and status endpoints
	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

// authMiddleware guards all endpoints when an API access key is configured.
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Audio files are fetched by <audio> tags, which cannot set headers.
		if strings.HasPrefix(c.Request.URL.Path, "/audio/") || c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"detail": "API key required: provide it in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"detail": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
