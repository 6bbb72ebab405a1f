package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/laurentvergnaud/kaigen-plugin/internal/config"
	"github.com/laurentvergnaud/kaigen-plugin/internal/service"
	"github.com/rs/zerolog"
)

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	contentHandler := NewContentHandler(services, log)
	adminHandler := NewAdminHandler(services, cfg, log)

	// Health check
	router.GET("/health", healthCheck)
	router.GET("/metrics", metricsHandler(services, cfg))

	// Kaigen connector API
	v1 := router.Group("/kaigen/v1")
	v1.Use(authMiddleware(services.Settings, log))
	{
		v1.GET("/structure", adminHandler.GetStructure)
		v1.GET("/content", contentHandler.ListContent)
		v1.GET("/content/:id", contentHandler.GetPost)
		v1.POST("/content/:id", contentHandler.UpdatePost)
		v1.GET("/links", contentHandler.GetLinks)
		v1.GET("/logs", adminHandler.GetUpdateLogs)

		settings := v1.Group("/settings")
		{
			settings.GET("", adminHandler.GetSettings)
			settings.PUT("", adminHandler.SaveSettings)
			settings.POST("/validate-key", adminHandler.ValidateKey)
		}

		sync := v1.Group("/sync")
		{
			sync.POST("/structure", adminHandler.SyncStructure)
			sync.POST("/content", adminHandler.SyncContent)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "kaigen-connector",
	})
}

// metricsHandler returns content counts per enabled post type
func metricsHandler(services *service.Services, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		counts := gin.H{}
		for _, postType := range cfg.Site.EnabledPostTypes {
			count, _ := services.Content.CountByType(ctx, postType)
			counts[postType] = count
		}

		c.JSON(http.StatusOK, gin.H{
			"content":   counts,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// requestIDMiddleware tags every request with an ID for log correlation
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("request_id", c.GetString("request_id")).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// authMiddleware verifies the bearer API key on incoming requests. Both
// "Bearer" and "ApiKey" schemes are accepted; comparison is constant-time.
func authMiddleware(settings service.SettingsService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		var provided string
		switch {
		case strings.HasPrefix(header, "Bearer "):
			provided = strings.TrimPrefix(header, "Bearer ")
		case strings.HasPrefix(header, "ApiKey "):
			provided = strings.TrimPrefix(header, "ApiKey ")
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unsupported authorization scheme"})
			return
		}

		expected, err := settings.APIKey(c.Request.Context())
		if err != nil {
			log.Error().Err(err).Msg("Failed to resolve API key")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authentication unavailable"})
			return
		}
		if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}

		c.Next()
	}
}
