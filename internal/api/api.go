// Package api exposes the item store and the batch engine over HTTP.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"itemservice/internal/storage"
)

// NewRouter returns the item service routes.
func NewRouter(store storage.ItemStore, batches BatchProcessor, log zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	health := NewHealthHandler(store, log)
	router.GET("/health", health.Handle)
	router.GET("/ready", health.HandleReady)

	items := NewItemsHandler(store, log)
	process := NewProcessHandler(batches, log)
	group := router.Group("/api/items")
	group.GET("", items.List)
	group.POST("", items.Create)
	group.GET("/process", process.Handle)
	group.GET("/:id", items.Get)
	group.PUT("/:id", items.Update)
	group.DELETE("/:id", items.Delete)

	return router
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request completed")
	}
}
