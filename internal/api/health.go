package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"itemservice/internal/storage"
)

type HealthHandler struct {
	store storage.ItemStore
	log   zerolog.Logger
}

func NewHealthHandler(store storage.ItemStore, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{store: store, log: log}
}

// Handle responds to /health with HTTP 200.
func (h *HealthHandler) Handle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

// HandleReady responds to /ready with HTTP 200 once the store answers.
func (h *HealthHandler) HandleReady(c *gin.Context) {
	if _, err := h.store.ListIDs(c.Request.Context()); err != nil {
		h.log.Error().Err(err).Msg("Store check failed")
		c.JSON(http.StatusServiceUnavailable, makeErrorResponse(http.StatusServiceUnavailable, "Store unavailable"))
		return
	}
	c.Status(http.StatusOK)
}
