package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"itemservice/internal/batch"
)

// BatchProcessor runs one batch over every stored item.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context) (*batch.Result, error)
}

type ProcessHandler struct {
	batches BatchProcessor
	log     zerolog.Logger
}

func NewProcessHandler(batches BatchProcessor, log zerolog.Logger) *ProcessHandler {
	return &ProcessHandler{batches: batches, log: log}
}

// Handle runs a batch and responds 202 with its Result once every item has
// an outcome.
func (h *ProcessHandler) Handle(c *gin.Context) {
	result, err := h.batches.ProcessBatch(c.Request.Context())
	if errors.Is(err, batch.ErrBatchInfrastructure) {
		h.log.Error().Err(err).Msg("Batch could not run")
		c.JSON(http.StatusServiceUnavailable, makeErrorResponse(http.StatusServiceUnavailable, "Batch processing is unavailable"))
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Batch failed")
		c.JSON(http.StatusInternalServerError, internalServerErrorResponse)
		return
	}
	c.JSON(http.StatusAccepted, result)
}
