package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"itemservice/internal/models"
	"itemservice/internal/storage"
)

type ItemsHandler struct {
	store storage.ItemStore
	log   zerolog.Logger
}

func NewItemsHandler(store storage.ItemStore, log zerolog.Logger) *ItemsHandler {
	return &ItemsHandler{store: store, log: log}
}

// List responds with every stored item.
func (h *ItemsHandler) List(c *gin.Context) {
	items, err := h.store.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list items")
		c.JSON(http.StatusInternalServerError, internalServerErrorResponse)
		return
	}
	if items == nil {
		items = []models.Item{}
	}
	c.JSON(http.StatusOK, items)
}

// Get responds with a single item, or 404.
func (h *ItemsHandler) Get(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	item, err := h.store.Get(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, makeErrorResponse(http.StatusNotFound, "Item not found"))
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int64("item_id", id).Msg("Failed to get item")
		c.JSON(http.StatusInternalServerError, internalServerErrorResponse)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Create stores a new item. Any id in the body is ignored.
func (h *ItemsHandler) Create(c *gin.Context) {
	item, ok := bindItem(c)
	if !ok {
		return
	}
	if err := item.Validate(); err != nil {
		c.String(http.StatusBadRequest, validationMessage(err))
		return
	}
	item.ID = 0
	saved, err := h.store.Save(c.Request.Context(), item)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create item")
		c.JSON(http.StatusInternalServerError, internalServerErrorResponse)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// Update replaces an existing item. The id from the path wins over the body.
// The body is stored as sent, without field validation.
func (h *ItemsHandler) Update(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.store.Get(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, makeErrorResponse(http.StatusNotFound, "Item not found"))
			return
		}
		h.log.Error().Err(err).Int64("item_id", id).Msg("Failed to load item for update")
		c.JSON(http.StatusInternalServerError, internalServerErrorResponse)
		return
	}

	item, ok := bindItem(c)
	if !ok {
		return
	}
	item.ID = id
	saved, err := h.store.Save(ctx, item)
	if err != nil {
		h.log.Error().Err(err).Int64("item_id", id).Msg("Failed to update item")
		c.JSON(http.StatusInternalServerError, internalServerErrorResponse)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// Delete removes an item. Deleting a missing item still answers 204.
func (h *ItemsHandler) Delete(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		h.log.Error().Err(err).Int64("item_id", id).Msg("Failed to delete item")
		c.JSON(http.StatusInternalServerError, internalServerErrorResponse)
		return
	}
	c.Status(http.StatusNoContent)
}

func bindItem(c *gin.Context) (models.Item, bool) {
	var item models.Item
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, makeErrorResponse(http.StatusBadRequest, "Invalid request body"))
		return item, false
	}
	return item, true
}

func itemID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, makeErrorResponse(http.StatusBadRequest, "Invalid item id"))
		return 0, false
	}
	return id, true
}
