package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"

	"day-planner/backend/internal/middleware"
	"day-planner/backend/internal/query"
	"day-planner/backend/internal/services"
)

type TimeBlockHandler struct {
	blocks *services.TimeBlockService
}

func NewTimeBlockHandler(blocks *services.TimeBlockService) *TimeBlockHandler {
	return &TimeBlockHandler{blocks: blocks}
}

func (h *TimeBlockHandler) ListTimeBlocks(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "caller not authenticated"})
		return
	}

	var filter query.TimeBlockFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	blocks, total, err := h.blocks.List(c.Request.Context(), ownerID, filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"time_blocks": blocks,
		"total":       total,
	})
}

func (h *TimeBlockHandler) CreateTimeBlock(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "caller not authenticated"})
		return
	}

	var input services.TimeBlockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	block, err := h.blocks.Create(c.Request.Context(), ownerID, input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, block)
}

func (h *TimeBlockHandler) UpdateTimeBlock(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "caller not authenticated"})
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed time block id"})
		return
	}

	var input services.TimeBlockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	block, err := h.blocks.Update(c.Request.Context(), ownerID, id, input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, block)
}

func (h *TimeBlockHandler) DeleteTimeBlock(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "caller not authenticated"})
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed time block id"})
		return
	}

	if err := h.blocks.Delete(c.Request.Context(), ownerID, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
