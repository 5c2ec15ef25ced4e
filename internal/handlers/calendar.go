package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"day-planner/backend/internal/calendar"
	"day-planner/backend/internal/middleware"
	"day-planner/backend/internal/query"
	"day-planner/backend/internal/services"
)

type CalendarHandler struct {
	queries *services.TaskQueryService
	blocks  *services.TimeBlockService
}

func NewCalendarHandler(queries *services.TaskQueryService, blocks *services.TimeBlockService) *CalendarHandler {
	return &CalendarHandler{queries: queries, blocks: blocks}
}

// ListEvents projects the caller's tasks and time blocks inside a window
// onto one flat event list.
func (h *CalendarHandler) ListEvents(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "caller not authenticated"})
		return
	}

	from := c.Query("from")
	to := c.Query("to")

	tasks, _, err := h.queries.List(c.Request.Context(), ownerID, query.TaskFilter{
		DueFrom: from,
		DueTo:   to,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	blocks, _, err := h.blocks.List(c.Request.Context(), ownerID, query.TimeBlockFilter{
		From: from,
		To:   to,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": calendar.MergeEvents(tasks, blocks),
	})
}
