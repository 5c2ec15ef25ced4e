package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"

	"day-planner/backend/internal/apperrors"
	"day-planner/backend/internal/middleware"
	"day-planner/backend/internal/query"
	"day-planner/backend/internal/services"
)

type TaskHandler struct {
	queries     *services.TaskQueryService
	coordinator *services.MutationCoordinator
}

func NewTaskHandler(queries *services.TaskQueryService, coordinator *services.MutationCoordinator) *TaskHandler {
	return &TaskHandler{queries: queries, coordinator: coordinator}
}

func (h *TaskHandler) ListTasks(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "caller not authenticated"})
		return
	}

	var filter query.TaskFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tasks, total, err := h.queries.List(c.Request.Context(), ownerID, filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"total": total,
	})
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "caller not authenticated"})
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed task id"})
		return
	}

	task, err := h.queries.Get(c.Request.Context(), ownerID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "caller not authenticated"})
		return
	}

	var input services.TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.coordinator.Create(c.Request.Context(), ownerID, input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "caller not authenticated"})
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed task id"})
		return
	}

	var patch services.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.coordinator.Update(c.Request.Context(), ownerID, id, patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "caller not authenticated"})
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed task id"})
		return
	}

	if err := h.coordinator.Delete(c.Request.Context(), ownerID, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

func (h *TaskHandler) ToggleTask(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "caller not authenticated"})
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed task id"})
		return
	}

	task, err := h.queries.Get(c.Request.Context(), ownerID, id)
	if err != nil {
		writeError(c, err)
		return
	}

	toggled, err := h.coordinator.ToggleStatus(c.Request.Context(), task)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toggled)
}

// writeError maps the error taxonomy onto HTTP statuses. Every response
// carries the machine-checkable kind next to the human-readable message.
func writeError(c *gin.Context, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": "failed to process request"})
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Kind {
	case apperrors.KindValidation, apperrors.KindInvariant:
		status = http.StatusBadRequest
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	case apperrors.KindConflict:
		status = http.StatusConflict
	case apperrors.KindTransport:
		status = http.StatusBadGateway
	}

	body := gin.H{
		"error":   appErr.Kind.String(),
		"message": appErr.Message,
	}
	if appErr.Field != "" {
		body["field"] = appErr.Field
	}
	c.JSON(status, body)
}
