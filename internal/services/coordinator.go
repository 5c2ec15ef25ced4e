package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid"

	"day-planner/backend/internal/apperrors"
	"day-planner/backend/internal/cache"
	"day-planner/backend/internal/models"
)

const maxTitleLength = 255

type TaskInput struct {
	Title            string              `json:"title"`
	Description      string              `json:"description"`
	Priority         models.TaskPriority `json:"priority"`
	Status           models.TaskStatus   `json:"status"`
	DueDate          *time.Time          `json:"due_date"`
	CategoryID       *uuid.UUID          `json:"category_id"`
	EstimatedMinutes *int                `json:"estimated_minutes"`
	ActualMinutes    *int                `json:"actual_minutes"`
}

// TaskPatch carries a partial update; nil fields are left untouched.
type TaskPatch struct {
	Title            *string              `json:"title"`
	Description      *string              `json:"description"`
	Priority         *models.TaskPriority `json:"priority"`
	Status           *models.TaskStatus   `json:"status"`
	DueDate          *time.Time           `json:"due_date"`
	CategoryID       *uuid.UUID           `json:"category_id"`
	EstimatedMinutes *int                 `json:"estimated_minutes"`
	ActualMinutes    *int                 `json:"actual_minutes"`
}

type mutationState int

const (
	mutationPending mutationState = iota
	mutationCommitted
	mutationRolledBack
)

// mutation is the lifecycle record of one optimistic write: it carries the
// pre-mutation snapshots from birth to commit or rollback.
type mutation struct {
	seq       uint64
	state     mutationState
	snapshots []cache.ListSnapshot
}

// MutationCoordinator executes task writes against the store and keeps the
// query cache consistent: every successful write invalidates all list
// entries, and toggling a status is applied optimistically with full
// rollback on failure.
//
// The coordinator never retries; retry policy belongs to the transport.
type MutationCoordinator struct {
	store TaskStore
	cache *cache.QueryCache
	seq   atomic.Uint64
	now   func() time.Time
}

func NewMutationCoordinator(store TaskStore, queryCache *cache.QueryCache) *MutationCoordinator {
	return &MutationCoordinator{
		store: store,
		cache: queryCache,
		now:   time.Now,
	}
}

func (c *MutationCoordinator) SetClock(now func() time.Time) {
	c.now = now
}

func (c *MutationCoordinator) Create(ctx context.Context, ownerID uuid.UUID, input TaskInput) (models.Task, error) {
	if ownerID == uuid.Nil {
		return models.Task{}, apperrors.Validation("owner_id", "caller identity is required")
	}
	if err := validateTaskInput(input); err != nil {
		return models.Task{}, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return models.Task{}, apperrors.Transport("failed to generate task id", err)
	}

	task := models.Task{
		ID:               id,
		OwnerID:          ownerID,
		Title:            input.Title,
		Description:      input.Description,
		Priority:         input.Priority,
		DueDate:          input.DueDate,
		CategoryID:       input.CategoryID,
		EstimatedMinutes: input.EstimatedMinutes,
		ActualMinutes:    input.ActualMinutes,
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	status := input.Status
	if status == "" {
		status = models.StatusTodo
	}
	task.ApplyStatus(status, c.now())

	if err := c.store.CreateTask(ctx, &task); err != nil {
		return models.Task{}, err
	}

	c.cache.PutDetail(task)
	c.cache.InvalidateLists()
	return task, nil
}

func (c *MutationCoordinator) Update(ctx context.Context, ownerID, id uuid.UUID, patch TaskPatch) (models.Task, error) {
	task, err := c.store.GetTask(ctx, id, ownerID)
	if err != nil {
		return models.Task{}, err
	}

	if err := applyPatch(&task, patch, c.now()); err != nil {
		return models.Task{}, err
	}

	updated, err := c.store.UpdateTask(ctx, task)
	if err != nil {
		return models.Task{}, err
	}

	// The changed record may move in or out of any filtered view, so the
	// detail entry is overwritten and every list entry invalidated.
	c.cache.PutDetail(updated)
	c.cache.InvalidateLists()
	return updated, nil
}

func (c *MutationCoordinator) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := c.store.DeleteTask(ctx, id, ownerID); err != nil {
		return err
	}

	c.cache.DeleteDetail(id)
	c.cache.InvalidateLists()
	return nil
}

// ToggleStatus flips a task between completed and todo with an optimistic
// cache path: every cached list entry is snapshotted, rewritten to the new
// status, and published before the store round-trip. On failure every
// snapshot is restored verbatim; a newer in-flight mutation's state is never
// clobbered thanks to the sequence guard. Lists are invalidated regardless
// of outcome so any divergence heals on the next read.
func (c *MutationCoordinator) ToggleStatus(ctx context.Context, task models.Task) (models.Task, error) {
	m := &mutation{
		seq:   c.seq.Add(1),
		state: mutationPending,
	}

	optimistic := task.Toggled(c.now())

	m.snapshots = c.cache.SnapshotLists()
	c.cache.RewriteTask(m.seq, optimistic)

	updated, err := c.store.UpdateTask(ctx, optimistic)
	if err != nil {
		c.cache.RestoreSnapshots(m.seq, m.snapshots)
		m.state = mutationRolledBack
		c.cache.InvalidateLists()
		return models.Task{}, err
	}

	m.state = mutationCommitted
	c.cache.PutDetail(updated)
	c.cache.InvalidateLists()
	return updated, nil
}

func validateTaskInput(input TaskInput) error {
	if input.Title == "" {
		return apperrors.Validation("title", "title is required")
	}
	if len(input.Title) > maxTitleLength {
		return apperrors.Validation("title", "title is at most 255 characters")
	}
	if input.Priority != "" && !input.Priority.Valid() {
		return apperrors.Validation("priority", "unknown priority")
	}
	if input.Status != "" && !input.Status.Valid() {
		return apperrors.Validation("status", "unknown status")
	}
	if input.EstimatedMinutes != nil && *input.EstimatedMinutes < 0 {
		return apperrors.Validation("estimated_minutes", "must be non-negative")
	}
	if input.ActualMinutes != nil && *input.ActualMinutes < 0 {
		return apperrors.Validation("actual_minutes", "must be non-negative")
	}
	return nil
}

func applyPatch(task *models.Task, patch TaskPatch, now time.Time) error {
	if patch.Title != nil {
		if *patch.Title == "" {
			return apperrors.Validation("title", "title is required")
		}
		if len(*patch.Title) > maxTitleLength {
			return apperrors.Validation("title", "title is at most 255 characters")
		}
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			return apperrors.Validation("priority", "unknown priority")
		}
		task.Priority = *patch.Priority
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return apperrors.Validation("status", "unknown status")
		}
		// Status transitions keep completedAt coupled atomically.
		task.ApplyStatus(*patch.Status, now)
	}
	if patch.DueDate != nil {
		due := *patch.DueDate
		task.DueDate = &due
	}
	if patch.CategoryID != nil {
		id := *patch.CategoryID
		task.CategoryID = &id
	}
	if patch.EstimatedMinutes != nil {
		if *patch.EstimatedMinutes < 0 {
			return apperrors.Validation("estimated_minutes", "must be non-negative")
		}
		task.EstimatedMinutes = patch.EstimatedMinutes
	}
	if patch.ActualMinutes != nil {
		if *patch.ActualMinutes < 0 {
			return apperrors.Validation("actual_minutes", "must be non-negative")
		}
		task.ActualMinutes = patch.ActualMinutes
	}
	return nil
}
