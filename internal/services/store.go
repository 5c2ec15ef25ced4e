package services

import (
	"context"

	"github.com/gofrs/uuid"

	"day-planner/backend/internal/models"
	"day-planner/backend/internal/query"
)

// TaskStore executes compiled predicates against persisted tasks. The
// services treat it as an opaque query executor; every call is already
// owner-scoped by the compiled predicates or the explicit ownerID.
type TaskStore interface {
	QueryTasks(ctx context.Context, q query.CompiledQuery) ([]models.Task, int64, error)
	GetTask(ctx context.Context, id, ownerID uuid.UUID) (models.Task, error)
	CreateTask(ctx context.Context, task *models.Task) error
	UpdateTask(ctx context.Context, task models.Task) (models.Task, error)
	DeleteTask(ctx context.Context, id, ownerID uuid.UUID) error
}

type TimeBlockStore interface {
	QueryTimeBlocks(ctx context.Context, q query.CompiledQuery) ([]models.TimeBlock, int64, error)
	GetTimeBlock(ctx context.Context, id, ownerID uuid.UUID) (models.TimeBlock, error)
	CreateTimeBlock(ctx context.Context, block *models.TimeBlock) error
	UpdateTimeBlock(ctx context.Context, block models.TimeBlock) (models.TimeBlock, error)
	DeleteTimeBlock(ctx context.Context, id, ownerID uuid.UUID) error
}

type CategoryStore interface {
	ListCategories(ctx context.Context, ownerID uuid.UUID) ([]models.Category, error)
	GetCategory(ctx context.Context, id, ownerID uuid.UUID) (models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, category models.Category) (models.Category, error)
	// DeleteCategory nulls dependent tasks' category reference in the same
	// transaction; it never deletes the tasks.
	DeleteCategory(ctx context.Context, id, ownerID uuid.UUID) error
}
