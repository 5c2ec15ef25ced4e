// Package store executes compiled predicate lists against the relational
// store through gorm. It is the only package that knows the query language;
// everything above it deals in typed predicates.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"day-planner/backend/internal/apperrors"
	"day-planner/backend/internal/models"
	"day-planner/backend/internal/query"
)

var rangeOps = map[query.RangeOp]string{
	query.OpGTE: ">=",
	query.OpGT:  ">",
	query.OpLTE: "<=",
	query.OpLT:  "<",
}

// nullable columns need the IS NOT NULL guard inside containment predicates
// so a NULL never poisons the surrounding OR.
var nullableColumns = map[string]bool{
	"description": true,
}

type GormStore struct {
	db *gorm.DB
}

func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates the schema for every persisted entity.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&models.Task{}, &models.TimeBlock{}, &models.Category{})
}

func (s *GormStore) QueryTasks(ctx context.Context, q query.CompiledQuery) ([]models.Task, int64, error) {
	db := s.db.WithContext(ctx).Model(&models.Task{})
	db, err := s.applyPredicates(db, q.Predicates)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Transport("failed to count tasks", err)
	}

	var tasks []models.Task
	err = db.Order(orderClause(q.Sort)).
		Limit(q.Page.Limit).
		Offset(q.Page.Offset).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, apperrors.Transport("failed to query tasks", err)
	}
	return tasks, total, nil
}

func (s *GormStore) GetTask(ctx context.Context, id, ownerID uuid.UUID) (models.Task, error) {
	var task models.Task
	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Task{}, apperrors.NotFound("task not found")
		}
		return models.Task{}, apperrors.Transport("failed to load task", err)
	}
	return task, nil
}

func (s *GormStore) CreateTask(ctx context.Context, task *models.Task) error {
	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		return apperrors.Transport("failed to create task", err)
	}
	return nil
}

func (s *GormStore) UpdateTask(ctx context.Context, task models.Task) (models.Task, error) {
	if _, err := s.GetTask(ctx, task.ID, task.OwnerID); err != nil {
		return models.Task{}, err
	}

	if err := s.db.WithContext(ctx).Save(&task).Error; err != nil {
		return models.Task{}, apperrors.Transport("failed to update task", err)
	}
	return task, nil
}

func (s *GormStore) DeleteTask(ctx context.Context, id, ownerID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.Task{})
	if res.Error != nil {
		return apperrors.Transport("failed to delete task", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("task not found")
	}
	return nil
}

func (s *GormStore) QueryTimeBlocks(ctx context.Context, q query.CompiledQuery) ([]models.TimeBlock, int64, error) {
	db := s.db.WithContext(ctx).Model(&models.TimeBlock{})
	db, err := s.applyPredicates(db, q.Predicates)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Transport("failed to count time blocks", err)
	}

	var blocks []models.TimeBlock
	err = db.Order(orderClause(q.Sort)).
		Limit(q.Page.Limit).
		Offset(q.Page.Offset).
		Find(&blocks).Error
	if err != nil {
		return nil, 0, apperrors.Transport("failed to query time blocks", err)
	}
	return blocks, total, nil
}

func (s *GormStore) GetTimeBlock(ctx context.Context, id, ownerID uuid.UUID) (models.TimeBlock, error) {
	var block models.TimeBlock
	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&block).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.TimeBlock{}, apperrors.NotFound("time block not found")
		}
		return models.TimeBlock{}, apperrors.Transport("failed to load time block", err)
	}
	return block, nil
}

func (s *GormStore) CreateTimeBlock(ctx context.Context, block *models.TimeBlock) error {
	if err := block.Validate(); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(block).Error; err != nil {
		return apperrors.Transport("failed to create time block", err)
	}
	return nil
}

func (s *GormStore) UpdateTimeBlock(ctx context.Context, block models.TimeBlock) (models.TimeBlock, error) {
	if err := block.Validate(); err != nil {
		return models.TimeBlock{}, err
	}
	if _, err := s.GetTimeBlock(ctx, block.ID, block.OwnerID); err != nil {
		return models.TimeBlock{}, err
	}

	if err := s.db.WithContext(ctx).Save(&block).Error; err != nil {
		return models.TimeBlock{}, apperrors.Transport("failed to update time block", err)
	}
	return block, nil
}

func (s *GormStore) DeleteTimeBlock(ctx context.Context, id, ownerID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.TimeBlock{})
	if res.Error != nil {
		return apperrors.Transport("failed to delete time block", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("time block not found")
	}
	return nil
}

func (s *GormStore) ListCategories(ctx context.Context, ownerID uuid.UUID) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name asc").
		Find(&categories).Error
	if err != nil {
		return nil, apperrors.Transport("failed to list categories", err)
	}
	return categories, nil
}

func (s *GormStore) GetCategory(ctx context.Context, id, ownerID uuid.UUID) (models.Category, error) {
	var category models.Category
	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Category{}, apperrors.NotFound("category not found")
		}
		return models.Category{}, apperrors.Transport("failed to load category", err)
	}
	return category, nil
}

func (s *GormStore) CreateCategory(ctx context.Context, category *models.Category) error {
	var existing models.Category
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND name = ?", category.OwnerID, category.Name).
		First(&existing).Error
	if err == nil {
		return apperrors.Conflict("category name already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Transport("failed to check category name", err)
	}

	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("category name already exists")
		}
		return apperrors.Transport("failed to create category", err)
	}
	return nil
}

func (s *GormStore) UpdateCategory(ctx context.Context, category models.Category) (models.Category, error) {
	if _, err := s.GetCategory(ctx, category.ID, category.OwnerID); err != nil {
		return models.Category{}, err
	}

	var existing models.Category
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND name = ? AND id <> ?", category.OwnerID, category.Name, category.ID).
		First(&existing).Error
	if err == nil {
		return models.Category{}, apperrors.Conflict("category name already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Category{}, apperrors.Transport("failed to check category name", err)
	}

	if err := s.db.WithContext(ctx).Save(&category).Error; err != nil {
		return models.Category{}, apperrors.Transport("failed to update category", err)
	}
	return category, nil
}

// DeleteCategory nulls dependent tasks' category reference and removes the
// category in one transaction. Tasks are never deleted along with their
// category.
func (s *GormStore) DeleteCategory(ctx context.Context, id, ownerID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		err := tx.Where("id = ? AND owner_id = ?", id, ownerID).First(&category).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("category not found")
			}
			return apperrors.Transport("failed to load category", err)
		}

		err = tx.Model(&models.Task{}).
			Where("category_id = ? AND owner_id = ?", id, ownerID).
			Update("category_id", nil).Error
		if err != nil {
			return apperrors.Transport("failed to detach tasks", err)
		}

		if err := tx.Delete(&category).Error; err != nil {
			return apperrors.Transport("failed to delete category", err)
		}
		return nil
	})
}

func (s *GormStore) applyPredicates(db *gorm.DB, preds []query.Predicate) (*gorm.DB, error) {
	for _, p := range preds {
		cond, err := s.condition(p)
		if err != nil {
			return nil, err
		}
		db = db.Where(cond)
	}
	return db, nil
}

func (s *GormStore) condition(p query.Predicate) (*gorm.DB, error) {
	switch p.Kind {
	case query.KindEquality:
		return s.db.Where(fmt.Sprintf("%s = ?", p.Field), p.Value), nil
	case query.KindRange:
		op, ok := rangeOps[p.Op]
		if !ok {
			return nil, apperrors.Transport(fmt.Sprintf("unknown range op %q", p.Op), nil)
		}
		return s.db.Where(fmt.Sprintf("%s %s ?", p.Field, op), p.Time), nil
	case query.KindContains:
		like := "%" + strings.ToLower(p.Value) + "%"
		if nullableColumns[p.Field] {
			return s.db.Where(fmt.Sprintf("%s IS NOT NULL AND LOWER(%s) LIKE ?", p.Field, p.Field), like), nil
		}
		return s.db.Where(fmt.Sprintf("LOWER(%s) LIKE ?", p.Field), like), nil
	case query.KindIn:
		return s.db.Where(fmt.Sprintf("%s IN ?", p.Field), p.Values), nil
	case query.KindOr:
		if len(p.Any) == 0 {
			return nil, apperrors.Transport("empty or-predicate", nil)
		}
		group, err := s.condition(p.Any[0])
		if err != nil {
			return nil, err
		}
		for _, sub := range p.Any[1:] {
			cond, err := s.condition(sub)
			if err != nil {
				return nil, err
			}
			group = group.Or(cond)
		}
		return group, nil
	}
	return nil, apperrors.Transport(fmt.Sprintf("unknown predicate kind %q", p.Kind), nil)
}

func orderClause(sort query.Sort) string {
	dir := "asc"
	if sort.Desc {
		dir = "desc"
	}
	return fmt.Sprintf("%s %s", sort.Field, dir)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
