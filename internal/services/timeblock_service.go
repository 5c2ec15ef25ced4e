package services

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid"

	"day-planner/backend/internal/apperrors"
	"day-planner/backend/internal/cache"
	"day-planner/backend/internal/models"
	"day-planner/backend/internal/query"
)

const (
	blockListPrefix = "blocks:list:"
	blockListTTL    = 5 * time.Minute
)

type TimeBlockInput struct {
	Title       string           `json:"title"`
	Type        models.BlockType `json:"type"`
	StartTime   time.Time        `json:"start_time"`
	EndTime     time.Time        `json:"end_time"`
	Description string           `json:"description"`
	TaskID      *uuid.UUID       `json:"task_id"`
}

// TimeBlockService handles time block reads and writes. List pages are
// cached under the compiled filter signature; every write invalidates the
// whole list keyspace.
type TimeBlockService struct {
	store TimeBlockStore
	cache cache.Cache
}

func NewTimeBlockService(store TimeBlockStore, listCache cache.Cache) *TimeBlockService {
	return &TimeBlockService{
		store: store,
		cache: listCache,
	}
}

type blockPage struct {
	Blocks []models.TimeBlock `json:"blocks"`
	Total  int64              `json:"total"`
}

func (s *TimeBlockService) List(ctx context.Context, ownerID uuid.UUID, filter query.TimeBlockFilter) ([]models.TimeBlock, int64, error) {
	q, err := query.CompileTimeBlocks(ownerID, filter)
	if err != nil {
		return nil, 0, err
	}

	key := blockListPrefix + q.Signature()
	if s.cache != nil {
		var cached blockPage
		if err := s.cache.Get(key, &cached); err == nil {
			return cached.Blocks, cached.Total, nil
		}
	}

	blocks, total, err := s.store.QueryTimeBlocks(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	if ctx.Err() != nil {
		return nil, 0, ctx.Err()
	}

	if s.cache != nil {
		s.cache.Set(key, blockPage{Blocks: blocks, Total: total}, blockListTTL)
	}
	return blocks, total, nil
}

func (s *TimeBlockService) Get(ctx context.Context, ownerID, id uuid.UUID) (models.TimeBlock, error) {
	return s.store.GetTimeBlock(ctx, id, ownerID)
}

func (s *TimeBlockService) Create(ctx context.Context, ownerID uuid.UUID, input TimeBlockInput) (models.TimeBlock, error) {
	if ownerID == uuid.Nil {
		return models.TimeBlock{}, apperrors.Validation("owner_id", "caller identity is required")
	}

	id, err := uuid.NewV4()
	if err != nil {
		return models.TimeBlock{}, apperrors.Transport("failed to generate time block id", err)
	}

	block := models.TimeBlock{
		ID:          id,
		OwnerID:     ownerID,
		Title:       input.Title,
		Type:        input.Type,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		Description: input.Description,
		TaskID:      input.TaskID,
	}
	if block.Type == "" {
		block.Type = models.BlockScheduled
	}
	// Rejected before persistence, not just at the transport edge.
	if err := block.Validate(); err != nil {
		return models.TimeBlock{}, err
	}

	if err := s.store.CreateTimeBlock(ctx, &block); err != nil {
		return models.TimeBlock{}, err
	}

	s.invalidateLists()
	return block, nil
}

func (s *TimeBlockService) Update(ctx context.Context, ownerID, id uuid.UUID, input TimeBlockInput) (models.TimeBlock, error) {
	block, err := s.store.GetTimeBlock(ctx, id, ownerID)
	if err != nil {
		return models.TimeBlock{}, err
	}

	block.Title = input.Title
	block.Description = input.Description
	if input.Type != "" {
		block.Type = input.Type
	}
	if !input.StartTime.IsZero() {
		block.StartTime = input.StartTime
	}
	if !input.EndTime.IsZero() {
		block.EndTime = input.EndTime
	}
	block.TaskID = input.TaskID

	if err := block.Validate(); err != nil {
		return models.TimeBlock{}, err
	}

	updated, err := s.store.UpdateTimeBlock(ctx, block)
	if err != nil {
		return models.TimeBlock{}, err
	}

	s.invalidateLists()
	return updated, nil
}

func (s *TimeBlockService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.store.DeleteTimeBlock(ctx, id, ownerID); err != nil {
		return err
	}

	s.invalidateLists()
	return nil
}

func (s *TimeBlockService) invalidateLists() {
	if s.cache != nil {
		s.cache.DeletePattern(fmt.Sprintf("%s*", blockListPrefix))
	}
}
