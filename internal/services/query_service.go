package services

import (
	"context"
	"time"

	"github.com/gofrs/uuid"

	"day-planner/backend/internal/cache"
	"day-planner/backend/internal/models"
	"day-planner/backend/internal/query"
)

// TaskQueryService is the read path: compile the filter, consult the cache
// under the filter signature, fetch from the store only on a miss.
type TaskQueryService struct {
	store TaskStore
	cache *cache.QueryCache
	now   func() time.Time
}

func NewTaskQueryService(store TaskStore, queryCache *cache.QueryCache) *TaskQueryService {
	return &TaskQueryService{
		store: store,
		cache: queryCache,
		now:   time.Now,
	}
}

// SetClock overrides the reference instant used for named date ranges, for
// deterministic tests.
func (s *TaskQueryService) SetClock(now func() time.Time) {
	s.now = now
}

// List returns the task page for a raw filter. Two reads under the same
// signature within the freshness window issue at most one store call. A
// fetch whose context was cancelled while in flight is discarded without
// touching the cache.
func (s *TaskQueryService) List(ctx context.Context, ownerID uuid.UUID, filter query.TaskFilter) ([]models.Task, int64, error) {
	q, err := query.CompileTasks(ownerID, filter, s.now())
	if err != nil {
		return nil, 0, err
	}

	sig := q.Signature()
	if page, ok := s.cache.GetList(sig); ok {
		return page.Tasks, page.Total, nil
	}

	token := s.cache.BeginFetch(sig)
	tasks, total, err := s.store.QueryTasks(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	if ctx.Err() != nil {
		// The view was abandoned; no orphaned cache write.
		return nil, 0, ctx.Err()
	}

	s.cache.CompleteFetch(token, cache.TaskPage{Tasks: tasks, Total: total})
	return tasks, total, nil
}

// Get returns a single owned task, served from the detail keyspace when
// fresh.
func (s *TaskQueryService) Get(ctx context.Context, ownerID, id uuid.UUID) (models.Task, error) {
	if task, ok := s.cache.GetDetail(id); ok && task.OwnerID == ownerID {
		return task, nil
	}

	task, err := s.store.GetTask(ctx, id, ownerID)
	if err != nil {
		return models.Task{}, err
	}
	if ctx.Err() != nil {
		return models.Task{}, ctx.Err()
	}

	s.cache.PutDetail(task)
	return task, nil
}
