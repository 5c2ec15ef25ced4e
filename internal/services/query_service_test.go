package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"

	"day-planner/backend/internal/apperrors"
	"day-planner/backend/internal/cache"
	"day-planner/backend/internal/models"
	"day-planner/backend/internal/query"
	"day-planner/backend/internal/services"
)

// mockTaskStore is an in-memory TaskStore with failure knobs and a query
// counter, so cache behavior is observable without a live store.
type mockTaskStore struct {
	mu          sync.Mutex
	tasks       map[uuid.UUID]models.Task
	queryCalls  int
	updateCalls int
	failUpdates bool
	failQueries bool
	onUpdate    func()
}

func newMockTaskStore() *mockTaskStore {
	return &mockTaskStore{tasks: make(map[uuid.UUID]models.Task)}
}

func (m *mockTaskStore) seed(task models.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = task
}

func (m *mockTaskStore) QueryTasks(ctx context.Context, q query.CompiledQuery) ([]models.Task, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queryCalls++
	if m.failQueries {
		return nil, 0, apperrors.Transport("store unreachable", nil)
	}

	var out []models.Task
	for _, task := range m.tasks {
		out = append(out, task)
	}
	return out, int64(len(out)), nil
}

func (m *mockTaskStore) GetTask(ctx context.Context, id, ownerID uuid.UUID) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return models.Task{}, apperrors.NotFound("task not found")
	}
	return task, nil
}

func (m *mockTaskStore) CreateTask(ctx context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failUpdates {
		return apperrors.Transport("store unreachable", nil)
	}
	m.tasks[task.ID] = *task
	return nil
}

func (m *mockTaskStore) UpdateTask(ctx context.Context, task models.Task) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updateCalls++
	if m.onUpdate != nil {
		m.onUpdate()
	}
	if m.failUpdates {
		return models.Task{}, apperrors.Transport("store unreachable", nil)
	}
	if existing, ok := m.tasks[task.ID]; !ok || existing.OwnerID != task.OwnerID {
		return models.Task{}, apperrors.NotFound("task not found")
	}
	m.tasks[task.ID] = task
	return task, nil
}

func (m *mockTaskStore) DeleteTask(ctx context.Context, id, ownerID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failUpdates {
		return apperrors.Transport("store unreachable", nil)
	}
	task, ok := m.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return apperrors.NotFound("task not found")
	}
	delete(m.tasks, id)
	return nil
}

func (m *mockTaskStore) queries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queryCalls
}

func seedTask(store *mockTaskStore, ownerID uuid.UUID, title string, status models.TaskStatus) models.Task {
	task := models.Task{
		ID:      uuid.Must(uuid.NewV4()),
		OwnerID: ownerID,
		Title:   title,
		Status:  status,
	}
	if status == models.StatusCompleted {
		at := time.Now()
		task.CompletedAt = &at
	}
	store.seed(task)
	return task
}

func TestQueryServiceListCachesBySignature(t *testing.T) {
	store := newMockTaskStore()
	ownerID := uuid.Must(uuid.NewV4())
	seedTask(store, ownerID, "Write report", models.StatusTodo)

	svc := services.NewTaskQueryService(store, cache.NewQueryCache(nil, nil))

	tasks, total, err := svc.List(context.Background(), ownerID, query.TaskFilter{})
	assert.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, 1, store.queries())

	// Same filter within the freshness window is served from the cache.
	tasks, total, err = svc.List(context.Background(), ownerID, query.TaskFilter{})
	assert.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, 1, store.queries())
}

func TestQueryServiceListDistinctFiltersFetchSeparately(t *testing.T) {
	store := newMockTaskStore()
	ownerID := uuid.Must(uuid.NewV4())
	seedTask(store, ownerID, "Write report", models.StatusTodo)

	svc := services.NewTaskQueryService(store, cache.NewQueryCache(nil, nil))

	_, _, err := svc.List(context.Background(), ownerID, query.TaskFilter{Status: "todo"})
	assert.NoError(t, err)
	_, _, err = svc.List(context.Background(), ownerID, query.TaskFilter{Status: "completed"})
	assert.NoError(t, err)
	assert.Equal(t, 2, store.queries())
}

func TestQueryServiceListExpiredEntryRefetches(t *testing.T) {
	store := newMockTaskStore()
	ownerID := uuid.Must(uuid.NewV4())
	seedTask(store, ownerID, "Write report", models.StatusTodo)

	qc := cache.NewQueryCache(nil, nil)
	svc := services.NewTaskQueryService(store, qc)

	_, _, err := svc.List(context.Background(), ownerID, query.TaskFilter{})
	assert.NoError(t, err)

	qc.SetClock(func() time.Time { return time.Now().Add(10 * time.Minute) })

	_, _, err = svc.List(context.Background(), ownerID, query.TaskFilter{})
	assert.NoError(t, err)
	assert.Equal(t, 2, store.queries())
}

func TestQueryServiceListRejectsInvalidFilter(t *testing.T) {
	store := newMockTaskStore()
	svc := services.NewTaskQueryService(store, cache.NewQueryCache(nil, nil))

	_, _, err := svc.List(context.Background(), uuid.Must(uuid.NewV4()), query.TaskFilter{Status: "archived"})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	assert.Equal(t, 0, store.queries())
}

func TestQueryServiceListAbandonedContextNotCached(t *testing.T) {
	store := newMockTaskStore()
	ownerID := uuid.Must(uuid.NewV4())
	seedTask(store, ownerID, "Write report", models.StatusTodo)

	svc := services.NewTaskQueryService(store, cache.NewQueryCache(nil, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := svc.List(ctx, ownerID, query.TaskFilter{})
	assert.ErrorIs(t, err, context.Canceled)

	// The abandoned fetch left nothing behind, so a live read hits the store.
	_, _, err = svc.List(context.Background(), ownerID, query.TaskFilter{})
	assert.NoError(t, err)
	assert.Equal(t, 2, store.queries())
}

func TestQueryServiceGetUsesDetailKeyspace(t *testing.T) {
	store := newMockTaskStore()
	ownerID := uuid.Must(uuid.NewV4())
	task := seedTask(store, ownerID, "Write report", models.StatusTodo)

	svc := services.NewTaskQueryService(store, cache.NewQueryCache(nil, nil))

	got, err := svc.Get(context.Background(), ownerID, task.ID)
	assert.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)

	// Second read is a cache hit; remove the row to prove it.
	store.mu.Lock()
	delete(store.tasks, task.ID)
	store.mu.Unlock()

	got, err = svc.Get(context.Background(), ownerID, task.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Write report", got.Title)
}

func TestQueryServiceGetRejectsForeignOwner(t *testing.T) {
	store := newMockTaskStore()
	ownerID := uuid.Must(uuid.NewV4())
	task := seedTask(store, ownerID, "Write report", models.StatusTodo)

	qc := cache.NewQueryCache(nil, nil)
	svc := services.NewTaskQueryService(store, qc)
	qc.PutDetail(task)

	_, err := svc.Get(context.Background(), uuid.Must(uuid.NewV4()), task.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}
