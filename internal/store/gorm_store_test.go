package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"day-planner/backend/internal/apperrors"
	"day-planner/backend/internal/models"
	"day-planner/backend/internal/query"
	"day-planner/backend/internal/store"
)

type GormStoreSuite struct {
	suite.Suite
	store   *store.GormStore
	ownerID uuid.UUID
	now     time.Time
}

func (s *GormStoreSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)

	s.store = store.New(db)
	s.Require().NoError(s.store.Migrate())
	s.ownerID = uuid.Must(uuid.NewV4())
	s.now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
}

func (s *GormStoreSuite) createTask(title, description string, status models.TaskStatus, priority models.TaskPriority, due *time.Time) models.Task {
	task := models.Task{
		ID:          uuid.Must(uuid.NewV4()),
		OwnerID:     s.ownerID,
		Title:       title,
		Description: description,
		Priority:    priority,
		DueDate:     due,
	}
	task.ApplyStatus(status, s.now)
	s.Require().NoError(s.store.CreateTask(context.Background(), &task))
	return task
}

func (s *GormStoreSuite) queryTasks(filter query.TaskFilter) []models.Task {
	q, err := query.CompileTasks(s.ownerID, filter, s.now)
	s.Require().NoError(err)

	tasks, total, err := s.store.QueryTasks(context.Background(), q)
	s.Require().NoError(err)
	s.Require().Equal(int64(len(tasks)), total)
	return tasks
}

func (s *GormStoreSuite) TestQueryScopedToOwner() {
	s.createTask("Mine", "", models.StatusTodo, models.PriorityMedium, nil)

	other := models.Task{
		ID:      uuid.Must(uuid.NewV4()),
		OwnerID: uuid.Must(uuid.NewV4()),
		Title:   "Not mine",
		Status:  models.StatusTodo,
	}
	s.Require().NoError(s.store.CreateTask(context.Background(), &other))

	tasks := s.queryTasks(query.TaskFilter{})
	s.Len(tasks, 1)
	s.Equal("Mine", tasks[0].Title)
}

func (s *GormStoreSuite) TestQueryByStatusAndPriority() {
	s.createTask("Todo low", "", models.StatusTodo, models.PriorityLow, nil)
	s.createTask("Todo urgent", "", models.StatusTodo, models.PriorityUrgent, nil)
	s.createTask("Done urgent", "", models.StatusCompleted, models.PriorityUrgent, nil)

	tasks := s.queryTasks(query.TaskFilter{Status: "todo", Priority: "urgent"})
	s.Len(tasks, 1)
	s.Equal("Todo urgent", tasks[0].Title)
}

func (s *GormStoreSuite) TestSearchMatchesTitleOrDescription() {
	s.createTask("Quarterly Report", "", models.StatusTodo, models.PriorityMedium, nil)
	s.createTask("Standup", "prepare report notes", models.StatusTodo, models.PriorityMedium, nil)
	s.createTask("Groceries", "", models.StatusTodo, models.PriorityMedium, nil)

	tasks := s.queryTasks(query.TaskFilter{Search: "REPORT"})
	s.Len(tasks, 2)
}

func (s *GormStoreSuite) TestSearchSkipsNullDescription() {
	task := models.Task{
		ID:      uuid.Must(uuid.NewV4()),
		OwnerID: s.ownerID,
		Title:   "Groceries",
		Status:  models.StatusTodo,
	}
	s.Require().NoError(s.store.CreateTask(context.Background(), &task))

	tasks := s.queryTasks(query.TaskFilter{Search: "report"})
	s.Empty(tasks)
}

func (s *GormStoreSuite) TestDateRangeToday() {
	today := s.now.Add(2 * time.Hour)
	tomorrow := s.now.Add(26 * time.Hour)
	s.createTask("Due today", "", models.StatusTodo, models.PriorityMedium, &today)
	s.createTask("Due tomorrow", "", models.StatusTodo, models.PriorityMedium, &tomorrow)
	s.createTask("No due date", "", models.StatusTodo, models.PriorityMedium, nil)

	tasks := s.queryTasks(query.TaskFilter{DateRange: "today"})
	s.Len(tasks, 1)
	s.Equal("Due today", tasks[0].Title)
}

func (s *GormStoreSuite) TestOverdueExcludesTerminalStatuses() {
	yesterday := s.now.Add(-24 * time.Hour)
	s.createTask("Late todo", "", models.StatusTodo, models.PriorityMedium, &yesterday)
	s.createTask("Late in progress", "", models.StatusInProgress, models.PriorityMedium, &yesterday)
	s.createTask("Late completed", "", models.StatusCompleted, models.PriorityMedium, &yesterday)
	s.createTask("Late cancelled", "", models.StatusCancelled, models.PriorityMedium, &yesterday)

	tasks := s.queryTasks(query.TaskFilter{DateRange: "overdue"})
	s.Len(tasks, 2)
	for _, task := range tasks {
		s.NotEqual(models.StatusCompleted, task.Status)
		s.NotEqual(models.StatusCancelled, task.Status)
	}
}

func (s *GormStoreSuite) TestCustomRangeUpperBoundInclusive() {
	boundary := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	after := boundary.Add(time.Second)
	s.createTask("On the boundary", "", models.StatusTodo, models.PriorityMedium, &boundary)
	s.createTask("Past the boundary", "", models.StatusTodo, models.PriorityMedium, &after)

	tasks := s.queryTasks(query.TaskFilter{DueTo: "2024-06-20T00:00:00Z"})
	s.Len(tasks, 1)
	s.Equal("On the boundary", tasks[0].Title)
}

func (s *GormStoreSuite) TestSortAndPagination() {
	for _, title := range []string{"c", "a", "b"} {
		s.createTask(title, "", models.StatusTodo, models.PriorityMedium, nil)
	}

	q, err := query.CompileTasks(s.ownerID, query.TaskFilter{SortBy: "title", Order: "asc", Limit: "2"}, s.now)
	s.Require().NoError(err)

	tasks, total, err := s.store.QueryTasks(context.Background(), q)
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Require().Len(tasks, 2)
	s.Equal("a", tasks[0].Title)
	s.Equal("b", tasks[1].Title)

	q, err = query.CompileTasks(s.ownerID, query.TaskFilter{SortBy: "title", Order: "asc", Limit: "2", Offset: "2"}, s.now)
	s.Require().NoError(err)

	tasks, _, err = s.store.QueryTasks(context.Background(), q)
	s.Require().NoError(err)
	s.Require().Len(tasks, 1)
	s.Equal("c", tasks[0].Title)
}

func (s *GormStoreSuite) TestGetUpdateDeleteTask() {
	task := s.createTask("Draft", "", models.StatusTodo, models.PriorityMedium, nil)

	got, err := s.store.GetTask(context.Background(), task.ID, s.ownerID)
	s.Require().NoError(err)
	s.Equal("Draft", got.Title)

	got.Title = "Draft v2"
	updated, err := s.store.UpdateTask(context.Background(), got)
	s.Require().NoError(err)
	s.Equal("Draft v2", updated.Title)

	// Foreign owner sees nothing.
	_, err = s.store.GetTask(context.Background(), task.ID, uuid.Must(uuid.NewV4()))
	s.True(apperrors.Is(err, apperrors.KindNotFound))

	err = s.store.DeleteTask(context.Background(), task.ID, uuid.Must(uuid.NewV4()))
	s.True(apperrors.Is(err, apperrors.KindNotFound))

	s.Require().NoError(s.store.DeleteTask(context.Background(), task.ID, s.ownerID))
	_, err = s.store.GetTask(context.Background(), task.ID, s.ownerID)
	s.True(apperrors.Is(err, apperrors.KindNotFound))
}

func (s *GormStoreSuite) TestUpdateForeignTaskRejected() {
	task := s.createTask("Draft", "", models.StatusTodo, models.PriorityMedium, nil)

	task.OwnerID = uuid.Must(uuid.NewV4())
	task.Title = "Hijacked"
	_, err := s.store.UpdateTask(context.Background(), task)
	s.True(apperrors.Is(err, apperrors.KindNotFound))
}

func (s *GormStoreSuite) TestTimeBlockLifecycle() {
	start := s.now
	block := models.TimeBlock{
		ID:        uuid.Must(uuid.NewV4()),
		OwnerID:   s.ownerID,
		Title:     "Deep work",
		Type:      models.BlockScheduled,
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
	}
	s.Require().NoError(s.store.CreateTimeBlock(context.Background(), &block))

	q, err := query.CompileTimeBlocks(s.ownerID, query.TimeBlockFilter{Type: "scheduled"})
	s.Require().NoError(err)
	blocks, total, err := s.store.QueryTimeBlocks(context.Background(), q)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(blocks, 1)

	block.EndTime = start.Add(3 * time.Hour)
	_, err = s.store.UpdateTimeBlock(context.Background(), block)
	s.Require().NoError(err)

	s.Require().NoError(s.store.DeleteTimeBlock(context.Background(), block.ID, s.ownerID))
}

func (s *GormStoreSuite) TestTimeBlockInvariantRejectedBeforePersistence() {
	start := s.now
	block := models.TimeBlock{
		ID:        uuid.Must(uuid.NewV4()),
		OwnerID:   s.ownerID,
		Type:      models.BlockScheduled,
		StartTime: start,
		EndTime:   start,
	}
	err := s.store.CreateTimeBlock(context.Background(), &block)
	s.True(apperrors.Is(err, apperrors.KindInvariant))

	q, err := query.CompileTimeBlocks(s.ownerID, query.TimeBlockFilter{})
	s.Require().NoError(err)
	blocks, _, err := s.store.QueryTimeBlocks(context.Background(), q)
	s.Require().NoError(err)
	s.Empty(blocks)
}

func (s *GormStoreSuite) TestCategoryNameUniquePerOwner() {
	work := models.Category{ID: uuid.Must(uuid.NewV4()), OwnerID: s.ownerID, Name: "Work", Color: "FF8800"}
	s.Require().NoError(s.store.CreateCategory(context.Background(), &work))

	dup := models.Category{ID: uuid.Must(uuid.NewV4()), OwnerID: s.ownerID, Name: "Work", Color: "0088FF"}
	err := s.store.CreateCategory(context.Background(), &dup)
	s.True(apperrors.Is(err, apperrors.KindConflict))

	// Same name under a different owner is fine.
	elsewhere := models.Category{ID: uuid.Must(uuid.NewV4()), OwnerID: uuid.Must(uuid.NewV4()), Name: "Work", Color: "0088FF"}
	s.Require().NoError(s.store.CreateCategory(context.Background(), &elsewhere))
}

func (s *GormStoreSuite) TestUpdateCategoryRenameConflict() {
	work := models.Category{ID: uuid.Must(uuid.NewV4()), OwnerID: s.ownerID, Name: "Work", Color: "FF8800"}
	home := models.Category{ID: uuid.Must(uuid.NewV4()), OwnerID: s.ownerID, Name: "Home", Color: "0088FF"}
	s.Require().NoError(s.store.CreateCategory(context.Background(), &work))
	s.Require().NoError(s.store.CreateCategory(context.Background(), &home))

	home.Name = "Work"
	_, err := s.store.UpdateCategory(context.Background(), home)
	s.True(apperrors.Is(err, apperrors.KindConflict))

	// Saving under its own unchanged name is not a conflict.
	home.Name = "Home"
	home.Color = "00FF00"
	updated, err := s.store.UpdateCategory(context.Background(), home)
	s.Require().NoError(err)
	s.Equal("00FF00", updated.Color)
}

func (s *GormStoreSuite) TestDeleteCategoryDetachesTasks() {
	category := models.Category{ID: uuid.Must(uuid.NewV4()), OwnerID: s.ownerID, Name: "Work", Color: "FF8800"}
	s.Require().NoError(s.store.CreateCategory(context.Background(), &category))

	task := s.createTask("Draft", "", models.StatusTodo, models.PriorityMedium, nil)
	task.CategoryID = &category.ID
	_, err := s.store.UpdateTask(context.Background(), task)
	s.Require().NoError(err)

	s.Require().NoError(s.store.DeleteCategory(context.Background(), category.ID, s.ownerID))

	got, err := s.store.GetTask(context.Background(), task.ID, s.ownerID)
	s.Require().NoError(err)
	s.Nil(got.CategoryID)

	_, err = s.store.GetCategory(context.Background(), category.ID, s.ownerID)
	s.True(apperrors.Is(err, apperrors.KindNotFound))
}

func TestGormStoreSuite(t *testing.T) {
	suite.Run(t, new(GormStoreSuite))
}
