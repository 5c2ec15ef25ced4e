package calendar

import (
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"day-planner/backend/internal/models"
)

func newTask(due *time.Time, priority models.TaskPriority) models.Task {
	return models.Task{
		ID:       uuid.Must(uuid.NewV4()),
		Title:    "write report",
		Priority: priority,
		DueDate:  due,
	}
}

func TestProjectTaskWithoutDueDate(t *testing.T) {
	_, ok := ProjectTask(newTask(nil, models.PriorityLow))
	assert.False(t, ok)
}

func TestProjectTaskAllDay(t *testing.T) {
	due := time.Date(2025, 10, 5, 0, 0, 0, 0, time.UTC)
	task := newTask(&due, models.PriorityMedium)

	event, ok := ProjectTask(task)
	require.True(t, ok)
	assert.True(t, event.AllDay)
	assert.Equal(t, "task-"+task.ID.String(), event.ID)
	assert.Equal(t, time.Date(2025, 10, 5, 0, 0, 0, 0, time.UTC), event.Start)
	assert.Equal(t, event.Start, event.End, "an all-day event spans exactly one calendar day")
}

func TestProjectTaskTimed(t *testing.T) {
	due := time.Date(2025, 10, 5, 14, 30, 0, 0, time.UTC)
	task := newTask(&due, models.PriorityMedium)

	event, ok := ProjectTask(task)
	require.True(t, ok)
	assert.False(t, event.AllDay)
	assert.Equal(t, due, event.Start)
	assert.Equal(t, due.Add(time.Hour), event.End)
}

func TestProjectTaskMidnightInOtherZoneIsTimed(t *testing.T) {
	// Midnight in a non-UTC zone is not midnight in the storage timezone.
	loc := time.FixedZone("UTC+2", 2*60*60)
	due := time.Date(2025, 10, 5, 0, 0, 0, 0, loc)
	task := newTask(&due, models.PriorityLow)

	event, ok := ProjectTask(task)
	require.True(t, ok)
	assert.False(t, event.AllDay)
	assert.Equal(t, due.UTC(), event.Start)
}

func TestTaskColorKeys(t *testing.T) {
	due := time.Date(2025, 10, 5, 9, 0, 0, 0, time.UTC)
	cases := map[models.TaskPriority]string{
		models.PriorityUrgent: "critical",
		models.PriorityHigh:   "high",
		models.PriorityMedium: "medium",
		models.PriorityLow:    "low",
	}

	for priority, want := range cases {
		event, ok := ProjectTask(newTask(&due, priority))
		require.True(t, ok)
		assert.Equal(t, want, event.ColorKey)
	}
}

func TestProjectTimeBlock(t *testing.T) {
	start := time.Date(2025, 10, 5, 9, 0, 0, 0, time.UTC)
	block := models.TimeBlock{
		ID:        uuid.Must(uuid.NewV4()),
		Title:     "deep work",
		Type:      models.BlockScheduled,
		StartTime: start,
		EndTime:   start.Add(90 * time.Minute),
	}

	event := ProjectTimeBlock(block)
	assert.Equal(t, "block-"+block.ID.String(), event.ID)
	assert.False(t, event.AllDay, "time blocks are never all-day")
	assert.Equal(t, block.StartTime, event.Start)
	assert.Equal(t, block.EndTime, event.End)
	assert.Equal(t, "scheduled", event.ColorKey)
}

func TestTimeBlockTitleFallback(t *testing.T) {
	start := time.Date(2025, 10, 5, 9, 0, 0, 0, time.UTC)
	cases := map[models.BlockType]string{
		models.BlockScheduled: "scheduled time block",
		models.BlockActual:    "actual time block",
		models.BlockBreak:     "break time block",
	}

	for blockType, want := range cases {
		event := ProjectTimeBlock(models.TimeBlock{
			ID:        uuid.Must(uuid.NewV4()),
			Type:      blockType,
			StartTime: start,
			EndTime:   start.Add(time.Hour),
		})
		assert.Equal(t, want, event.Title)
		assert.Equal(t, string(blockType), event.ColorKey)
	}
}

func TestMergeEventsKeepsInputOrder(t *testing.T) {
	due1 := time.Date(2025, 10, 5, 9, 0, 0, 0, time.UTC)
	due2 := time.Date(2025, 10, 6, 9, 0, 0, 0, time.UTC)

	tasks := []models.Task{
		newTask(&due1, models.PriorityHigh),
		newTask(nil, models.PriorityLow), // silently excluded
		newTask(&due2, models.PriorityLow),
	}
	blocks := []models.TimeBlock{
		{ID: uuid.Must(uuid.NewV4()), Type: models.BlockActual, StartTime: due1, EndTime: due1.Add(time.Hour)},
		{ID: uuid.Must(uuid.NewV4()), Type: models.BlockBreak, StartTime: due2, EndTime: due2.Add(time.Hour)},
	}

	events := MergeEvents(tasks, blocks)
	require.Len(t, events, 4)
	assert.Equal(t, "task-"+tasks[0].ID.String(), events[0].ID)
	assert.Equal(t, "task-"+tasks[2].ID.String(), events[1].ID)
	assert.Equal(t, "block-"+blocks[0].ID.String(), events[2].ID)
	assert.Equal(t, "block-"+blocks[1].ID.String(), events[3].ID)
}

func TestMergeEventsEmptyInputs(t *testing.T) {
	assert.Empty(t, MergeEvents(nil, nil))
	assert.Empty(t, MergeEvents([]models.Task{newTask(nil, models.PriorityLow)}, nil))
}
