// Package calendar projects tasks and time blocks onto a single event
// timeline. Projections are built on demand from record snapshots and never
// mutated in place.
package calendar

import (
	"time"

	"day-planner/backend/internal/models"
)

// Tasks carry no stored duration, so a timed task projects to a fixed
// one-hour span.
const timedTaskDuration = time.Hour

var priorityColorKeys = map[models.TaskPriority]string{
	models.PriorityUrgent: "critical",
	models.PriorityHigh:   "high",
	models.PriorityMedium: "medium",
	models.PriorityLow:    "low",
}

var blockColorKeys = map[models.BlockType]string{
	models.BlockScheduled: "scheduled",
	models.BlockActual:    "actual",
	models.BlockBreak:     "break",
}

// ProjectTask maps a task onto the timeline. Tasks without a due date
// produce no event. A due instant whose time-of-day is exactly zero in UTC
// is an all-day event spanning that single calendar day; anything else is a
// timed event of one hour.
func ProjectTask(t models.Task) (models.CalendarEvent, bool) {
	if t.DueDate == nil {
		return models.CalendarEvent{}, false
	}

	due := t.DueDate.UTC()
	event := models.CalendarEvent{
		ID:          "task-" + t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		ColorKey:    priorityColorKeys[t.Priority],
	}

	if isMidnight(due) {
		day := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
		event.AllDay = true
		event.Start = day
		event.End = day
	} else {
		event.Start = due
		event.End = due.Add(timedTaskDuration)
	}
	return event, true
}

// ProjectTimeBlock maps a time block onto the timeline. Blocks are always
// timed and span [start, end) exactly as stored.
func ProjectTimeBlock(b models.TimeBlock) models.CalendarEvent {
	title := b.Title
	if title == "" {
		title = string(b.Type) + " time block"
	}

	return models.CalendarEvent{
		ID:          "block-" + b.ID.String(),
		Title:       title,
		Description: b.Description,
		Start:       b.StartTime.UTC(),
		End:         b.EndTime.UTC(),
		ColorKey:    blockColorKeys[b.Type],
	}
}

// MergeEvents produces one flat, order-stable event list: tasks in input
// order first, then time blocks in input order. Tasks without a due date are
// silently skipped.
func MergeEvents(tasks []models.Task, blocks []models.TimeBlock) []models.CalendarEvent {
	events := make([]models.CalendarEvent, 0, len(tasks)+len(blocks))
	for _, t := range tasks {
		if event, ok := ProjectTask(t); ok {
			events = append(events, event)
		}
	}
	for _, b := range blocks {
		events = append(events, ProjectTimeBlock(b))
	}
	return events
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}
