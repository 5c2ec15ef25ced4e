package query

import (
	"time"

	"day-planner/backend/internal/apperrors"
	"day-planner/backend/internal/models"
)

type RangeTag string

const (
	RangeOverdue   RangeTag = "overdue"
	RangeToday     RangeTag = "today"
	RangeTomorrow  RangeTag = "tomorrow"
	RangeThisWeek  RangeTag = "this_week"
	RangeNextWeek  RangeTag = "next_week"
	RangeThisMonth RangeTag = "this_month"
)

// ResolvedRange is the output of named-range resolution: range predicates
// over the given field, and for overdue only, the status set that keeps
// terminal tasks out of the result.
type ResolvedRange struct {
	Bounds   []Predicate
	Statuses []models.TaskStatus
}

// ResolveNamedRange turns a named range tag into half-open [start, end)
// bounds computed by calendar-day arithmetic on the reference instant, not
// rolling 24h windows. Weeks begin on Sunday.
func ResolveNamedRange(tag RangeTag, field string, now time.Time) (ResolvedRange, error) {
	day := startOfDay(now)

	switch tag {
	case RangeToday:
		return interval(field, day, day.AddDate(0, 0, 1)), nil
	case RangeTomorrow:
		return interval(field, day.AddDate(0, 0, 1), day.AddDate(0, 0, 2)), nil
	case RangeThisWeek:
		start := day.AddDate(0, 0, -int(day.Weekday()))
		return interval(field, start, start.AddDate(0, 0, 7)), nil
	case RangeNextWeek:
		// Forward offset is 7 - weekday: on Sunday this is exactly 7,
		// so next week never collapses onto this week.
		start := day.AddDate(0, 0, 7-int(day.Weekday()))
		return interval(field, start, start.AddDate(0, 0, 7)), nil
	case RangeThisMonth:
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		return interval(field, first, first.AddDate(0, 1, 0)), nil
	case RangeOverdue:
		return ResolvedRange{
			Bounds:   []Predicate{Rng(field, OpLT, day)},
			Statuses: []models.TaskStatus{models.StatusTodo, models.StatusInProgress},
		}, nil
	}
	return ResolvedRange{}, apperrors.Validation("date_range", "unknown date range: "+string(tag))
}

// ResolveCustomRange emits bounds for an explicit from/to pair. Unlike the
// named ranges, the upper bound is inclusive; that asymmetry is user-visible
// and deliberate.
func ResolveCustomRange(field string, from, to *time.Time) []Predicate {
	var preds []Predicate
	if from != nil {
		preds = append(preds, Rng(field, OpGTE, *from))
	}
	if to != nil {
		preds = append(preds, Rng(field, OpLTE, *to))
	}
	return preds
}

func interval(field string, start, end time.Time) ResolvedRange {
	return ResolvedRange{Bounds: []Predicate{
		Rng(field, OpGTE, start),
		Rng(field, OpLT, end),
	}}
}

func startOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
