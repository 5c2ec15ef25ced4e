package query

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid"

	"day-planner/backend/internal/apperrors"
	"day-planner/backend/internal/models"
)

const (
	DefaultTaskLimit      = 50
	DefaultTimeBlockLimit = 100
	maxLimit              = 500
	maxSearchLength       = 255
)

var taskSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"due_date":   true,
	"priority":   true,
	"title":      true,
}

var timeBlockSortFields = map[string]bool{
	"created_at": true,
	"start_time": true,
	"end_time":   true,
}

// CompileTasks builds the ordered predicate conjunction for a task query.
// The ownership predicate is always the first conjunct, for any input.
// Named and custom date ranges may both be supplied; their predicate sets
// are both appended, so the result is their intersection.
//
// Compilation is pure: it never touches a store, and any malformed input
// surfaces as a validation error naming the offending field.
func CompileTasks(ownerID uuid.UUID, f TaskFilter, now time.Time) (CompiledQuery, error) {
	if ownerID == uuid.Nil {
		return CompiledQuery{}, apperrors.Validation("owner_id", "caller identity is required")
	}

	q := CompiledQuery{
		Predicates: []Predicate{Eq("owner_id", ownerID.String())},
	}

	if f.Status != "" {
		if !models.TaskStatus(f.Status).Valid() {
			return CompiledQuery{}, apperrors.Validation("status", "unknown status: "+f.Status)
		}
		q.Predicates = append(q.Predicates, Eq("status", f.Status))
	}

	if f.Priority != "" {
		if !models.TaskPriority(f.Priority).Valid() {
			return CompiledQuery{}, apperrors.Validation("priority", "unknown priority: "+f.Priority)
		}
		q.Predicates = append(q.Predicates, Eq("priority", f.Priority))
	}

	if f.CategoryID != "" {
		id, err := uuid.FromString(f.CategoryID)
		if err != nil {
			return CompiledQuery{}, apperrors.Validation("category_id", "malformed category id")
		}
		q.Predicates = append(q.Predicates, Eq("category_id", id.String()))
	}

	if f.Search != "" {
		if len(f.Search) > maxSearchLength {
			return CompiledQuery{}, apperrors.Validation("search", "search term too long")
		}
		term := strings.ToLower(strings.TrimSpace(f.Search))
		if term != "" {
			q.Predicates = append(q.Predicates, Or(
				Contains("title", term),
				Contains("description", term),
			))
		}
	}

	if f.DateRange != "" {
		resolved, err := ResolveNamedRange(RangeTag(f.DateRange), "due_date", now)
		if err != nil {
			return CompiledQuery{}, err
		}
		q.Predicates = append(q.Predicates, resolved.Bounds...)
		if len(resolved.Statuses) > 0 {
			statuses := make([]string, len(resolved.Statuses))
			for i, s := range resolved.Statuses {
				statuses[i] = string(s)
			}
			q.Predicates = append(q.Predicates, In("status", statuses...))
		}
	}

	from, to, err := parseBounds(f.DueFrom, f.DueTo, "due_from", "due_to")
	if err != nil {
		return CompiledQuery{}, err
	}
	q.Predicates = append(q.Predicates, ResolveCustomRange("due_date", from, to)...)

	q.Page, err = parsePage(f.Limit, f.Offset, DefaultTaskLimit)
	if err != nil {
		return CompiledQuery{}, err
	}
	q.Sort, err = parseSort(f.SortBy, f.Order, taskSortFields)
	if err != nil {
		return CompiledQuery{}, err
	}

	return q, nil
}

// CompileTimeBlocks builds the predicate conjunction for a time block query.
// Ownership comes first here too.
func CompileTimeBlocks(ownerID uuid.UUID, f TimeBlockFilter) (CompiledQuery, error) {
	if ownerID == uuid.Nil {
		return CompiledQuery{}, apperrors.Validation("owner_id", "caller identity is required")
	}

	q := CompiledQuery{
		Predicates: []Predicate{Eq("owner_id", ownerID.String())},
	}

	if f.Type != "" {
		if !models.BlockType(f.Type).Valid() {
			return CompiledQuery{}, apperrors.Validation("type", "unknown time block type: "+f.Type)
		}
		q.Predicates = append(q.Predicates, Eq("type", f.Type))
	}

	if f.TaskID != "" {
		id, err := uuid.FromString(f.TaskID)
		if err != nil {
			return CompiledQuery{}, apperrors.Validation("task_id", "malformed task id")
		}
		q.Predicates = append(q.Predicates, Eq("task_id", id.String()))
	}

	from, to, err := parseBounds(f.From, f.To, "from", "to")
	if err != nil {
		return CompiledQuery{}, err
	}
	q.Predicates = append(q.Predicates, ResolveCustomRange("start_time", from, to)...)

	q.Page, err = parsePage(f.Limit, f.Offset, DefaultTimeBlockLimit)
	if err != nil {
		return CompiledQuery{}, err
	}
	q.Sort, err = parseSort(f.SortBy, f.Order, timeBlockSortFields)
	if err != nil {
		return CompiledQuery{}, err
	}

	return q, nil
}

func parseBounds(fromStr, toStr, fromField, toField string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if fromStr != "" {
		t, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return nil, nil, apperrors.Validation(fromField, "malformed instant, want RFC3339")
		}
		from = &t
	}
	if toStr != "" {
		t, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return nil, nil, apperrors.Validation(toField, "malformed instant, want RFC3339")
		}
		to = &t
	}
	return from, to, nil
}

func parsePage(limitStr, offsetStr string, defaultLimit int) (Page, error) {
	page := Page{Limit: defaultLimit, Offset: 0}

	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n <= 0 {
			return Page{}, apperrors.Validation("limit", "limit must be a positive integer")
		}
		if n > maxLimit {
			n = maxLimit
		}
		page.Limit = n
	}
	if offsetStr != "" {
		n, err := strconv.Atoi(offsetStr)
		if err != nil || n < 0 {
			return Page{}, apperrors.Validation("offset", "offset must be a non-negative integer")
		}
		page.Offset = n
	}
	return page, nil
}

func parseSort(sortBy, order string, allowed map[string]bool) (Sort, error) {
	s := Sort{Field: "created_at", Desc: true}

	if sortBy != "" {
		if !allowed[sortBy] {
			return Sort{}, apperrors.Validation("sort_by", "unsupported sort field: "+sortBy)
		}
		s.Field = sortBy
	}
	switch order {
	case "":
	case "asc":
		s.Desc = false
	case "desc":
		s.Desc = true
	default:
		return Sort{}, apperrors.Validation("order", "order must be asc or desc")
	}
	return s, nil
}
