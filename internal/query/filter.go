package query

// TaskFilter carries the raw, loosely-typed query parameters as they arrive
// from the transport. Every field is optional; empty means "no filter", not
// a wildcard.
type TaskFilter struct {
	Status     string `form:"status"`
	Priority   string `form:"priority"`
	CategoryID string `form:"category_id"`
	DateRange  string `form:"date_range"`
	DueFrom    string `form:"due_from"`
	DueTo      string `form:"due_to"`
	Search     string `form:"search"`
	Limit      string `form:"limit"`
	Offset     string `form:"offset"`
	SortBy     string `form:"sort_by"`
	Order      string `form:"order"`
}

// TimeBlockFilter is the raw filter surface for time blocks. From/To bound
// the block's start time.
type TimeBlockFilter struct {
	Type   string `form:"type"`
	TaskID string `form:"task_id"`
	From   string `form:"from"`
	To     string `form:"to"`
	Limit  string `form:"limit"`
	Offset string `form:"offset"`
	SortBy string `form:"sort_by"`
	Order  string `form:"order"`
}
