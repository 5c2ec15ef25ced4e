package models

import "time"

// CalendarEvent is a derived view over tasks and time blocks. It is never
// persisted and never mutated in place; a source change produces a fresh
// projection.
type CalendarEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	AllDay      bool      `json:"all_day"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	ColorKey    string    `json:"color_key"`
}
