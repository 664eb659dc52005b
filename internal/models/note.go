package models

import (
	"time"
)

// ShiftNote is a free-text annotation for one day's shift. Notes are
// appended next to the event log, never inside it, so committed events
// stay immutable.
type ShiftNote struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	NotedOn   string    `json:"noted_on"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// DayOf returns the UTC calendar date of t in YYYY-MM-DD form, the key
// notes and timesheet rows are grouped by.
func DayOf(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
