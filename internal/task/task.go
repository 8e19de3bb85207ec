// Package task defines the canonical in-memory task record and the sparse
// field set used for partial updates. Every other package trades in these
// types; the raw Notion wire shapes never leave the store adapter.
package task

import (
	"fmt"
	"time"
)

// Status is a task workflow state. Values the store returns outside the
// known set are preserved verbatim so they round-trip instead of failing.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// KnownStatus reports whether s is one of the workflow states this system
// writes. Reads tolerate anything.
func KnownStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Priority is a task urgency level, same unknown-value policy as Status.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// KnownPriority reports whether p is one of the priorities this system writes.
func KnownPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// NumericID is the human-friendly secondary identifier Notion assigns via a
// unique_id property, e.g. "TASK-42" or plain "42".
type NumericID struct {
	Prefix string
	Number int
}

func (n NumericID) String() string {
	if n.Prefix != "" {
		return fmt.Sprintf("%s-%d", n.Prefix, n.Number)
	}
	return fmt.Sprintf("%d", n.Number)
}

// Task is the canonical representation of one record in the store.
// It is fetched fresh for every turn and never cached.
type Task struct {
	ID          string
	NumericID   *NumericID
	Title       string
	Status      Status
	Priority    Priority
	DueDate     *Date
	Description string
	Archived    bool
}

// Fields is a sparse update set. A nil field means "do not touch", never
// "clear". Clearing the due date is an explicit, separate signal because an
// absent key and a cleared value must stay distinguishable.
type Fields struct {
	Title        *string
	Status       *Status
	Priority     *Priority
	DueDate      *Date
	ClearDueDate bool
	Description  *string
}

// IsEmpty reports whether applying f would change nothing.
func (f Fields) IsEmpty() bool {
	return f.Title == nil &&
		f.Status == nil &&
		f.Priority == nil &&
		f.DueDate == nil &&
		!f.ClearDueDate &&
		f.Description == nil
}

// Draft is the full field set for creating a task. Zero values are replaced
// with the documented defaults by the store adapter.
type Draft struct {
	Title       string
	Status      Status
	Priority    Priority
	Description string
	DueDate     *Date
}

// Defaults applied when a draft or the model output leaves a field blank.
const (
	DefaultTitle    = "Untitled Task"
	DefaultStatus   = StatusPending
	DefaultPriority = PriorityMedium
)

// Date is a calendar date with no time component, ISO 8601 on the wire.
type Date struct {
	year  int
	month time.Month
	day   int
}

const dateLayout = "2006-01-02"

// ParseDate parses an ISO 8601 date string (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{year: t.Year(), month: t.Month(), day: t.Day()}, nil
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return Date{year: t.Year(), month: t.Month(), day: t.Day()}
}

// Today returns the current UTC calendar date.
func Today() Date {
	return DateOf(time.Now().UTC())
}

// AddDays returns the date n days later, handling month and year rollover.
func (d Date) AddDays(n int) Date {
	t := time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	return DateOf(t)
}

func (d Date) String() string {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC).Format(dateLayout)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.year == 0 && d.month == 0 && d.day == 0
}
