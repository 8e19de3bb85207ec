// Package render formats tasks for chat display. Pure functions of a Task;
// missing values render as fixed sentinels instead of failing.
package render

import (
	"fmt"

	"taskpilot/internal/task"
)

// Sentinels for absent fields.
const (
	NoTitle    = "Untitled"
	NoValue    = "Unknown"
	NoDate     = "No Date"
	NoNumericID = "N/A"
)

// TaskDetails renders the fixed task layout:
//
//	📌 *Title* (ID: TASK-42)
//	Status: Pending
//	Priority: Medium
//	Due: 2026-02-20
func TaskDetails(t *task.Task) string {
	title := t.Title
	if title == "" {
		title = NoTitle
	}

	status := string(t.Status)
	if status == "" {
		status = NoValue
	}

	priority := string(t.Priority)
	if priority == "" {
		priority = NoValue
	}

	due := NoDate
	if t.DueDate != nil {
		due = t.DueDate.String()
	}

	id := NoNumericID
	if t.NumericID != nil {
		id = t.NumericID.String()
	}

	return fmt.Sprintf("📌 *%s* (ID: %s)\nStatus: %s\nPriority: %s\nDue: %s",
		title, id, status, priority, due)
}

// PendingHeader renders the listing header above per-task messages.
func PendingHeader(count int) string {
	return fmt.Sprintf("*Pending Tasks:* (%d total)", count)
}

// Fixed reply texts for the turn boundary.
const (
	NoPendingTasks = "No pending tasks found!"
	TaskNotFound   = "Task not found."
	NotAuthorized  = "You are not authorized to use this bot."
	UnknownIntent  = "❓ Unknown intent."
	TaskArchived   = "Task deleted (archived)."

	DateInstructions = "To change the due date, please type:\n\n" +
		"`change due date of [task name] to YYYY-MM-DD`\n\n" +
		"Example: change due date of Buy groceries to 2026-02-20"

	RenameInstructions = "✏️ To rename the task, please type:\n\n" +
		"`rename [old task name] to [new name]`\n\n" +
		"Example: rename Buy groceries to Buy groceries and medicine"
)
