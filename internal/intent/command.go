// Package intent turns raw chat text into a typed Command by prompting a
// language model for a constrained JSON envelope and defensively decoding
// whatever comes back.
package intent

import "taskpilot/internal/task"

// Intent is the classified purpose of a user utterance. Unknown values are
// preserved as-is; rejecting them is the turn handler's call, not ours.
type Intent string

const (
	IntentCreate Intent = "create"
	IntentRead   Intent = "read"
	IntentUpdate Intent = "update"
	IntentDelete Intent = "delete"
)

// Command is one parsed user turn. Fields holds only the attributes the user
// explicitly mentioned; for updates an absent field means "do not touch".
// TargetName/TargetNumericID reference an existing task for update/delete.
type Command struct {
	Intent          Intent
	Fields          task.Fields
	TargetName      string
	TargetNumericID *int
}

// HasTarget reports whether the command carries any task reference.
func (c *Command) HasTarget() bool {
	return c.TargetNumericID != nil || c.TargetName != ""
}
