// Package interaction drives the button-based editing flow. The only state
// carried between turns is the callback token attached to each button; every
// transition is reconstructed from the token plus a fresh store read.
package interaction

import (
	"fmt"
	"strings"

	"taskpilot/internal/task"
)

// Action identifies a state-machine transition.
type Action string

const (
	ActionDone         Action = "done"
	ActionDelete       Action = "delete"
	ActionSnooze       Action = "snooze"
	ActionEdit         Action = "edit"
	ActionEditStatus   Action = "edit_status"
	ActionEditPriority Action = "edit_priority"
	ActionEditDate     Action = "edit_date"
	ActionEditName     Action = "edit_name"
	ActionSetStatus    Action = "status"
	ActionSetPriority  Action = "priority"
	ActionBack         Action = "back"
)

// Token is the parsed callback payload: {action, value?, taskId}. Value is
// only present for the set-status and set-priority actions.
type Token struct {
	Action Action
	Value  string
	TaskID string
}

// String renders the wire form, e.g. "done_<id>" or "status_Done_<id>".
func (t Token) String() string {
	switch t.Action {
	case ActionSetStatus, ActionSetPriority:
		return fmt.Sprintf("%s_%s_%s", t.Action, t.Value, t.TaskID)
	default:
		return fmt.Sprintf("%s_%s", t.Action, t.TaskID)
	}
}

// Ordered longest-prefix-first so "edit_status_" wins over "edit_".
var plainActions = []Action{
	ActionEditStatus,
	ActionEditPriority,
	ActionEditDate,
	ActionEditName,
	ActionDone,
	ActionDelete,
	ActionSnooze,
	ActionEdit,
	ActionBack,
}

// ParseToken decodes a callback payload, rejecting anything malformed before
// it can reach dispatch.
func ParseToken(data string) (Token, error) {
	for _, action := range plainActions {
		prefix := string(action) + "_"
		if strings.HasPrefix(data, prefix) {
			id := data[len(prefix):]
			if id == "" {
				return Token{}, fmt.Errorf("token %q has no task id", data)
			}
			return Token{Action: action, TaskID: id}, nil
		}
	}

	for _, action := range []Action{ActionSetStatus, ActionSetPriority} {
		prefix := string(action) + "_"
		if !strings.HasPrefix(data, prefix) {
			continue
		}
		rest := data[len(prefix):]
		value, id, ok := strings.Cut(rest, "_")
		if !ok || value == "" || id == "" {
			return Token{}, fmt.Errorf("token %q is missing a value or task id", data)
		}
		if action == ActionSetStatus && !task.KnownStatus(task.Status(value)) {
			return Token{}, fmt.Errorf("token %q carries unknown status %q", data, value)
		}
		if action == ActionSetPriority && !task.KnownPriority(task.Priority(value)) {
			return Token{}, fmt.Errorf("token %q carries unknown priority %q", data, value)
		}
		return Token{Action: action, Value: value, TaskID: id}, nil
	}

	return Token{}, fmt.Errorf("unrecognized token %q", data)
}
