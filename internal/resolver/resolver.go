// Package resolver turns parsed commands into concrete store mutations.
// Freeform text and button clicks share this single mutation path.
package resolver

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"taskpilot/internal/intent"
	"taskpilot/internal/task"
)

// ResolutionError reports a missing or unresolvable task reference.
type ResolutionError struct {
	Message string
}

func (e *ResolutionError) Error() string { return e.Message }

// ValidationError reports a command that is rejected before any store call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Store is the record store surface the resolver mutates through.
type Store interface {
	ListPending(ctx context.Context) ([]task.Task, error)
	FindByName(ctx context.Context, name string) (*task.Task, error)
	FindByNumericID(ctx context.Context, n int) (*task.Task, error)
	FetchByID(ctx context.Context, id string) (*task.Task, error)
	Create(ctx context.Context, draft task.Draft) (*task.Task, error)
	Update(ctx context.Context, id string, fields task.Fields) (*task.Task, error)
	Archive(ctx context.Context, id string) error
}

// Resolver applies commands against a Store.
type Resolver struct {
	store Store
	log   *zap.Logger
}

// New creates a resolver.
func New(store Store, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{store: store, log: log}
}

// List returns all pending tasks in store order.
func (r *Resolver) List(ctx context.Context) ([]task.Task, error) {
	return r.store.ListPending(ctx)
}

// Create inserts a new task, filling the documented defaults for anything
// the command left out.
func (r *Resolver) Create(ctx context.Context, cmd *intent.Command) (*task.Task, error) {
	draft := task.Draft{
		Title:    task.DefaultTitle,
		Status:   task.DefaultStatus,
		Priority: task.DefaultPriority,
	}
	if cmd.Fields.Title != nil {
		draft.Title = *cmd.Fields.Title
	}
	if cmd.Fields.Status != nil {
		draft.Status = *cmd.Fields.Status
	}
	if cmd.Fields.Priority != nil {
		draft.Priority = *cmd.Fields.Priority
	}
	if cmd.Fields.Description != nil {
		draft.Description = *cmd.Fields.Description
	}
	draft.DueDate = cmd.Fields.DueDate

	created, err := r.store.Create(ctx, draft)
	if err != nil {
		return nil, err
	}
	r.log.Info("task created", zap.String("id", created.ID), zap.String("title", created.Title))
	return created, nil
}

// Update resolves the command's target and applies only the fields it
// explicitly carries. An empty field set fails before any store write.
func (r *Resolver) Update(ctx context.Context, cmd *intent.Command) (*task.Task, error) {
	fields := updateFields(cmd)
	if fields.IsEmpty() {
		return nil, &ValidationError{Message: "No updates detected."}
	}

	target, err := r.resolveTarget(ctx, cmd)
	if err != nil {
		return nil, err
	}

	updated, err := r.store.Update(ctx, target.ID, fields)
	if err != nil {
		return nil, err
	}
	r.log.Info("task updated", zap.String("id", target.ID))
	return updated, nil
}

// Delete resolves the command's target and archives it. Archive only; the
// store never hard-deletes.
func (r *Resolver) Delete(ctx context.Context, cmd *intent.Command) (*task.Task, error) {
	target, err := r.resolveTarget(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if err := r.store.Archive(ctx, target.ID); err != nil {
		return nil, err
	}
	r.log.Info("task archived", zap.String("id", target.ID))
	return target, nil
}

// resolveTarget maps a fuzzy task reference to a concrete record. Numeric ID
// takes precedence and a miss there is terminal — no fallback to name search.
func (r *Resolver) resolveTarget(ctx context.Context, cmd *intent.Command) (*task.Task, error) {
	switch {
	case cmd.TargetNumericID != nil:
		found, err := r.store.FindByNumericID(ctx, *cmd.TargetNumericID)
		if err != nil {
			return nil, err
		}
		if found == nil {
			return nil, &ResolutionError{Message: fmt.Sprintf("Could not find task with ID %d.", *cmd.TargetNumericID)}
		}
		return found, nil
	case cmd.TargetName != "":
		found, err := r.store.FindByName(ctx, cmd.TargetName)
		if err != nil {
			return nil, err
		}
		if found == nil {
			return nil, &ResolutionError{Message: fmt.Sprintf("Could not find task matching %q.", cmd.TargetName)}
		}
		return found, nil
	default:
		return nil, &ResolutionError{Message: "I need a task name or ID."}
	}
}

// updateFields filters the command down to the attributes an update may
// touch: status, priority, due date, title.
func updateFields(cmd *intent.Command) task.Fields {
	return task.Fields{
		Title:        cmd.Fields.Title,
		Status:       cmd.Fields.Status,
		Priority:     cmd.Fields.Priority,
		DueDate:      cmd.Fields.DueDate,
		ClearDueDate: cmd.Fields.ClearDueDate,
	}
}

// Fetch retrieves one task by primary ID; nil means gone.
func (r *Resolver) Fetch(ctx context.Context, id string) (*task.Task, error) {
	return r.store.FetchByID(ctx, id)
}

// SetStatus updates a single task's status by primary ID.
func (r *Resolver) SetStatus(ctx context.Context, id string, status task.Status) (*task.Task, error) {
	return r.store.Update(ctx, id, task.Fields{Status: &status})
}

// SetPriority updates a single task's priority by primary ID.
func (r *Resolver) SetPriority(ctx context.Context, id string, priority task.Priority) (*task.Task, error) {
	return r.store.Update(ctx, id, task.Fields{Priority: &priority})
}

// MarkDone sets the task's status to Done.
func (r *Resolver) MarkDone(ctx context.Context, id string) (*task.Task, error) {
	return r.SetStatus(ctx, id, task.StatusDone)
}

// Archive soft-deletes a task by primary ID.
func (r *Resolver) Archive(ctx context.Context, id string) error {
	return r.store.Archive(ctx, id)
}

// Snooze pushes the task's due date forward one calendar day. A task with no
// due date lands on tomorrow relative to today. Returns nil when the task no
// longer exists.
func (r *Resolver) Snooze(ctx context.Context, id string, today task.Date) (*task.Task, error) {
	current, err := r.store.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	base := today
	if current.DueDate != nil {
		base = *current.DueDate
	}
	newDue := base.AddDays(1)

	updated, err := r.store.Update(ctx, id, task.Fields{DueDate: &newDue})
	if err != nil {
		return nil, err
	}
	r.log.Info("task snoozed", zap.String("id", id), zap.String("due", newDue.String()))
	return updated, nil
}
