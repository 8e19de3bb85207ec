package interaction

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"taskpilot/internal/render"
	"taskpilot/internal/resolver"
	"taskpilot/internal/task"
)

// Outcome is the re-rendered view after a transition: the replacement text
// for the message the button lived on, and the next state's keyboard (nil
// for terminal states and plain notices).
type Outcome struct {
	Text     string
	Keyboard *tgbotapi.InlineKeyboardMarkup
	Markdown bool
}

// Machine executes one transition per callback token. It holds no session
// state: every transition re-fetches the task so the rendered view matches
// the store, and a token referencing an archived task degrades to a
// "not found" notice instead of failing.
type Machine struct {
	resolver *resolver.Resolver
	log      *zap.Logger
	today    func() task.Date
}

// NewMachine creates a state machine over the given resolver.
func NewMachine(r *resolver.Resolver, log *zap.Logger) *Machine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{resolver: r, log: log, today: task.Today}
}

// Handle runs the transition the token encodes and returns the outcome to
// render. Store failures propagate as errors; a missing task does not.
func (m *Machine) Handle(ctx context.Context, tok Token) (*Outcome, error) {
	switch tok.Action {
	case ActionDone:
		return m.mutate(ctx, tok.TaskID, "Task marked as Done!", func(ctx context.Context) (*task.Task, error) {
			return m.resolver.MarkDone(ctx, tok.TaskID)
		})

	case ActionDelete:
		if err := m.resolver.Archive(ctx, tok.TaskID); err != nil {
			return nil, err
		}
		return &Outcome{Text: render.TaskArchived}, nil

	case ActionSnooze:
		updated, err := m.resolver.Snooze(ctx, tok.TaskID, m.today())
		if err != nil {
			return nil, err
		}
		if updated == nil {
			return &Outcome{Text: render.TaskNotFound}, nil
		}
		return m.viewing("Task postponed by 1 day!", updated), nil

	case ActionEdit:
		return m.menu(ctx, tok.TaskID, "What would you like to edit?", EditKeyboard)

	case ActionEditStatus:
		return m.menu(ctx, tok.TaskID, "Select new status:", StatusKeyboard)

	case ActionEditPriority:
		return m.menu(ctx, tok.TaskID, "Select new priority:", PriorityKeyboard)

	case ActionEditDate:
		// Free-text flow; the edit menu state is left as-is.
		return &Outcome{Text: render.DateInstructions, Markdown: true}, nil

	case ActionEditName:
		return &Outcome{Text: render.RenameInstructions, Markdown: true}, nil

	case ActionSetStatus:
		return m.mutate(ctx, tok.TaskID, "Status updated!", func(ctx context.Context) (*task.Task, error) {
			return m.resolver.SetStatus(ctx, tok.TaskID, task.Status(tok.Value))
		})

	case ActionSetPriority:
		return m.mutate(ctx, tok.TaskID, "Priority updated!", func(ctx context.Context) (*task.Task, error) {
			return m.resolver.SetPriority(ctx, tok.TaskID, task.Priority(tok.Value))
		})

	case ActionBack:
		current, err := m.resolver.Fetch(ctx, tok.TaskID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return &Outcome{Text: render.TaskNotFound}, nil
		}
		keyboard := TaskKeyboard(current.ID)
		return &Outcome{Text: render.TaskDetails(current), Keyboard: &keyboard, Markdown: true}, nil

	default:
		return nil, fmt.Errorf("no transition for action %q", tok.Action)
	}
}

// mutate verifies the task still exists before writing, so a stale token on
// an archived task degrades to a notice instead of a store error.
func (m *Machine) mutate(ctx context.Context, taskID, banner string, apply func(context.Context) (*task.Task, error)) (*Outcome, error) {
	current, err := m.resolver.Fetch(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return &Outcome{Text: render.TaskNotFound}, nil
	}
	updated, err := apply(ctx)
	if err != nil {
		return nil, err
	}
	return m.viewing(banner, updated), nil
}

// viewing renders the refreshed ViewingTask state with a banner line.
func (m *Machine) viewing(banner string, t *task.Task) *Outcome {
	keyboard := TaskKeyboard(t.ID)
	return &Outcome{
		Text:     banner + "\n\n" + render.TaskDetails(t),
		Keyboard: &keyboard,
		Markdown: true,
	}
}

// menu re-fetches the task and renders it above a picker keyboard.
func (m *Machine) menu(ctx context.Context, taskID, question string, keyboard func(string) tgbotapi.InlineKeyboardMarkup) (*Outcome, error) {
	current, err := m.resolver.Fetch(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return &Outcome{Text: render.TaskNotFound}, nil
	}
	kb := keyboard(current.ID)
	return &Outcome{
		Text:     render.TaskDetails(current) + "\n\n" + question,
		Keyboard: &kb,
		Markdown: true,
	}, nil
}
