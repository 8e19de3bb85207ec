package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"taskpilot/internal/task"
)

// ParseError reports that the model produced no usable command. Transport
// failures are retried; malformed output from a successful call is not.
type ParseError struct {
	Attempts int
	Err      error
}

func (e *ParseError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("intent parsing failed after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("intent parsing failed: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ModelClient is the slice of the language model this package needs.
type ModelClient interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// Parser translates free text into a Command via the language model.
type Parser struct {
	model    ModelClient
	log      *zap.Logger
	attempts int
	delay    time.Duration
}

// New creates a parser with the standard retry policy: 3 attempts, fixed 1s
// delay, transport failures only.
func New(model ModelClient, log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{
		model:    model,
		log:      log,
		attempts: 3,
		delay:    time.Second,
	}
}

// Parse sends text to the model with refDate embedded so relative dates
// resolve deterministically, then decodes the JSON envelope into a Command.
func (p *Parser) Parse(ctx context.Context, text string, refDate task.Date) (*Command, error) {
	prompt := buildPrompt(text, refDate)

	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, &ParseError{Attempts: attempt - 1, Err: ctx.Err()}
			case <-time.After(p.delay):
			}
		}

		raw, err := p.model.GenerateJSON(ctx, prompt)
		if err != nil {
			lastErr = err
			p.log.Warn("model attempt failed", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}

		cmd, err := decodeCommand(raw)
		if err != nil {
			// The call succeeded; the output is just unusable. Retrying
			// would burn quota on the same garbage.
			return nil, &ParseError{Attempts: attempt, Err: err}
		}
		return cmd, nil
	}

	p.log.Error("intent parsing exhausted retries", zap.Int("attempts", p.attempts), zap.Error(lastErr))
	return nil, &ParseError{Attempts: p.attempts, Err: lastErr}
}

func buildPrompt(text string, refDate task.Date) string {
	return fmt.Sprintf(`Today's date is: %s

You are a task management assistant. Your job is to extract the intent and relevant data from the user's natural language input.

Available Intents:
- "create": Create a new task.
- "read": Read/List pending tasks.
- "update": Update an existing task (change status, priority, due date, or rename).
- "delete": Delete/Archive a task.

Rules for "create":
- Extract "title", "status" (default: "Pending"), "priority" (default: "Medium"), "due_date" (YYYY-MM-DD or null), "description".

Rules for "read":
- No extra data needed. Just set intent to "read".

Rules for "update":
- Extract "target_task_name" (exact task name if present).
- Extract "target_task_id" (number if the user provides the ID, e.g. "task 12", "id 45").
- Extract fields to update: "status", "priority", "due_date", "new_title".
- Only include fields that are explicitly mentioned to be changed.
- If the user asks to remove or clear the due date, set "due_date" to "none".

Rules for "delete":
- Extract "target_task_name" OR "target_task_id".

Allowed Values:
Status: ["Pending", "In Progress", "Done"]
Priority: ["Low", "Medium", "High"]

Return STRICT JSON only:
{
  "intent": "create|read|update|delete",
  "data": {
      "title": "...",
      "status": "...",
      "priority": "...",
      "due_date": "...",
      "description": "...",
      "target_task_name": "...",
      "target_task_id": 123,
      "new_title": "..."
  }
}

User input:
%s`, refDate, text)
}

// envelope is the strict response schema the prompt demands.
type envelope struct {
	Intent string  `json:"intent"`
	Data   payload `json:"data"`
}

type payload struct {
	Title          string   `json:"title"`
	Status         string   `json:"status"`
	Priority       string   `json:"priority"`
	DueDate        string   `json:"due_date"`
	Description    string   `json:"description"`
	TargetTaskName string   `json:"target_task_name"`
	TargetTaskID   *flexInt `json:"target_task_id"`
	NewTitle       string   `json:"new_title"`
}

// flexInt tolerates the model emitting a numeric id as either 42 or "42".
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("numeric id %q is not an integer", s)
	}
	*f = flexInt(n)
	return nil
}

// Due-date values the model uses to signal an explicit clear.
func isClearSentinel(s string) bool {
	switch strings.ToLower(s) {
	case "none", "null", "clear":
		return true
	}
	return false
}

func decodeCommand(raw string) (*Command, error) {
	body, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}

	cmd := &Command{Intent: Intent(env.Intent)}
	d := env.Data

	if d.Title != "" {
		title := d.Title
		cmd.Fields.Title = &title
	}
	if d.NewTitle != "" {
		title := d.NewTitle
		cmd.Fields.Title = &title
	}
	if d.Status != "" {
		status, err := normalizeStatus(d.Status)
		if err != nil {
			return nil, err
		}
		cmd.Fields.Status = &status
	}
	if d.Priority != "" {
		priority, err := normalizePriority(d.Priority)
		if err != nil {
			return nil, err
		}
		cmd.Fields.Priority = &priority
	}
	if d.DueDate != "" {
		if isClearSentinel(d.DueDate) {
			cmd.Fields.ClearDueDate = true
		} else {
			due, err := task.ParseDate(d.DueDate)
			if err != nil {
				return nil, fmt.Errorf("model returned unusable due date: %w", err)
			}
			cmd.Fields.DueDate = &due
		}
	}
	if d.Description != "" {
		desc := d.Description
		cmd.Fields.Description = &desc
	}

	cmd.TargetName = d.TargetTaskName
	if d.TargetTaskID != nil {
		n := int(*d.TargetTaskID)
		cmd.TargetNumericID = &n
	}
	return cmd, nil
}

func normalizeStatus(s string) (task.Status, error) {
	for _, known := range []task.Status{task.StatusPending, task.StatusInProgress, task.StatusDone} {
		if strings.EqualFold(s, string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("model returned unknown status %q", s)
}

func normalizePriority(s string) (task.Priority, error) {
	for _, known := range []task.Priority{task.PriorityLow, task.PriorityMedium, task.PriorityHigh} {
		if strings.EqualFold(s, string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("model returned unknown priority %q", s)
}

// extractJSON pulls the first balanced JSON object out of raw model output,
// tolerating code fences and surrounding prose.
func extractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], nil
				}
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object in response")
}
