// Package telegram is the turn boundary: it receives updates from the chat
// transport, enforces the single authorized principal, routes text through
// the intent parser and clicks through the state machine, and converts every
// failure into exactly one chat reply.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskpilot/internal/intent"
	"taskpilot/internal/interaction"
	"taskpilot/internal/render"
	"taskpilot/internal/resolver"
	"taskpilot/internal/task"
)

// api is the slice of the bot client the handler sends through. BotAPI
// satisfies it; tests substitute a recorder.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Handler processes one update at a time per goroutine. Each update runs
// end-to-end independently, so a slow model call on one turn never blocks a
// button click on another.
type Handler struct {
	bot          *tgbotapi.BotAPI
	api          api
	parser       *intent.Parser
	resolver     *resolver.Resolver
	machine      *interaction.Machine
	authorizedID int64
	log          *zap.Logger
	today        func() task.Date
	wg           sync.WaitGroup
}

// New creates a handler bound to the given bot.
func New(bot *tgbotapi.BotAPI, parser *intent.Parser, res *resolver.Resolver, machine *interaction.Machine, authorizedID int64, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		bot:          bot,
		api:          bot,
		parser:       parser,
		resolver:     res,
		machine:      machine,
		authorizedID: authorizedID,
		log:          log,
		today:        task.Today,
	}
}

// Run long-polls for updates until ctx is cancelled, dispatching each update
// in its own goroutine.
func (h *Handler) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := h.bot.GetUpdatesChan(u)

	h.log.Info("bot started", zap.String("username", h.bot.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			h.bot.StopReceivingUpdates()
			h.wg.Wait()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				h.wg.Wait()
				return nil
			}
			h.wg.Add(1)
			go func() {
				defer h.wg.Done()
				h.handleUpdate(ctx, update)
			}()
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	log := h.log.With(zap.String("turn", uuid.NewString()))
	defer func() {
		// One bad turn must never take the process down.
		if r := recover(); r != nil {
			log.Error("panic while handling update", zap.Any("panic", r))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, log, update.CallbackQuery)
	case update.Message != nil && update.Message.Text != "":
		h.handleMessage(ctx, log, update.Message)
	}
}

func (h *Handler) handleMessage(ctx context.Context, log *zap.Logger, msg *tgbotapi.Message) {
	if msg.From == nil || msg.From.ID != h.authorizedID {
		log.Warn("rejected message from unauthorized sender")
		h.reply(log, msg.Chat.ID, render.NotAuthorized, nil, false)
		return
	}

	cmd, err := h.parser.Parse(ctx, msg.Text, h.today())
	if err != nil {
		log.Warn("intent parsing failed", zap.Error(err))
		h.reply(log, msg.Chat.ID, fmt.Sprintf("Failed to process with AI: %v. Try rephrasing.", err), nil, false)
		return
	}

	log.Info("parsed command", zap.String("intent", string(cmd.Intent)))

	switch cmd.Intent {
	case intent.IntentRead:
		h.listTasks(ctx, log, msg.Chat.ID)

	case intent.IntentCreate:
		created, err := h.resolver.Create(ctx, cmd)
		if err != nil {
			h.replyError(log, msg.Chat.ID, "Failed to create task", err)
			return
		}
		keyboard := interaction.TaskKeyboard(created.ID)
		h.reply(log, msg.Chat.ID, "Task Created!\n\n"+render.TaskDetails(created), &keyboard, true)

	case intent.IntentUpdate:
		updated, err := h.resolver.Update(ctx, cmd)
		if err != nil {
			h.replyError(log, msg.Chat.ID, "Failed to update task", err)
			return
		}
		keyboard := interaction.TaskKeyboard(updated.ID)
		h.reply(log, msg.Chat.ID, "Task Updated!\n\n"+render.TaskDetails(updated), &keyboard, true)

	case intent.IntentDelete:
		if _, err := h.resolver.Delete(ctx, cmd); err != nil {
			h.replyError(log, msg.Chat.ID, "Failed to delete task", err)
			return
		}
		h.reply(log, msg.Chat.ID, render.TaskArchived, nil, false)

	default:
		log.Info("unrecognized intent", zap.String("intent", string(cmd.Intent)))
		h.reply(log, msg.Chat.ID, render.UnknownIntent, nil, false)
	}
}

func (h *Handler) listTasks(ctx context.Context, log *zap.Logger, chatID int64) {
	tasks, err := h.resolver.List(ctx)
	if err != nil {
		h.replyError(log, chatID, "Error fetching tasks", err)
		return
	}
	if len(tasks) == 0 {
		h.reply(log, chatID, render.NoPendingTasks, nil, false)
		return
	}

	h.reply(log, chatID, render.PendingHeader(len(tasks)), nil, true)
	for i := range tasks {
		keyboard := interaction.TaskKeyboard(tasks[i].ID)
		h.reply(log, chatID, render.TaskDetails(&tasks[i]), &keyboard, true)
	}
}

func (h *Handler) handleCallback(ctx context.Context, log *zap.Logger, q *tgbotapi.CallbackQuery) {
	// Clicks are re-checked against the principal; callback tokens are not
	// proof of authorization.
	if q.From == nil || q.From.ID != h.authorizedID {
		log.Warn("rejected click from unauthorized sender")
		if _, err := h.api.Request(tgbotapi.NewCallbackWithAlert(q.ID, render.NotAuthorized)); err != nil {
			log.Error("failed to answer callback", zap.Error(err))
		}
		return
	}
	if _, err := h.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		log.Error("failed to answer callback", zap.Error(err))
	}

	tok, err := interaction.ParseToken(q.Data)
	if err != nil {
		log.Warn("malformed callback token", zap.String("data", q.Data), zap.Error(err))
		h.editMessage(log, q, &interaction.Outcome{Text: "Unrecognized action."})
		return
	}

	log.Info("button transition", zap.String("action", string(tok.Action)), zap.String("task_id", tok.TaskID))

	outcome, err := h.machine.Handle(ctx, tok)
	if err != nil {
		log.Error("transition failed", zap.Error(err))
		h.editMessage(log, q, &interaction.Outcome{Text: fmt.Sprintf("Error performing action: %v", err)})
		return
	}
	h.editMessage(log, q, outcome)
}

// editMessage replaces the message the button lived on, keeping the
// reply-to-every-event-exactly-once contract for clicks.
func (h *Handler) editMessage(log *zap.Logger, q *tgbotapi.CallbackQuery, outcome *interaction.Outcome) {
	if q.Message == nil {
		log.Warn("callback has no message to edit")
		return
	}

	var edit tgbotapi.EditMessageTextConfig
	if outcome.Keyboard != nil {
		edit = tgbotapi.NewEditMessageTextAndMarkup(q.Message.Chat.ID, q.Message.MessageID, outcome.Text, *outcome.Keyboard)
	} else {
		edit = tgbotapi.NewEditMessageText(q.Message.Chat.ID, q.Message.MessageID, outcome.Text)
	}
	if outcome.Markdown {
		edit.ParseMode = tgbotapi.ModeMarkdown
	}
	if _, err := h.api.Send(edit); err != nil {
		log.Error("failed to edit message", zap.Error(err))
	}
}

func (h *Handler) reply(log *zap.Logger, chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup, markdown bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	if markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	if _, err := h.api.Send(msg); err != nil {
		log.Error("failed to send message", zap.Error(err))
	}
}

// replyError renders one failure as one chat reply. Reference and validation
// failures speak for themselves; anything else keeps the raw cause, which
// this single operator wants to see.
func (h *Handler) replyError(log *zap.Logger, chatID int64, prefix string, err error) {
	log.Warn("turn failed", zap.String("context", prefix), zap.Error(err))

	var re *resolver.ResolutionError
	var ve *resolver.ValidationError
	switch {
	case errors.As(err, &re):
		h.reply(log, chatID, re.Message, nil, false)
	case errors.As(err, &ve):
		h.reply(log, chatID, ve.Message, nil, false)
	default:
		h.reply(log, chatID, fmt.Sprintf("%s: %v", prefix, err), nil, false)
	}
}
