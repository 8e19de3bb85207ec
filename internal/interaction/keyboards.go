package interaction

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskpilot/internal/task"
)

// Keyboard builders are pure functions from a task ID to a button grid. The
// only logic here is token construction matching the transition table.

func button(label string, tok Token) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(label, tok.String())
}

// TaskKeyboard is the ViewingTask action row set.
func TaskKeyboard(taskID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("✅ Done", Token{Action: ActionDone, TaskID: taskID}),
			button("📝 Edit", Token{Action: ActionEdit, TaskID: taskID}),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("⏰ +1 Day", Token{Action: ActionSnooze, TaskID: taskID}),
			button("🗑 Delete", Token{Action: ActionDelete, TaskID: taskID}),
		),
	)
}

// EditKeyboard is the EditMenu field chooser.
func EditKeyboard(taskID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("📊 Status", Token{Action: ActionEditStatus, TaskID: taskID}),
			button("🔺 Priority", Token{Action: ActionEditPriority, TaskID: taskID}),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("📅 Due Date", Token{Action: ActionEditDate, TaskID: taskID}),
			button("✏️ Rename", Token{Action: ActionEditName, TaskID: taskID}),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("◀️ Back", Token{Action: ActionBack, TaskID: taskID}),
		),
	)
}

// StatusKeyboard is the PickingStatus value picker.
func StatusKeyboard(taskID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("⏳ Pending", Token{Action: ActionSetStatus, Value: string(task.StatusPending), TaskID: taskID}),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("▶️ In Progress", Token{Action: ActionSetStatus, Value: string(task.StatusInProgress), TaskID: taskID}),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("✅ Done", Token{Action: ActionSetStatus, Value: string(task.StatusDone), TaskID: taskID}),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("◀️ Back", Token{Action: ActionBack, TaskID: taskID}),
		),
	)
}

// PriorityKeyboard is the PickingPriority value picker.
func PriorityKeyboard(taskID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("🔴 High", Token{Action: ActionSetPriority, Value: string(task.PriorityHigh), TaskID: taskID}),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("🟡 Medium", Token{Action: ActionSetPriority, Value: string(task.PriorityMedium), TaskID: taskID}),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("🟢 Low", Token{Action: ActionSetPriority, Value: string(task.PriorityLow), TaskID: taskID}),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("◀️ Back", Token{Action: ActionBack, TaskID: taskID}),
		),
	)
}
