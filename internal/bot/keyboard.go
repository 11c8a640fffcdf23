package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/tazhate/countdownbot/internal/conversation"
	"github.com/tazhate/countdownbot/internal/domain"
)

// Main menu reply keyboard (shown by /start)
func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("➕ Создать отсчёт"),
			tgbotapi.NewKeyboardButton("📋 Все отсчёты"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("👤 Мои отсчёты"),
			tgbotapi.NewKeyboardButton("❌ Удалить отсчёт"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("ℹ️ Помощь"),
		),
	)
	kb.ResizeKeyboard = true
	kb.InputFieldPlaceholder = "Выберите действие..."
	return kb
}

// choicesKeyboard renders conversation choices, three per row.
func choicesKeyboard(choices []conversation.Choice) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton

	for _, c := range choices {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(c.Label, c.Data))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// Event selection keyboard for /delete without arguments
func deleteKeyboard(events []*domain.Event) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	for _, e := range events {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				e.Name+" ("+domain.FormatTargetDate(e.TargetDate)+")",
				"delete:"+e.ID,
			),
		))
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 Отмена", "delete:cancel"),
	))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
