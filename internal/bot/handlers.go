package bot

import (
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleUpdate(update tgbotapi.Update, threadID int) {
	if update.Message != nil {
		b.handleMessage(update.Message, threadID)
	} else if update.CallbackQuery != nil {
		b.handleCallback(update.CallbackQuery, threadID)
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message, threadID int) {
	if msg.From == nil {
		return
	}
	chatID := msg.Chat.ID
	userID := msg.From.ID

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(msg, threadID)
		return
	}

	// Кнопки главного меню.
	switch text {
	case "➕ Создать отсчёт":
		b.cmdNew(chatID, userID, threadID)
		return
	case "📋 Все отсчёты":
		b.cmdList(chatID, threadID)
		return
	case "👤 Мои отсчёты":
		b.cmdMy(chatID, userID, threadID)
		return
	case "❌ Удалить отсчёт":
		b.cmdDelete(chatID, userID, threadID, "")
		return
	case "ℹ️ Помощь":
		b.cmdHelp(chatID, threadID)
		return
	}

	// Свободный текст — очередной шаг активного диалога создания.
	if reply := b.conv.HandleText(chatID, userID, text); reply != nil {
		b.sendReply(chatID, threadID, reply)
	}
}

func (b *Bot) handleCallback(callback *tgbotapi.CallbackQuery, threadID int) {
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	userID := callback.From.ID
	msgID := callback.Message.MessageID

	data := callback.Data
	parts := strings.SplitN(data, ":", 2)

	switch parts[0] {
	case "time":
		if len(parts) < 2 {
			return
		}
		b.api.Request(tgbotapi.NewCallback(callback.ID, ""))
		if parts[1] == "custom" {
			b.sendReply(chatID, threadID, b.conv.CustomTimePrompt(chatID, userID))
			return
		}
		b.sendReply(chatID, threadID, b.conv.SubmitTime(chatID, userID, parts[1]))

	case "delete":
		if len(parts) < 2 {
			return
		}
		if parts[1] == "cancel" {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "Отмена"))
			b.api.Request(tgbotapi.NewDeleteMessage(chatID, msgID))
			return
		}

		event, removed, err := b.eventService.DeleteByID(parts[1], userID, b.cfg.IsAdmin(userID))
		if err != nil {
			log.Printf("Error deleting event %s: %v", parts[1], err)
			b.api.Request(tgbotapi.NewCallback(callback.ID, "⚠️ Ошибка, попробуйте позже"))
			return
		}

		b.api.Request(tgbotapi.NewCallback(callback.ID, ""))

		var text string
		if removed {
			text = "✅ Отсчёт «" + event.Name + "» удалён!"
		} else {
			text = "Не удалось удалить отсчёт.\nВозможно, он уже удалён или вы не являетесь создателем."
		}
		edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
		b.api.Send(edit)

	default:
		b.api.Request(tgbotapi.NewCallback(callback.ID, ""))
	}
}
