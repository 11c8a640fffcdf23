package bot

import (
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCommand(msg *tgbotapi.Message, threadID int) {
	chatID := msg.Chat.ID
	userID := msg.From.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		b.cmdStart(chatID, threadID)
	case "help":
		b.cmdHelp(chatID, threadID)
	case "new":
		b.cmdNew(chatID, userID, threadID)
	case "list":
		b.cmdList(chatID, threadID)
	case "my":
		b.cmdMy(chatID, userID, threadID)
	case "delete":
		b.cmdDelete(chatID, userID, threadID, args)
	case "cancel":
		b.sendReply(chatID, threadID, b.conv.Cancel(chatID, userID))
	case "stats":
		b.cmdStats(chatID, threadID)
	default:
		b.SendMessage(chatID, threadID, "Неизвестная команда. /help для списка команд")
	}
}

func (b *Bot) cmdStart(chatID int64, threadID int) {
	text := `<b>Бот для обратного отсчёта</b>

Я веду обратный отсчёт до важных событий и ежедневно отправляю уведомления.

<b>Основные команды:</b>
• /new — создать новый отсчёт
• /list — все отсчёты в чате
• /my — мои отсчёты в этом чате
• /delete — удалить отсчёт
• /help — справка

Создайте отсчёт до дня рождения, отпуска или дедлайна — я буду каждый день напоминать, сколько дней осталось!`

	if err := b.SendMessageWithKeyboard(chatID, threadID, text, mainMenuKeyboard()); err != nil {
		log.Printf("Error sending start message to chat %d: %v", chatID, err)
	}
}

func (b *Bot) cmdHelp(chatID int64, threadID int) {
	text := `<b>Справка по боту обратного отсчёта</b>

<b>Команды:</b>
• /new — создать отсчёт
• /list — все отсчёты в чате
• /my — мои отсчёты в чате
• /delete [ID] — удалить отсчёт
• /cancel — прервать создание
• /stats — статистика чата

<b>Создание отсчёта:</b>
1. Название события (до 100 символов)
2. Дата события (ДД.ММ.ГГГГ)
3. Время ежедневных уведомлений

<b>Как это работает:</b>
• Бот отправляет сообщение каждый день в указанное время
• Сообщение содержит количество оставшихся дней
• Когда событие наступает, отсчёт автоматически прекращается

<b>Управление:</b>
• Каждый отсчёт имеет уникальный ID, он показан в списках
• Удалить отсчёт может только его создатель`

	b.SendMessage(chatID, threadID, text)
}

func (b *Bot) cmdNew(chatID, userID int64, threadID int) {
	b.sendReply(chatID, threadID, b.conv.Begin(chatID, userID, threadID))
}

func (b *Bot) cmdList(chatID int64, threadID int) {
	events, err := b.eventService.ListChat(chatID)
	if err != nil {
		log.Printf("Error listing events for chat %d: %v", chatID, err)
		b.SendMessage(chatID, threadID, "⚠️ Не удалось получить список, попробуйте позже.")
		return
	}

	if len(events) == 0 {
		b.SendMessage(chatID, threadID, "<b>В этом чате нет активных отсчётов</b>\n\nСоздайте первый отсчёт командой /new")
		return
	}

	text := b.eventService.FormatEventList(events)
	text += "\n<b>Как управлять:</b>\n" +
		"• Удалить отсчёт: /delete [ID]\n" +
		"• Свои отсчёты: /my"

	b.SendMessage(chatID, threadID, text)
}

func (b *Bot) cmdMy(chatID, userID int64, threadID int) {
	events, err := b.eventService.ListOwn(chatID, userID)
	if err != nil {
		log.Printf("Error listing user %d events: %v", userID, err)
		b.SendMessage(chatID, threadID, "⚠️ Не удалось получить список, попробуйте позже.")
		return
	}

	b.SendMessage(chatID, threadID, b.eventService.FormatUserEvents(events))
}

func (b *Bot) cmdDelete(chatID, userID int64, threadID int, args string) {
	privileged := b.cfg.IsAdmin(userID)

	// С аргументом — удаление по короткому ID.
	if args != "" {
		event, removed, err := b.eventService.DeleteByPrefix(chatID, userID, args, privileged)
		if err != nil {
			log.Printf("Error deleting event by prefix %q: %v", args, err)
			b.SendMessage(chatID, threadID, "⚠️ Не удалось удалить отсчёт, попробуйте позже.")
			return
		}
		if !removed {
			b.SendMessage(chatID, threadID, "<b>Отсчёт не найден</b>\n\n"+
				"Возможно:\n"+
				"• ID указан неверно\n"+
				"• Отсчёт создан другим пользователем\n"+
				"• Отсчёт уже удалён\n\n"+
				"Посмотрите ID своих отсчётов командой /my")
			return
		}
		b.SendMessage(chatID, threadID, "✅ Отсчёт «"+event.Name+"» удалён!")
		return
	}

	// Без аргумента — выбор из списка своих отсчётов.
	events, err := b.eventService.ListOwn(chatID, userID)
	if err != nil {
		log.Printf("Error listing user %d events: %v", userID, err)
		b.SendMessage(chatID, threadID, "⚠️ Не удалось получить список, попробуйте позже.")
		return
	}
	if len(events) == 0 {
		b.SendMessage(chatID, threadID, "<b>У вас нет отсчётов для удаления в этом чате</b>")
		return
	}

	text := "<b>Выберите отсчёт для удаления:</b>\n\nОтсчёт будет удалён без возможности восстановления."
	if err := b.SendMessageWithKeyboard(chatID, threadID, text, deleteKeyboard(events)); err != nil {
		log.Printf("Error sending delete keyboard to chat %d: %v", chatID, err)
	}
}

func (b *Bot) cmdStats(chatID int64, threadID int) {
	events, err := b.eventService.ListChat(chatID)
	if err != nil {
		log.Printf("Error listing events for chat %d: %v", chatID, err)
		b.SendMessage(chatID, threadID, "⚠️ Не удалось получить статистику, попробуйте позже.")
		return
	}

	b.SendMessage(chatID, threadID, b.eventService.FormatStats(events))
}
