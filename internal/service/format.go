package service

import (
	"fmt"
	"strings"

	"github.com/tazhate/countdownbot/internal/domain"
)

// DayWord возвращает форму слова «день» для числительного n.
func DayWord(n int) string {
	if n < 0 {
		n = -n
	}
	switch {
	case n%100 >= 11 && n%100 <= 14:
		return "дней"
	case n%10 == 1:
		return "день"
	case n%10 >= 2 && n%10 <= 4:
		return "дня"
	default:
		return "дней"
	}
}

func weekWord(n int) string {
	switch {
	case n%100 >= 11 && n%100 <= 14:
		return "недель"
	case n%10 == 1:
		return "неделя"
	case n%10 >= 2 && n%10 <= 4:
		return "недели"
	default:
		return "недель"
	}
}

// FormatCountdown renders the daily notification for an event with the
// given number of days left (never negative: expired events are
// deactivated, not announced).
func (s *EventService) FormatCountdown(e *domain.Event, daysLeft int) string {
	if daysLeft == 0 {
		return fmt.Sprintf("🎉 <b>%s</b>\n\n<b>СЕГОДНЯ ДЕНЬ СОБЫТИЯ!</b>\n%s",
			e.Name, domain.FormatTargetDate(e.TargetDate))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "⏳ <b>%s</b>\n", e.Name)
	fmt.Fprintf(&sb, "До события осталось: <b>%d %s</b>\n", daysLeft, DayWord(daysLeft))
	fmt.Fprintf(&sb, "Дата: %s", domain.FormatTargetDate(e.TargetDate))

	switch {
	case daysLeft <= 7:
		fmt.Fprintf(&sb, "\n\n🔥 Это всего <b>%d %s</b>!", daysLeft, DayWord(daysLeft))
	case daysLeft <= 30:
		weeks := daysLeft / 7
		fmt.Fprintf(&sb, "\n\n📅 Примерно <b>%d %s</b>", weeks, weekWord(weeks))
	}

	return sb.String()
}

// FormatEventList renders the chat-wide /list view.
func (s *EventService) FormatEventList(events []*domain.Event) string {
	if len(events) == 0 {
		return "📭 Нет активных отсчётов"
	}

	var sb strings.Builder
	sb.WriteString("<b>Активные отсчёты:</b>\n\n")

	for i, e := range events {
		daysLeft := s.DaysLeft(e)
		fmt.Fprintf(&sb, "%d. <b>%s</b>\n", i+1, e.Name)
		fmt.Fprintf(&sb, "   %s\n", domain.FormatTargetDate(e.TargetDate))
		fmt.Fprintf(&sb, "   Уведомления в %s\n", e.NotifyAt)
		fmt.Fprintf(&sb, "   Осталось: %d %s\n", daysLeft, DayWord(daysLeft))
		if daysLeft > 0 && daysLeft <= 30 {
			done := (30 - daysLeft) / 3
			if done < 1 {
				done = 1
			}
			fmt.Fprintf(&sb, "   %s%s\n", strings.Repeat("⬜", done), strings.Repeat("⬛", daysLeft/3))
		}
		fmt.Fprintf(&sb, "   ID: <code>%s…</code>\n\n", e.ShortID())
	}

	return sb.String()
}

// FormatUserEvents renders the /my view for one creator's events.
func (s *EventService) FormatUserEvents(events []*domain.Event) string {
	if len(events) == 0 {
		return "<b>У вас нет отсчётов в этом чате</b>\n\nСоздайте отсчёт командой /new"
	}

	var sb strings.Builder
	sb.WriteString("<b>Ваши отсчёты в этом чате:</b>\n\n")

	for i, e := range events {
		daysLeft := s.DaysLeft(e)
		fmt.Fprintf(&sb, "%d. <b>%s</b>\n", i+1, e.Name)
		fmt.Fprintf(&sb, "   %s, уведомления в %s\n", domain.FormatTargetDate(e.TargetDate), e.NotifyAt)
		fmt.Fprintf(&sb, "   Осталось: %d %s\n", daysLeft, DayWord(daysLeft))
		fmt.Fprintf(&sb, "   <code>%s…</code>\n\n", e.ShortID())
	}

	sb.WriteString("<b>Управление:</b>\n")
	sb.WriteString("Удалить отсчёт: <code>/delete ID</code>\n")
	fmt.Fprintf(&sb, "Пример: <code>/delete %s</code>", events[0].ShortID())

	return sb.String()
}

// FormatCreated renders the confirmation after the final creation step.
func (s *EventService) FormatCreated(e *domain.Event) string {
	daysLeft := s.DaysLeft(e)
	var sb strings.Builder
	sb.WriteString("✅ <b>Отсчёт создан успешно!</b>\n\n")
	fmt.Fprintf(&sb, "<b>Событие:</b> %s\n", e.Name)
	fmt.Fprintf(&sb, "<b>Дата:</b> %s\n", domain.FormatTargetDate(e.TargetDate))
	fmt.Fprintf(&sb, "<b>Уведомления:</b> ежедневно в %s\n", e.NotifyAt)
	fmt.Fprintf(&sb, "<b>Осталось дней:</b> %d\n\n", daysLeft)
	fmt.Fprintf(&sb, "ID отсчёта: <code>%s…</code>", e.ShortID())
	return sb.String()
}

// FormatStats renders the /stats summary for a chat.
func (s *EventService) FormatStats(events []*domain.Event) string {
	if len(events) == 0 {
		return "В этом чате нет активных отсчётов"
	}

	var sb strings.Builder
	sb.WriteString("<b>📊 Статистика чата</b>\n\n")
	fmt.Fprintf(&sb, "• Активных отсчётов: %d\n\n", len(events))

	// События приходят отсортированными по дате — ближайшие первые.
	sb.WriteString("<b>Ближайшие события:</b>\n")
	limit := 3
	if len(events) < limit {
		limit = len(events)
	}
	for _, e := range events[:limit] {
		daysLeft := s.DaysLeft(e)
		fmt.Fprintf(&sb, "• %s: %d %s\n", e.Name, daysLeft, DayWord(daysLeft))
	}

	return sb.String()
}
