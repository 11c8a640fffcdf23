// Package conversation implements the multi-step event creation dialogue:
// an independent state machine per (chat, user) pair that collects name,
// date and notification time before anything touches the store.
package conversation

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tazhate/countdownbot/internal/domain"
	"github.com/tazhate/countdownbot/internal/service"
)

type State int

const (
	StateIdle State = iota
	StateAwaitingName
	StateAwaitingDate
	StateAwaitingTime
)

// Choice is an interactive option attached to a reply. How it is rendered
// (inline keyboard, menu) is the transport's concern.
type Choice struct {
	Label string
	Data  string
}

// Reply is the transport-neutral response to one conversation step.
type Reply struct {
	Text    string
	Choices []Choice
}

// Draft accumulates the event fields across steps. It lives only in
// memory: the store sees a complete event or nothing.
type Draft struct {
	ChatID     int64
	CreatorID  int64
	ThreadID   int
	Name       string
	TargetDate time.Time
}

// Заброшенные диалоги выкидываем при следующем обращении.
const sessionTTL = 30 * time.Minute

// PresetTimes are the quick-pick notification times offered after the date
// step. Free-form HH:MM input is accepted as well.
var PresetTimes = []string{"09:00", "12:00", "15:00", "18:00", "20:00"}

type sessionKey struct {
	ChatID int64
	UserID int64
}

type session struct {
	mu      sync.Mutex
	state   State
	draft   Draft
	touched time.Time
}

type Manager struct {
	mu       sync.Mutex
	sessions map[sessionKey]*session
	events   *service.EventService
}

func NewManager(events *service.EventService) *Manager {
	return &Manager{
		sessions: make(map[sessionKey]*session),
		events:   events,
	}
}

// lookup returns the live session for the pair, creating one when asked.
// Expired sessions count as absent.
func (m *Manager) lookup(chatID, userID int64, create bool) *session {
	key := sessionKey{ChatID: chatID, UserID: userID}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[key]
	if ok && time.Since(s.touched) > sessionTTL {
		delete(m.sessions, key)
		s, ok = nil, false
	}
	if !ok && create {
		s = &session{state: StateIdle}
		m.sessions[key] = s
	}
	return s
}

func (m *Manager) drop(chatID, userID int64) {
	m.mu.Lock()
	delete(m.sessions, sessionKey{ChatID: chatID, UserID: userID})
	m.mu.Unlock()
}

// State reports the pair's current state; Idle when no session exists.
func (m *Manager) State(chatID, userID int64) State {
	s := m.lookup(chatID, userID, false)
	if s == nil {
		return StateIdle
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Active reports whether a creation dialogue is in progress.
func (m *Manager) Active(chatID, userID int64) bool {
	return m.State(chatID, userID) != StateIdle
}

// Begin starts (or restarts) the creation dialogue.
func (m *Manager) Begin(chatID, userID int64, threadID int) *Reply {
	s := m.lookup(chatID, userID, true)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateAwaitingName
	s.draft = Draft{ChatID: chatID, CreatorID: userID, ThreadID: threadID}
	s.touched = time.Now()

	return &Reply{Text: "<b>Создание нового отсчёта</b>\n\n" +
		"Введите название события:\nНапример: <i>Отпуск в горах</i>"}
}

// SubmitName handles the AwaitingName step.
func (m *Manager) SubmitName(chatID, userID int64, text string) *Reply {
	s := m.lookup(chatID, userID, false)
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAwaitingName {
		return nil
	}
	s.touched = time.Now()

	name, err := m.events.ValidateName(text)
	switch {
	case errors.Is(err, service.ErrNameEmpty):
		return &Reply{Text: "Название не может быть пустым. Введите название события:"}
	case err != nil:
		return &Reply{Text: fmt.Sprintf("Название слишком длинное. Максимум %d символов. Введите снова:", domain.MaxNameLength)}
	}

	s.draft.Name = name
	s.state = StateAwaitingDate

	return &Reply{Text: "<b>Введите дату события</b>\n\n" +
		"Формат: <i>ДД.ММ.ГГГГ</i>\nПример: <i>25.12.2026</i>\n\n" +
		"Минимальная дата: завтра\nМаксимальная: 5 лет вперёд"}
}

// SubmitDate handles the AwaitingDate step.
func (m *Manager) SubmitDate(chatID, userID int64, text string) *Reply {
	s := m.lookup(chatID, userID, false)
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAwaitingDate {
		return nil
	}
	s.touched = time.Now()

	target, err := m.events.ParseDate(text)
	switch {
	case errors.Is(err, service.ErrBadDate):
		return &Reply{Text: "Неверный формат даты! Используйте ДД.ММ.ГГГГ\nПопробуйте ещё раз:"}
	case errors.Is(err, service.ErrDateNotFuture):
		return &Reply{Text: "Дата должна быть в будущем! Введите другую дату:"}
	case errors.Is(err, service.ErrDateTooFar):
		return &Reply{Text: "Дата не может быть больше 5 лет вперёд. Введите другую дату:"}
	case err != nil:
		return &Reply{Text: "Не получилось разобрать дату. Попробуйте ещё раз:"}
	}

	s.draft.TargetDate = target
	s.state = StateAwaitingTime

	return &Reply{
		Text: "<b>Выберите время для ежедневных уведомлений</b>\n\n" +
			"Сообщения будут приходить каждый день в это время.",
		Choices: timeChoices(),
	}
}

// SubmitTime handles the AwaitingTime step: either a preset choice or
// free-form HH:MM text. On success the draft becomes a stored event and
// the session ends.
func (m *Manager) SubmitTime(chatID, userID int64, text string) *Reply {
	s := m.lookup(chatID, userID, false)
	if s == nil {
		return &Reply{Text: "Нет активного создания отсчёта. Начните с /new"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAwaitingTime {
		return &Reply{Text: "Нет активного создания отсчёта. Начните с /new"}
	}
	s.touched = time.Now()

	notifyAt, err := m.events.ParseTime(text)
	if err != nil {
		return &Reply{Text: "<b>Неверный формат времени!</b>\n\n" +
			"Используйте формат <i>ЧЧ:ММ</i>\nПримеры: <i>09:00</i>, <i>14:30</i>, <i>23:59</i>\n\n" +
			"Попробуйте ещё раз:"}
	}

	event := &domain.Event{
		ChatID:     s.draft.ChatID,
		CreatorID:  s.draft.CreatorID,
		ThreadID:   s.draft.ThreadID,
		Name:       s.draft.Name,
		TargetDate: s.draft.TargetDate,
		NotifyAt:   notifyAt,
	}

	if err := m.events.Create(event); err != nil {
		// Диалог не сбрасываем: пользователь может повторить время.
		log.Printf("Error creating event for chat %d: %v", chatID, err)
		return &Reply{Text: "⚠️ Не удалось сохранить отсчёт, попробуйте ещё раз."}
	}

	s.state = StateIdle
	s.draft = Draft{}
	m.drop(chatID, userID)

	return &Reply{Text: m.events.FormatCreated(event)}
}

// CustomTimePrompt is the reply to the "other time" preset choice; the
// state stays AwaitingTime and the next text input is parsed as HH:MM.
func (m *Manager) CustomTimePrompt(chatID, userID int64) *Reply {
	s := m.lookup(chatID, userID, false)
	if s == nil {
		return &Reply{Text: "Нет активного создания отсчёта. Начните с /new"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAwaitingTime {
		return &Reply{Text: "Нет активного создания отсчёта. Начните с /new"}
	}
	s.touched = time.Now()

	return &Reply{Text: "⌨️ <b>Введите время вручную</b>\n\n" +
		"Формат: <i>ЧЧ:ММ</i>\nПример: <i>09:30</i>, <i>14:15</i>\n\n" +
		"Время должно быть от 00:00 до 23:59"}
}

// Cancel abandons the dialogue from any state, discarding the draft.
func (m *Manager) Cancel(chatID, userID int64) *Reply {
	s := m.lookup(chatID, userID, false)
	if s == nil {
		return &Reply{Text: "Нечего отменять."}
	}
	m.drop(chatID, userID)
	return &Reply{Text: "Создание отсчёта отменено."}
}

// HandleText routes free text to the step the conversation is waiting on.
// Returns nil when the pair has no active dialogue.
func (m *Manager) HandleText(chatID, userID int64, text string) *Reply {
	switch m.State(chatID, userID) {
	case StateAwaitingName:
		return m.SubmitName(chatID, userID, text)
	case StateAwaitingDate:
		return m.SubmitDate(chatID, userID, text)
	case StateAwaitingTime:
		return m.SubmitTime(chatID, userID, text)
	default:
		return nil
	}
}

func timeChoices() []Choice {
	choices := make([]Choice, 0, len(PresetTimes)+1)
	for _, t := range PresetTimes {
		choices = append(choices, Choice{Label: t, Data: "time:" + t})
	}
	choices = append(choices, Choice{Label: "Другое", Data: "time:custom"})
	return choices
}
