package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tazhate/countdownbot/internal/domain"
	"github.com/tazhate/countdownbot/internal/storage"
)

// Ошибки валидации шагов создания; текст для пользователя собирает
// conversation по этим значениям.
var (
	ErrNameEmpty     = errors.New("event name is empty")
	ErrNameTooLong   = errors.New("event name too long")
	ErrBadDate       = errors.New("unparseable date")
	ErrDateNotFuture = errors.New("date is not in the future")
	ErrDateTooFar    = errors.New("date is more than 5 years ahead")
	ErrBadTime       = errors.New("unparseable time")
)

type EventService struct {
	storage  *storage.Storage
	timezone *time.Location
}

func NewEventService(s *storage.Storage, tz *time.Location) *EventService {
	return &EventService{
		storage:  s,
		timezone: tz,
	}
}

// Today returns the current civil date in the configured zone.
func (s *EventService) Today() time.Time {
	return domain.CivilDate(time.Now(), s.timezone)
}

// ValidateName checks the length bound. Leading/trailing space is not the
// user's problem, so the trimmed name is returned.
func (s *EventService) ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameEmpty
	}
	if utf8.RuneCountInString(name) > domain.MaxNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}

// ParseDate parses ДД.ММ.ГГГГ and enforces the creation bounds: strictly
// after today and no more than 5 years ahead.
func (s *EventService) ParseDate(text string) (time.Time, error) {
	target, err := domain.ParseTargetDate(strings.TrimSpace(text))
	if err != nil {
		return time.Time{}, ErrBadDate
	}
	today := s.Today()
	if !target.After(today) {
		return time.Time{}, ErrDateNotFuture
	}
	if target.After(today.AddDate(domain.MaxYearsAhead, 0, 0)) {
		return time.Time{}, ErrDateTooFar
	}
	return target, nil
}

// ParseTime parses the HH:MM notification time.
func (s *EventService) ParseTime(text string) (domain.TimeOfDay, error) {
	t, err := domain.ParseTimeOfDay(strings.TrimSpace(text))
	if err != nil {
		return domain.TimeOfDay{}, ErrBadTime
	}
	return t, nil
}

// Create persists a fully validated event. Validation happened per step,
// so a failure here is a storage failure, not a user mistake.
func (s *EventService) Create(e *domain.Event) error {
	if err := s.storage.CreateEvent(e); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *EventService) ListChat(chatID int64) ([]*domain.Event, error) {
	return s.storage.ListActiveEventsByChat(chatID)
}

func (s *EventService) ListOwn(chatID, userID int64) ([]*domain.Event, error) {
	return s.storage.ListActiveEventsByChatAndUser(chatID, userID)
}

// DeleteByPrefix resolves the short id and deletes the event. Without the
// privileged flag both the lookup and the delete are scoped to the
// requesting creator. Returns the deleted event, or found=false.
func (s *EventService) DeleteByPrefix(chatID, userID int64, prefix string, privileged bool) (*domain.Event, bool, error) {
	var (
		event *domain.Event
		err   error
	)
	if privileged {
		event, err = s.storage.FindEventByPrefixInChat(chatID, prefix)
	} else {
		event, err = s.storage.FindEventByPrefix(chatID, userID, prefix)
	}
	if err != nil {
		return nil, false, fmt.Errorf("find event: %w", err)
	}
	if event == nil {
		return nil, false, nil
	}
	return s.deleteResolved(event, userID, privileged)
}

// DeleteByID handles the selection-keyboard path where the full id is known.
func (s *EventService) DeleteByID(eventID string, userID int64, privileged bool) (*domain.Event, bool, error) {
	event, err := s.storage.GetEvent(eventID)
	if err != nil {
		return nil, false, fmt.Errorf("get event: %w", err)
	}
	if event == nil {
		return nil, false, nil
	}
	return s.deleteResolved(event, userID, privileged)
}

func (s *EventService) deleteResolved(event *domain.Event, userID int64, privileged bool) (*domain.Event, bool, error) {
	requester := &userID
	if privileged {
		requester = nil
	}
	removed, err := s.storage.DeleteEvent(event.ID, requester)
	if err != nil {
		return nil, false, fmt.Errorf("delete event: %w", err)
	}
	if !removed {
		return nil, false, nil
	}
	return event, true, nil
}

// DaysLeft computes the countdown for an event as of now.
func (s *EventService) DaysLeft(e *domain.Event) int {
	return domain.DaysUntil(e.TargetDate, s.Today())
}
