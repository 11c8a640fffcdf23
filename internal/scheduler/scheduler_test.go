package scheduler

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tazhate/countdownbot/config"
	"github.com/tazhate/countdownbot/internal/delivery"
	"github.com/tazhate/countdownbot/internal/domain"
	"github.com/tazhate/countdownbot/internal/service"
	"github.com/tazhate/countdownbot/internal/storage"
)

// fakeSender records sends and fails with a configurable error.
type fakeSender struct {
	sent    []delivery.Destination
	texts   []string
	failErr error
}

func (f *fakeSender) Send(dest delivery.Destination, text string) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.sent = append(f.sent, dest)
	f.texts = append(f.texts, text)
	return nil
}

func newTestScheduler(t *testing.T) (*Scheduler, *storage.Storage, *fakeSender) {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{Timezone: time.UTC}
	svc := service.NewEventService(store, time.UTC)
	sender := &fakeSender{}

	s := New(cfg, store, svc)
	s.SetSender(sender)
	return s, store, sender
}

// at pins the scheduler clock to the given instant.
func at(s *Scheduler, t time.Time) {
	s.now = func() time.Time { return t }
}

func mustCreate(t *testing.T, store *storage.Storage, e *domain.Event) *domain.Event {
	t.Helper()
	if err := store.CreateEvent(e); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	return e
}

func TestTickMatchesMinute(t *testing.T) {
	s, store, sender := newTestScheduler(t)

	mustCreate(t, store, &domain.Event{
		ChatID:     100,
		CreatorID:  1,
		Name:       "Отпуск",
		TargetDate: time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		NotifyAt:   domain.TimeOfDay{Hour: 9, Minute: 0},
		ThreadID:   5,
	})

	// Чужая минута — тишина.
	at(s, time.Date(2026, 9, 1, 8, 59, 30, 0, time.UTC))
	s.tick()
	if len(sender.sent) != 0 {
		t.Fatalf("sent at wrong minute: %+v", sender.sent)
	}

	at(s, time.Date(2026, 9, 1, 9, 0, 30, 0, time.UTC))
	s.tick()
	if len(sender.sent) != 1 {
		t.Fatalf("got %d sends, want 1", len(sender.sent))
	}
	if sender.sent[0] != (delivery.Destination{ChatID: 100, ThreadID: 5}) {
		t.Errorf("destination = %+v", sender.sent[0])
	}
	if !strings.Contains(sender.texts[0], "9 дней") {
		t.Errorf("countdown text wrong: %q", sender.texts[0])
	}
}

func TestAtMostOncePerDay(t *testing.T) {
	s, store, sender := newTestScheduler(t)

	e := mustCreate(t, store, &domain.Event{
		ChatID:     100,
		CreatorID:  1,
		Name:       "Релиз",
		TargetDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		NotifyAt:   domain.TimeOfDay{Hour: 12, Minute: 0},
	})

	at(s, time.Date(2026, 9, 1, 12, 0, 10, 0, time.UTC))
	s.tick()
	s.tick()
	if len(sender.sent) != 1 {
		t.Fatalf("same-minute double tick sent %d times, want 1", len(sender.sent))
	}

	sent, err := store.WasDeliveredOn(e.ID, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	if err != nil || !sent {
		t.Fatalf("receipt missing: %v, %v", sent, err)
	}

	// Следующий день — новая доставка.
	at(s, time.Date(2026, 9, 2, 12, 0, 10, 0, time.UTC))
	s.tick()
	if len(sender.sent) != 2 {
		t.Errorf("next day sent %d times total, want 2", len(sender.sent))
	}
}

func TestExpiredEventDeactivatedSilently(t *testing.T) {
	s, store, sender := newTestScheduler(t)

	e := mustCreate(t, store, &domain.Event{
		ChatID:     100,
		CreatorID:  1,
		Name:       "Прошлое",
		TargetDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		NotifyAt:   domain.TimeOfDay{Hour: 9, Minute: 0},
	})

	at(s, time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC))
	s.tick()

	if len(sender.sent) != 0 {
		t.Errorf("expired event was announced: %+v", sender.texts)
	}
	got, err := store.GetEvent(e.ID)
	if err != nil || got == nil {
		t.Fatalf("GetEvent: %v, %v", got, err)
	}
	if got.Active {
		t.Error("expired event still active")
	}
}

func TestEventDayDeliversThenDeactivates(t *testing.T) {
	s, store, sender := newTestScheduler(t)

	e := mustCreate(t, store, &domain.Event{
		ChatID:     100,
		CreatorID:  1,
		Name:       "Сегодня",
		TargetDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		NotifyAt:   domain.TimeOfDay{Hour: 9, Minute: 0},
	})

	at(s, time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC))
	s.tick()

	if len(sender.sent) != 1 {
		t.Fatalf("got %d sends, want 1", len(sender.sent))
	}
	if !strings.Contains(sender.texts[0], "СЕГОДНЯ ДЕНЬ СОБЫТИЯ") {
		t.Errorf("day-zero text wrong: %q", sender.texts[0])
	}

	got, err := store.GetEvent(e.ID)
	if err != nil || got == nil {
		t.Fatalf("GetEvent: %v, %v", got, err)
	}
	if got.Active {
		t.Error("event should deactivate after its final delivery")
	}
}

func TestUnreachableChatDeactivates(t *testing.T) {
	s, store, sender := newTestScheduler(t)

	e := mustCreate(t, store, &domain.Event{
		ChatID:     100,
		CreatorID:  1,
		Name:       "Заблокирован",
		TargetDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		NotifyAt:   domain.TimeOfDay{Hour: 9, Minute: 0},
	})
	sender.failErr = delivery.Unreachable(errors.New("bot was blocked by the user"))

	at(s, time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC))
	s.tick()

	got, err := store.GetEvent(e.ID)
	if err != nil || got == nil {
		t.Fatalf("GetEvent: %v, %v", got, err)
	}
	if got.Active {
		t.Error("unreachable chat should deactivate the event")
	}

	// Квитанции нет: доставки не было.
	sent, err := store.WasDeliveredOn(e.ID, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("WasDeliveredOn: %v", err)
	}
	if sent {
		t.Error("failed send must not leave a receipt")
	}
}

func TestTransientFailureKeepsEventActive(t *testing.T) {
	s, store, sender := newTestScheduler(t)

	e := mustCreate(t, store, &domain.Event{
		ChatID:     100,
		CreatorID:  1,
		Name:       "Сбой сети",
		TargetDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		NotifyAt:   domain.TimeOfDay{Hour: 9, Minute: 0},
	})
	sender.failErr = delivery.Transient(errors.New("telegram: 502"))

	at(s, time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC))
	s.tick()

	got, err := store.GetEvent(e.ID)
	if err != nil || got == nil {
		t.Fatalf("GetEvent: %v, %v", got, err)
	}
	if !got.Active {
		t.Error("transient failure must not deactivate the event")
	}

	// Сеть ожила — следующий совпавший тик доставляет.
	sender.failErr = nil
	s.tick()
	if len(sender.sent) != 1 {
		t.Errorf("retry after transient failure sent %d times, want 1", len(sender.sent))
	}
}

func TestNilSenderTickIsNoop(t *testing.T) {
	s, store, _ := newTestScheduler(t)
	s.sender = nil

	mustCreate(t, store, &domain.Event{
		ChatID:     100,
		CreatorID:  1,
		Name:       "Без транспорта",
		TargetDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		NotifyAt:   domain.TimeOfDay{Hour: 9, Minute: 0},
	})

	at(s, time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC))
	s.tick() // не должен паниковать и что-либо менять

	events, err := store.ListAllActiveEvents()
	if err != nil {
		t.Fatalf("ListAllActiveEvents: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("nil-sender tick touched the store: %+v", events)
	}
}
