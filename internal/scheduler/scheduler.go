package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tazhate/countdownbot/config"
	"github.com/tazhate/countdownbot/internal/delivery"
	"github.com/tazhate/countdownbot/internal/domain"
	"github.com/tazhate/countdownbot/internal/service"
	"github.com/tazhate/countdownbot/internal/storage"
)

// Scheduler wakes once a minute, scans the active events and delivers the
// countdown for every event whose notification time matches the current
// minute. Matching is exact: a missed minute is simply missed, there is no
// catch-up. The delivery receipt in the store guarantees at most one send
// per event per calendar day.
type Scheduler struct {
	cron    *cron.Cron
	cfg     *config.Config
	storage *storage.Storage
	events  *service.EventService
	sender  delivery.Sender
	now     func() time.Time
}

func New(cfg *config.Config, storage *storage.Storage, eventSvc *service.EventService) *Scheduler {
	c := cron.New(cron.WithLocation(cfg.Timezone))

	return &Scheduler{
		cron:    c,
		cfg:     cfg,
		storage: storage,
		events:  eventSvc,
		now:     time.Now,
	}
}

func (s *Scheduler) SetSender(sender delivery.Sender) {
	s.sender = sender
}

func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc("* * * * *", s.tick); err != nil {
		return fmt.Errorf("add notification tick: %w", err)
	}

	s.cron.Start()
	log.Printf("Scheduler started (TZ: %s)", s.cfg.Timezone)

	<-ctx.Done()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Scheduler stopped")
}

// tick is one scan over the active set. Errors are logged per event and
// never stop the remaining events, and a failed tick never kills the loop.
func (s *Scheduler) tick() {
	if s.sender == nil {
		return
	}

	now := s.now().In(s.cfg.Timezone)
	minute := domain.TimeOfDay{Hour: now.Hour(), Minute: now.Minute()}
	today := domain.CivilDate(now, s.cfg.Timezone)

	events, err := s.storage.ListAllActiveEvents()
	if err != nil {
		log.Printf("Error listing active events: %v", err)
		return
	}

	for _, e := range events {
		if e.NotifyAt != minute {
			continue
		}
		s.notify(e, today)
	}
}

func (s *Scheduler) notify(e *domain.Event, today time.Time) {
	sent, err := s.storage.WasDeliveredOn(e.ID, today)
	if err != nil {
		log.Printf("Error checking delivery for event %s: %v", e.ID, err)
		return
	}
	if sent {
		return
	}

	daysLeft := domain.DaysUntil(e.TargetDate, today)
	if daysLeft < 0 {
		// Событие прошло — молча снимаем с учёта.
		if err := s.storage.DeactivateEvent(e.ID); err != nil {
			log.Printf("Error deactivating expired event %s: %v", e.ID, err)
		}
		return
	}

	dest := delivery.Destination{ChatID: e.ChatID, ThreadID: e.ThreadID}
	text := s.events.FormatCountdown(e, daysLeft)

	if err := s.sender.Send(dest, text); err != nil {
		log.Printf("Error sending notification for event %s to chat %d: %v", e.ID, e.ChatID, err)
		if delivery.IsUnreachable(err) {
			if err := s.storage.DeactivateEvent(e.ID); err != nil {
				log.Printf("Error deactivating unreachable event %s: %v", e.ID, err)
			}
		}
		// Transient failure: no receipt recorded, the event stays active
		// and the next minute-match retries.
		return
	}

	if err := s.storage.RecordDelivery(e.ID, today); err != nil {
		log.Printf("Error recording delivery for event %s: %v", e.ID, err)
	}

	if daysLeft == 0 {
		// Сегодня последний день отсчёта.
		if err := s.storage.DeactivateEvent(e.ID); err != nil {
			log.Printf("Error deactivating finished event %s: %v", e.ID, err)
		}
	}
}
