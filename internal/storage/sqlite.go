package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/tazhate/countdownbot/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

type Storage struct {
	db *sql.DB
}

func New(dbPath string) (*Storage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			chat_id INTEGER NOT NULL,
			creator_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			target_date TEXT NOT NULL,
			notification_time TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			thread_id INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS sent_notifications (
			event_id TEXT NOT NULL,
			notification_date TEXT NOT NULL,
			PRIMARY KEY (event_id, notification_date),
			FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_chat_id ON events(chat_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_active ON events(is_active)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// Даты и время храним текстом, разбор в domain-типы в одном месте.
const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

func scanEvent(row interface{ Scan(...any) error }) (*domain.Event, error) {
	e := &domain.Event{}
	var targetDate, notifyAt string
	err := row.Scan(&e.ID, &e.ChatID, &e.CreatorID, &e.Name, &targetDate, &notifyAt, &e.Active, &e.CreatedAt, &e.ThreadID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	d, err := time.Parse(dateLayout, targetDate)
	if err != nil {
		return nil, fmt.Errorf("corrupt target_date %q for event %s: %w", targetDate, e.ID, err)
	}
	e.TargetDate = d
	t, err := domain.ParseTimeOfDay(notifyAt)
	if err != nil {
		return nil, fmt.Errorf("corrupt notification_time %q for event %s: %w", notifyAt, e.ID, err)
	}
	e.NotifyAt = t
	return e, nil
}

const eventColumns = `id, chat_id, creator_id, name, target_date, notification_time, is_active, created_at, thread_id`

// === Events ===

// CreateEvent assigns a fresh id and persists the event as active.
func (s *Storage) CreateEvent(e *domain.Event) error {
	e.ID = uuid.NewString()
	e.Active = true
	e.CreatedAt = time.Now()

	_, err := s.db.Exec(
		`INSERT INTO events (id, chat_id, creator_id, name, target_date, notification_time, is_active, created_at, thread_id)
		 VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		e.ID, e.ChatID, e.CreatorID, e.Name,
		e.TargetDate.Format(dateLayout), e.NotifyAt.String(),
		e.CreatedAt, e.ThreadID,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *Storage) GetEvent(id string) (*domain.Event, error) {
	row := s.db.QueryRow(`SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	return scanEvent(row)
}

func (s *Storage) listEvents(query string, args ...any) ([]*domain.Event, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *Storage) ListActiveEventsByChat(chatID int64) ([]*domain.Event, error) {
	return s.listEvents(
		`SELECT `+eventColumns+` FROM events WHERE chat_id = ? AND is_active = 1 ORDER BY target_date ASC`,
		chatID,
	)
}

func (s *Storage) ListActiveEventsByChatAndUser(chatID, userID int64) ([]*domain.Event, error) {
	return s.listEvents(
		`SELECT `+eventColumns+` FROM events WHERE chat_id = ? AND creator_id = ? AND is_active = 1 ORDER BY target_date ASC`,
		chatID, userID,
	)
}

// ListAllActiveEvents is the scheduler's per-tick scan.
func (s *Storage) ListAllActiveEvents() ([]*domain.Event, error) {
	return s.listEvents(`SELECT ` + eventColumns + ` FROM events WHERE is_active = 1`)
}

// FindEventByPrefix resolves the short id shown to users. Scoped to the
// chat and creator so one user cannot guess at another's events.
func (s *Storage) FindEventByPrefix(chatID, userID int64, prefix string) (*domain.Event, error) {
	row := s.db.QueryRow(
		`SELECT `+eventColumns+` FROM events WHERE chat_id = ? AND creator_id = ? AND id LIKE ? AND is_active = 1`,
		chatID, userID, prefix+"%",
	)
	return scanEvent(row)
}

// FindEventByPrefixInChat is the privileged variant: any creator, same chat.
func (s *Storage) FindEventByPrefixInChat(chatID int64, prefix string) (*domain.Event, error) {
	row := s.db.QueryRow(
		`SELECT `+eventColumns+` FROM events WHERE chat_id = ? AND id LIKE ? AND is_active = 1`,
		chatID, prefix+"%",
	)
	return scanEvent(row)
}

// DeleteEvent removes the event and, via the FK cascade, its delivery
// receipts. When requesterID is non-nil the delete only applies if that
// user created the event. Returns whether a row was actually removed.
func (s *Storage) DeleteEvent(id string, requesterID *int64) (bool, error) {
	var res sql.Result
	var err error
	if requesterID != nil {
		res, err = s.db.Exec(`DELETE FROM events WHERE id = ? AND creator_id = ?`, id, *requesterID)
	} else {
		res, err = s.db.Exec(`DELETE FROM events WHERE id = ?`, id)
	}
	if err != nil {
		return false, fmt.Errorf("delete event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeactivateEvent is idempotent: deactivating an inactive event is a no-op.
func (s *Storage) DeactivateEvent(id string) error {
	_, err := s.db.Exec(`UPDATE events SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate event: %w", err)
	}
	return nil
}

// === Delivery receipts ===

// RecordDelivery notes that the event's notification went out on the given
// calendar date. INSERT OR IGNORE keeps it idempotent under duplicate and
// concurrent calls for the same key.
func (s *Storage) RecordDelivery(eventID string, date time.Time) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO sent_notifications (event_id, notification_date) VALUES (?, ?)`,
		eventID, date.Format(dateLayout),
	)
	if err != nil {
		return fmt.Errorf("record delivery: %w", err)
	}
	return nil
}

func (s *Storage) WasDeliveredOn(eventID string, date time.Time) (bool, error) {
	var one int
	err := s.db.QueryRow(
		`SELECT 1 FROM sent_notifications WHERE event_id = ? AND notification_date = ?`,
		eventID, date.Format(dateLayout),
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
