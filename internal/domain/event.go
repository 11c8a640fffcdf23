package domain

import (
	"fmt"
	"time"
)

// MaxNameLength ограничивает название события.
const MaxNameLength = 100

// MaxYearsAhead ограничивает дату события (не дальше 5 лет вперёд).
const MaxYearsAhead = 5

// Event is a countdown towards a target calendar date, owned by its
// creator and scoped to one chat. TargetDate carries only the date
// component (midnight UTC); NotifyAt is the daily notification time in the
// configured zone.
type Event struct {
	ID         string
	ChatID     int64
	CreatorID  int64
	Name       string
	TargetDate time.Time
	NotifyAt   TimeOfDay
	Active     bool
	CreatedAt  time.Time
	ThreadID   int // topic id in forum supergroups, 0 = none
}

// ShortID returns the 8-char prefix shown to users in lists and /delete.
func (e *Event) ShortID() string {
	if len(e.ID) <= 8 {
		return e.ID
	}
	return e.ID[:8]
}

// CivilDate truncates t to its calendar date in loc, normalized to
// midnight UTC so that day arithmetic is unaffected by DST.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysUntil returns the integer day difference target − today. Both
// arguments must be civil dates (see CivilDate).
func DaysUntil(target, today time.Time) int {
	return int(target.Sub(today) / (24 * time.Hour))
}

// ParseTargetDate parses the user-facing ДД.ММ.ГГГГ form into a civil date.
func ParseTargetDate(s string) (time.Time, error) {
	t, err := time.Parse("02.01.2006", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse target date %q: %w", s, err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// FormatTargetDate renders a civil date back into the user-facing form.
func FormatTargetDate(d time.Time) string {
	return d.Format("02.01.2006")
}
