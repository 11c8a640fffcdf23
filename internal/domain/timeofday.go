package domain

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock hour:minute without a date. Events keep it
// structured; only the storage layer serialises it to "15:04" text.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM". The hour may be a single digit ("9:00"
// is 09:00); anything beyond the minute is an error.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}
