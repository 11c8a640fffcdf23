package domain

import (
	"testing"
	"time"
)

func TestDaysUntil(t *testing.T) {
	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	cases := []struct {
		name   string
		target time.Time
		today  time.Time
		want   int
	}{
		{"same day", date(2026, 3, 10), date(2026, 3, 10), 0},
		{"tomorrow", date(2026, 3, 11), date(2026, 3, 10), 1},
		{"past", date(2026, 3, 9), date(2026, 3, 10), -1},
		{"month boundary", date(2026, 4, 2), date(2026, 3, 30), 3},
		{"year boundary", date(2027, 1, 1), date(2026, 12, 30), 2},
		{"leap february", date(2028, 3, 1), date(2028, 2, 28), 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DaysUntil(tc.target, tc.today); got != tc.want {
				t.Errorf("DaysUntil(%v, %v) = %d, want %d", tc.target, tc.today, got, tc.want)
			}
		})
	}
}

func TestCivilDate(t *testing.T) {
	moscow, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// 23:30 UTC is already the next day in Moscow (UTC+3).
	instant := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	got := CivilDate(instant, moscow)
	want := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("CivilDate = %v, want %v", got, want)
	}

	if got := CivilDate(instant, time.UTC); !got.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("CivilDate in UTC = %v", got)
	}
}

func TestParseTargetDate(t *testing.T) {
	got, err := ParseTargetDate("25.12.2026")
	if err != nil {
		t.Fatalf("ParseTargetDate: %v", err)
	}
	want := time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseTargetDate = %v, want %v", got, want)
	}

	for _, bad := range []string{"2026-12-25", "25/12/2026", "32.01.2026", "25.13.2026", "tomorrow", ""} {
		if _, err := ParseTargetDate(bad); err == nil {
			t.Errorf("ParseTargetDate(%q) expected error", bad)
		}
	}
}

func TestFormatTargetDate(t *testing.T) {
	d := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	if got := FormatTargetDate(d); got != "05.01.2026" {
		t.Errorf("FormatTargetDate = %q", got)
	}
}

func TestShortID(t *testing.T) {
	e := &Event{ID: "6ba7b810-9dad-11d1-80b4-00c04fd430c8"}
	if got := e.ShortID(); got != "6ba7b810" {
		t.Errorf("ShortID = %q", got)
	}

	e = &Event{ID: "short"}
	if got := e.ShortID(); got != "short" {
		t.Errorf("ShortID = %q", got)
	}
}
